// Package router wires HTTP handlers into the gin engine.
package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	markethandler "demotrade_backend/internal/feature/market/transport/handler"
	"demotrade_backend/internal/feature/market/transport/stream"
	sessionhandler "demotrade_backend/internal/feature/session/transport/handler"
	symbollisthandler "demotrade_backend/internal/feature/symbollist/transport/handler"
	wallethandler "demotrade_backend/internal/feature/wallet/transport/handler"
	platformhandler "demotrade_backend/internal/platform/http/handler"
	jwtmw "demotrade_backend/internal/platform/jwt"
)

// Handlers groups every HTTP handler served by the API.
type Handlers struct {
	Health  *platformhandler.HealthHandler
	Symbol  *symbollisthandler.SymbolHandler
	Market  *markethandler.MarketHandler
	Stream  *stream.Hub
	Session *sessionhandler.SessionHandler
	Wallet  *wallethandler.WalletHandler
}

// Options controls router-wide middleware.
type Options struct {
	// AllowAllOrigins enables permissive CORS for browser clients served from another origin.
	AllowAllOrigins bool
}

func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if opts.AllowAllOrigins {
		cfg := cors.DefaultConfig()
		cfg.AllowAllOrigins = true
		cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
		r.Use(cors.New(cfg))
	}

	// 認証不要
	// 導通確認用
	r.GET("/healthz", h.Health.Health)
	r.HEAD("/healthz", h.Health.Health)
	// 銘柄一覧
	r.GET("/symbols", h.Symbol.List)
	// チャート（スナップショット・確定足・ライブ配信）
	r.GET("/markets/:symbol", h.Market.GetSnapshot)
	r.GET("/markets/:symbol/candles", h.Market.GetCandles)
	r.GET("/markets/:symbol/stream", h.Stream.Handle)
	// デモセッション開始（JWT 発行）
	r.POST("/sessions", h.Session.Create)

	// 認証必須のルート
	// jwtmw.AuthRequired() ミドルウェアを適用
	// → リクエストヘッダーに JWT が必要になる
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired())
	{
		auth.DELETE("/sessions/current", h.Session.Delete)

		auth.GET("/wallet", h.Wallet.GetBalance)
		auth.POST("/wallet/deposit", h.Wallet.Deposit)
		auth.POST("/wallet/reset", h.Wallet.Reset)
		auth.GET("/wallet/transactions", h.Wallet.ListTransactions)

		auth.GET("/bets", h.Wallet.ListBets)
		auth.POST("/bets", h.Wallet.PlaceBet)
	}

	return r
}
