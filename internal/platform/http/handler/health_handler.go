// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// probeTimeout は1つのヘルスチェックに許す最大時間です。
const probeTimeout = 2 * time.Second

// Probe は依存先の状態を確認します。正常であれば nil を返します。
type Probe func(ctx context.Context) error

// HealthHandler は /healthz を処理します。
type HealthHandler struct {
	probes map[string]Probe
}

// NewHealthHandler は名前付きのプローブを持つ HealthHandler を生成します。
func NewHealthHandler(probes map[string]Probe) *HealthHandler {
	if probes == nil {
		probes = map[string]Probe{}
	}
	return &HealthHandler{probes: probes}
}

// HealthResponse は /healthz のレスポンスです。
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health はサービスヘルスチェック用の /healthz エンドポイントを処理します。
// いずれかのプローブが失敗した場合は503を返します。キャッシュは常に無効です。
func (h *HealthHandler) Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusNoContent)
		return
	}

	res, status := h.run(c.Request.Context())
	if c.Request.Method == http.MethodHead {
		c.Status(status)
		return
	}
	c.JSON(status, res)
}

func (h *HealthHandler) run(ctx context.Context) (HealthResponse, int) {
	res := HealthResponse{Status: "ok"}
	if len(h.probes) == 0 {
		return res, http.StatusOK
	}

	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	res.Checks = make(map[string]string, len(names))
	for _, name := range names {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := h.probes[name](pctx)
		cancel()
		if err != nil {
			slog.Warn("health probe failed", "probe", name, "error", err)
			res.Checks[name] = "fail"
			res.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		res.Checks[name] = "ok"
	}
	return res, status
}
