package usecase

import (
	"math/rand/v2"

	"demotrade_backend/internal/feature/wallet/domain/entity"
)

// RandomSource は [0,1) の一様乱数を返す乱数源です。
type RandomSource interface {
	Float64() float64
}

type randomFunc func() float64

func (f randomFunc) Float64() float64 { return f() }

// Resolver はベットの勝敗を決定します。
type Resolver interface {
	Decide(bet entity.Bet, exitPrice float64) entity.BetStatus
}

// priceIndependent は決済価格を使わずに勝敗を決める Resolver が実装します。
type priceIndependent interface {
	IgnoresPrice() bool
}

func ignoresPrice(r Resolver) bool {
	p, ok := r.(priceIndependent)
	return ok && p.IgnoresPrice()
}

// CoinFlipResolver は価格と無関係に公平なコイントスで勝敗を決めます。
// デモ画面の挙動をそのまま再現したもので、ベットの方向は考慮しません。
type CoinFlipResolver struct {
	rng RandomSource
}

// NewCoinFlipResolver は CoinFlipResolver を生成します。rng が nil の場合は math/rand/v2 を使用します。
func NewCoinFlipResolver(rng RandomSource) *CoinFlipResolver {
	if rng == nil {
		rng = randomFunc(rand.Float64)
	}
	return &CoinFlipResolver{rng: rng}
}

// Decide は乱数が 0.5 を超えた場合に WIN を返します。
func (r *CoinFlipResolver) Decide(entity.Bet, float64) entity.BetStatus {
	if r.rng.Float64() > 0.5 {
		return entity.BetWin
	}
	return entity.BetLose
}

// IgnoresPrice は常に true を返します。
func (r *CoinFlipResolver) IgnoresPrice() bool { return true }

// PriceDirectionResolver はエントリー価格と決済価格を比較して勝敗を決めます。
// UP は上昇、DOWN は下落で勝ち、価格が変わらなければ負けです。
type PriceDirectionResolver struct{}

// Decide はベットの方向と価格の動きが一致した場合に WIN を返します。
func (PriceDirectionResolver) Decide(bet entity.Bet, exitPrice float64) entity.BetStatus {
	switch {
	case bet.Direction == entity.DirectionUp && exitPrice > bet.OpenPrice:
		return entity.BetWin
	case bet.Direction == entity.DirectionDown && exitPrice < bet.OpenPrice:
		return entity.BetWin
	default:
		return entity.BetLose
	}
}

// NewResolver は設定されたモードに対応する Resolver を返します。
func NewResolver(mode string, rng RandomSource) Resolver {
	if mode == ResolutionPrice {
		return PriceDirectionResolver{}
	}
	return NewCoinFlipResolver(rng)
}
