// Package dto はmarketフィーチャーのレスポンスDTOを定義します。
package dto

import (
	"time"

	"demotrade_backend/internal/feature/market/domain/entity"
)

// CandleResponse はローソク足のレスポンスDTOです。
type CandleResponse struct {
	Time  string  `json:"time"`  // 開始時刻（RFC3339）
	Unix  int64   `json:"unix"`  // 開始時刻（UNIX秒）
	Open  float64 `json:"open"`  // 始値
	High  float64 `json:"high"`  // 高値
	Low   float64 `json:"low"`   // 安値
	Close float64 `json:"close"` // 終値
}

// RoundResponse はラウンドのレスポンスDTOです。
type RoundResponse struct {
	Number           int64  `json:"number"`
	StartTime        string `json:"start_time"`
	DurationSeconds  int    `json:"duration_seconds"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// SnapshotResponse は銘柄の現在状態のレスポンスDTOです。
type SnapshotResponse struct {
	Symbol        string         `json:"symbol"`
	Price         float64        `json:"price"`
	Change        float64        `json:"change"`
	ChangePercent float64        `json:"change_percent"`
	High24h       float64        `json:"high_24h"`
	Low24h        float64        `json:"low_24h"`
	Current       CandleResponse `json:"current"`
	Round         RoundResponse  `json:"round"`
}

// StreamMessage はWebSocketで配信するメッセージです。
type StreamMessage struct {
	Type      string         `json:"type"` // "snapshot", "tick", "settle"
	Symbol    string         `json:"symbol"`
	Price     float64        `json:"price"`
	Candle    CandleResponse `json:"candle"`
	Round     RoundResponse  `json:"round"`
	Direction string         `json:"direction,omitempty"`
}

// NewCandleResponse はエンティティをDTOに変換します。
func NewCandleResponse(c entity.Candle) CandleResponse {
	return CandleResponse{
		Time:  c.OpenTime.UTC().Format(time.RFC3339),
		Unix:  c.OpenTime.Unix(),
		Open:  c.Open,
		High:  c.High,
		Low:   c.Low,
		Close: c.Close,
	}
}

// NewRoundResponse はエンティティをDTOに変換します。
func NewRoundResponse(r entity.Round) RoundResponse {
	return RoundResponse{
		Number:           r.Number,
		StartTime:        r.StartTime.UTC().Format(time.RFC3339),
		DurationSeconds:  int(r.Duration / time.Second),
		RemainingSeconds: int(r.Remaining / time.Second),
	}
}

// NewSnapshotResponse はスナップショットをDTOに変換します。
func NewSnapshotResponse(s entity.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		Symbol:        s.Symbol,
		Price:         s.Stats.Price,
		Change:        s.Stats.Change,
		ChangePercent: s.Stats.ChangePercent,
		High24h:       s.Stats.High24h,
		Low24h:        s.Stats.Low24h,
		Current:       NewCandleResponse(s.Current),
		Round:         NewRoundResponse(s.Round),
	}
}
