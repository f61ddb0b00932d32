// Package adapters はwalletフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"demotrade_backend/internal/feature/wallet/domain/entity"
	"demotrade_backend/internal/feature/wallet/usecase"
)

// betGorm は決済済みベットを監査用に保存する BetRecorder の実装です。
type betGorm struct {
	db *gorm.DB
}

var _ usecase.BetRecorder = (*betGorm)(nil)

// NewBetRepository は指定されたDB接続で betGorm を生成します。
func NewBetRepository(db *gorm.DB) *betGorm {
	return &betGorm{db: db}
}

// BetModel は bets テーブルの行です。金額は文字列で保存し、精度を失わないようにします。
type BetModel struct {
	ID         string    `gorm:"primaryKey;size:36"`
	SessionID  string    `gorm:"size:36;not null;index"`
	Symbol     string    `gorm:"size:32;not null"`
	Direction  string    `gorm:"size:8;not null"`
	Status     string    `gorm:"size:8;not null"`
	Amount     string    `gorm:"size:64;not null"`
	Payout     string    `gorm:"size:64;not null"`
	OpenPrice  float64   `gorm:"not null;default:0"`
	ClosePrice float64   `gorm:"not null;default:0"`
	PlacedAt   time.Time `gorm:"not null;index"`
	ResolvedAt *time.Time
}

func (BetModel) TableName() string {
	return "bets"
}

// Save はベットを挿入し、既に存在する場合は決済結果を更新します。
func (r *betGorm) Save(ctx context.Context, sessionID string, bet entity.Bet) error {
	m := BetModel{
		ID:         bet.ID,
		SessionID:  sessionID,
		Symbol:     bet.Symbol,
		Direction:  string(bet.Direction),
		Status:     string(bet.Status),
		Amount:     bet.Amount.String(),
		Payout:     bet.Payout.String(),
		OpenPrice:  bet.OpenPrice,
		ClosePrice: bet.ClosePrice,
		PlacedAt:   bet.PlacedAt.UTC(),
		ResolvedAt: bet.ResolvedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "payout", "close_price", "resolved_at"}),
	}).Create(&m).Error
}
