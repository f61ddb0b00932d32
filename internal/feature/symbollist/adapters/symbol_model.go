package adapters

import (
	"time"

	"demotrade_backend/internal/feature/symbollist/domain/entity"
)

// SymbolModel is the GORM model for the symbols table.
type SymbolModel struct {
	ID            uint      `gorm:"primaryKey"`
	Code          string    `gorm:"size:20;not null;uniqueIndex"`
	Name          string    `gorm:"size:255;not null"`
	FallbackPrice float64   `gorm:"not null;default:1"`
	IsActive      bool      `gorm:"not null;default:true"`
	SortKey       int       `gorm:"not null;default:0"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (SymbolModel) TableName() string {
	return "symbols"
}

func (m SymbolModel) toEntity() entity.Symbol {
	return entity.Symbol{
		ID:            m.ID,
		Code:          m.Code,
		Name:          m.Name,
		FallbackPrice: m.FallbackPrice,
		IsActive:      m.IsActive,
		SortKey:       m.SortKey,
	}
}

func toModel(s entity.Symbol) SymbolModel {
	return SymbolModel{
		ID:            s.ID,
		Code:          s.Code,
		Name:          s.Name,
		FallbackPrice: s.FallbackPrice,
		IsActive:      s.IsActive,
		SortKey:       s.SortKey,
	}
}
