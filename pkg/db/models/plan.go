package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is an immutable subscription tier. Rows are seeded by migration and
// read-only at runtime.
type Plan struct {
	ID                    string          `gorm:"column:id;primaryKey"`
	Name                  string          `gorm:"column:name;not null"`
	MonthlyPrice          decimal.Decimal `gorm:"column:monthly_price;type:numeric(12,2);not null"`
	YearlyPrice           decimal.Decimal `gorm:"column:yearly_price;type:numeric(12,2);not null"`
	MaxCoupons            int             `gorm:"column:max_coupons;not null"`
	MaxHighlightedCoupons int             `gorm:"column:max_highlighted_coupons;not null"`
	HasStats              bool            `gorm:"column:has_stats;not null;default:false"`
	PrioritySupport       bool            `gorm:"column:priority_support;not null;default:false"`
	IsActive              bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt             time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
