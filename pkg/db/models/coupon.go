package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cidadecupons/coupon-platform/pkg/enums"
)

// Coupon is a discount offer published by an account.
type Coupon struct {
	ID             uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID      uuid.UUID          `gorm:"column:account_id;type:uuid;not null;index"`
	CategoryID     uuid.UUID          `gorm:"column:category_id;type:uuid;not null"`
	Title          string             `gorm:"column:title;not null"`
	Description    string             `gorm:"column:description;not null"`
	Code           string             `gorm:"column:code;not null"`
	ImageURL       *string            `gorm:"column:image_url"`
	ExpirationDate time.Time          `gorm:"column:expiration_date;not null"`
	IsHighlighted  bool               `gorm:"column:is_highlighted;not null;default:false"`
	Status         enums.CouponStatus `gorm:"column:status;not null;default:'active'"`
	ClicksCount    int64              `gorm:"column:clicks_count;not null;default:0"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
