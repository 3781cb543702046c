package models

import (
	"time"

	"github.com/google/uuid"
)

// ClickEvent is one recorded coupon interaction. Rows are append-only.
type ClickEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CouponID  uuid.UUID `gorm:"column:coupon_id;type:uuid;not null;index"`
	UserAgent string    `gorm:"column:user_agent"`
	IPAddress string    `gorm:"column:ip_address"`
	ClickedAt time.Time `gorm:"column:clicked_at;not null;autoCreateTime"`
}
