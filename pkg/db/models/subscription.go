package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cidadecupons/coupon-platform/pkg/enums"
)

// Subscription binds an account to a plan over an interval. At most one
// active subscription may exist per account.
type Subscription struct {
	ID           uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID    uuid.UUID                `gorm:"column:account_id;type:uuid;not null;index"`
	PlanID       string                   `gorm:"column:plan_id;not null"`
	Status       enums.SubscriptionStatus `gorm:"column:status;not null;default:'active'"`
	BillingCycle enums.BillingCycle       `gorm:"column:billing_cycle;not null"`
	StartDate    time.Time                `gorm:"column:start_date;not null"`
	EndDate      time.Time                `gorm:"column:end_date;not null"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
