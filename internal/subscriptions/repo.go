package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cidadecupons/coupon-platform/pkg/db/models"
	"github.com/cidadecupons/coupon-platform/pkg/enums"
)

// ActiveSubscriptionView joins the active subscription with its plan limits
// for the dashboard.
type ActiveSubscriptionView struct {
	models.Subscription
	PlanName              string `gorm:"column:plan_name"`
	MaxCoupons            int    `gorm:"column:max_coupons"`
	MaxHighlightedCoupons int    `gorm:"column:max_highlighted_coupons"`
	HasStats              bool   `gorm:"column:has_stats"`
}

// Repository handles subscription persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, subscription *models.Subscription) error
	FindActiveByAccount(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error)
	FindActiveViewByAccount(ctx context.Context, accountID uuid.UUID) (*ActiveSubscriptionView, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a subscription repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).Create(subscription).Error
}

func (r *repository) FindActiveByAccount(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND status = ?", accountID, enums.SubscriptionStatusActive).
		Order("created_at DESC").
		First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) FindActiveViewByAccount(ctx context.Context, accountID uuid.UUID) (*ActiveSubscriptionView, error) {
	var view ActiveSubscriptionView
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Select("subscriptions.*, plans.name AS plan_name, plans.max_coupons, plans.max_highlighted_coupons, plans.has_stats").
		Joins("JOIN plans ON plans.id = subscriptions.plan_id").
		Where("subscriptions.account_id = ? AND subscriptions.status = ?", accountID, enums.SubscriptionStatusActive).
		Order("subscriptions.created_at DESC").
		First(&view).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &view, nil
}

// ExpireDue flips every active subscription whose end date has passed. The
// predicate update is idempotent.
func (r *repository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ? AND end_date < ?", enums.SubscriptionStatusActive, now).
		Updates(map[string]any{"status": enums.SubscriptionStatusExpired, "updated_at": now})
	return result.RowsAffected, result.Error
}
