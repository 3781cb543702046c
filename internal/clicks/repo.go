package clicks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cidadecupons/coupon-platform/pkg/db/models"
)

// Repository handles the append-only click event log and the denormalized
// per-coupon counter.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateEvent(ctx context.Context, event *models.ClickEvent) error
	IncrementCouponClicks(ctx context.Context, couponID uuid.UUID) (int64, error)
	CountByCoupon(ctx context.Context, couponID uuid.UUID) (int64, error)
	RecentTimesByAccount(ctx context.Context, accountID uuid.UUID, since time.Time) ([]time.Time, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a click event repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateEvent(ctx context.Context, event *models.ClickEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// IncrementCouponClicks bumps the counter in SQL so concurrent clicks never
// lose an increment.
func (r *repository) IncrementCouponClicks(ctx context.Context, couponID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ?", couponID).
		Update("clicks_count", gorm.Expr("clicks_count + 1"))
	return result.RowsAffected, result.Error
}

func (r *repository) CountByCoupon(ctx context.Context, couponID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ClickEvent{}).
		Where("coupon_id = ?", couponID).
		Count(&count).Error
	return count, err
}

// RecentTimesByAccount returns the click timestamps across all of the
// account's coupons since the given instant, newest first. Callers bucket the
// raw instants themselves.
func (r *repository) RecentTimesByAccount(ctx context.Context, accountID uuid.UUID, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.ClickEvent{}).
		Joins("JOIN coupons ON coupons.id = click_events.coupon_id").
		Where("coupons.account_id = ? AND click_events.clicked_at >= ?", accountID, since).
		Order("click_events.clicked_at DESC").
		Pluck("click_events.clicked_at", &times).Error
	if err != nil {
		return nil, err
	}
	return times, nil
}
