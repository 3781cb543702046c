package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/cidadecupons/coupon-platform/pkg/logger"
	"github.com/cidadecupons/coupon-platform/pkg/metrics"
)

type couponExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// CouponExpiryJobParams configure the coupon expiry sweep.
type CouponExpiryJobParams struct {
	Logger     *logger.Logger
	Repository couponExpirer
	Metrics    *metrics.SweeperMetrics
}

// NewCouponExpiryJob flips active coupons whose expiration date has passed.
func NewCouponExpiryJob(params CouponExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &couponExpiryJob{
		logg:    params.Logger,
		repo:    params.Repository,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

type couponExpiryJob struct {
	logg    *logger.Logger
	repo    couponExpirer
	metrics *metrics.SweeperMetrics
	now     func() time.Time
}

func (j *couponExpiryJob) Name() string { return "coupon-expiry" }

func (j *couponExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	expired, err := j.repo.ExpireDue(ctx, now)
	if err != nil {
		return fmt.Errorf("coupon expiry sweep: %w", err)
	}
	j.metrics.AddExpired(j.Name(), expired)
	logCtx := j.logg.WithField(ctx, "rows_expired", expired)
	j.logg.Info(logCtx, "coupon expiry sweep complete")
	return nil
}
