package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/cidadecupons/coupon-platform/pkg/logger"
	"github.com/cidadecupons/coupon-platform/pkg/metrics"
)

type subscriptionExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// SubscriptionExpiryJobParams configure the subscription expiry sweep.
type SubscriptionExpiryJobParams struct {
	Logger     *logger.Logger
	Repository subscriptionExpirer
	Metrics    *metrics.SweeperMetrics
}

// NewSubscriptionExpiryJob flips active subscriptions whose end date has
// passed. Accounts whose subscription expires fall back to read-only quota
// behavior on their next coupon creation attempt.
func NewSubscriptionExpiryJob(params SubscriptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	return &subscriptionExpiryJob{
		logg:    params.Logger,
		repo:    params.Repository,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

type subscriptionExpiryJob struct {
	logg    *logger.Logger
	repo    subscriptionExpirer
	metrics *metrics.SweeperMetrics
	now     func() time.Time
}

func (j *subscriptionExpiryJob) Name() string { return "subscription-expiry" }

func (j *subscriptionExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	expired, err := j.repo.ExpireDue(ctx, now)
	if err != nil {
		return fmt.Errorf("subscription expiry sweep: %w", err)
	}
	j.metrics.AddExpired(j.Name(), expired)
	logCtx := j.logg.WithField(ctx, "rows_expired", expired)
	j.logg.Info(logCtx, "subscription expiry sweep complete")
	return nil
}
