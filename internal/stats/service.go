package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cidadecupons/coupon-platform/pkg/db/models"
	pkgerrors "github.com/cidadecupons/coupon-platform/pkg/errors"
)

const (
	historyDays = 7
	latestLimit = 5
)

type couponReader interface {
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	CountActiveByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	SumClicksByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	LatestByAccount(ctx context.Context, accountID uuid.UUID, n int) ([]models.Coupon, error)
}

type clickReader interface {
	RecentTimesByAccount(ctx context.Context, accountID uuid.UUID, since time.Time) ([]time.Time, error)
}

// DayBucket is the click total for one UTC calendar day.
type DayBucket struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

// Dashboard is the aggregate view behind the account stats endpoint.
type Dashboard struct {
	TotalCoupons  int64           `json:"total_coupons"`
	ActiveCoupons int64           `json:"active_coupons"`
	TotalClicks   int64           `json:"total_clicks"`
	ClickHistory  []DayBucket     `json:"click_history"`
	LatestCoupons []models.Coupon `json:"latest_coupons"`
}

// Service aggregates per-account usage numbers.
type Service interface {
	Get(ctx context.Context, accountID uuid.UUID) (*Dashboard, error)
}

type service struct {
	coupons couponReader
	clicks  clickReader
	now     func() time.Time
}

// NewService builds a stats service over the coupon and click repositories.
func NewService(coupons couponReader, clicks clickReader) (Service, error) {
	if coupons == nil {
		return nil, fmt.Errorf("coupon reader required")
	}
	if clicks == nil {
		return nil, fmt.Errorf("click reader required")
	}
	return &service{coupons: coupons, clicks: clicks, now: time.Now}, nil
}

// Get assembles the dashboard. A brand new account gets zeros and empty
// slices, never an error.
func (s *service) Get(ctx context.Context, accountID uuid.UUID) (*Dashboard, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}

	total, err := s.coupons.CountByAccount(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count coupons")
	}
	active, err := s.coupons.CountActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active coupons")
	}
	clicks, err := s.coupons.SumClicksByAccount(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum coupon clicks")
	}

	latest, err := s.coupons.LatestByAccount(ctx, accountID, latestLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch latest coupons")
	}

	history, err := s.clickHistory(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalCoupons:  total,
		ActiveCoupons: active,
		TotalClicks:   clicks,
		ClickHistory:  history,
		LatestCoupons: latest,
	}, nil
}

// clickHistory buckets the last week of clicks by UTC calendar day, most
// recent day first. Days without clicks are omitted. Bucketing happens here
// rather than in SQL so the grouping is identical on every backing database.
func (s *service) clickHistory(ctx context.Context, accountID uuid.UUID) ([]DayBucket, error) {
	now := s.now().UTC()
	since := now.Truncate(24 * time.Hour).AddDate(0, 0, -(historyDays - 1))

	times, err := s.clicks.RecentTimesByAccount(ctx, accountID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch recent clicks")
	}

	byDay := make(map[string]int64, historyDays)
	for _, t := range times {
		byDay[t.UTC().Format("2006-01-02")]++
	}

	buckets := make([]DayBucket, 0, len(byDay))
	for day, count := range byDay {
		buckets = append(buckets, DayBucket{Date: day, Clicks: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Date > buckets[j].Date
	})
	return buckets, nil
}
