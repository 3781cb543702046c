package clicks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cidadecupons/coupon-platform/pkg/db"
	"github.com/cidadecupons/coupon-platform/pkg/db/models"
	pkgerrors "github.com/cidadecupons/coupon-platform/pkg/errors"
)

// Service records coupon clicks. Recording is public, no authentication
// shields it, so the service tolerates junk coupon ids gracefully.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.ClickEvent, error)
}

type service struct {
	client *db.Client
	repo   Repository
	now    func() time.Time
}

// NewService builds a click recording service.
func NewService(client *db.Client, repo Repository) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("click repository required")
	}
	return &service{client: client, repo: repo, now: time.Now}, nil
}

// RecordInput captures one coupon interaction.
type RecordInput struct {
	CouponID  uuid.UUID
	UserAgent string
	IPAddress string
}

// Record appends the click event and bumps the coupon counter in a single
// transaction. Either both writes land or neither does, so the counter and
// the event log never drift apart.
func (s *service) Record(ctx context.Context, input RecordInput) (*models.ClickEvent, error) {
	if input.CouponID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon id is required")
	}

	event := &models.ClickEvent{
		ID:        uuid.New(),
		CouponID:  input.CouponID,
		UserAgent: input.UserAgent,
		IPAddress: input.IPAddress,
		ClickedAt: s.now().UTC(),
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.IncrementCouponClicks(ctx, input.CouponID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment coupon clicks")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return repo.CreateEvent(ctx, event)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record click")
	}
	return event, nil
}
