package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cidadecupons/coupon-platform/pkg/db/models"
	"github.com/cidadecupons/coupon-platform/pkg/enums"
	pkgerrors "github.com/cidadecupons/coupon-platform/pkg/errors"
)

type planRepository interface {
	FindByID(ctx context.Context, id string) (*models.Plan, error)
}

// Service exposes subscription operations.
type Service interface {
	GetActive(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error)
	GetActiveView(ctx context.Context, accountID uuid.UUID) (*ActiveSubscriptionView, error)
	Enroll(ctx context.Context, input EnrollInput) (*models.Subscription, error)
	EnrollTx(ctx context.Context, tx *gorm.DB, input EnrollInput) (*models.Subscription, error)
}

type service struct {
	repo  Repository
	plans planRepository
	now   func() time.Time
}

// NewService builds a subscription service with the provided repositories.
func NewService(repo Repository, plans planRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	if plans == nil {
		return nil, fmt.Errorf("plan repository required")
	}
	return &service{repo: repo, plans: plans, now: time.Now}, nil
}

// EnrollInput captures the data required to start a subscription.
type EnrollInput struct {
	AccountID    uuid.UUID
	PlanID       string
	BillingCycle enums.BillingCycle
}

func (s *service) GetActive(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.repo.FindActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find active subscription")
	}
	return sub, nil
}

func (s *service) GetActiveView(ctx context.Context, accountID uuid.UUID) (*ActiveSubscriptionView, error) {
	view, err := s.repo.FindActiveViewByAccount(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find active subscription")
	}
	return view, nil
}

// Enroll creates an active subscription for the account. Accounts hold at most
// one active subscription, so an existing one is a conflict.
func (s *service) Enroll(ctx context.Context, input EnrollInput) (*models.Subscription, error) {
	return s.enroll(ctx, s.repo, input)
}

// EnrollTx runs Enroll inside an existing transaction. Used by account
// registration so the account and its starter subscription commit together.
func (s *service) EnrollTx(ctx context.Context, tx *gorm.DB, input EnrollInput) (*models.Subscription, error) {
	return s.enroll(ctx, s.repo.WithTx(tx), input)
}

func (s *service) enroll(ctx context.Context, repo Repository, input EnrollInput) (*models.Subscription, error) {
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if !input.BillingCycle.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid billing cycle")
	}

	plan, err := s.plans.FindByID(ctx, input.PlanID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find plan")
	}
	if plan == nil || !plan.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
	}

	existing, err := repo.FindActiveByAccount(ctx, input.AccountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find active subscription")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "account already has an active subscription")
	}

	start := s.now().UTC()
	sub := &models.Subscription{
		ID:           uuid.New(),
		AccountID:    input.AccountID,
		PlanID:       plan.ID,
		Status:       enums.SubscriptionStatusActive,
		BillingCycle: input.BillingCycle,
		StartDate:    start,
		EndDate:      endDateFor(start, input.BillingCycle),
	}
	if err := repo.Create(ctx, sub); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "account already has an active subscription")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
	}
	return sub, nil
}

func endDateFor(start time.Time, cycle enums.BillingCycle) time.Time {
	if cycle == enums.BillingCycleYearly {
		return start.AddDate(0, 0, 365)
	}
	return start.AddDate(0, 0, 30)
}
