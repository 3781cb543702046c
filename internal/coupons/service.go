package coupons

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cidadecupons/coupon-platform/internal/subscriptions"
	"github.com/cidadecupons/coupon-platform/pkg/db/models"
	"github.com/cidadecupons/coupon-platform/pkg/enums"
	pkgerrors "github.com/cidadecupons/coupon-platform/pkg/errors"
	"github.com/cidadecupons/coupon-platform/pkg/pagination"
)

type subscriptionReader interface {
	GetActiveView(ctx context.Context, accountID uuid.UUID) (*subscriptions.ActiveSubscriptionView, error)
}

type categoryReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

// Service exposes coupon management for authenticated accounts.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Coupon, error)
	Update(ctx context.Context, input UpdateInput) (*models.Coupon, error)
	Delete(ctx context.Context, accountID, couponID uuid.UUID) error
	List(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*Page, error)
}

type service struct {
	repo          Repository
	subscriptions subscriptionReader
	categories    categoryReader
	validate      *validator.Validate
	now           func() time.Time
}

// NewService builds a coupon service with the provided dependencies.
func NewService(repo Repository, subs subscriptionReader, categories categoryReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if subs == nil {
		return nil, fmt.Errorf("subscription reader required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category reader required")
	}
	return &service{
		repo:          repo,
		subscriptions: subs,
		categories:    categories,
		validate:      validator.New(),
		now:           time.Now,
	}, nil
}

// CreateInput captures the data required to publish a coupon.
type CreateInput struct {
	AccountID      uuid.UUID `validate:"required"`
	CategoryID     uuid.UUID `validate:"required"`
	Title          string    `validate:"required,min=3,max=120"`
	Description    string    `validate:"required,min=3"`
	Code           string    `validate:"required,min=2,max=40"`
	ImageURL       *string   `validate:"omitempty,url"`
	ExpirationDate time.Time `validate:"required"`
	IsHighlighted  bool
}

// UpdateInput captures the mutable coupon fields.
type UpdateInput struct {
	AccountID      uuid.UUID `validate:"required"`
	CouponID       uuid.UUID `validate:"required"`
	CategoryID     uuid.UUID `validate:"required"`
	Title          string    `validate:"required,min=3,max=120"`
	Description    string    `validate:"required,min=3"`
	Code           string    `validate:"required,min=2,max=40"`
	ImageURL       *string   `validate:"omitempty,url"`
	ExpirationDate time.Time `validate:"required"`
	IsHighlighted  bool
	Status         enums.CouponStatus `validate:"required"`
}

// Page is one slice of an account's coupon listing.
type Page struct {
	Items      []CouponRow
	NextCursor string
}

// Create publishes a coupon after charging it against the plan quota. The
// quota check walks the active subscription, the plan ceiling, and the
// highlighted ceiling in that order so the caller gets the most specific
// failure first.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Coupon, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon payload").WithDetails(err.Error())
	}
	if !input.ExpirationDate.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiration date must be in the future")
	}

	view, err := s.subscriptions.GetActiveView(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNoSubscription, "an active subscription is required to create coupons")
	}

	total, err := s.repo.CountByAccount(ctx, input.AccountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count coupons")
	}
	if total >= int64(view.MaxCoupons) {
		return nil, pkgerrors.New(pkgerrors.CodeQuotaExceeded, "coupon limit reached for the current plan").
			WithDetails(map[string]any{"limit": view.MaxCoupons, "used": total})
	}

	if input.IsHighlighted {
		highlighted, err := s.repo.CountHighlightedByAccount(ctx, input.AccountID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count highlighted coupons")
		}
		if highlighted >= int64(view.MaxHighlightedCoupons) {
			return nil, pkgerrors.New(pkgerrors.CodeQuotaExceeded, "highlighted coupon limit reached for the current plan").
				WithDetails(map[string]any{"limit": view.MaxHighlightedCoupons, "used": highlighted})
		}
	}

	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	coupon := &models.Coupon{
		ID:             uuid.New(),
		AccountID:      input.AccountID,
		CategoryID:     input.CategoryID,
		Title:          input.Title,
		Description:    input.Description,
		Code:           input.Code,
		ImageURL:       input.ImageURL,
		ExpirationDate: input.ExpirationDate.UTC(),
		IsHighlighted:  input.IsHighlighted,
		Status:         enums.CouponStatusActive,
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	return coupon, nil
}

// Update rewrites the mutable fields of an owned coupon. Turning the
// highlight on recharges it against the highlighted quota.
func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Coupon, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon payload").WithDetails(err.Error())
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon status")
	}

	existing, err := s.repo.FindByIDForAccount(ctx, input.CouponID, input.AccountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find coupon")
	}
	if existing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}

	if input.IsHighlighted && !existing.IsHighlighted {
		view, err := s.subscriptions.GetActiveView(ctx, input.AccountID)
		if err != nil {
			return nil, err
		}
		if view == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNoSubscription, "an active subscription is required to highlight coupons")
		}
		highlighted, err := s.repo.CountHighlightedByAccount(ctx, input.AccountID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count highlighted coupons")
		}
		if highlighted >= int64(view.MaxHighlightedCoupons) {
			return nil, pkgerrors.New(pkgerrors.CodeQuotaExceeded, "highlighted coupon limit reached for the current plan").
				WithDetails(map[string]any{"limit": view.MaxHighlightedCoupons, "used": highlighted})
		}
	}

	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	existing.CategoryID = input.CategoryID
	existing.Title = input.Title
	existing.Description = input.Description
	existing.Code = input.Code
	existing.ImageURL = input.ImageURL
	existing.ExpirationDate = input.ExpirationDate.UTC()
	existing.IsHighlighted = input.IsHighlighted
	existing.Status = input.Status

	affected, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	return existing, nil
}

// Delete removes an owned coupon. Deleting a missing or foreign coupon is a
// no-op, matching the idempotent delete contract clients rely on.
func (s *service) Delete(ctx context.Context, accountID, couponID uuid.UUID) error {
	if accountID == uuid.Nil || couponID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id and coupon id are required")
	}
	if _, err := s.repo.Delete(ctx, couponID, accountID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	return nil
}

// List pages the account's coupons newest first.
func (s *service) List(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*Page, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByAccount(ctx, accountID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}

	page := &Page{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		last := page.Items[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) ensureCategory(ctx context.Context, id uuid.UUID) error {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if category == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown category")
	}
	return nil
}
