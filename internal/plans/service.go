package plans

import (
	"context"
	"errors"

	"github.com/cidadecupons/coupon-platform/pkg/db/models"
	pkgerrors "github.com/cidadecupons/coupon-platform/pkg/errors"
)

// DefaultPlanID is the tier every new account is enrolled in.
const DefaultPlanID = "free"

// Service exposes read access to the plan catalog.
type Service interface {
	ListActive(ctx context.Context) ([]models.Plan, error)
	FindByID(ctx context.Context, id string) (*models.Plan, error)
}

type service struct {
	repo Repository
}

// NewService builds a plan catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("plans repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.Plan, error) {
	plans, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list plans")
	}
	return plans, nil
}

func (s *service) FindByID(ctx context.Context, id string) (*models.Plan, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan id is required")
	}
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find plan")
	}
	return plan, nil
}
