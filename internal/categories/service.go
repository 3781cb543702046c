package categories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cidadecupons/coupon-platform/pkg/db/models"
	pkgerrors "github.com/cidadecupons/coupon-platform/pkg/errors"
)

// Service exposes read access to the category catalog.
type Service interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type service struct {
	repo Repository
}

// NewService builds a category service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find category")
	}
	return category, nil
}
