package controllers

import (
	"net/http"

	"github.com/cidadecupons/coupon-platform/api/responses"
	"github.com/cidadecupons/coupon-platform/internal/categories"
	pkgerrors "github.com/cidadecupons/coupon-platform/pkg/errors"
	"github.com/cidadecupons/coupon-platform/pkg/logger"
)

type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type categoryListResponse struct {
	Categories []categoryResponse `json:"categories"`
}

// CategoriesList returns the seeded category catalog.
func CategoriesList(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		catalog, err := svc.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := categoryListResponse{Categories: make([]categoryResponse, 0, len(catalog))}
		for _, category := range catalog {
			out.Categories = append(out.Categories, categoryResponse{
				ID:   category.ID.String(),
				Name: category.Name,
				Slug: category.Slug,
			})
		}
		responses.WriteSuccess(w, out)
	}
}
