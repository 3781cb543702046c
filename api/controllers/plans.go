package controllers

import (
	"net/http"

	"github.com/cidadecupons/coupon-platform/api/responses"
	"github.com/cidadecupons/coupon-platform/internal/plans"
	"github.com/cidadecupons/coupon-platform/pkg/db/models"
	pkgerrors "github.com/cidadecupons/coupon-platform/pkg/errors"
	"github.com/cidadecupons/coupon-platform/pkg/logger"
)

type planResponse struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	MonthlyPrice          string `json:"monthly_price"`
	YearlyPrice           string `json:"yearly_price"`
	MaxCoupons            int    `json:"max_coupons"`
	MaxHighlightedCoupons int    `json:"max_highlighted_coupons"`
	HasStats              bool   `json:"has_stats"`
	PrioritySupport       bool   `json:"priority_support"`
}

type planListResponse struct {
	Plans []planResponse `json:"plans"`
}

func newPlanResponse(plan models.Plan) planResponse {
	return planResponse{
		ID:                    plan.ID,
		Name:                  plan.Name,
		MonthlyPrice:          plan.MonthlyPrice.StringFixed(2),
		YearlyPrice:           plan.YearlyPrice.StringFixed(2),
		MaxCoupons:            plan.MaxCoupons,
		MaxHighlightedCoupons: plan.MaxHighlightedCoupons,
		HasStats:              plan.HasStats,
		PrioritySupport:       plan.PrioritySupport,
	}
}

// PlansList returns the active plan catalog, cheapest first.
func PlansList(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan service unavailable"))
			return
		}

		catalog, err := svc.ListActive(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := planListResponse{Plans: make([]planResponse, 0, len(catalog))}
		for _, plan := range catalog {
			out.Plans = append(out.Plans, newPlanResponse(plan))
		}
		responses.WriteSuccess(w, out)
	}
}
