package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cidadecupons/coupon-platform/api/middleware"
	"github.com/cidadecupons/coupon-platform/api/responses"
	"github.com/cidadecupons/coupon-platform/internal/subscriptions"
	pkgerrors "github.com/cidadecupons/coupon-platform/pkg/errors"
	"github.com/cidadecupons/coupon-platform/pkg/logger"
)

type subscriptionResponse struct {
	ID                    string `json:"id"`
	PlanID                string `json:"plan_id"`
	PlanName              string `json:"plan_name"`
	Status                string `json:"status"`
	BillingCycle          string `json:"billing_cycle"`
	StartDate             string `json:"start_date"`
	EndDate               string `json:"end_date"`
	MaxCoupons            int    `json:"max_coupons"`
	MaxHighlightedCoupons int    `json:"max_highlighted_coupons"`
	HasStats              bool   `json:"has_stats"`
}

// MySubscription returns the caller's active subscription joined with its
// plan limits, or null when none is active.
func MySubscription(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		accountID, err := uuid.Parse(middleware.AccountIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing account context"))
			return
		}

		view, err := svc.GetActiveView(ctx, accountID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if view == nil {
			responses.WriteSuccess(w, map[string]any{"subscription": nil})
			return
		}

		responses.WriteSuccess(w, map[string]any{"subscription": subscriptionResponse{
			ID:                    view.ID.String(),
			PlanID:                view.PlanID,
			PlanName:              view.PlanName,
			Status:                view.Status.String(),
			BillingCycle:          view.BillingCycle.String(),
			StartDate:             view.StartDate.UTC().Format(time.RFC3339),
			EndDate:               view.EndDate.UTC().Format(time.RFC3339),
			MaxCoupons:            view.MaxCoupons,
			MaxHighlightedCoupons: view.MaxHighlightedCoupons,
			HasStats:              view.HasStats,
		}})
	}
}
