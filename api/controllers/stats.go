package controllers

import (
	"net/http"

	"github.com/cidadecupons/coupon-platform/api/responses"
	"github.com/cidadecupons/coupon-platform/internal/stats"
	pkgerrors "github.com/cidadecupons/coupon-platform/pkg/errors"
	"github.com/cidadecupons/coupon-platform/pkg/logger"
)

type statsResponse struct {
	TotalCoupons  int64             `json:"total_coupons"`
	ActiveCoupons int64             `json:"active_coupons"`
	TotalClicks   int64             `json:"total_clicks"`
	ClickHistory  []stats.DayBucket `json:"click_history"`
	LatestCoupons []couponResponse  `json:"latest_coupons"`
}

// Stats returns the caller's usage dashboard.
func Stats(svc stats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stats service unavailable"))
			return
		}

		accountID, err := accountIDFromRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dashboard, err := svc.Get(ctx, accountID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := statsResponse{
			TotalCoupons:  dashboard.TotalCoupons,
			ActiveCoupons: dashboard.ActiveCoupons,
			TotalClicks:   dashboard.TotalClicks,
			ClickHistory:  dashboard.ClickHistory,
			LatestCoupons: make([]couponResponse, 0, len(dashboard.LatestCoupons)),
		}
		for i := range dashboard.LatestCoupons {
			out.LatestCoupons = append(out.LatestCoupons, newCouponResponse(&dashboard.LatestCoupons[i], ""))
		}
		responses.WriteSuccess(w, out)
	}
}
