package controllers

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/cidadecupons/coupon-platform/api/responses"
	"github.com/cidadecupons/coupon-platform/api/validators"
	"github.com/cidadecupons/coupon-platform/internal/clicks"
	pkgerrors "github.com/cidadecupons/coupon-platform/pkg/errors"
	"github.com/cidadecupons/coupon-platform/pkg/logger"
)

type trackClickRequest struct {
	CouponID string `json:"coupon_id" validate:"required,uuid"`
}

// TrackClick records one coupon interaction. The endpoint is public; the
// caller's address and user agent are captured server side.
func TrackClick(svc clicks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "click service unavailable"))
			return
		}

		var req trackClickRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		couponID, err := uuid.Parse(req.CouponID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "coupon_id must be a uuid"))
			return
		}

		event, err := svc.Record(ctx, clicks.RecordInput{
			CouponID:  couponID,
			UserAgent: r.UserAgent(),
			IPAddress: clientIP(r),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{
			"event_id": event.ID.String(),
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
