package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/cidadecupons/coupon-platform/api/middleware"
	"github.com/cidadecupons/coupon-platform/api/responses"
	"github.com/cidadecupons/coupon-platform/api/validators"
	"github.com/cidadecupons/coupon-platform/internal/coupons"
	"github.com/cidadecupons/coupon-platform/pkg/db/models"
	"github.com/cidadecupons/coupon-platform/pkg/enums"
	pkgerrors "github.com/cidadecupons/coupon-platform/pkg/errors"
	"github.com/cidadecupons/coupon-platform/pkg/logger"
	"github.com/cidadecupons/coupon-platform/pkg/pagination"
)

type createCouponRequest struct {
	CategoryID     string  `json:"category_id" validate:"required,uuid"`
	Title          string  `json:"title" validate:"required,min=3,max=120"`
	Description    string  `json:"description" validate:"required,min=3"`
	Code           string  `json:"code" validate:"required,min=2,max=40"`
	ImageURL       *string `json:"image_url" validate:"omitempty,url"`
	ExpirationDate string  `json:"expiration_date" validate:"required"`
	IsHighlighted  bool    `json:"is_highlighted"`
}

type updateCouponRequest struct {
	CouponID       string  `json:"coupon_id" validate:"required,uuid"`
	CategoryID     string  `json:"category_id" validate:"required,uuid"`
	Title          string  `json:"title" validate:"required,min=3,max=120"`
	Description    string  `json:"description" validate:"required,min=3"`
	Code           string  `json:"code" validate:"required,min=2,max=40"`
	ImageURL       *string `json:"image_url" validate:"omitempty,url"`
	ExpirationDate string  `json:"expiration_date" validate:"required"`
	IsHighlighted  bool    `json:"is_highlighted"`
	Status         string  `json:"status" validate:"required"`
}

type couponResponse struct {
	ID             string  `json:"id"`
	CategoryID     string  `json:"category_id"`
	CategoryName   string  `json:"category_name,omitempty"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Code           string  `json:"code"`
	ImageURL       *string `json:"image_url,omitempty"`
	ExpirationDate string  `json:"expiration_date"`
	IsHighlighted  bool    `json:"is_highlighted"`
	Status         string  `json:"status"`
	ClicksCount    int64   `json:"clicks_count"`
	CreatedAt      string  `json:"created_at"`
}

type couponListResponse struct {
	Coupons    []couponResponse `json:"coupons"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func newCouponResponse(coupon *models.Coupon, categoryName string) couponResponse {
	return couponResponse{
		ID:             coupon.ID.String(),
		CategoryID:     coupon.CategoryID.String(),
		CategoryName:   categoryName,
		Title:          coupon.Title,
		Description:    coupon.Description,
		Code:           coupon.Code,
		ImageURL:       coupon.ImageURL,
		ExpirationDate: coupon.ExpirationDate.UTC().Format(time.RFC3339),
		IsHighlighted:  coupon.IsHighlighted,
		Status:         coupon.Status.String(),
		ClicksCount:    coupon.ClicksCount,
		CreatedAt:      coupon.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func accountIDFromRequest(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(middleware.AccountIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing account context")
	}
	return id, nil
}

func parseExpiration(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// Date-only payloads expire at end of that UTC day.
		d, dErr := time.Parse("2006-01-02", raw)
		if dErr != nil {
			return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "expiration_date must be RFC3339 or YYYY-MM-DD")
		}
		t = d.Add(24*time.Hour - time.Second)
	}
	return t.UTC(), nil
}

// CreateCoupon publishes a coupon for the authenticated account, subject to
// plan quotas.
func CreateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		accountID, err := accountIDFromRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req createCouponRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "category_id must be a uuid"))
			return
		}
		expiration, err := parseExpiration(req.ExpirationDate)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		coupon, err := svc.Create(ctx, coupons.CreateInput{
			AccountID:      accountID,
			CategoryID:     categoryID,
			Title:          req.Title,
			Description:    req.Description,
			Code:           req.Code,
			ImageURL:       req.ImageURL,
			ExpirationDate: expiration,
			IsHighlighted:  req.IsHighlighted,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCouponResponse(coupon, ""))
	}
}

// UpdateCoupon rewrites an owned coupon.
func UpdateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		accountID, err := accountIDFromRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req updateCouponRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		couponID, err := uuid.Parse(req.CouponID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "coupon_id must be a uuid"))
			return
		}
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "category_id must be a uuid"))
			return
		}
		status, err := enums.ParseCouponStatus(req.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon status"))
			return
		}
		expiration, err := parseExpiration(req.ExpirationDate)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		coupon, err := svc.Update(ctx, coupons.UpdateInput{
			AccountID:      accountID,
			CouponID:       couponID,
			CategoryID:     categoryID,
			Title:          req.Title,
			Description:    req.Description,
			Code:           req.Code,
			ImageURL:       req.ImageURL,
			ExpirationDate: expiration,
			IsHighlighted:  req.IsHighlighted,
			Status:         status,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCouponResponse(coupon, ""))
	}
}

type deleteCouponRequest struct {
	CouponID string `json:"coupon_id" validate:"required,uuid"`
}

// deleteCouponID reads the target id from the query string, or from the
// request body when the query parameter is absent. The web client sends the
// id in the DELETE body.
func deleteCouponID(r *http.Request) (uuid.UUID, error) {
	if raw := r.URL.Query().Get("id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "id query parameter must be a uuid")
		}
		return id, nil
	}

	var req deleteCouponRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(req.CouponID)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon_id must be a uuid")
	}
	return id, nil
}

// DeleteCoupon removes an owned coupon. Unknown ids succeed silently.
func DeleteCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		accountID, err := accountIDFromRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		couponID, err := deleteCouponID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, accountID, couponID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// MyCoupons pages the caller's coupons newest first.
func MyCoupons(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		accountID, err := accountIDFromRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be an integer"))
				return
			}
			limit = parsed
		}

		page, err := svc.List(ctx, accountID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := couponListResponse{
			Coupons:    make([]couponResponse, 0, len(page.Items)),
			NextCursor: page.NextCursor,
		}
		for i := range page.Items {
			out.Coupons = append(out.Coupons, newCouponResponse(&page.Items[i].Coupon, page.Items[i].CategoryName))
		}
		responses.WriteSuccess(w, out)
	}
}
