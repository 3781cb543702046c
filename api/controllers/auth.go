package controllers

import (
	"net/http"
	"time"

	"github.com/cidadecupons/coupon-platform/api/responses"
	"github.com/cidadecupons/coupon-platform/api/validators"
	"github.com/cidadecupons/coupon-platform/internal/accounts"
	"github.com/cidadecupons/coupon-platform/pkg/db/models"
	pkgerrors "github.com/cidadecupons/coupon-platform/pkg/errors"
	"github.com/cidadecupons/coupon-platform/pkg/logger"
)

type registerRequest struct {
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=8"`
	CompanyName     string  `json:"company_name" validate:"required,min=2"`
	ResponsibleName string  `json:"responsible_name" validate:"required,min=2"`
	Phone           *string `json:"phone" validate:"omitempty,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type accountResponse struct {
	ID              string  `json:"id"`
	Email           string  `json:"email"`
	CompanyName     string  `json:"company_name"`
	ResponsibleName string  `json:"responsible_name"`
	Phone           *string `json:"phone,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

type sessionResponse struct {
	Token   string          `json:"token"`
	Account accountResponse `json:"account"`
}

func newAccountResponse(account *models.Account) accountResponse {
	return accountResponse{
		ID:              account.ID.String(),
		Email:           account.Email,
		CompanyName:     account.CompanyName,
		ResponsibleName: account.ResponsibleName,
		Phone:           account.Phone,
		CreatedAt:       account.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// AuthRegister creates an account plus its free subscription and returns a
// session token.
func AuthRegister(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}

		var req registerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		session, err := svc.Register(ctx, accounts.RegisterInput{
			Email:           req.Email,
			Password:        req.Password,
			CompanyName:     req.CompanyName,
			ResponsibleName: req.ResponsibleName,
			Phone:           req.Phone,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{
			Token:   session.Token,
			Account: newAccountResponse(session.Account),
		})
	}
}

// AuthLogin verifies credentials and returns a session token.
func AuthLogin(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account service unavailable"))
			return
		}

		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		session, err := svc.Login(ctx, accounts.LoginInput{
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, sessionResponse{
			Token:   session.Token,
			Account: newAccountResponse(session.Account),
		})
	}
}
