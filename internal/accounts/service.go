package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cidadecupons/coupon-platform/internal/plans"
	"github.com/cidadecupons/coupon-platform/internal/subscriptions"
	"github.com/cidadecupons/coupon-platform/pkg/auth"
	"github.com/cidadecupons/coupon-platform/pkg/config"
	"github.com/cidadecupons/coupon-platform/pkg/db"
	"github.com/cidadecupons/coupon-platform/pkg/db/models"
	"github.com/cidadecupons/coupon-platform/pkg/enums"
	pkgerrors "github.com/cidadecupons/coupon-platform/pkg/errors"
	"github.com/cidadecupons/coupon-platform/pkg/security"
)

type subscriptionEnroller interface {
	EnrollTx(ctx context.Context, tx *gorm.DB, input subscriptions.EnrollInput) (*models.Subscription, error)
}

// Service exposes account registration and authentication.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	Login(ctx context.Context, input LoginInput) (*Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

type service struct {
	client      *db.Client
	repo        Repository
	enroller    subscriptionEnroller
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	validate    *validator.Validate
	now         func() time.Time
}

// NewService builds an account service with the provided dependencies.
func NewService(client *db.Client, repo Repository, enroller subscriptionEnroller, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("account repository required")
	}
	if enroller == nil {
		return nil, fmt.Errorf("subscription enroller required")
	}
	return &service{
		client:      client,
		repo:        repo,
		enroller:    enroller,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		validate:    validator.New(),
		now:         time.Now,
	}, nil
}

// RegisterInput captures the data required to open an account.
type RegisterInput struct {
	Email           string  `validate:"required,email"`
	Password        string  `validate:"required,min=8"`
	CompanyName     string  `validate:"required,min=2"`
	ResponsibleName string  `validate:"required,min=2"`
	Phone           *string `validate:"omitempty,min=8"`
}

// LoginInput captures the credentials for authentication.
type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Session is an authenticated account plus its bearer token.
type Session struct {
	Account *models.Account
	Token   string
}

// Register creates the account and its free-tier subscription in one
// transaction, then mints an access token.
func (s *service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid registration payload").WithDetails(err.Error())
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find account")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	account := &models.Account{
		ID:              uuid.New(),
		Email:           email,
		PasswordHash:    hash,
		CompanyName:     strings.TrimSpace(input.CompanyName),
		ResponsibleName: strings.TrimSpace(input.ResponsibleName),
		Phone:           input.Phone,
		IsActive:        true,
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, account); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
		}
		_, err := s.enroller.EnrollTx(ctx, tx, subscriptions.EnrollInput{
			AccountID:    account.ID,
			PlanID:       plans.DefaultPlanID,
			BillingCycle: enums.BillingCycleMonthly,
		})
		return err
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register account")
	}

	return s.sessionFor(account)
}

// Login verifies credentials and mints an access token. An unknown email is
// reported as not found; a wrong password or a deactivated account as
// unauthorized.
func (s *service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid login payload").WithDetails(err.Error())
	}

	account, err := s.repo.FindByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find account")
	}
	if account == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	if !account.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(input.Password, account.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	loginAt := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, account.ID, loginAt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	account.LastLoginAt = &loginAt

	return s.sessionFor(account)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find account")
	}
	if account == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	return account, nil
}

func (s *service) sessionFor(account *models.Account) (*Session, error) {
	token, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		AccountID: account.ID,
		Email:     account.Email,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &Session{Account: account, Token: token}, nil
}
