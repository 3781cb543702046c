package coupons

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cidadecupons/coupon-platform/internal/categories"
	"github.com/cidadecupons/coupon-platform/internal/plans"
	"github.com/cidadecupons/coupon-platform/internal/subscriptions"
	"github.com/cidadecupons/coupon-platform/pkg/db/models"
	"github.com/cidadecupons/coupon-platform/pkg/enums"
	pkgerrors "github.com/cidadecupons/coupon-platform/pkg/errors"
	"github.com/cidadecupons/coupon-platform/pkg/pagination"
)

func setupCouponsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS plans (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  monthly_price TEXT NOT NULL,
  yearly_price TEXT NOT NULL,
  max_coupons INTEGER NOT NULL,
  max_highlighted_coupons INTEGER NOT NULL,
  has_stats INTEGER NOT NULL DEFAULT 0,
  priority_support INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS subscriptions (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  plan_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  billing_cycle TEXT NOT NULL,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS coupons (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  category_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  code TEXT NOT NULL,
  image_url TEXT,
  expiration_date DATETIME NOT NULL,
  is_highlighted INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'active',
  clicks_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type couponFixture struct {
	db        *gorm.DB
	svc       Service
	accountID uuid.UUID
	category  *models.Category
}

// newCouponFixture seeds a plan with the given ceilings, an active
// subscription, and a category, then wires the service on top.
func newCouponFixture(t *testing.T, maxCoupons, maxHighlighted int) *couponFixture {
	t.Helper()

	db := setupCouponsTestDB(t)
	accountID := uuid.New()

	plan := &models.Plan{
		ID:                    "plan-" + uuid.NewString(),
		Name:                  "Teste",
		MonthlyPrice:          decimal.NewFromInt(0),
		YearlyPrice:           decimal.NewFromInt(0),
		MaxCoupons:            maxCoupons,
		MaxHighlightedCoupons: maxHighlighted,
		HasStats:              true,
		IsActive:              true,
	}
	require.NoError(t, db.Create(plan).Error)

	now := time.Now().UTC()
	sub := &models.Subscription{
		ID:           uuid.New(),
		AccountID:    accountID,
		PlanID:       plan.ID,
		Status:       enums.SubscriptionStatusActive,
		BillingCycle: enums.BillingCycleMonthly,
		StartDate:    now,
		EndDate:      now.AddDate(0, 0, 30),
	}
	require.NoError(t, db.Create(sub).Error)

	category := &models.Category{ID: uuid.New(), Name: "Restaurantes", Slug: "restaurantes-" + uuid.NewString()}
	require.NoError(t, db.Create(category).Error)

	subSvc, err := subscriptions.NewService(subscriptions.NewRepository(db), plans.NewRepository(db))
	require.NoError(t, err)
	catSvc, err := categories.NewService(categories.NewRepository(db))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(db), subSvc, catSvc)
	require.NoError(t, err)

	return &couponFixture{db: db, svc: svc, accountID: accountID, category: category}
}

func (f *couponFixture) createInput(title string) CreateInput {
	return CreateInput{
		AccountID:      f.accountID,
		CategoryID:     f.category.ID,
		Title:          title,
		Description:    "10% de desconto em qualquer prato",
		Code:           "DESC10",
		ExpirationDate: time.Now().UTC().AddDate(0, 1, 0),
	}
}

func TestCreateCouponWithinQuota(t *testing.T) {
	f := newCouponFixture(t, 5, 0)

	coupon, err := f.svc.Create(context.Background(), f.createInput("Desconto de almoco"))
	require.NoError(t, err)
	require.NotNil(t, coupon)
	assert.Equal(t, enums.CouponStatusActive, coupon.Status)
	assert.Equal(t, f.accountID, coupon.AccountID)
}

func TestCreateCouponQuotaExceeded(t *testing.T) {
	f := newCouponFixture(t, 5, 0)

	for i := 0; i < 5; i++ {
		_, err := f.svc.Create(context.Background(), f.createInput(fmt.Sprintf("Cupom %d", i)))
		require.NoError(t, err)
	}

	_, err := f.svc.Create(context.Background(), f.createInput("Cupom 6"))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeQuotaExceeded, typed.Code())
}

func TestCreateCouponExpiredCouponsStillCount(t *testing.T) {
	f := newCouponFixture(t, 2, 0)

	first, err := f.svc.Create(context.Background(), f.createInput("Cupom 1"))
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), f.createInput("Cupom 2"))
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.Coupon{}).
		Where("id = ?", first.ID).
		Update("status", enums.CouponStatusExpired).Error)

	_, err = f.svc.Create(context.Background(), f.createInput("Cupom 3"))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeQuotaExceeded, typed.Code())
}

func TestCreateCouponHighlightedQuota(t *testing.T) {
	f := newCouponFixture(t, 10, 1)

	highlighted := f.createInput("Destaque 1")
	highlighted.IsHighlighted = true
	_, err := f.svc.Create(context.Background(), highlighted)
	require.NoError(t, err)

	second := f.createInput("Destaque 2")
	second.IsHighlighted = true
	_, err = f.svc.Create(context.Background(), second)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeQuotaExceeded, typed.Code())

	// Plain coupons still fit.
	_, err = f.svc.Create(context.Background(), f.createInput("Sem destaque"))
	require.NoError(t, err)
}

func TestCreateCouponWithoutSubscription(t *testing.T) {
	f := newCouponFixture(t, 5, 0)

	input := f.createInput("Sem assinatura")
	input.AccountID = uuid.New()
	_, err := f.svc.Create(context.Background(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNoSubscription, typed.Code())
}

func TestCreateCouponPastExpiration(t *testing.T) {
	f := newCouponFixture(t, 5, 0)

	input := f.createInput("Vencido")
	input.ExpirationDate = time.Now().UTC().AddDate(0, 0, -1)
	_, err := f.svc.Create(context.Background(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateCouponUnknownCategory(t *testing.T) {
	f := newCouponFixture(t, 5, 0)

	input := f.createInput("Categoria errada")
	input.CategoryID = uuid.New()
	_, err := f.svc.Create(context.Background(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestUpdateCoupon(t *testing.T) {
	f := newCouponFixture(t, 5, 1)

	coupon, err := f.svc.Create(context.Background(), f.createInput("Original"))
	require.NoError(t, err)

	updated, err := f.svc.Update(context.Background(), UpdateInput{
		AccountID:      f.accountID,
		CouponID:       coupon.ID,
		CategoryID:     f.category.ID,
		Title:          "Atualizado",
		Description:    coupon.Description,
		Code:           "NOVO20",
		ExpirationDate: coupon.ExpirationDate,
		IsHighlighted:  true,
		Status:         enums.CouponStatusPaused,
	})
	require.NoError(t, err)
	assert.Equal(t, "Atualizado", updated.Title)
	assert.Equal(t, enums.CouponStatusPaused, updated.Status)
	assert.True(t, updated.IsHighlighted)

	var reloaded models.Coupon
	require.NoError(t, f.db.First(&reloaded, "id = ?", coupon.ID).Error)
	assert.Equal(t, "NOVO20", reloaded.Code)
}

func TestUpdateForeignCouponNotFound(t *testing.T) {
	f := newCouponFixture(t, 5, 0)

	coupon, err := f.svc.Create(context.Background(), f.createInput("Meu cupom"))
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), UpdateInput{
		AccountID:      uuid.New(),
		CouponID:       coupon.ID,
		CategoryID:     f.category.ID,
		Title:          "Invasor",
		Description:    "tentativa de outro inquilino",
		Code:           "HACK",
		ExpirationDate: coupon.ExpirationDate,
		Status:         enums.CouponStatusActive,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDeleteCouponIsIdempotent(t *testing.T) {
	f := newCouponFixture(t, 5, 0)

	coupon, err := f.svc.Create(context.Background(), f.createInput("Descartavel"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), f.accountID, coupon.ID))
	// Deleting again, or deleting someone else's coupon, stays silent.
	require.NoError(t, f.svc.Delete(context.Background(), f.accountID, coupon.ID))
	require.NoError(t, f.svc.Delete(context.Background(), uuid.New(), coupon.ID))

	var count int64
	require.NoError(t, f.db.Model(&models.Coupon{}).Where("id = ?", coupon.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestDeleteKeepsForeignCoupon(t *testing.T) {
	f := newCouponFixture(t, 5, 0)

	coupon, err := f.svc.Create(context.Background(), f.createInput("Protegido"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), uuid.New(), coupon.ID))

	var count int64
	require.NoError(t, f.db.Model(&models.Coupon{}).Where("id = ?", coupon.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestListPagesNewestFirst(t *testing.T) {
	f := newCouponFixture(t, 100, 0)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 7; i++ {
		coupon := &models.Coupon{
			ID:             uuid.New(),
			AccountID:      f.accountID,
			CategoryID:     f.category.ID,
			Title:          fmt.Sprintf("Cupom %d", i),
			Description:    "desc",
			Code:           fmt.Sprintf("C%d", i),
			ExpirationDate: base.AddDate(0, 1, 0),
			Status:         enums.CouponStatusActive,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, f.db.Create(coupon).Error)
	}

	page, err := f.svc.List(context.Background(), f.accountID, pagination.Params{Limit: 5})
	require.NoError(t, err)
	require.Len(t, page.Items, 5)
	require.NotEmpty(t, page.NextCursor)
	assert.Equal(t, "Cupom 6", page.Items[0].Title)
	assert.Equal(t, f.category.Name, page.Items[0].CategoryName)

	rest, err := f.svc.List(context.Background(), f.accountID, pagination.Params{Limit: 5, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 2)
	assert.Empty(t, rest.NextCursor)
	assert.Equal(t, "Cupom 1", rest.Items[0].Title)
	assert.Equal(t, "Cupom 0", rest.Items[1].Title)
}

func TestListScopedToAccount(t *testing.T) {
	f := newCouponFixture(t, 100, 0)

	_, err := f.svc.Create(context.Background(), f.createInput("Meu"))
	require.NoError(t, err)

	page, err := f.svc.List(context.Background(), uuid.New(), pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestExpireDueCoupons(t *testing.T) {
	f := newCouponFixture(t, 100, 0)
	repo := NewRepository(f.db)
	now := time.Now().UTC()

	stale := &models.Coupon{
		ID:             uuid.New(),
		AccountID:      f.accountID,
		CategoryID:     f.category.ID,
		Title:          "Vencido",
		Description:    "desc",
		Code:           "OLD",
		ExpirationDate: now.AddDate(0, 0, -2),
		Status:         enums.CouponStatusActive,
	}
	fresh := &models.Coupon{
		ID:             uuid.New(),
		AccountID:      f.accountID,
		CategoryID:     f.category.ID,
		Title:          "Valido",
		Description:    "desc",
		Code:           "NEW",
		ExpirationDate: now.AddDate(0, 1, 0),
		Status:         enums.CouponStatusActive,
	}
	paused := &models.Coupon{
		ID:             uuid.New(),
		AccountID:      f.accountID,
		CategoryID:     f.category.ID,
		Title:          "Pausado",
		Description:    "desc",
		Code:           "PAUSED",
		ExpirationDate: now.AddDate(0, 0, -2),
		Status:         enums.CouponStatusPaused,
	}
	require.NoError(t, f.db.Create(stale).Error)
	require.NoError(t, f.db.Create(fresh).Error)
	require.NoError(t, f.db.Create(paused).Error)

	affected, err := repo.ExpireDue(context.Background(), now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, affected, int64(1))

	var reloaded models.Coupon
	require.NoError(t, f.db.First(&reloaded, "id = ?", stale.ID).Error)
	assert.Equal(t, enums.CouponStatusExpired, reloaded.Status)

	reloaded = models.Coupon{}
	require.NoError(t, f.db.First(&reloaded, "id = ?", fresh.ID).Error)
	assert.Equal(t, enums.CouponStatusActive, reloaded.Status)

	// Paused coupons are left alone even when overdue.
	reloaded = models.Coupon{}
	require.NoError(t, f.db.First(&reloaded, "id = ?", paused.ID).Error)
	assert.Equal(t, enums.CouponStatusPaused, reloaded.Status)
}

func TestExpireDueCouponsSecondRunIsNoOp(t *testing.T) {
	f := newCouponFixture(t, 100, 0)
	repo := NewRepository(f.db)
	now := time.Now().UTC()

	stale := &models.Coupon{
		ID:             uuid.New(),
		AccountID:      f.accountID,
		CategoryID:     f.category.ID,
		Title:          "Vencido",
		Description:    "desc",
		Code:           "OLD2",
		ExpirationDate: now.AddDate(0, 0, -1),
		Status:         enums.CouponStatusActive,
	}
	require.NoError(t, f.db.Create(stale).Error)

	first, err := repo.ExpireDue(context.Background(), now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, first, int64(1))

	again, err := repo.ExpireDue(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, again)

	var reloaded models.Coupon
	require.NoError(t, f.db.First(&reloaded, "id = ?", stale.ID).Error)
	assert.Equal(t, enums.CouponStatusExpired, reloaded.Status)
}
