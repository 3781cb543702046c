package accounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cidadecupons/coupon-platform/internal/plans"
	"github.com/cidadecupons/coupon-platform/internal/subscriptions"
	"github.com/cidadecupons/coupon-platform/pkg/auth"
	"github.com/cidadecupons/coupon-platform/pkg/config"
	"github.com/cidadecupons/coupon-platform/pkg/db"
	"github.com/cidadecupons/coupon-platform/pkg/db/models"
	"github.com/cidadecupons/coupon-platform/pkg/enums"
	pkgerrors "github.com/cidadecupons/coupon-platform/pkg/errors"
)

func setupAccountsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	accountsTable := `
CREATE TABLE IF NOT EXISTS accounts (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  company_name TEXT NOT NULL,
  responsible_name TEXT NOT NULL,
  phone TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	plansTable := `
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
);`
	subscriptionsTable := `
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
);`
	require.NoError(t, conn.Exec(accountsTable).Error)
	require.NoError(t, conn.Exec(plansTable).Error)
	require.NoError(t, conn.Exec(subscriptionsTable).Error)

	conn.Exec(`INSERT OR IGNORE INTO plans (id, name, monthly_price, yearly_price, max_coupons, max_highlighted_coupons, has_stats, priority_support, is_active)
VALUES ('free', 'Free', '0.00', '0.00', 5, 0, 0, 0, 1)`)
	return conn
}

func newAccountService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	client := db.NewWithConn(conn)
	subSvc, err := subscriptions.NewService(subscriptions.NewRepository(conn), plans.NewRepository(conn))
	require.NoError(t, err)

	svc, err := NewService(client, NewRepository(conn), subSvc, testJWTConfig(), config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	require.NoError(t, err)
	return svc
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "coupon-platform", ExpirationMinutes: 60}
}

func registerInput() RegisterInput {
	return RegisterInput{
		Email:           uuid.NewString() + "@loja.com.br",
		Password:        "segredo-forte",
		CompanyName:     "Loja do Centro",
		ResponsibleName: "Maria Silva",
	}
}

func TestRegisterCreatesAccountAndFreeSubscription(t *testing.T) {
	conn := setupAccountsTestDB(t)
	svc := newAccountService(t, conn)

	input := registerInput()
	session, err := svc.Register(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.NotNil(t, session.Account)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, input.Email, session.Account.Email)
	assert.NotEqual(t, input.Password, session.Account.PasswordHash)

	var sub models.Subscription
	require.NoError(t, conn.First(&sub, "account_id = ?", session.Account.ID).Error)
	assert.Equal(t, "free", sub.PlanID)
	assert.Equal(t, enums.SubscriptionStatusActive, sub.Status)

	claims, err := auth.ParseAccessToken(testJWTConfig(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Account.ID, claims.AccountID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	conn := setupAccountsTestDB(t)
	svc := newAccountService(t, conn)

	input := registerInput()
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRegisterRejectsInvalidPayload(t *testing.T) {
	conn := setupAccountsTestDB(t)
	svc := newAccountService(t, conn)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:           "nao-eh-email",
		Password:        "curta",
		CompanyName:     "X",
		ResponsibleName: "",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestLoginRoundTrip(t *testing.T) {
	conn := setupAccountsTestDB(t)
	svc := newAccountService(t, conn)

	input := registerInput()
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	session, err := svc.Login(context.Background(), LoginInput{Email: input.Email, Password: input.Password})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	require.NotNil(t, session.Account.LastLoginAt)
}

func TestLoginWrongPassword(t *testing.T) {
	conn := setupAccountsTestDB(t)
	svc := newAccountService(t, conn)

	input := registerInput()
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginInput{Email: input.Email, Password: "senha-errada"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestLoginUnknownEmail(t *testing.T) {
	conn := setupAccountsTestDB(t)
	svc := newAccountService(t, conn)

	_, err := svc.Login(context.Background(), LoginInput{Email: uuid.NewString() + "@loja.com.br", Password: "qualquer"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
