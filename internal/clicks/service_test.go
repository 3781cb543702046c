package clicks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cidadecupons/coupon-platform/pkg/db"
	"github.com/cidadecupons/coupon-platform/pkg/db/models"
	"github.com/cidadecupons/coupon-platform/pkg/enums"
	pkgerrors "github.com/cidadecupons/coupon-platform/pkg/errors"
)

func setupClicksTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	couponsTable := `
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
);`
	clickEventsTable := `
CREATE TABLE IF NOT EXISTS click_events (
  id TEXT PRIMARY KEY,
  coupon_id TEXT NOT NULL,
  user_agent TEXT,
  ip_address TEXT,
  clicked_at DATETIME NOT NULL
);`
	require.NoError(t, conn.Exec(couponsTable).Error)
	require.NoError(t, conn.Exec(clickEventsTable).Error)
	return conn
}

func seedCoupon(t *testing.T, conn *gorm.DB, accountID uuid.UUID) *models.Coupon {
	t.Helper()

	coupon := &models.Coupon{
		ID:             uuid.New(),
		AccountID:      accountID,
		CategoryID:     uuid.New(),
		Title:          "Cupom de teste",
		Description:    "desc",
		Code:           "TESTE",
		ExpirationDate: time.Now().UTC().AddDate(0, 1, 0),
		Status:         enums.CouponStatusActive,
	}
	require.NoError(t, conn.Create(coupon).Error)
	return coupon
}

func newClickService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(db.NewWithConn(conn), NewRepository(conn))
	require.NoError(t, err)
	return svc
}

func TestRecordWritesEventAndCounterTogether(t *testing.T) {
	conn := setupClicksTestDB(t)
	coupon := seedCoupon(t, conn, uuid.New())
	svc := newClickService(t, conn)

	event, err := svc.Record(context.Background(), RecordInput{
		CouponID:  coupon.ID,
		UserAgent: "Mozilla/5.0",
		IPAddress: "203.0.113.10",
	})
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.False(t, event.ClickedAt.IsZero())

	var reloaded models.Coupon
	require.NoError(t, conn.First(&reloaded, "id = ?", coupon.ID).Error)
	assert.EqualValues(t, 1, reloaded.ClicksCount)

	count, err := NewRepository(conn).CountByCoupon(context.Background(), coupon.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRecordAccumulates(t *testing.T) {
	conn := setupClicksTestDB(t)
	coupon := seedCoupon(t, conn, uuid.New())
	svc := newClickService(t, conn)

	for i := 0; i < 3; i++ {
		_, err := svc.Record(context.Background(), RecordInput{CouponID: coupon.ID})
		require.NoError(t, err)
	}

	var reloaded models.Coupon
	require.NoError(t, conn.First(&reloaded, "id = ?", coupon.ID).Error)
	assert.EqualValues(t, 3, reloaded.ClicksCount)

	count, err := NewRepository(conn).CountByCoupon(context.Background(), coupon.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestRecordConcurrentKeepsCounterAndEventsConsistent(t *testing.T) {
	conn := setupClicksTestDB(t)
	coupon := seedCoupon(t, conn, uuid.New())
	svc := newClickService(t, conn)

	// Shared-cache sqlite cannot interleave write transactions, so cap the
	// pool at one connection and let concurrent callers queue on it.
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Record(context.Background(), RecordInput{CouponID: coupon.ID})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var reloaded models.Coupon
	require.NoError(t, conn.First(&reloaded, "id = ?", coupon.ID).Error)
	assert.EqualValues(t, workers, reloaded.ClicksCount)

	count, err := NewRepository(conn).CountByCoupon(context.Background(), coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(reloaded.ClicksCount), count)
}

func TestRecordUnknownCouponRollsBack(t *testing.T) {
	conn := setupClicksTestDB(t)
	svc := newClickService(t, conn)

	missing := uuid.New()
	_, err := svc.Record(context.Background(), RecordInput{CouponID: missing})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	// No orphan event survives the rollback.
	count, err := NewRepository(conn).CountByCoupon(context.Background(), missing)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestRecentTimesByAccountScopesToTenant(t *testing.T) {
	conn := setupClicksTestDB(t)
	accountID := uuid.New()
	mine := seedCoupon(t, conn, accountID)
	other := seedCoupon(t, conn, uuid.New())
	svc := newClickService(t, conn)

	_, err := svc.Record(context.Background(), RecordInput{CouponID: mine.ID})
	require.NoError(t, err)
	_, err = svc.Record(context.Background(), RecordInput{CouponID: other.ID})
	require.NoError(t, err)

	since := time.Now().UTC().AddDate(0, 0, -7)
	times, err := NewRepository(conn).RecentTimesByAccount(context.Background(), accountID, since)
	require.NoError(t, err)
	assert.Len(t, times, 1)
}
