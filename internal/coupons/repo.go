package coupons

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cidadecupons/coupon-platform/pkg/db/models"
	"github.com/cidadecupons/coupon-platform/pkg/enums"
	"github.com/cidadecupons/coupon-platform/pkg/pagination"
)

// CouponRow is a coupon joined with its category name for listings.
type CouponRow struct {
	models.Coupon
	CategoryName string `gorm:"column:category_name"`
}

// Repository handles coupon persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, coupon *models.Coupon) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	FindByIDForAccount(ctx context.Context, id, accountID uuid.UUID) (*models.Coupon, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	CountHighlightedByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	CountActiveByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	Update(ctx context.Context, coupon *models.Coupon) (int64, error)
	Delete(ctx context.Context, id, accountID uuid.UUID) (int64, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, cursor *pagination.Cursor, limit int) ([]CouponRow, error)
	LatestByAccount(ctx context.Context, accountID uuid.UUID, n int) ([]models.Coupon, error)
	SumClicksByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a coupon repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) FindByIDForAccount(ctx context.Context, id, accountID uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		First(&coupon, "id = ? AND account_id = ?", id, accountID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// CountByAccount counts every coupon the account owns regardless of status.
// Quota checks charge expired and paused coupons against the plan too.
func (r *repository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	return count, err
}

func (r *repository) CountHighlightedByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("account_id = ? AND is_highlighted = ?", accountID, true).
		Count(&count).Error
	return count, err
}

func (r *repository) CountActiveByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("account_id = ? AND status = ?", accountID, enums.CouponStatusActive).
		Count(&count).Error
	return count, err
}

// Update persists the mutable fields. The account predicate keeps tenants from
// touching each other's rows.
func (r *repository) Update(ctx context.Context, coupon *models.Coupon) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND account_id = ?", coupon.ID, coupon.AccountID).
		Updates(map[string]any{
			"category_id":     coupon.CategoryID,
			"title":           coupon.Title,
			"description":     coupon.Description,
			"code":            coupon.Code,
			"image_url":       coupon.ImageURL,
			"expiration_date": coupon.ExpirationDate,
			"is_highlighted":  coupon.IsHighlighted,
			"status":          coupon.Status,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) Delete(ctx context.Context, id, accountID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", id, accountID).
		Delete(&models.Coupon{})
	return result.RowsAffected, result.Error
}

// ListByAccount pages newest-first with a (created_at, id) keyset cursor.
func (r *repository) ListByAccount(ctx context.Context, accountID uuid.UUID, cursor *pagination.Cursor, limit int) ([]CouponRow, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Select("coupons.*, categories.name AS category_name").
		Joins("LEFT JOIN categories ON categories.id = coupons.category_id").
		Where("coupons.account_id = ?", accountID).
		Order("coupons.created_at DESC, coupons.id DESC").
		Limit(limit)

	if cursor != nil {
		query = query.Where(
			"(coupons.created_at < ?) OR (coupons.created_at = ? AND coupons.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []CouponRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) LatestByAccount(ctx context.Context, accountID uuid.UUID, n int) ([]models.Coupon, error) {
	var coupons []models.Coupon
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&coupons).Error
	if err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *repository) SumClicksByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(SUM(clicks_count), 0)").
		Scan(&total).Error
	return total, err
}

// ExpireDue flips every active coupon whose expiration date has passed. The
// predicate update is idempotent.
func (r *repository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("status = ? AND expiration_date < ?", enums.CouponStatusActive, now).
		Updates(map[string]any{"status": enums.CouponStatusExpired, "updated_at": now})
	return result.RowsAffected, result.Error
}
