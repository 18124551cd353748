package coupons

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ticpin-app/ticpin-backend/pkg/db/models"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	"github.com/ticpin-app/ticpin-backend/pkg/pagination"
)

// Repository encapsulates coupon persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a coupon repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) couponStore {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a coupon. Code uniqueness relies on the unique index.
func (r *Repository) Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}

// FindByID returns the coupon or gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// FindByCode looks up a coupon by its canonical (uppercased) code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// ListLive returns active, in-window, non-exhausted coupons for a category.
// Without a user only globally scoped coupons are returned so restricted
// codes are never exposed.
func (r *Repository) ListLive(ctx context.Context, category enums.Category, userID *uuid.UUID, now time.Time) ([]models.Coupon, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("category = ?", category).
		Where("is_active = ?", true).
		Where("valid_from <= ?", now).
		Where("valid_until >= ?", now).
		Where("max_uses = 0 OR used_count < max_uses")

	if userID != nil {
		query = query.Where("cardinality(user_ids) = 0 OR ? = ANY(user_ids)", userID.String())
	} else {
		query = query.Where("cardinality(user_ids) = 0")
	}

	var rows []models.Coupon
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List returns one admin page of coupons, optionally filtered by category.
func (r *Repository) List(ctx context.Context, category enums.Category, params pagination.Params) ([]models.Coupon, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Model(&models.Coupon{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Coupon
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Update persists the mutable coupon fields.
func (r *Repository) Update(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if err := r.db.WithContext(ctx).Save(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}

// Delete removes the coupon row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Coupon{}).Error
}

// IncrementUsage bumps used_count, guarded by the usage cap when one is set.
// Returns the number of rows updated; zero means the cap was already hit or
// the coupon no longer exists.
func (r *Repository) IncrementUsage(ctx context.Context, id uuid.UUID, maxUses int) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ?", id)
	if maxUses > 0 {
		query = query.Where("used_count < ?", maxUses)
	}

	result := query.UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
