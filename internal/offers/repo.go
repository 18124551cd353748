package offers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ticpin-app/ticpin-backend/pkg/db/models"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	"github.com/ticpin-app/ticpin-backend/pkg/pagination"
)

// Repository encapsulates offer persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an offer repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts an offer.
func (r *Repository) Create(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(offer).Error; err != nil {
		return nil, err
	}
	return offer, nil
}

// FindByID returns the offer or gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&offer).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// ListLive returns active, unexpired offers for a category ordered by newest first.
func (r *Repository) ListLive(ctx context.Context, category enums.Category, now time.Time) ([]models.Offer, error) {
	var rows []models.Offer
	err := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("applies_to = ?", category).
		Where("is_active = ?", true).
		Where("valid_until > ?", now).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// List returns one admin page of offers, optionally filtered by category.
func (r *Repository) List(ctx context.Context, category enums.Category, params pagination.Params) ([]models.Offer, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Model(&models.Offer{})
	if category != "" {
		query = query.Where("applies_to = ?", category)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Offer
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

// Update persists the mutable offer fields.
func (r *Repository) Update(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	if err := r.db.WithContext(ctx).Save(offer).Error; err != nil {
		return nil, err
	}
	return offer, nil
}

// Delete removes the offer row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Offer{}).Error
}
