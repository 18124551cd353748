package listings

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ticpin-app/ticpin-backend/pkg/db/models"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	"github.com/ticpin-app/ticpin-backend/pkg/pagination"
)

// Repository encapsulates listing persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a listing repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a listing.
func (r *Repository) Create(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// FindByID returns the listing or gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// ListFilter narrows the listing query.
type ListFilter struct {
	Category   enums.Category
	City       string
	ActiveOnly bool
}

// List returns one page of listings ordered by newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Listing, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Model(&models.Listing{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if city := strings.TrimSpace(filter.City); city != "" {
		query = query.Where("LOWER(city) = LOWER(?)", city)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Listing
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

// Update persists the mutable listing fields.
func (r *Repository) Update(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if err := r.db.WithContext(ctx).Save(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// Delete removes the listing row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Listing{}).Error
}
