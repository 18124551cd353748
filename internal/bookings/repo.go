package bookings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ticpin-app/ticpin-backend/pkg/db/models"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	"github.com/ticpin-app/ticpin-backend/pkg/pagination"
)

// Repository encapsulates booking persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a booking repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) bookingStore {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a booking.
func (r *Repository) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

// FindByID returns the booking or gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// HasActiveBookingForEmail reports whether the email already holds a booked
// reservation on the listing.
func (r *Repository) HasActiveBookingForEmail(ctx context.Context, listingID uuid.UUID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("listing_id = ?", listingID).
		Where("LOWER(user_email) = LOWER(?)", email).
		Where("status = ?", enums.BookingStatusBooked).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// BookedQuantities sums booked ticket quantities per ticket type name by
// unnesting the tickets jsonb column.
func (r *Repository) BookedQuantities(ctx context.Context, listingID uuid.UUID) (map[string]int, error) {
	rows := []struct {
		Name  string `gorm:"column:name"`
		Total int    `gorm:"column:total"`
	}{}

	err := r.db.WithContext(ctx).Raw(`
SELECT t->>'name' AS name, SUM((t->>'quantity')::int) AS total
FROM bookings, jsonb_array_elements(tickets) AS t
WHERE listing_id = ? AND status = ?
GROUP BY t->>'name'`, listingID, enums.BookingStatusBooked).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int, len(rows))
	for _, row := range rows {
		result[row.Name] = row.Total
	}
	return result, nil
}

// List returns one admin page of bookings, optionally filtered by category
// or listing.
func (r *Repository) List(ctx context.Context, category enums.Category, listingID *uuid.UUID, params pagination.Params) ([]models.Booking, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Model(&models.Booking{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if listingID != nil {
		query = query.Where("listing_id = ?", *listingID)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var bookings []models.Booking
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateStatus flips a booking's status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.BookingStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		UpdateColumn("status", status)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
