package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ticpin-app/ticpin-backend/pkg/db/models"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	"github.com/ticpin-app/ticpin-backend/pkg/pagination"
	"github.com/ticpin-app/ticpin-backend/pkg/types"
)

func setupBookingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	bookings := `
CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  category TEXT NOT NULL,
  listing_id TEXT NOT NULL,
  listing_name TEXT NOT NULL,
  user_email TEXT NOT NULL,
  user_id TEXT,
  name TEXT NOT NULL,
  phone TEXT NOT NULL,
  nationality TEXT,
  address TEXT,
  city TEXT,
  pincode TEXT,
  tickets TEXT,
  date TEXT,
  time_slot TEXT,
  slot TEXT,
  guests INTEGER NOT NULL DEFAULT 0,
  order_amount INTEGER NOT NULL,
  booking_fee INTEGER NOT NULL,
  discount_amount INTEGER NOT NULL DEFAULT 0,
  coupon_code TEXT,
  offer_id TEXT,
  grand_total INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'booked',
  booked_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(bookings).Error)
	return db
}

func createBooking(t *testing.T, db *gorm.DB, listingID uuid.UUID, email string, status enums.BookingStatus, created time.Time) *models.Booking {
	t.Helper()

	booking := &models.Booking{
		ID:          uuid.New(),
		Category:    enums.CategoryEvent,
		ListingID:   listingID,
		ListingName: "Test Fest",
		UserEmail:   email,
		Name:        "Test Visitor",
		Phone:       "9876543210",
		Tickets: []types.TicketLine{
			{Name: "General", UnitPrice: 500, Quantity: 2},
		},
		OrderAmount: 1000,
		BookingFee:  100,
		GrandTotal:  1100,
		Status:      status,
		BookedAt:    created,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	require.NoError(t, db.Create(booking).Error)
	return booking
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)

	created, err := repo.Create(context.Background(), &models.Booking{
		Category:    enums.CategoryDining,
		ListingID:   uuid.New(),
		ListingName: "Test Kitchen",
		UserEmail:   "diner@example.com",
		Name:        "Diner",
		Phone:       "9876543210",
		Date:        "2026-09-10",
		TimeSlot:    "19:30",
		Guests:      4,
		OrderAmount: 800,
		BookingFee:  80,
		GrandTotal:  880,
		Status:      enums.BookingStatusBooked,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "diner@example.com", found.UserEmail)
	assert.Equal(t, 4, found.Guests)
	assert.Equal(t, int64(880), found.GrandTotal)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryHasActiveBookingForEmail(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)

	listingID := uuid.New()
	now := time.Now().UTC()
	createBooking(t, db, listingID, "taken@example.com", enums.BookingStatusBooked, now)
	createBooking(t, db, listingID, "freed@example.com", enums.BookingStatusCancelled, now)

	taken, err := repo.HasActiveBookingForEmail(context.Background(), listingID, "TAKEN@example.com")
	require.NoError(t, err)
	assert.True(t, taken, "match must be case insensitive")

	freed, err := repo.HasActiveBookingForEmail(context.Background(), listingID, "freed@example.com")
	require.NoError(t, err)
	assert.False(t, freed, "cancelled bookings release the email")

	other, err := repo.HasActiveBookingForEmail(context.Background(), uuid.New(), "taken@example.com")
	require.NoError(t, err)
	assert.False(t, other)
}

func TestRepositoryList_pagination(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)

	listingID := uuid.New()
	now := time.Now().UTC()
	older := createBooking(t, db, listingID, "first@example.com", enums.BookingStatusBooked, now.Add(-time.Hour))
	newer := createBooking(t, db, listingID, "second@example.com", enums.BookingStatusBooked, now)

	page, err := repo.List(context.Background(), enums.CategoryEvent, nil, pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 2, "repo over-fetches one row for next-page detection")
	assert.Equal(t, newer.ID, page[0].ID)

	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: page[0].CreatedAt, ID: page[0].ID})
	second, err := repo.List(context.Background(), enums.CategoryEvent, nil, pagination.Params{Limit: 1, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, older.ID, second[0].ID)

	filtered, err := repo.List(context.Background(), enums.CategoryDining, nil, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, filtered)

	otherListing := uuid.New()
	byListing, err := repo.List(context.Background(), enums.CategoryEvent, &otherListing, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, byListing)
}

func TestRepositoryUpdateStatus(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)

	booking := createBooking(t, db, uuid.New(), "cancel@example.com", enums.BookingStatusBooked, time.Now().UTC())

	rows, err := repo.UpdateStatus(context.Background(), booking.ID, enums.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	updated, err := repo.FindByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusCancelled, updated.Status)

	rows, err = repo.UpdateStatus(context.Background(), uuid.New(), enums.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Zero(t, rows)
}
