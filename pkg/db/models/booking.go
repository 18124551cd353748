package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	"github.com/ticpin-app/ticpin-backend/pkg/types"
)

// Booking is a confirmed reservation for any category. Category-specific
// fields (Date, TimeSlot, Slot, Guests) are populated per vertical; all money
// columns are the currency's smallest unit.
type Booking struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Category       enums.Category      `gorm:"column:category;type:text;not null"`
	ListingID      uuid.UUID           `gorm:"column:listing_id;type:uuid;not null"`
	ListingName    string              `gorm:"column:listing_name;not null"`
	UserEmail      string              `gorm:"column:user_email;not null"`
	UserID         *uuid.UUID          `gorm:"column:user_id;type:uuid"`
	Name           string              `gorm:"column:name;not null"`
	Phone          string              `gorm:"column:phone;not null"`
	Nationality    string              `gorm:"column:nationality"`
	Address        string              `gorm:"column:address"`
	City           string              `gorm:"column:city"`
	Pincode        string              `gorm:"column:pincode"`
	Tickets        []types.TicketLine  `gorm:"column:tickets;type:jsonb;serializer:json"`
	Date           string              `gorm:"column:date"`
	TimeSlot       string              `gorm:"column:time_slot"`
	Slot           string              `gorm:"column:slot"`
	Guests         int                 `gorm:"column:guests;not null;default:0"`
	OrderAmount    int64               `gorm:"column:order_amount;not null"`
	BookingFee     int64               `gorm:"column:booking_fee;not null"`
	DiscountAmount int64               `gorm:"column:discount_amount;not null;default:0"`
	CouponCode     string              `gorm:"column:coupon_code"`
	OfferID        *uuid.UUID          `gorm:"column:offer_id;type:uuid"`
	GrandTotal     int64               `gorm:"column:grand_total;not null"`
	Status         enums.BookingStatus `gorm:"column:status;type:text;not null;default:'booked'"`
	BookedAt       time.Time           `gorm:"column:booked_at;autoCreateTime"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Reference is the short user-facing booking handle: the last ten characters
// of the canonical id, uppercased. The full id stays canonical for lookups.
func (b Booking) Reference() string {
	id := strings.ReplaceAll(b.ID.String(), "-", "")
	if len(id) > 10 {
		id = id[len(id)-10:]
	}
	return strings.ToUpper(id)
}
