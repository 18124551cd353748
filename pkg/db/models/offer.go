package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ticpin-app/ticpin-backend/pkg/enums"
)

// Offer is an admin-authored promotional discount on a category or on
// specific listings within it. An empty ListingIDs array applies the offer
// to the whole category.
type Offer struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title         string             `gorm:"column:title;not null"`
	Description   string             `gorm:"column:description"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	DiscountValue int64              `gorm:"column:discount_value;not null"`
	AppliesTo     enums.Category     `gorm:"column:applies_to;type:text;not null"`
	ListingIDs    pq.StringArray     `gorm:"column:listing_ids;type:text[]"`
	ValidUntil    time.Time          `gorm:"column:valid_until;not null"`
	IsActive      bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
