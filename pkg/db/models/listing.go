package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	"github.com/ticpin-app/ticpin-backend/pkg/types"
)

// Listing is a bookable entity: an event, a dining venue, or a play venue.
// TicketTypes is empty for dining listings, which price per reservation.
type Listing struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Category       enums.Category     `gorm:"column:category;type:text;not null"`
	Name           string             `gorm:"column:name;not null"`
	City           string             `gorm:"column:city;not null"`
	Venue          string             `gorm:"column:venue"`
	Description    string             `gorm:"column:description"`
	OrganizerEmail string             `gorm:"column:organizer_email"`
	TicketTypes    []types.TicketType `gorm:"column:ticket_types;type:jsonb;serializer:json"`
	IsActive       bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
