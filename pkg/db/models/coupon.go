package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ticpin-app/ticpin-backend/pkg/enums"
)

// Coupon is a code-based discount validated per attempt against the backend.
// An empty UserIDs array makes the coupon global; MaxUses of zero means
// unlimited redemptions.
type Coupon struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string             `gorm:"column:code;uniqueIndex;not null"`
	Category      enums.Category     `gorm:"column:category;type:text;not null"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	DiscountValue int64              `gorm:"column:discount_value;not null"`
	UserIDs       pq.StringArray     `gorm:"column:user_ids;type:text[]"`
	ValidFrom     time.Time          `gorm:"column:valid_from;not null"`
	ValidUntil    time.Time          `gorm:"column:valid_until;not null"`
	MaxUses       int                `gorm:"column:max_uses;not null;default:0"`
	UsedCount     int                `gorm:"column:used_count;not null;default:0"`
	IsActive      bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
