package checkout

import (
	"time"

	"github.com/google/uuid"

	"github.com/ticpin-app/ticpin-backend/internal/pricing"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	"github.com/ticpin-app/ticpin-backend/pkg/types"
)

// Session is the single checkout aggregate: the cart snapshot, contact and
// billing data, applied promotions, the current step, and the derived quote.
// All derived figures live in Quote and are rebuilt on every mutation.
type Session struct {
	ID          uuid.UUID          `json:"id"`
	Category    enums.Category     `json:"category"`
	ListingID   uuid.UUID          `json:"listing_id"`
	ListingName string             `json:"listing_name"`
	Items       []types.TicketLine `json:"items"`

	// Category-specific booking fields, opaque to pricing.
	Date     string `json:"date,omitempty"`
	TimeSlot string `json:"time_slot,omitempty"`
	Slot     string `json:"slot,omitempty"`
	Guests   int    `json:"guests,omitempty"`

	Email         string         `json:"email"`
	Billing       BillingDetails `json:"billing"`
	AcceptedTerms bool           `json:"accepted_terms"`

	AppliedOffer  *AppliedOffer      `json:"applied_offer,omitempty"`
	AppliedCoupon *AppliedCoupon     `json:"applied_coupon,omitempty"`
	Step          enums.CheckoutStep `json:"step"`
	Quote         pricing.Quote      `json:"quote"`

	// Notice carries the reason a promotion was dropped during the last
	// mutation, for the client to surface. Cleared on the next mutation.
	Notice string `json:"notice,omitempty"`

	UserID    *uuid.UUID `json:"user_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BillingDetails is the contact block collected on the billing step.
type BillingDetails struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Nationality string `json:"nationality"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Pincode     string `json:"pincode"`
}

// AppliedOffer records the offer attached to the session and its discount
// as last derived against the current order amount.
type AppliedOffer struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Discount int64     `json:"discount"`
}

// AppliedCoupon records the coupon attached to the session and its discount
// as last validated against the current order amount.
type AppliedCoupon struct {
	Code     string `json:"code"`
	Discount int64  `json:"discount"`
}

func (s *Session) offerDiscount() int64 {
	if s.AppliedOffer == nil {
		return 0
	}
	return s.AppliedOffer.Discount
}

func (s *Session) couponDiscount() int64 {
	if s.AppliedCoupon == nil {
		return 0
	}
	return s.AppliedCoupon.Discount
}
