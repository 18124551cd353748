package bookings

import (
	"context"
	"fmt"

	"github.com/ticpin-app/ticpin-backend/internal/checkout"
)

// SubmitSession confirms a checkout session as a booking. It satisfies the
// checkout Submitter contract.
func (s *service) SubmitSession(ctx context.Context, session *checkout.Session) (*checkout.Confirmation, error) {
	if session == nil {
		return nil, fmt.Errorf("session required")
	}

	input := CreateInput{
		Category:    session.Category,
		ListingID:   session.ListingID,
		ListingName: session.ListingName,
		UserEmail:   session.Email,
		UserID:      session.UserID,
		Name:        session.Billing.Name,
		Phone:       session.Billing.Phone,
		Nationality: session.Billing.Nationality,
		Address:     session.Billing.Address,
		City:        session.Billing.City,
		Pincode:     session.Billing.Pincode,
		Tickets:     session.Items,
		Date:        session.Date,
		TimeSlot:    session.TimeSlot,
		Slot:        session.Slot,
		Guests:      session.Guests,
		OrderAmount: session.Quote.OrderAmount,
	}
	if session.AppliedOffer != nil {
		id := session.AppliedOffer.ID
		input.OfferID = &id
		input.OfferDiscount = session.AppliedOffer.Discount
	}
	if session.AppliedCoupon != nil {
		input.CouponCode = session.AppliedCoupon.Code
	}

	booking, err := s.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	return &checkout.Confirmation{
		BookingID:  booking.ID,
		Reference:  booking.Reference(),
		GrandTotal: booking.GrandTotal,
	}, nil
}

var _ checkout.Submitter = (*service)(nil)
