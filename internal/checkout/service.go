package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ticpin-app/ticpin-backend/internal/coupons"
	"github.com/ticpin-app/ticpin-backend/internal/pricing"
	"github.com/ticpin-app/ticpin-backend/pkg/db/models"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	pkgerrors "github.com/ticpin-app/ticpin-backend/pkg/errors"
	"github.com/ticpin-app/ticpin-backend/pkg/types"
)

type sessionStore interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type offerResolver interface {
	ResolveDiscount(ctx context.Context, offerID, listingID uuid.UUID, category enums.Category, orderAmount int64) (*models.Offer, int64, error)
}

type couponValidator interface {
	Validate(ctx context.Context, code string, orderAmount int64, userID *uuid.UUID) (*coupons.ValidateResult, error)
}

// Confirmation summarizes the booking created when a session is submitted.
type Confirmation struct {
	BookingID  uuid.UUID `json:"booking_id"`
	Reference  string    `json:"reference"`
	GrandTotal int64     `json:"grand_total"`
}

// Submitter turns a finished checkout session into a confirmed booking.
type Submitter interface {
	SubmitSession(ctx context.Context, session *Session) (*Confirmation, error)
}

// Service drives the checkout flow: cart mutations, promotions, and the
// review, billing and success steps.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Session, error)
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateQuantity(ctx context.Context, id uuid.UUID, index, quantity int) (*Session, error)
	RemoveItem(ctx context.Context, id uuid.UUID, index int) (*Session, error)
	ApplyOffer(ctx context.Context, id, offerID uuid.UUID) (*Session, error)
	RemoveOffer(ctx context.Context, id uuid.UUID) (*Session, error)
	ApplyCoupon(ctx context.Context, id uuid.UUID, code string) (*Session, error)
	RemoveCoupon(ctx context.Context, id uuid.UUID) (*Session, error)
	Continue(ctx context.Context, id uuid.UUID, email string) (*Session, error)
	Back(ctx context.Context, id uuid.UUID) (*Session, error)
	Submit(ctx context.Context, id uuid.UUID, billing BillingDetails, acceptedTerms bool) (*Confirmation, *Session, error)
}

type service struct {
	store      sessionStore
	offers     offerResolver
	coupons    couponValidator
	submitter  Submitter
	feePercent int
	now        func() time.Time
}

// NewService builds the checkout service backed by the provided stack.
func NewService(store sessionStore, offers offerResolver, couponSvc couponValidator, submitter Submitter, feePercent int) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if offers == nil {
		return nil, fmt.Errorf("offer resolver required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon validator required")
	}
	if submitter == nil {
		return nil, fmt.Errorf("booking submitter required")
	}
	if feePercent <= 0 || feePercent > 100 {
		return nil, fmt.Errorf("fee percent out of range: %d", feePercent)
	}
	return &service{
		store:      store,
		offers:     offers,
		coupons:    couponSvc,
		submitter:  submitter,
		feePercent: feePercent,
		now:        time.Now,
	}, nil
}

// CreateInput is the cart snapshot that opens a checkout session.
type CreateInput struct {
	Category    enums.Category
	ListingID   uuid.UUID
	ListingName string
	Items       []types.TicketLine
	Date        string
	TimeSlot    string
	Slot        string
	Guests      int
	Email       string
	UserID      *uuid.UUID
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Session, error) {
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	if strings.TrimSpace(input.ListingName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing name is required")
	}
	for _, item := range input.Items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item name is required")
		}
		if item.UnitPrice <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item price must be positive")
		}
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item quantity must be at least 1")
		}
	}

	now := s.now()
	session := &Session{
		ID:          uuid.New(),
		Category:    input.Category,
		ListingID:   input.ListingID,
		ListingName: strings.TrimSpace(input.ListingName),
		Items:       input.Items,
		Date:        input.Date,
		TimeSlot:    input.TimeSlot,
		Slot:        input.Slot,
		Guests:      input.Guests,
		Email:       strings.TrimSpace(input.Email),
		Step:        enums.CheckoutStepReview,
		UserID:      input.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.refreshQuote(ctx, session)

	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.store.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

// UpdateQuantity sets a line item quantity, clamping at 1. Decrementing from
// quantity 1 is therefore a no-op rather than an implicit removal.
func (s *service) UpdateQuantity(ctx context.Context, id uuid.UUID, index, quantity int) (*Session, error) {
	return s.mutateCart(ctx, id, func(session *Session) error {
		if index < 0 || index >= len(session.Items) {
			return pkgerrors.New(pkgerrors.CodeValidation, "line item not found")
		}
		if quantity < 1 {
			quantity = 1
		}
		session.Items[index].Quantity = quantity
		return nil
	})
}

func (s *service) RemoveItem(ctx context.Context, id uuid.UUID, index int) (*Session, error) {
	return s.mutateCart(ctx, id, func(session *Session) error {
		if index < 0 || index >= len(session.Items) {
			return pkgerrors.New(pkgerrors.CodeValidation, "line item not found")
		}
		session.Items = append(session.Items[:index], session.Items[index+1:]...)
		return nil
	})
}

// ApplyOffer attaches an offer to the session, replacing any prior one.
func (s *service) ApplyOffer(ctx context.Context, id, offerID uuid.UUID) (*Session, error) {
	return s.mutateCart(ctx, id, func(session *Session) error {
		amount := pricing.OrderAmount(session.Items)
		offer, discount, err := s.offers.ResolveDiscount(ctx, offerID, session.ListingID, session.Category, amount)
		if err != nil {
			return err
		}
		session.AppliedOffer = &AppliedOffer{ID: offer.ID, Title: offer.Title, Discount: discount}
		return nil
	})
}

func (s *service) RemoveOffer(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.mutateCart(ctx, id, func(session *Session) error {
		session.AppliedOffer = nil
		return nil
	})
}

// ApplyCoupon validates and attaches a coupon, replacing any prior one.
func (s *service) ApplyCoupon(ctx context.Context, id uuid.UUID, code string) (*Session, error) {
	return s.mutateCart(ctx, id, func(session *Session) error {
		amount := pricing.OrderAmount(session.Items)
		result, err := s.coupons.Validate(ctx, code, amount, session.UserID)
		if err != nil {
			return err
		}
		session.AppliedCoupon = &AppliedCoupon{Code: result.Coupon.Code, Discount: result.DiscountAmount}
		return nil
	})
}

func (s *service) RemoveCoupon(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.mutateCart(ctx, id, func(session *Session) error {
		session.AppliedCoupon = nil
		return nil
	})
}

// Continue advances review to billing, guarded by a plausible email.
func (s *service) Continue(ctx context.Context, id uuid.UUID, email string) (*Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Step != enums.CheckoutStepReview {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout has moved past the review step")
	}
	if len(session.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "your cart is empty")
	}
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please enter a valid email address")
	}

	session.Notice = ""
	session.Email = email
	session.Step = enums.CheckoutStepBilling
	session.UpdatedAt = s.now()
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Back returns from billing to review unconditionally, keeping all data.
func (s *service) Back(ctx context.Context, id uuid.UUID) (*Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Step != enums.CheckoutStepBilling {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not on the billing step")
	}

	session.Notice = ""
	session.Step = enums.CheckoutStepReview
	session.UpdatedAt = s.now()
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Submit validates billing, recomputes the quote, and creates the booking.
// Failure keeps the session on billing with its data intact; success is
// terminal and clears the stored session.
func (s *service) Submit(ctx context.Context, id uuid.UUID, billing BillingDetails, acceptedTerms bool) (*Confirmation, *Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if session.Step != enums.CheckoutStepBilling {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not on the billing step")
	}
	if len(session.Items) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "your cart is empty")
	}

	session.Billing = billing
	session.AcceptedTerms = acceptedTerms
	if err := validateBilling(billing, acceptedTerms); err != nil {
		// Guard failures leave the step untouched but keep the entered data.
		if saveErr := s.store.Save(ctx, session); saveErr != nil {
			return nil, nil, saveErr
		}
		return nil, session, err
	}

	session.Notice = ""
	s.refreshQuote(ctx, session)
	session.UpdatedAt = s.now()

	confirmation, err := s.submitter.SubmitSession(ctx, session)
	if err != nil {
		if saveErr := s.store.Save(ctx, session); saveErr != nil {
			return nil, nil, saveErr
		}
		return nil, session, err
	}

	session.Step = enums.CheckoutStepSuccess
	if err := s.store.Delete(ctx, session.ID); err != nil {
		return confirmation, session, nil
	}
	return confirmation, session, nil
}

// mutateCart runs a cart edit in the review step, then rebuilds the quote and
// re-derives both promotions before persisting.
func (s *service) mutateCart(ctx context.Context, id uuid.UUID, mutate func(*Session) error) (*Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Step != enums.CheckoutStepReview {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart cannot be modified after the review step")
	}

	session.Notice = ""
	if err := mutate(session); err != nil {
		return nil, err
	}

	s.refreshQuote(ctx, session)
	session.UpdatedAt = s.now()
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// refreshQuote rebuilds every derived figure from the line items. Applied
// promotions are re-derived against the new amount; a promotion the backend
// now rejects is dropped and its reason surfaced via Notice.
func (s *service) refreshQuote(ctx context.Context, session *Session) {
	amount := pricing.OrderAmount(session.Items)
	if amount == 0 {
		session.AppliedOffer = nil
		session.AppliedCoupon = nil
		session.Quote = pricing.Quote{}
		return
	}

	if session.AppliedOffer != nil {
		offer, discount, err := s.offers.ResolveDiscount(ctx, session.AppliedOffer.ID, session.ListingID, session.Category, amount)
		if err != nil {
			session.Notice = publicMessage(err)
			session.AppliedOffer = nil
		} else {
			session.AppliedOffer = &AppliedOffer{ID: offer.ID, Title: offer.Title, Discount: discount}
		}
	}

	if session.AppliedCoupon != nil {
		result, err := s.coupons.Validate(ctx, session.AppliedCoupon.Code, amount, session.UserID)
		if err != nil {
			session.Notice = publicMessage(err)
			session.AppliedCoupon = nil
		} else {
			session.AppliedCoupon = &AppliedCoupon{Code: result.Coupon.Code, Discount: result.DiscountAmount}
		}
	}

	session.Quote = pricing.Compute(session.Items, s.feePercent, session.offerDiscount(), session.couponDiscount())
}

func validateBilling(billing BillingDetails, acceptedTerms bool) error {
	if strings.TrimSpace(billing.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Please enter your full name")
	}
	if digitCount(billing.Phone) < 10 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Please enter a valid phone number")
	}
	if strings.TrimSpace(billing.Nationality) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Please select your nationality")
	}
	if strings.TrimSpace(billing.Address) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Please enter your address")
	}
	if strings.TrimSpace(billing.City) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Please enter your city")
	}
	if digitCount(billing.Pincode) < 6 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Please enter a valid PIN code")
	}
	if !acceptedTerms {
		return pkgerrors.New(pkgerrors.CodeValidation, "Please accept the terms and conditions")
	}
	return nil
}

func digitCount(value string) int {
	count := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			count++
		}
	}
	return count
}

func publicMessage(err error) string {
	if coded := pkgerrors.As(err); coded != nil {
		return coded.Message()
	}
	return err.Error()
}
