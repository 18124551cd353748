package bookings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ticpin-app/ticpin-backend/internal/checkout"
	"github.com/ticpin-app/ticpin-backend/internal/coupons"
	"github.com/ticpin-app/ticpin-backend/internal/pricing"
	"github.com/ticpin-app/ticpin-backend/pkg/db/models"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	pkgerrors "github.com/ticpin-app/ticpin-backend/pkg/errors"
	"github.com/ticpin-app/ticpin-backend/pkg/logger"
	"github.com/ticpin-app/ticpin-backend/pkg/metrics"
	"github.com/ticpin-app/ticpin-backend/pkg/pagination"
	"github.com/ticpin-app/ticpin-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type bookingStore interface {
	WithTx(tx *gorm.DB) bookingStore
	Create(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	HasActiveBookingForEmail(ctx context.Context, listingID uuid.UUID, email string) (bool, error)
	BookedQuantities(ctx context.Context, listingID uuid.UUID) (map[string]int, error)
	List(ctx context.Context, category enums.Category, listingID *uuid.UUID, params pagination.Params) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.BookingStatus) (int64, error)
}

type listingLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

type couponRedeemer interface {
	Validate(ctx context.Context, code string, orderAmount int64, userID *uuid.UUID) (*coupons.ValidateResult, error)
	IncrementUsage(ctx context.Context, tx *gorm.DB, id uuid.UUID, maxUses int) error
}

type confirmedPublisher interface {
	PublishBookingConfirmed(ctx context.Context, booking *models.Booking) error
}

// Service creates and queries bookings across all categories.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Booking, error)
	SubmitSession(ctx context.Context, session *checkout.Session) (*checkout.Confirmation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	Availability(ctx context.Context, listingID uuid.UUID) (*AvailabilityReport, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	ListAdmin(ctx context.Context, category enums.Category, listingID *uuid.UUID, params pagination.Params) (pagination.Page[models.Booking], error)
}

type service struct {
	repo       bookingStore
	tx         txRunner
	listings   listingLoader
	coupons    couponRedeemer
	publisher  confirmedPublisher
	metrics    *metrics.BookingMetrics
	logg       *logger.Logger
	feePercent int
}

// NewService builds the booking service. Publisher and metrics are optional;
// everything else is required.
func NewService(repo bookingStore, tx txRunner, listings listingLoader, couponSvc couponRedeemer, publisher confirmedPublisher, bookingMetrics *metrics.BookingMetrics, logg *logger.Logger, feePercent int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if listings == nil {
		return nil, fmt.Errorf("listing loader required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if feePercent <= 0 || feePercent > 100 {
		return nil, fmt.Errorf("fee percent out of range: %d", feePercent)
	}
	return &service{
		repo:       repo,
		tx:         tx,
		listings:   listings,
		coupons:    couponSvc,
		publisher:  publisher,
		metrics:    bookingMetrics,
		logg:       logg,
		feePercent: feePercent,
	}, nil
}

// CreateInput is the category-shaped booking payload. Tickets drive pricing
// for events and play; dining prices per reservation via OrderAmount.
type CreateInput struct {
	Category    enums.Category
	ListingID   uuid.UUID
	ListingName string
	UserEmail   string
	UserID      *uuid.UUID

	Name        string
	Phone       string
	Nationality string
	Address     string
	City        string
	Pincode     string

	Tickets  []types.TicketLine
	Date     string
	TimeSlot string
	Slot     string
	Guests   int

	OrderAmount   int64
	CouponCode    string
	OfferID       *uuid.UUID
	OfferDiscount int64
}

// AvailabilityReport pairs each ticket type with its booked count.
type AvailabilityReport struct {
	ListingID uuid.UUID          `json:"listing_id"`
	Booked    map[string]int     `json:"booked"`
	Types     []types.TicketType `json:"ticket_types"`
}

// Create validates, prices, and stores a booking. The coupon is re-validated
// server-side; an invalid code at this point is dropped rather than fatal.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Booking, error) {
	if strings.TrimSpace(input.UserEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user email is required")
	}
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	if err := validateCategoryShape(input); err != nil {
		return nil, err
	}

	listing, err := s.listings.GetByID(ctx, input.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		coded := pkgerrors.As(err)
		if coded != nil && coded.Code() == pkgerrors.CodeNotFound {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if listing.Category != input.Category {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing category mismatch")
	}
	if !listing.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing is not open for booking")
	}

	email := strings.ToLower(strings.TrimSpace(input.UserEmail))

	// Events allow one booking per email, except the organizer's own email.
	if input.Category == enums.CategoryEvent && !strings.EqualFold(email, listing.OrganizerEmail) {
		exists, err := s.repo.HasActiveBookingForEmail(ctx, listing.ID, email)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check duplicate booking")
		}
		if exists {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "this email has already booked for this event")
		}
	}

	if len(input.Tickets) > 0 {
		if err := s.checkCapacity(ctx, listing, input.Tickets); err != nil {
			return nil, err
		}
	}

	orderAmount := input.OrderAmount
	if len(input.Tickets) > 0 {
		orderAmount = pricing.OrderAmount(input.Tickets)
	}
	if orderAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}
	fee := pricing.BookingFee(orderAmount, s.feePercent)

	discount := input.OfferDiscount
	if discount < 0 {
		discount = 0
	}
	couponCode := ""
	var redeem *models.Coupon
	if strings.TrimSpace(input.CouponCode) != "" {
		result, err := s.coupons.Validate(ctx, input.CouponCode, orderAmount, input.UserID)
		if err == nil {
			discount += result.DiscountAmount
			couponCode = result.Coupon.Code
			redeem = result.Coupon
		} else if s.logg != nil {
			s.logg.Warn(s.logg.WithCategory(ctx, input.Category.String()), "coupon rejected at booking time, proceeding without it")
		}
	}

	booking := &models.Booking{
		Category:       input.Category,
		ListingID:      listing.ID,
		ListingName:    firstNonEmpty(strings.TrimSpace(input.ListingName), listing.Name),
		UserEmail:      email,
		UserID:         input.UserID,
		Name:           strings.TrimSpace(input.Name),
		Phone:          strings.TrimSpace(input.Phone),
		Nationality:    strings.TrimSpace(input.Nationality),
		Address:        strings.TrimSpace(input.Address),
		City:           strings.TrimSpace(input.City),
		Pincode:        strings.TrimSpace(input.Pincode),
		Tickets:        input.Tickets,
		Date:           input.Date,
		TimeSlot:       input.TimeSlot,
		Slot:           input.Slot,
		Guests:         input.Guests,
		OrderAmount:    orderAmount,
		BookingFee:     fee,
		DiscountAmount: discount,
		CouponCode:     couponCode,
		OfferID:        input.OfferID,
		GrandTotal:     pricing.GrandTotal(orderAmount, fee, discount, 0),
		Status:         enums.BookingStatusBooked,
	}

	// The booking row and the coupon usage bump commit together; a coupon
	// that raced out of uses rolls the whole booking back.
	var created *models.Booking
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var txErr error
		created, txErr = repo.Create(ctx, booking)
		if txErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "create booking")
		}
		if redeem != nil {
			return s.coupons.IncrementUsage(ctx, tx, redeem.ID, redeem.MaxUses)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveBooking(created.Category.String(), created.GrandTotal, couponCode != "")

	if s.publisher != nil {
		if err := s.publisher.PublishBookingConfirmed(ctx, created); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "booking_id", created.ID.String()), "booking event publish failed")
		}
	}

	return created, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	return booking, nil
}

// Availability reports booked quantities per ticket type for a listing.
func (s *service) Availability(ctx context.Context, listingID uuid.UUID) (*AvailabilityReport, error) {
	if listingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		coded := pkgerrors.As(err)
		if coded != nil && coded.Code() == pkgerrors.CodeNotFound {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}

	booked, err := s.repo.BookedQuantities(ctx, listingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate bookings")
	}
	return &AvailabilityReport{
		ListingID: listingID,
		Booked:    booked,
		Types:     listing.TicketTypes,
	}, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}
	affected, err := s.repo.UpdateStatus(ctx, id, enums.BookingStatusCancelled)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel booking")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	return nil
}

func (s *service) ListAdmin(ctx context.Context, category enums.Category, listingID *uuid.UUID, params pagination.Params) (pagination.Page[models.Booking], error) {
	if category != "" && !category.IsValid() {
		return pagination.Page[models.Booking]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	rows, err := s.repo.List(ctx, category, listingID, params)
	if err != nil {
		return pagination.Page[models.Booking]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	return pagination.NewPage(rows, params.Limit, func(booking models.Booking) pagination.Cursor {
		return pagination.Cursor{CreatedAt: booking.CreatedAt, ID: booking.ID}
	}), nil
}

// checkCapacity enforces per-ticket-type capacity from the listing data.
func (s *service) checkCapacity(ctx context.Context, listing *models.Listing, tickets []types.TicketLine) error {
	capacities := map[string]int{}
	for _, tt := range listing.TicketTypes {
		if tt.Capacity > 0 {
			capacities[tt.Name] = tt.Capacity
		}
	}
	if len(capacities) == 0 {
		return nil
	}

	booked, err := s.repo.BookedQuantities(ctx, listing.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate bookings")
	}

	for _, line := range tickets {
		capacity, capped := capacities[line.Name]
		if !capped {
			continue
		}
		if booked[line.Name]+line.Quantity > capacity {
			available := capacity - booked[line.Name]
			if available <= 0 {
				return pkgerrors.New(pkgerrors.CodeConflict, "seats full for category: "+line.Name)
			}
			return pkgerrors.New(pkgerrors.CodeConflict, "only "+strconv.Itoa(available)+" seats available for: "+line.Name)
		}
	}
	return nil
}

func validateCategoryShape(input CreateInput) error {
	switch input.Category {
	case enums.CategoryEvent:
		if len(input.Tickets) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "at least one ticket is required")
		}
	case enums.CategoryDining:
		if strings.TrimSpace(input.Date) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "booking date is required")
		}
		if strings.TrimSpace(input.TimeSlot) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "time slot is required")
		}
		if input.Guests < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "at least one guest is required")
		}
	case enums.CategoryPlay:
		if strings.TrimSpace(input.Date) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "booking date is required")
		}
		if strings.TrimSpace(input.Slot) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "slot is required")
		}
		if len(input.Tickets) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "at least one ticket is required")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}

	for _, line := range input.Tickets {
		if strings.TrimSpace(line.Name) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "ticket name is required")
		}
		if line.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "ticket quantity must be at least 1")
		}
		if line.UnitPrice <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "ticket price must be positive")
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
