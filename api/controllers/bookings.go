package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ticpin-app/ticpin-backend/api/responses"
	"github.com/ticpin-app/ticpin-backend/api/validators"
	bookingsvc "github.com/ticpin-app/ticpin-backend/internal/bookings"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	pkgerrors "github.com/ticpin-app/ticpin-backend/pkg/errors"
	"github.com/ticpin-app/ticpin-backend/pkg/logger"
	"github.com/ticpin-app/ticpin-backend/pkg/types"
)

type createBookingRequest struct {
	ListingID   string              `json:"listing_id" validate:"required,uuid"`
	ListingName string              `json:"listing_name,omitempty"`
	UserEmail   string              `json:"user_email" validate:"required,email"`
	Name        string              `json:"name,omitempty"`
	Phone       string              `json:"phone,omitempty"`
	Nationality string              `json:"nationality,omitempty"`
	Address     string              `json:"address,omitempty"`
	City        string              `json:"city,omitempty"`
	Pincode     string              `json:"pincode,omitempty"`
	Tickets     []ticketLineRequest `json:"tickets,omitempty" validate:"omitempty,dive"`
	Date        string              `json:"date,omitempty"`
	TimeSlot    string              `json:"time_slot,omitempty"`
	Slot        string              `json:"slot,omitempty"`
	Guests      int                 `json:"guests,omitempty" validate:"min=0"`
	OrderAmount int64               `json:"order_amount,omitempty" validate:"min=0"`
	CouponCode  string              `json:"coupon_code,omitempty"`
	OfferID     string              `json:"offer_id,omitempty" validate:"omitempty,uuid"`
}

// BookingCreate confirms a direct booking for the category in the path.
func BookingCreate(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := enums.ParseCategory(chi.URLParam(r, "category"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}

		var payload createBookingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := uuid.Parse(payload.ListingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing_id"))
			return
		}

		input := bookingsvc.CreateInput{
			Category:    category,
			ListingID:   listingID,
			ListingName: payload.ListingName,
			UserEmail:   payload.UserEmail,
			UserID:      callerID(r),
			Name:        payload.Name,
			Phone:       payload.Phone,
			Nationality: payload.Nationality,
			Address:     payload.Address,
			City:        payload.City,
			Pincode:     payload.Pincode,
			Date:        payload.Date,
			TimeSlot:    payload.TimeSlot,
			Slot:        payload.Slot,
			Guests:      payload.Guests,
			OrderAmount: payload.OrderAmount,
			CouponCode:  payload.CouponCode,
		}
		for _, line := range payload.Tickets {
			input.Tickets = append(input.Tickets, types.TicketLine{
				Name:      line.Name,
				UnitPrice: line.UnitPrice,
				Quantity:  line.Quantity,
			})
		}
		if raw := strings.TrimSpace(payload.OfferID); raw != "" {
			offerID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid offer_id"))
				return
			}
			input.OfferID = &offerID
		}

		booking, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"booking":   booking,
			"reference": booking.Reference(),
		})
	}
}

// BookingAvailability reports booked counts per ticket type for a listing.
func BookingAvailability(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Availability(r.Context(), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func BookingDetail(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

func AdminBookingList(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := queryCategory(r, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := queryPagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var listingID *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("listing_id")); raw != "" {
			id, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid listing_id"))
				return
			}
			listingID = &id
		}

		page, err := svc.ListAdmin(r.Context(), category, listingID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminBookingCancel(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Cancel(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}
