package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ticpin-app/ticpin-backend/api/responses"
	"github.com/ticpin-app/ticpin-backend/api/validators"
	checkoutsvc "github.com/ticpin-app/ticpin-backend/internal/checkout"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	pkgerrors "github.com/ticpin-app/ticpin-backend/pkg/errors"
	"github.com/ticpin-app/ticpin-backend/pkg/logger"
	"github.com/ticpin-app/ticpin-backend/pkg/types"
)

type createSessionRequest struct {
	Category    string              `json:"category" validate:"required"`
	ListingID   string              `json:"listing_id" validate:"required,uuid"`
	ListingName string              `json:"listing_name,omitempty"`
	Items       []ticketLineRequest `json:"items,omitempty" validate:"omitempty,dive"`
	Date        string              `json:"date,omitempty"`
	TimeSlot    string              `json:"time_slot,omitempty"`
	Slot        string              `json:"slot,omitempty"`
	Guests      int                 `json:"guests,omitempty" validate:"min=0"`
	Email       string              `json:"email,omitempty" validate:"omitempty,email"`
}

type ticketLineRequest struct {
	Name      string `json:"name" validate:"required"`
	UnitPrice int64  `json:"unit_price" validate:"required,min=1"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// CheckoutCreate opens a session from the client's cart snapshot.
func CheckoutCreate(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := enums.ParseCategory(strings.TrimSpace(payload.Category))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}
		listingID, err := uuid.Parse(payload.ListingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing_id"))
			return
		}

		items := make([]types.TicketLine, 0, len(payload.Items))
		for _, line := range payload.Items {
			items = append(items, types.TicketLine{
				Name:      line.Name,
				UnitPrice: line.UnitPrice,
				Quantity:  line.Quantity,
			})
		}

		session, err := svc.Create(r.Context(), checkoutsvc.CreateInput{
			Category:    category,
			ListingID:   listingID,
			ListingName: payload.ListingName,
			Items:       items,
			Date:        payload.Date,
			TimeSlot:    payload.TimeSlot,
			Slot:        payload.Slot,
			Guests:      payload.Guests,
			Email:       payload.Email,
			UserID:      callerID(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

func CheckoutGet(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func CheckoutDelete(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=0"`
}

// CheckoutUpdateQuantity sets the quantity on one cart line. Values below one
// are clamped, so a decrement at one is a no-op.
func CheckoutUpdateQuantity(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemIndex, err := pathInt(r, "itemIndex")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.UpdateQuantity(r.Context(), id, itemIndex, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func CheckoutRemoveItem(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemIndex, err := pathInt(r, "itemIndex")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.RemoveItem(r.Context(), id, itemIndex)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

type applyOfferRequest struct {
	OfferID string `json:"offer_id" validate:"required,uuid"`
}

func CheckoutApplyOffer(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload applyOfferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offerID, err := uuid.Parse(payload.OfferID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid offer_id"))
			return
		}
		session, err := svc.ApplyOffer(r.Context(), id, offerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func CheckoutRemoveOffer(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.RemoveOffer(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

func CheckoutApplyCoupon(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload applyCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.ApplyCoupon(r.Context(), id, payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func CheckoutRemoveCoupon(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.RemoveCoupon(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

type continueRequest struct {
	// Email format is checked by the service so its guard message
	// reaches the client.
	Email string `json:"email" validate:"required"`
}

func CheckoutContinue(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload continueRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.Continue(r.Context(), id, payload.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func CheckoutBack(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.Back(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

type submitRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Nationality   string `json:"nationality"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Pincode       string `json:"pincode"`
	AcceptedTerms bool   `json:"accepted_terms"`
}

type submitResponse struct {
	Confirmation *checkoutsvc.Confirmation `json:"confirmation,omitempty"`
	Session      *checkoutsvc.Session      `json:"session,omitempty"`
}

// CheckoutSubmit runs the billing guards and confirms the booking. On guard
// or submitter failure the session comes back alongside the error-free body
// so the client can re-render the billing step.
func CheckoutSubmit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload submitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		billing := checkoutsvc.BillingDetails{
			Name:        payload.Name,
			Phone:       payload.Phone,
			Nationality: payload.Nationality,
			Address:     payload.Address,
			City:        payload.City,
			Pincode:     payload.Pincode,
		}

		confirmation, session, err := svc.Submit(r.Context(), id, billing, payload.AcceptedTerms)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, submitResponse{Confirmation: confirmation, Session: session})
	}
}
