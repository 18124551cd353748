package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ticpin-app/ticpin-backend/api/responses"
	"github.com/ticpin-app/ticpin-backend/api/validators"
	offersvc "github.com/ticpin-app/ticpin-backend/internal/offers"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	pkgerrors "github.com/ticpin-app/ticpin-backend/pkg/errors"
	"github.com/ticpin-app/ticpin-backend/pkg/logger"
)

// OffersList serves live offers for a category, narrowed to a listing when
// ?listing_id= is present.
func OffersList(svc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := queryCategory(r, true)
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

		offers, err := svc.ListLive(r.Context(), category, listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offers)
	}
}

type upsertOfferRequest struct {
	Title         string   `json:"title" validate:"required"`
	Description   string   `json:"description,omitempty"`
	DiscountType  string   `json:"discount_type" validate:"required,oneof=percent flat"`
	DiscountValue int64    `json:"discount_value" validate:"required,min=1"`
	AppliesTo     string   `json:"applies_to" validate:"required"`
	ListingIDs    []string `json:"listing_ids,omitempty" validate:"omitempty,dive,uuid"`
	ValidUntil    string   `json:"valid_until" validate:"required"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

func (req upsertOfferRequest) toInput() (offersvc.UpsertInput, error) {
	category, err := enums.ParseCategory(strings.TrimSpace(req.AppliesTo))
	if err != nil {
		return offersvc.UpsertInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid applies_to")
	}
	discountType, err := enums.ParseDiscountType(strings.TrimSpace(req.DiscountType))
	if err != nil {
		return offersvc.UpsertInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount_type")
	}
	validUntil, err := time.Parse(time.RFC3339, req.ValidUntil)
	if err != nil {
		return offersvc.UpsertInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "valid_until must be RFC 3339")
	}

	return offersvc.UpsertInput{
		Title:         req.Title,
		Description:   req.Description,
		DiscountType:  discountType,
		DiscountValue: req.DiscountValue,
		AppliesTo:     category,
		ListingIDs:    req.ListingIDs,
		ValidUntil:    validUntil,
		IsActive:      req.IsActive,
	}, nil
}

func AdminOfferCreate(svc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload upsertOfferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offer, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, offer)
	}
}

func AdminOfferUpdate(svc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload upsertOfferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offer, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

func AdminOfferDelete(svc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "offerId")
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

func AdminOfferList(svc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := queryCategory(r, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := queryPagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListAdmin(r.Context(), category, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
