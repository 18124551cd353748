package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ticpin-app/ticpin-backend/api/middleware"
	"github.com/ticpin-app/ticpin-backend/api/responses"
	"github.com/ticpin-app/ticpin-backend/api/validators"
	couponsvc "github.com/ticpin-app/ticpin-backend/internal/coupons"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	pkgerrors "github.com/ticpin-app/ticpin-backend/pkg/errors"
	"github.com/ticpin-app/ticpin-backend/pkg/logger"
)

// CouponsList returns coupons currently redeemable by the caller. Identity is
// optional; a guest only sees unrestricted coupons.
func CouponsList(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := queryCategory(r, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupons, err := svc.ListLive(r.Context(), category, callerID(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupons)
	}
}

type validateCouponRequest struct {
	Code string `json:"code" validate:"required"`
	// ListingID is accepted for contract compatibility; validation keys off
	// the code's own window, limits, and user scoping.
	ListingID   string `json:"listing_id,omitempty" validate:"omitempty,uuid"`
	OrderAmount int64  `json:"order_amount" validate:"required,min=1"`
}

type validateCouponResponse struct {
	Code           string `json:"code"`
	DiscountAmount int64  `json:"discount_amount"`
}

// CouponValidate checks a code against an order amount without consuming a
// use. Restricted coupons need the caller's bearer identity.
func CouponValidate(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload validateCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Validate(r.Context(), payload.Code, payload.OrderAmount, callerID(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, validateCouponResponse{
			Code:           result.Coupon.Code,
			DiscountAmount: result.DiscountAmount,
		})
	}
}

type upsertCouponRequest struct {
	Code          string   `json:"code" validate:"required"`
	Category      string   `json:"category" validate:"required"`
	DiscountType  string   `json:"discount_type" validate:"required,oneof=percent flat"`
	DiscountValue int64    `json:"discount_value" validate:"required,min=1"`
	UserIDs       []string `json:"user_ids,omitempty" validate:"omitempty,dive,uuid"`
	ValidFrom     string   `json:"valid_from" validate:"required"`
	ValidUntil    string   `json:"valid_until" validate:"required"`
	MaxUses       int      `json:"max_uses" validate:"min=0"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

func (req upsertCouponRequest) toInput() (couponsvc.UpsertInput, error) {
	category, err := enums.ParseCategory(strings.TrimSpace(req.Category))
	if err != nil {
		return couponsvc.UpsertInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}
	discountType, err := enums.ParseDiscountType(strings.TrimSpace(req.DiscountType))
	if err != nil {
		return couponsvc.UpsertInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount_type")
	}
	validFrom, err := time.Parse(time.RFC3339, req.ValidFrom)
	if err != nil {
		return couponsvc.UpsertInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "valid_from must be RFC 3339")
	}
	validUntil, err := time.Parse(time.RFC3339, req.ValidUntil)
	if err != nil {
		return couponsvc.UpsertInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "valid_until must be RFC 3339")
	}

	return couponsvc.UpsertInput{
		Code:          req.Code,
		Category:      category,
		DiscountType:  discountType,
		DiscountValue: req.DiscountValue,
		UserIDs:       req.UserIDs,
		ValidFrom:     validFrom,
		ValidUntil:    validUntil,
		MaxUses:       req.MaxUses,
		IsActive:      req.IsActive,
	}, nil
}

func AdminCouponCreate(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload upsertCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		coupon, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

func AdminCouponUpdate(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload upsertCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		coupon, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

func AdminCouponDelete(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "couponId")
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

func AdminCouponList(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

// callerID returns the authenticated user's id when one was seeded.
func callerID(r *http.Request) *uuid.UUID {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
