package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ticpin-app/ticpin-backend/api/responses"
	"github.com/ticpin-app/ticpin-backend/api/validators"
	listingsvc "github.com/ticpin-app/ticpin-backend/internal/listings"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	pkgerrors "github.com/ticpin-app/ticpin-backend/pkg/errors"
	"github.com/ticpin-app/ticpin-backend/pkg/logger"
	"github.com/ticpin-app/ticpin-backend/pkg/pagination"
	"github.com/ticpin-app/ticpin-backend/pkg/types"
)

// ListingsList serves the public browse surface for one category.
func ListingsList(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		city := validators.SanitizeString(r.URL.Query().Get("city"), 120)
		page, err := svc.ListPublic(r.Context(), category, city, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func ListingDetail(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

type ticketTypeRequest struct {
	Name      string `json:"name" validate:"required"`
	UnitPrice int64  `json:"unit_price" validate:"required,min=1"`
	Capacity  int    `json:"capacity" validate:"min=0"`
}

type upsertListingRequest struct {
	Category       string              `json:"category" validate:"required"`
	Name           string              `json:"name" validate:"required"`
	City           string              `json:"city" validate:"required"`
	Venue          string              `json:"venue,omitempty"`
	Description    string              `json:"description,omitempty"`
	OrganizerEmail string              `json:"organizer_email,omitempty" validate:"omitempty,email"`
	TicketTypes    []ticketTypeRequest `json:"ticket_types,omitempty" validate:"omitempty,dive"`
	IsActive       *bool               `json:"is_active,omitempty"`
}

func (req upsertListingRequest) toInput() (listingsvc.UpsertInput, error) {
	category, err := enums.ParseCategory(strings.TrimSpace(req.Category))
	if err != nil {
		return listingsvc.UpsertInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}

	ticketTypes := make([]types.TicketType, 0, len(req.TicketTypes))
	for _, tt := range req.TicketTypes {
		ticketTypes = append(ticketTypes, types.TicketType{
			Name:      tt.Name,
			UnitPrice: tt.UnitPrice,
			Capacity:  tt.Capacity,
		})
	}

	return listingsvc.UpsertInput{
		Category:       category,
		Name:           req.Name,
		City:           req.City,
		Venue:          req.Venue,
		Description:    req.Description,
		OrganizerEmail: req.OrganizerEmail,
		TicketTypes:    ticketTypes,
		IsActive:       req.IsActive,
	}, nil
}

func AdminListingCreate(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload upsertListingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

func AdminListingUpdate(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload upsertListingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

func AdminListingDelete(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "listingId")
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

func AdminListingList(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

// queryCategory reads ?category=. When required it must parse; otherwise an
// absent value returns the zero Category.
func queryCategory(r *http.Request, required bool) (enums.Category, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("category"))
	if raw == "" {
		if required {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "category is required")
		}
		return "", nil
	}
	category, err := enums.ParseCategory(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}
	return category, nil
}

func queryPagination(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

func pathInt(r *http.Request, key string) (int, error) {
	raw := chi.URLParam(r, key)
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+key)
	}
	return value, nil
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := chi.URLParam(r, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}
