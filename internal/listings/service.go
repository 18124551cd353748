package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ticpin-app/ticpin-backend/pkg/db/models"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	pkgerrors "github.com/ticpin-app/ticpin-backend/pkg/errors"
	"github.com/ticpin-app/ticpin-backend/pkg/pagination"
	"github.com/ticpin-app/ticpin-backend/pkg/types"
)

type listingStore interface {
	Create(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Listing, error)
	Update(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes listings to the public catalogue and the admin surface.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListPublic(ctx context.Context, category enums.Category, city string, params pagination.Params) (pagination.Page[models.Listing], error)
	Create(ctx context.Context, input UpsertInput) (*models.Listing, error)
	Update(ctx context.Context, id uuid.UUID, input UpsertInput) (*models.Listing, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListAdmin(ctx context.Context, category enums.Category, params pagination.Params) (pagination.Page[models.Listing], error)
}

type service struct {
	repo listingStore
}

// NewService builds a listing service backed by the provided repository.
func NewService(repo listingStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listing repository required")
	}
	return &service{repo: repo}, nil
}

// UpsertInput carries the admin payload for creating or updating a listing.
type UpsertInput struct {
	Category       enums.Category
	Name           string
	City           string
	Venue          string
	Description    string
	OrganizerEmail string
	TicketTypes    []types.TicketType
	IsActive       *bool
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	return listing, nil
}

func (s *service) ListPublic(ctx context.Context, category enums.Category, city string, params pagination.Params) (pagination.Page[models.Listing], error) {
	if category != "" && !category.IsValid() {
		return pagination.Page[models.Listing]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	rows, err := s.repo.List(ctx, ListFilter{Category: category, City: city, ActiveOnly: true}, params)
	if err != nil {
		return pagination.Page[models.Listing]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list listings")
	}
	return pagination.NewPage(rows, params.Limit, listingCursor), nil
}

func (s *service) Create(ctx context.Context, input UpsertInput) (*models.Listing, error) {
	if err := validateUpsert(input); err != nil {
		return nil, err
	}

	listing := &models.Listing{
		Category:       input.Category,
		Name:           strings.TrimSpace(input.Name),
		City:           strings.TrimSpace(input.City),
		Venue:          strings.TrimSpace(input.Venue),
		Description:    input.Description,
		OrganizerEmail: strings.ToLower(strings.TrimSpace(input.OrganizerEmail)),
		TicketTypes:    input.TicketTypes,
		IsActive:       true,
	}
	if input.IsActive != nil {
		listing.IsActive = *input.IsActive
	}

	created, err := s.repo.Create(ctx, listing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpsertInput) (*models.Listing, error) {
	listing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateUpsert(input); err != nil {
		return nil, err
	}

	listing.Category = input.Category
	listing.Name = strings.TrimSpace(input.Name)
	listing.City = strings.TrimSpace(input.City)
	listing.Venue = strings.TrimSpace(input.Venue)
	listing.Description = input.Description
	listing.OrganizerEmail = strings.ToLower(strings.TrimSpace(input.OrganizerEmail))
	listing.TicketTypes = input.TicketTypes
	if input.IsActive != nil {
		listing.IsActive = *input.IsActive
	}

	updated, err := s.repo.Update(ctx, listing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete listing")
	}
	return nil
}

func (s *service) ListAdmin(ctx context.Context, category enums.Category, params pagination.Params) (pagination.Page[models.Listing], error) {
	if category != "" && !category.IsValid() {
		return pagination.Page[models.Listing]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	rows, err := s.repo.List(ctx, ListFilter{Category: category}, params)
	if err != nil {
		return pagination.Page[models.Listing]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list listings")
	}
	return pagination.NewPage(rows, params.Limit, listingCursor), nil
}

func validateUpsert(input UpsertInput) error {
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "listing name is required")
	}
	if strings.TrimSpace(input.City) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "listing city is required")
	}
	for _, tt := range input.TicketTypes {
		if strings.TrimSpace(tt.Name) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "ticket type name is required")
		}
		if tt.UnitPrice <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "ticket type price must be positive")
		}
		if tt.Capacity < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "ticket type capacity cannot be negative")
		}
	}
	return nil
}

func listingCursor(listing models.Listing) pagination.Cursor {
	return pagination.Cursor{CreatedAt: listing.CreatedAt, ID: listing.ID}
}
