package offers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ticpin-app/ticpin-backend/internal/pricing"
	"github.com/ticpin-app/ticpin-backend/pkg/db/models"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	pkgerrors "github.com/ticpin-app/ticpin-backend/pkg/errors"
	"github.com/ticpin-app/ticpin-backend/pkg/pagination"
)

type offerStore interface {
	Create(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	ListLive(ctx context.Context, category enums.Category, now time.Time) ([]models.Offer, error)
	List(ctx context.Context, category enums.Category, params pagination.Params) ([]models.Offer, error)
	Update(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes live offers to checkout and the admin surface.
type Service interface {
	ListLive(ctx context.Context, category enums.Category, listingID *uuid.UUID) ([]models.Offer, error)
	ResolveDiscount(ctx context.Context, offerID, listingID uuid.UUID, category enums.Category, orderAmount int64) (*models.Offer, int64, error)
	Create(ctx context.Context, input UpsertInput) (*models.Offer, error)
	Update(ctx context.Context, id uuid.UUID, input UpsertInput) (*models.Offer, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListAdmin(ctx context.Context, category enums.Category, params pagination.Params) (pagination.Page[models.Offer], error)
}

type service struct {
	repo offerStore
	now  func() time.Time
}

// NewService builds an offer service backed by the provided repository.
func NewService(repo offerStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("offer repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// UpsertInput carries the admin payload for creating or updating an offer.
type UpsertInput struct {
	Title         string
	Description   string
	DiscountType  enums.DiscountType
	DiscountValue int64
	AppliesTo     enums.Category
	ListingIDs    []string
	ValidUntil    time.Time
	IsActive      *bool
}

// ListLive returns offers currently applicable to the category, narrowed to
// a listing when one is provided.
func (s *service) ListLive(ctx context.Context, category enums.Category, listingID *uuid.UUID) ([]models.Offer, error) {
	if !category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	rows, err := s.repo.ListLive(ctx, category, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	if listingID == nil {
		return rows, nil
	}

	matched := make([]models.Offer, 0, len(rows))
	for _, offer := range rows {
		if offerCoversListing(offer, *listingID) {
			matched = append(matched, offer)
		}
	}
	return matched, nil
}

// ResolveDiscount re-derives the discount an offer grants against the given
// order amount, verifying the offer still applies to the listing.
func (s *service) ResolveDiscount(ctx context.Context, offerID, listingID uuid.UUID, category enums.Category, orderAmount int64) (*models.Offer, int64, error) {
	if offerID == uuid.Nil {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "offer id is required")
	}

	offer, err := s.repo.FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}

	if !offer.IsActive {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "this offer is no longer active")
	}
	if !offer.ValidUntil.After(s.now()) {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "this offer has expired")
	}
	if offer.AppliesTo != category {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "this offer does not apply here")
	}
	if !offerCoversListing(*offer, listingID) {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "this offer does not apply here")
	}

	return offer, pricing.Discount(offer.DiscountType, offer.DiscountValue, orderAmount), nil
}

func (s *service) Create(ctx context.Context, input UpsertInput) (*models.Offer, error) {
	if err := validateUpsert(input); err != nil {
		return nil, err
	}

	offer := &models.Offer{
		Title:         strings.TrimSpace(input.Title),
		Description:   input.Description,
		DiscountType:  input.DiscountType,
		DiscountValue: input.DiscountValue,
		AppliesTo:     input.AppliesTo,
		ListingIDs:    input.ListingIDs,
		ValidUntil:    input.ValidUntil,
		IsActive:      true,
	}
	if input.IsActive != nil {
		offer.IsActive = *input.IsActive
	}

	created, err := s.repo.Create(ctx, offer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpsertInput) (*models.Offer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id is required")
	}
	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	if err := validateUpsert(input); err != nil {
		return nil, err
	}

	offer.Title = strings.TrimSpace(input.Title)
	offer.Description = input.Description
	offer.DiscountType = input.DiscountType
	offer.DiscountValue = input.DiscountValue
	offer.AppliesTo = input.AppliesTo
	offer.ListingIDs = input.ListingIDs
	offer.ValidUntil = input.ValidUntil
	if input.IsActive != nil {
		offer.IsActive = *input.IsActive
	}

	updated, err := s.repo.Update(ctx, offer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer id is required")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete offer")
	}
	return nil
}

func (s *service) ListAdmin(ctx context.Context, category enums.Category, params pagination.Params) (pagination.Page[models.Offer], error) {
	if category != "" && !category.IsValid() {
		return pagination.Page[models.Offer]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	rows, err := s.repo.List(ctx, category, params)
	if err != nil {
		return pagination.Page[models.Offer]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	return pagination.NewPage(rows, params.Limit, func(offer models.Offer) pagination.Cursor {
		return pagination.Cursor{CreatedAt: offer.CreatedAt, ID: offer.ID}
	}), nil
}

func validateUpsert(input UpsertInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer title is required")
	}
	if !input.DiscountType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}
	if input.DiscountValue <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if input.DiscountType == enums.DiscountTypePercent && input.DiscountValue > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "percent discount cannot exceed 100")
	}
	if !input.AppliesTo.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if input.ValidUntil.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer validity is required")
	}
	for _, raw := range input.ListingIDs {
		if _, err := uuid.Parse(raw); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid listing id in offer scope")
		}
	}
	return nil
}

// offerCoversListing reports whether the offer applies to the listing.
// An empty scope covers the whole category.
func offerCoversListing(offer models.Offer, listingID uuid.UUID) bool {
	if len(offer.ListingIDs) == 0 {
		return true
	}
	target := listingID.String()
	for _, raw := range offer.ListingIDs {
		if strings.EqualFold(strings.TrimSpace(raw), target) {
			return true
		}
	}
	return false
}
