package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ticpin-app/ticpin-backend/internal/pricing"
	"github.com/ticpin-app/ticpin-backend/pkg/db"
	"github.com/ticpin-app/ticpin-backend/pkg/db/models"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	pkgerrors "github.com/ticpin-app/ticpin-backend/pkg/errors"
	"github.com/ticpin-app/ticpin-backend/pkg/pagination"
)

type couponStore interface {
	WithTx(tx *gorm.DB) couponStore
	Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	ListLive(ctx context.Context, category enums.Category, userID *uuid.UUID, now time.Time) ([]models.Coupon, error)
	List(ctx context.Context, category enums.Category, params pagination.Params) ([]models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementUsage(ctx context.Context, id uuid.UUID, maxUses int) (int64, error)
}

// ValidateResult is returned on successful coupon validation.
type ValidateResult struct {
	Coupon         *models.Coupon
	DiscountAmount int64
}

// Service validates and manages coupons.
type Service interface {
	Validate(ctx context.Context, code string, orderAmount int64, userID *uuid.UUID) (*ValidateResult, error)
	ListLive(ctx context.Context, category enums.Category, userID *uuid.UUID) ([]models.Coupon, error)
	IncrementUsage(ctx context.Context, tx *gorm.DB, id uuid.UUID, maxUses int) error
	Create(ctx context.Context, input UpsertInput) (*models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, input UpsertInput) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListAdmin(ctx context.Context, category enums.Category, params pagination.Params) (pagination.Page[models.Coupon], error)
}

type service struct {
	repo couponStore
	now  func() time.Time
}

// NewService builds a coupon service backed by the provided repository.
func NewService(repo couponStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// UpsertInput carries the admin payload for creating or updating a coupon.
type UpsertInput struct {
	Code          string
	Category      enums.Category
	DiscountType  enums.DiscountType
	DiscountValue int64
	UserIDs       []string
	ValidFrom     time.Time
	ValidUntil    time.Time
	MaxUses       int
	IsActive      *bool
}

// Validate checks a coupon code against the order amount and the requesting
// user, returning the derived discount. Error messages are user-facing.
func (s *service) Validate(ctx context.Context, code string, orderAmount int64, userID *uuid.UUID) (*ValidateResult, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	if !coupon.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not active")
	}
	now := s.now()
	if now.Before(coupon.ValidFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not yet valid")
	}
	if now.After(coupon.ValidUntil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired")
	}
	if coupon.MaxUses > 0 && coupon.UsedCount >= coupon.MaxUses {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon usage limit reached")
	}

	if len(coupon.UserIDs) > 0 {
		if userID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "this coupon is restricted and requires a logged-in user")
		}
		found := false
		for _, raw := range coupon.UserIDs {
			if strings.EqualFold(strings.TrimSpace(raw), userID.String()) {
				found = true
				break
			}
		}
		if !found {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not valid for this user")
		}
	}

	return &ValidateResult{
		Coupon:         coupon,
		DiscountAmount: pricing.Discount(coupon.DiscountType, coupon.DiscountValue, orderAmount),
	}, nil
}

func (s *service) ListLive(ctx context.Context, category enums.Category, userID *uuid.UUID) ([]models.Coupon, error) {
	if !category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	rows, err := s.repo.ListLive(ctx, category, userID, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return rows, nil
}

// IncrementUsage records a redemption. Callers pass the booking transaction
// so the usage bump commits with the booking row, or nil to run standalone.
func (s *service) IncrementUsage(ctx context.Context, tx *gorm.DB, id uuid.UUID, maxUses int) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon id is required")
	}
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	affected, err := repo.IncrementUsage(ctx, id, maxUses)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment coupon usage")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "coupon limit reached or invalid coupon")
	}
	return nil
}

func (s *service) Create(ctx context.Context, input UpsertInput) (*models.Coupon, error) {
	if err := validateUpsert(input); err != nil {
		return nil, err
	}

	coupon := &models.Coupon{
		Code:          NormalizeCode(input.Code),
		Category:      input.Category,
		DiscountType:  input.DiscountType,
		DiscountValue: input.DiscountValue,
		UserIDs:       input.UserIDs,
		ValidFrom:     input.ValidFrom,
		ValidUntil:    input.ValidUntil,
		MaxUses:       input.MaxUses,
		UsedCount:     0,
		IsActive:      true,
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}

	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpsertInput) (*models.Coupon, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon id is required")
	}
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if err := validateUpsert(input); err != nil {
		return nil, err
	}

	coupon.Code = NormalizeCode(input.Code)
	coupon.Category = input.Category
	coupon.DiscountType = input.DiscountType
	coupon.DiscountValue = input.DiscountValue
	coupon.UserIDs = input.UserIDs
	coupon.ValidFrom = input.ValidFrom
	coupon.ValidUntil = input.ValidUntil
	coupon.MaxUses = input.MaxUses
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}

	updated, err := s.repo.Update(ctx, coupon)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon id is required")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	return nil
}

func (s *service) ListAdmin(ctx context.Context, category enums.Category, params pagination.Params) (pagination.Page[models.Coupon], error) {
	if category != "" && !category.IsValid() {
		return pagination.Page[models.Coupon]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	rows, err := s.repo.List(ctx, category, params)
	if err != nil {
		return pagination.Page[models.Coupon]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return pagination.NewPage(rows, params.Limit, func(coupon models.Coupon) pagination.Cursor {
		return pagination.Cursor{CreatedAt: coupon.CreatedAt, ID: coupon.ID}
	}), nil
}

// NormalizeCode is the canonical form stored and matched for coupon codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validateUpsert(input UpsertInput) error {
	if NormalizeCode(input.Code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
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
	if input.ValidFrom.IsZero() || input.ValidUntil.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon validity window is required")
	}
	if input.ValidUntil.Before(input.ValidFrom) {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon validity window is inverted")
	}
	if input.MaxUses < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "max uses cannot be negative")
	}
	for _, raw := range input.UserIDs {
		if _, err := uuid.Parse(raw); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid user id in coupon scope")
		}
	}
	return nil
}
