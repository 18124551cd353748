package offers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ticpin-app/ticpin-backend/pkg/db/models"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	pkgerrors "github.com/ticpin-app/ticpin-backend/pkg/errors"
	"github.com/ticpin-app/ticpin-backend/pkg/pagination"
)

type stubRepo struct {
	byID map[uuid.UUID]*models.Offer
	live []models.Offer
}

func (s *stubRepo) Create(_ context.Context, offer *models.Offer) (*models.Offer, error) {
	offer.ID = uuid.New()
	return offer, nil
}

func (s *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Offer, error) {
	if offer, ok := s.byID[id]; ok {
		copied := *offer
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) ListLive(_ context.Context, _ enums.Category, _ time.Time) ([]models.Offer, error) {
	return s.live, nil
}

func (s *stubRepo) List(_ context.Context, _ enums.Category, _ pagination.Params) ([]models.Offer, error) {
	return s.live, nil
}

func (s *stubRepo) Update(_ context.Context, offer *models.Offer) (*models.Offer, error) {
	return offer, nil
}

func (s *stubRepo) Delete(_ context.Context, _ uuid.UUID) error {
	return nil
}

func newTestService(t *testing.T, repo *stubRepo, now time.Time) *service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	typed := svc.(*service)
	typed.now = func() time.Time { return now }
	return typed
}

func TestResolveDiscountPercent(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	offerID := uuid.New()
	repo := &stubRepo{byID: map[uuid.UUID]*models.Offer{
		offerID: {
			ID:            offerID,
			Title:         "Weekend 10",
			DiscountType:  enums.DiscountTypePercent,
			DiscountValue: 10,
			AppliesTo:     enums.CategoryEvent,
			ValidUntil:    now.Add(24 * time.Hour),
			IsActive:      true,
		},
	}}
	svc := newTestService(t, repo, now)

	offer, discount, err := svc.ResolveDiscount(context.Background(), offerID, uuid.New(), enums.CategoryEvent, 1000)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if offer.ID != offerID {
		t.Fatalf("unexpected offer %s", offer.ID)
	}
	if discount != 100 {
		t.Fatalf("expected discount 100, got %d", discount)
	}
}

func TestResolveDiscountRejectsExpired(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	offerID := uuid.New()
	repo := &stubRepo{byID: map[uuid.UUID]*models.Offer{
		offerID: {
			ID:            offerID,
			DiscountType:  enums.DiscountTypeFlat,
			DiscountValue: 200,
			AppliesTo:     enums.CategoryDining,
			ValidUntil:    now.Add(-time.Minute),
			IsActive:      true,
		},
	}}
	svc := newTestService(t, repo, now)

	_, _, err := svc.ResolveDiscount(context.Background(), offerID, uuid.New(), enums.CategoryDining, 1000)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveDiscountHonorsListingScope(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	inScope := uuid.New()
	offerID := uuid.New()
	repo := &stubRepo{byID: map[uuid.UUID]*models.Offer{
		offerID: {
			ID:            offerID,
			DiscountType:  enums.DiscountTypeFlat,
			DiscountValue: 200,
			AppliesTo:     enums.CategoryPlay,
			ListingIDs:    []string{inScope.String()},
			ValidUntil:    now.Add(time.Hour),
			IsActive:      true,
		},
	}}
	svc := newTestService(t, repo, now)

	if _, _, err := svc.ResolveDiscount(context.Background(), offerID, inScope, enums.CategoryPlay, 1000); err != nil {
		t.Fatalf("in-scope listing rejected: %v", err)
	}
	if _, _, err := svc.ResolveDiscount(context.Background(), offerID, uuid.New(), enums.CategoryPlay, 1000); err == nil {
		t.Fatal("expected rejection for out-of-scope listing")
	}
}

func TestListLiveFiltersByListing(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	target := uuid.New()
	repo := &stubRepo{live: []models.Offer{
		{ID: uuid.New(), Title: "Whole category"},
		{ID: uuid.New(), Title: "Scoped", ListingIDs: []string{target.String()}},
		{ID: uuid.New(), Title: "Other listing", ListingIDs: []string{uuid.NewString()}},
	}}
	svc := newTestService(t, repo, now)

	rows, err := svc.ListLive(context.Background(), enums.CategoryEvent, &target)
	if err != nil {
		t.Fatalf("list live: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(rows))
	}
}

func TestCreateValidatesPercentRange(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, time.Now())

	_, err := svc.Create(context.Background(), UpsertInput{
		Title:         "Too generous",
		DiscountType:  enums.DiscountTypePercent,
		DiscountValue: 150,
		AppliesTo:     enums.CategoryEvent,
		ValidUntil:    time.Now().Add(time.Hour),
	})
	if err == nil {
		t.Fatal("expected validation error for >100 percent")
	}
}

func TestCreateRejectsMalformedListingIDs(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, time.Now())

	_, err := svc.Create(context.Background(), UpsertInput{
		Title:         "Scoped",
		DiscountType:  enums.DiscountTypeFlat,
		DiscountValue: 100,
		AppliesTo:     enums.CategoryEvent,
		ListingIDs:    []string{"not-a-uuid"},
		ValidUntil:    time.Now().Add(time.Hour),
	})
	if err == nil {
		t.Fatal("expected validation error for malformed listing id")
	}
}
