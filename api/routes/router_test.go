package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingsvc "github.com/ticpin-app/ticpin-backend/internal/bookings"
	checkoutsvc "github.com/ticpin-app/ticpin-backend/internal/checkout"
	couponsvc "github.com/ticpin-app/ticpin-backend/internal/coupons"
	listingsvc "github.com/ticpin-app/ticpin-backend/internal/listings"
	offersvc "github.com/ticpin-app/ticpin-backend/internal/offers"
	pkgauth "github.com/ticpin-app/ticpin-backend/pkg/auth"
	"github.com/ticpin-app/ticpin-backend/pkg/config"
	"github.com/ticpin-app/ticpin-backend/pkg/db/models"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	"github.com/ticpin-app/ticpin-backend/pkg/logger"
	"github.com/ticpin-app/ticpin-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubListingsService struct{}

func (stubListingsService) GetByID(context.Context, uuid.UUID) (*models.Listing, error) {
	return &models.Listing{}, nil
}

func (stubListingsService) ListPublic(context.Context, enums.Category, string, pagination.Params) (pagination.Page[models.Listing], error) {
	return pagination.Page[models.Listing]{}, nil
}

func (stubListingsService) Create(context.Context, listingsvc.UpsertInput) (*models.Listing, error) {
	return &models.Listing{}, nil
}

func (stubListingsService) Update(context.Context, uuid.UUID, listingsvc.UpsertInput) (*models.Listing, error) {
	return &models.Listing{}, nil
}

func (stubListingsService) Delete(context.Context, uuid.UUID) error { return nil }

func (stubListingsService) ListAdmin(context.Context, enums.Category, pagination.Params) (pagination.Page[models.Listing], error) {
	return pagination.Page[models.Listing]{}, nil
}

type stubOffersService struct{}

func (stubOffersService) ListLive(context.Context, enums.Category, *uuid.UUID) ([]models.Offer, error) {
	return nil, nil
}

func (stubOffersService) ResolveDiscount(context.Context, uuid.UUID, uuid.UUID, enums.Category, int64) (*models.Offer, int64, error) {
	return nil, 0, nil
}

func (stubOffersService) Create(context.Context, offersvc.UpsertInput) (*models.Offer, error) {
	return &models.Offer{}, nil
}

func (stubOffersService) Update(context.Context, uuid.UUID, offersvc.UpsertInput) (*models.Offer, error) {
	return &models.Offer{}, nil
}

func (stubOffersService) Delete(context.Context, uuid.UUID) error { return nil }

func (stubOffersService) ListAdmin(context.Context, enums.Category, pagination.Params) (pagination.Page[models.Offer], error) {
	return pagination.Page[models.Offer]{}, nil
}

type stubCouponsService struct{}

func (stubCouponsService) Validate(context.Context, string, int64, *uuid.UUID) (*couponsvc.ValidateResult, error) {
	return &couponsvc.ValidateResult{Coupon: &models.Coupon{Code: "WELCOME"}, DiscountAmount: 100}, nil
}

func (stubCouponsService) ListLive(context.Context, enums.Category, *uuid.UUID) ([]models.Coupon, error) {
	return nil, nil
}

func (stubCouponsService) IncrementUsage(context.Context, *gorm.DB, uuid.UUID, int) error {
	return nil
}

func (stubCouponsService) Create(context.Context, couponsvc.UpsertInput) (*models.Coupon, error) {
	return &models.Coupon{}, nil
}

func (stubCouponsService) Update(context.Context, uuid.UUID, couponsvc.UpsertInput) (*models.Coupon, error) {
	return &models.Coupon{}, nil
}

func (stubCouponsService) Delete(context.Context, uuid.UUID) error { return nil }

func (stubCouponsService) ListAdmin(context.Context, enums.Category, pagination.Params) (pagination.Page[models.Coupon], error) {
	return pagination.Page[models.Coupon]{}, nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) Create(context.Context, checkoutsvc.CreateInput) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{}, nil
}

func (stubCheckoutService) Get(context.Context, uuid.UUID) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{}, nil
}

func (stubCheckoutService) Delete(context.Context, uuid.UUID) error { return nil }

func (stubCheckoutService) UpdateQuantity(context.Context, uuid.UUID, int, int) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{}, nil
}

func (stubCheckoutService) RemoveItem(context.Context, uuid.UUID, int) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{}, nil
}

func (stubCheckoutService) ApplyOffer(context.Context, uuid.UUID, uuid.UUID) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{}, nil
}

func (stubCheckoutService) RemoveOffer(context.Context, uuid.UUID) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{}, nil
}

func (stubCheckoutService) ApplyCoupon(context.Context, uuid.UUID, string) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{}, nil
}

func (stubCheckoutService) RemoveCoupon(context.Context, uuid.UUID) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{}, nil
}

func (stubCheckoutService) Continue(context.Context, uuid.UUID, string) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{}, nil
}

func (stubCheckoutService) Back(context.Context, uuid.UUID) (*checkoutsvc.Session, error) {
	return &checkoutsvc.Session{}, nil
}

func (stubCheckoutService) Submit(context.Context, uuid.UUID, checkoutsvc.BillingDetails, bool) (*checkoutsvc.Confirmation, *checkoutsvc.Session, error) {
	return &checkoutsvc.Confirmation{}, &checkoutsvc.Session{}, nil
}

type stubBookingsService struct{}

func (stubBookingsService) Create(context.Context, bookingsvc.CreateInput) (*models.Booking, error) {
	return &models.Booking{ID: uuid.New()}, nil
}

func (stubBookingsService) SubmitSession(context.Context, *checkoutsvc.Session) (*checkoutsvc.Confirmation, error) {
	return &checkoutsvc.Confirmation{}, nil
}

func (stubBookingsService) GetByID(context.Context, uuid.UUID) (*models.Booking, error) {
	return &models.Booking{ID: uuid.New()}, nil
}

func (stubBookingsService) Availability(context.Context, uuid.UUID) (*bookingsvc.AvailabilityReport, error) {
	return &bookingsvc.AvailabilityReport{}, nil
}

func (stubBookingsService) Cancel(context.Context, uuid.UUID) error { return nil }

func (stubBookingsService) ListAdmin(context.Context, enums.Category, *uuid.UUID, pagination.Params) (pagination.Page[models.Booking], error) {
	return pagination.Page[models.Booking]{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       stubPinger{},
		Listings: stubListingsService{},
		Offers:   stubOffersService{},
		Coupons:  stubCouponsService{},
		Checkout: stubCheckoutService{},
		Bookings: stubBookingsService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "admin@ticpin.app",
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPublicListingsDoNotRequireAuth(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?category=event", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAdminGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/listings?category=event", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/listings?category=event", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/listings?category=event", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestCouponValidateRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/validate", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestCouponValidateAcceptsGoodJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"code":"WELCOME","order_amount":1000}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid payload got %d", resp.Code)
	}
}

func TestCheckoutSubmitRoute(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"name":"Asha Rao","phone":"9876543210","nationality":"IN","address":"12 Hill Rd","city":"Mumbai","pincode":"400050","accepted_terms":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/session/"+uuid.NewString()+"/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCheckoutContinueDefersEmailFormatToService(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"email":"not-an-email"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/session/"+uuid.NewString()+"/continue", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("format guard belongs to the service, expected 200 got %d", resp.Code)
	}
}

func TestBookingCreateRejectsUnknownCategory(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"listing_id":"` + uuid.NewString() + `","user_email":"guest@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/flights", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category got %d", resp.Code)
	}
}

type memReplayStore struct {
	data map[string]string
}

func newMemReplayStore() *memReplayStore {
	return &memReplayStore{data: make(map[string]string)}
}

func (m *memReplayStore) Get(_ context.Context, key string) (string, error) {
	return m.data[key], nil
}

func (m *memReplayStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	m.data[key] = str
	return true, nil
}

func (m *memReplayStore) IdempotencyKey(scope, id string) string {
	return "replay:" + scope + ":" + id
}

func newTestRouterWithReplay(cfg *config.Config, store *memReplayStore) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          stubPinger{},
		Idempotency: store,
		Listings:    stubListingsService{},
		Offers:      stubOffersService{},
		Coupons:     stubCouponsService{},
		Checkout:    stubCheckoutService{},
		Bookings:    stubBookingsService{},
	})
}

func TestBookingCreateGuardedByIdempotencyKey(t *testing.T) {
	store := newMemReplayStore()
	router := newTestRouterWithReplay(testConfig(), store)
	body := `{"listing_id":"` + uuid.NewString() + `","user_email":"guest@example.com"}`

	bare := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/event", strings.NewReader(body))
	bare.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, bare)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key got %d", resp.Code)
	}
	if len(store.data) != 0 {
		t.Fatalf("nothing should be stored for a rejected request")
	}

	key := uuid.NewString()
	first := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/event", strings.NewReader(body))
	first.Header.Set("Content-Type", "application/json")
	first.Header.Set("Idempotency-Key", key)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, first)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 with idempotency key got %d", resp.Code)
	}
	if len(store.data) != 1 {
		t.Fatalf("expected one stored record got %d", len(store.data))
	}
	firstBody := resp.Body.String()

	replay := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/event", strings.NewReader(body))
	replay.Header.Set("Content-Type", "application/json")
	replay.Header.Set("Idempotency-Key", key)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, replay)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", resp.Code)
	}
	if resp.Body.String() != firstBody {
		t.Fatalf("replay must return the stored body")
	}

	conflict := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/event", strings.NewReader(`{"listing_id":"`+uuid.NewString()+`","user_email":"other@example.com"}`))
	conflict.Header.Set("Content-Type", "application/json")
	conflict.Header.Set("Idempotency-Key", key)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, conflict)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reused key with new body got %d", resp.Code)
	}
}

func TestAdminListingCreateGuardedByIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	store := newMemReplayStore()
	router := newTestRouterWithReplay(cfg, store)
	body := `{"category":"event","name":"Summer Fest","city":"Mumbai"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/listings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key got %d", resp.Code)
	}
}
