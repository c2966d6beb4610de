package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indyhub/exchange-backend/internal/stock"
	pkgAuth "github.com/indyhub/exchange-backend/pkg/auth"
	"github.com/indyhub/exchange-backend/pkg/config"
	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/enums"
	"github.com/indyhub/exchange-backend/pkg/logger"
	pkgredis "github.com/indyhub/exchange-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubChecker struct {
	capabilities map[enums.Capability]bool
}

func (s stubChecker) HasPermission(ctx context.Context, userID uuid.UUID, capability enums.Capability) (bool, error) {
	return s.capabilities[capability], nil
}

func (s stubChecker) ListUsersWithCapability(ctx context.Context, capability enums.Capability) ([]uuid.UUID, error) {
	return nil, nil
}

type stubStockService struct{}

func (stubStockService) Get(ctx context.Context, corporationID, typeID int64) (*models.StockEntry, error) {
	return &models.StockEntry{CorporationID: corporationID, TypeID: typeID, TypeName: "Tritanium"}, nil
}

func (stubStockService) List(ctx context.Context, corporationID int64, input stock.ListInput) (*stock.List, error) {
	return &stock.List{}, nil
}

func (stubStockService) Adjust(ctx context.Context, tx *gorm.DB, corporationID, typeID, delta int64) (*models.StockEntry, error) {
	panic("unimplemented")
}

func (stubStockService) SyncPrices(ctx context.Context, corporationID int64, entries []stock.PriceSyncEntry) (int, error) {
	return len(entries), nil
}

func (stubStockService) SyncStock(ctx context.Context, corporationID int64, entries []stock.QuantitySyncEntry) (int, error) {
	return len(entries), nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret: "secret",
			Issuer: "indyhub-test",
		},
	}
}

func newTestRouter(cfg *config.Config, checker stubChecker) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*pkgredis.Client)(nil),
		checker,
		stubStockService{},
		nil, // orders
		nil, // transactions
		nil, // exchange config
		nil, // notifications
	)
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), time.Hour, pkgAuth.AccessTokenPayload{
		UserID:        uuid.New(),
		CorporationID: 98000001,
		CharacterName: "Test Pilot",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsOpen(t *testing.T) {
	router := newTestRouter(testConfig(), stubChecker{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestMetricsIsOpen(t *testing.T) {
	router := newTestRouter(testConfig(), stubChecker{})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAPIRejectsMissingToken(t *testing.T) {
	router := newTestRouter(testConfig(), stubChecker{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exchange/stock", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAPIRejectsMissingHubAccess(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubChecker{capabilities: map[enums.Capability]bool{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exchange/stock", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without access_hub got %d", resp.Code)
	}
}

func TestStockListReachableWithHubAccess(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubChecker{capabilities: map[enums.Capability]bool{
		enums.CapabilityAccessHub: true,
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exchange/stock", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestManagerRoutesRequireManageCapability(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubChecker{capabilities: map[enums.Capability]bool{
		enums.CapabilityAccessHub: true,
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exchange/transactions/all", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without manage capability got %d", resp.Code)
	}
}
