package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/indyhub/exchange-backend/pkg/enums"
)

type grantChecker struct {
	granted map[enums.Capability]bool
}

func (g grantChecker) HasPermission(ctx context.Context, userID uuid.UUID, capability enums.Capability) (bool, error) {
	return g.granted[capability], nil
}

func (g grantChecker) ListUsersWithCapability(ctx context.Context, capability enums.Capability) ([]uuid.UUID, error) {
	return nil, nil
}

func TestRequireCapabilityAllowsGrantedUser(t *testing.T) {
	checker := grantChecker{granted: map[enums.Capability]bool{enums.CapabilityManageMaterialExchange: true}}
	handler := RequireCapability(checker, enums.CapabilityManageMaterialExchange, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRequireCapabilityRejectsUngrantedUser(t *testing.T) {
	handler := RequireCapability(grantChecker{}, enums.CapabilityManageMaterialExchange, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRequireCapabilityRejectsMissingUserContext(t *testing.T) {
	handler := RequireCapability(grantChecker{}, enums.CapabilityAccessHub, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
