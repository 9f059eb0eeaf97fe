package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/praxisflow/praxisflow/internal/tenancy"
)

const testSecret = "portal-secret"

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		practiceID, ok := tenancy.PracticeIDFromContext(r.Context())
		if !ok {
			t.Error("practice id missing from context")
		}
		w.Write([]byte(practiceID))
	})
}

func TestPortalAuth_ValidToken(t *testing.T) {
	token, err := IssuePortalToken(testSecret, "practice-1", "praxis@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	handler := PortalAuth(testSecret)(protectedEcho(t))
	req := httptest.NewRequest(http.MethodGet, "/portal/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "practice-1" {
		t.Errorf("practice id = %q", w.Body.String())
	}
}

func TestPortalAuth_MissingToken(t *testing.T) {
	handler := PortalAuth(testSecret)(protectedEcho(t))
	req := httptest.NewRequest(http.MethodGet, "/portal/appointments", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestPortalAuth_WrongSecret(t *testing.T) {
	token, err := IssuePortalToken("other-secret", "practice-1", "", time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	handler := PortalAuth(testSecret)(protectedEcho(t))
	req := httptest.NewRequest(http.MethodGet, "/portal/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestPortalAuth_ExpiredToken(t *testing.T) {
	token, err := IssuePortalToken(testSecret, "practice-1", "", -time.Minute)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	handler := PortalAuth(testSecret)(protectedEcho(t))
	req := httptest.NewRequest(http.MethodGet, "/portal/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestPortalAuth_NoSecretConfigured(t *testing.T) {
	handler := PortalAuth("")(protectedEcho(t))
	req := httptest.NewRequest(http.MethodGet, "/portal/appointments", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}
