package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openlease/openlease/internal/auth"
	"github.com/openlease/openlease/internal/domain"
)

func TestAuth(t *testing.T) {
	sessions := auth.NewSessionService(auth.SessionConfig{
		AccessTokenTTL: time.Hour,
		JWTSecret:      []byte("test-secret-key"),
		Issuer:         "openlease-test",
	})
	user := &domain.User{ID: uuid.New(), Email: "user@example.com"}
	token, _, err := sessions.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	var gotUserID uuid.UUID
	handler := Auth(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Basic abc123", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusOK && gotUserID != user.ID {
				t.Errorf("expected user %v in context, got %v", user.ID, gotUserID)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := BearerToken(req); got != "" {
		t.Errorf("expected empty token, got %q", got)
	}

	req.Header.Set("Authorization", "bearer abc")
	if got := BearerToken(req); got != "abc" {
		t.Errorf("scheme match must be case-insensitive, got %q", got)
	}
}
