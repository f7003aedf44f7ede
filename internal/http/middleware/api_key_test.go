package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hookgw/hookgw/internal/model"
	echo "github.com/labstack/echo/v4"
)

type fakeProfiles struct {
	byKey map[string]*model.Profile
	err   error
}

func (f *fakeProfiles) GetByUsername(context.Context, string) (*model.Profile, error) {
	return nil, nil
}

func (f *fakeProfiles) GetByID(context.Context, string) (*model.Profile, error) {
	return nil, nil
}

func (f *fakeProfiles) GetByAPIKey(_ context.Context, key string) (*model.Profile, error) {
	return f.byKey[key], f.err
}

func TestAPIKeyMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		repoErr    error
		wantStatus int
		wantUserID string
	}{
		{"valid key", "sk_live_1", nil, http.StatusOK, "user_1"},
		{"padded key trimmed", "  sk_live_1  ", nil, http.StatusOK, "user_1"},
		{"missing key", "", nil, http.StatusUnauthorized, ""},
		{"unknown key", "sk_bogus", nil, http.StatusUnauthorized, ""},
		{"lookup error", "sk_live_1", errors.New("db down"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := &fakeProfiles{
				byKey: map[string]*model.Profile{"sk_live_1": {ID: "user_1"}},
				err:   tt.repoErr,
			}

			var sawUserID string
			next := func(c echo.Context) error {
				sawUserID, _ = UserIDFromCtx(c)
				return c.NoContent(http.StatusOK)
			}

			req := httptest.NewRequest(http.MethodGet, "/v1/requests", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(req, rec)

			if err := APIKeyMiddleware(profiles)(next)(c); err != nil {
				t.Fatalf("middleware: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if sawUserID != tt.wantUserID {
				t.Errorf("user id = %q, want %q", sawUserID, tt.wantUserID)
			}
		})
	}
}
