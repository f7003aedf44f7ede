package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hookgw/hookgw/internal/model"
	"github.com/hookgw/hookgw/internal/repository"
	"github.com/labstack/echo/v4"
)

type fakeCH struct {
	rows []model.CapturedRequest

	gotUserID   string
	gotEndpoint string
	gotMethod   string
	gotLimit    int
	gotOffset   int
}

func (f *fakeCH) ListByOwner(_ context.Context, userID, endpointID, method string, limit, offset int) ([]model.CapturedRequest, error) {
	f.gotUserID = userID
	f.gotEndpoint = endpointID
	f.gotMethod = method
	f.gotLimit = limit
	f.gotOffset = offset
	return f.rows, nil
}

func (f *fakeCH) InsertBatch(context.Context, []repository.ArchiveRow) error { return nil }

func TestListRequests(t *testing.T) {
	ch := &fakeCH{rows: []model.CapturedRequest{{ID: "req_1"}, {ID: "req_2"}}}
	h := listRequestsHandler(ch)

	req := httptest.NewRequest(http.MethodGet, "/v1/requests?limit=25&offset=50&endpoint_id=ep_1&method=post", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("user_id", "user_1")

	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ch.gotUserID != "user_1" || ch.gotEndpoint != "ep_1" || ch.gotMethod != "POST" {
		t.Errorf("filters = %q %q %q", ch.gotUserID, ch.gotEndpoint, ch.gotMethod)
	}
	if ch.gotLimit != 25 || ch.gotOffset != 50 {
		t.Errorf("paging = %d/%d", ch.gotLimit, ch.gotOffset)
	}
	if !strings.Contains(rec.Body.String(), `"count":2`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestListRequestsPagingClamped(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 50, 0},
		{"limit over cap ignored", "limit=5000", 50, 0},
		{"negative offset ignored", "offset=-3", 50, 0},
		{"garbage ignored", "limit=abc&offset=xyz", 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &fakeCH{}
			h := listRequestsHandler(ch)

			target := "/v1/requests"
			if tt.query != "" {
				target += "?" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(req, rec)
			c.Set("user_id", "user_1")

			if err := h(c); err != nil {
				t.Fatalf("handler: %v", err)
			}
			if ch.gotLimit != tt.wantLimit || ch.gotOffset != tt.wantOffset {
				t.Errorf("paging = %d/%d, want %d/%d", ch.gotLimit, ch.gotOffset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestListRequestsUnauthenticated(t *testing.T) {
	h := listRequestsHandler(&fakeCH{})
	req := httptest.NewRequest(http.MethodGet, "/v1/requests", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
