package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/hookgw/hookgw/internal/model"
	"github.com/hookgw/hookgw/internal/replay"
	"github.com/hookgw/hookgw/internal/ssrf"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
)

type fakeRequests struct {
	byID map[string]*model.CapturedRequest
	err  error
}

func (f *fakeRequests) Insert(context.Context, *sqlx.Tx, model.CapturedRequest) error { return nil }

func (f *fakeRequests) GetByID(_ context.Context, id string) (*model.CapturedRequest, error) {
	return f.byID[id], f.err
}

type stubValidator struct{ err error }

func (s stubValidator) Validate(_ context.Context, _ string) ([]netip.Addr, error) {
	return nil, s.err
}

func doReplay(t *testing.T, h echo.HandlerFunc, userID, reqID, targetURL string) *httptest.ResponseRecorder {
	t.Helper()
	body := fmt.Sprintf(`{"url":%q}`, targetURL)
	req := httptest.NewRequest(http.MethodPost, "/v1/requests/"+reqID+"/replay", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(reqID)
	if userID != "" {
		c.Set("user_id", userID)
	}
	if err := h(c); err != nil {
		t.Fatalf("replayHandler: %v", err)
	}
	return rec
}

func replayFixtures() (*fakeRequests, *fakeEndpoints) {
	ep := activeEndpoint()
	requests := &fakeRequests{byID: map[string]*model.CapturedRequest{
		"req_1": {ID: "req_1", EndpointID: ep.ID, Method: http.MethodPost},
	}}
	endpoints := &fakeEndpoints{bySlug: []model.Endpoint{*ep}}
	return requests, endpoints
}

func TestReplayDelivers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	requests, endpoints := replayFixtures()
	client := replay.NewClient(stubValidator{}, 2000, 3, 1000)
	h := replayHandler(requests, endpoints, client)

	rec := doReplay(t, h, "user_1", "req_1", srv.URL)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"target_status":202`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestReplayUnsafeTarget(t *testing.T) {
	requests, endpoints := replayFixtures()
	unsafe := fmt.Errorf("%w: 10.0.0.5 (private)", ssrf.ErrBlockedAddr)
	client := replay.NewClient(stubValidator{err: unsafe}, 2000, 3, 1000)
	h := replayHandler(requests, endpoints, client)

	rec := doReplay(t, h, "user_1", "req_1", "http://internal.corp/admin")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestReplayOwnershipAndLookup(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		reqID      string
		wantStatus int
	}{
		{"unauthenticated", "", "req_1", http.StatusUnauthorized},
		{"unknown request id", "user_1", "req_nope", http.StatusNotFound},
		{"someone else's capture", "user_2", "req_1", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests, endpoints := replayFixtures()
			client := replay.NewClient(stubValidator{}, 2000, 3, 1000)
			h := replayHandler(requests, endpoints, client)

			rec := doReplay(t, h, tt.userID, tt.reqID, "https://example.com/hook")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestReplayMissingURL(t *testing.T) {
	requests, endpoints := replayFixtures()
	client := replay.NewClient(stubValidator{}, 2000, 3, 1000)
	h := replayHandler(requests, endpoints, client)

	req := httptest.NewRequest(http.MethodPost, "/v1/requests/req_1/replay", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("req_1")
	c.Set("user_id", "user_1")

	if err := h(c); err != nil {
		t.Fatalf("replayHandler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
