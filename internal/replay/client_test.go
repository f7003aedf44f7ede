package replay

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/hookgw/hookgw/internal/model"
)

// allowAll lets the delivery tests use httptest's loopback listeners.
type allowAll struct{}

func (allowAll) Validate(_ context.Context, _ string) ([]netip.Addr, error) { return nil, nil }

type rejectAll struct{ err error }

func (r rejectAll) Validate(_ context.Context, _ string) ([]netip.Addr, error) { return nil, r.err }

func strptr(s string) *string { return &s }

func TestDeliverForwardsRequest(t *testing.T) {
	var got *http.Request
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(allowAll{}, 2000, 3, 1000)
	captured := &model.CapturedRequest{
		Method:      http.MethodPost,
		Headers:     model.JSONMap{"x-github-event": "push", "host": "original.example", "connection": "close"},
		Body:        strptr(`{"ref":"main"}`),
		ContentType: "application/json",
	}

	status, err := c.Deliver(context.Background(), srv.URL+"/hook", captured)
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if status != http.StatusAccepted {
		t.Errorf("status = %d, want 202", status)
	}
	if got.Method != http.MethodPost {
		t.Errorf("method = %s", got.Method)
	}
	if got.Header.Get("X-Github-Event") != "push" {
		t.Error("captured header not forwarded")
	}
	if got.Header.Get("Content-Type") != "application/json" {
		t.Error("content type not forwarded")
	}
	if string(gotBody) != `{"ref":"main"}` {
		t.Errorf("body = %q", gotBody)
	}
	// the stored host belongs to the original capture URL, not the target
	if got.Host == "original.example" {
		t.Error("host header forwarded to target")
	}
}

func TestDeliverRefusesUnsafeTargetBeforeDial(t *testing.T) {
	dialed := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		dialed = true
	}))
	defer srv.Close()

	unsafe := errors.New("target resolves to a private address")
	c := NewClient(rejectAll{err: unsafe}, 2000, 3, 1000)

	_, err := c.Deliver(context.Background(), srv.URL, &model.CapturedRequest{Method: http.MethodPost})
	if !errors.Is(err, unsafe) {
		t.Fatalf("err = %v, want validator error", err)
	}
	if dialed {
		t.Error("request was sent despite validator rejection")
	}
}

func TestDeliverBreakerOpensPerHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		conn, _, _ := w.(http.Hijacker).Hijack()
		conn.Close() // force a transport error
	}))
	defer srv.Close()

	c := NewClient(allowAll{}, 500, 2, 60000)
	captured := &model.CapturedRequest{Method: http.MethodGet}

	for i := 0; i < 2; i++ {
		if _, err := c.Deliver(context.Background(), srv.URL, captured); !errors.Is(err, ErrDelivery) {
			t.Fatalf("attempt %d: err = %v, want delivery error", i+1, err)
		}
	}

	if _, err := c.Deliver(context.Background(), srv.URL, captured); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("err = %v, want breaker open", err)
	}

	// a different host has its own breaker
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()
	if _, err := c.Deliver(context.Background(), healthy.URL, captured); err != nil {
		t.Errorf("healthy host blocked: %v", err)
	}
}

func TestMicroBreakerLifecycle(t *testing.T) {
	b := NewMicroBreaker(2, 30*time.Millisecond)

	// closed: failures below threshold keep it closed
	if !b.TryAcquire() {
		t.Fatal("closed breaker refused")
	}
	b.OnFailure()
	if !b.TryAcquire() {
		t.Fatal("breaker opened below threshold")
	}
	b.OnFailure()

	// open: refuse until the window passes
	if b.TryAcquire() {
		t.Fatal("open breaker admitted")
	}

	time.Sleep(40 * time.Millisecond)

	// half-open: one probe at a time
	if !b.TryAcquire() {
		t.Fatal("probe refused after open window")
	}
	if b.TryAcquire() {
		t.Fatal("second concurrent probe admitted")
	}

	// failed probe reopens
	b.OnFailure()
	if b.TryAcquire() {
		t.Fatal("breaker admitted right after failed probe")
	}

	time.Sleep(40 * time.Millisecond)
	if !b.TryAcquire() {
		t.Fatal("probe refused after second open window")
	}
	b.OnSuccess()

	// success closes fully
	if !b.TryAcquire() || !b.TryAcquire() {
		t.Fatal("closed breaker refused after successful probe")
	}
}
