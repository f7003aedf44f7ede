package capture

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hookgw/hookgw/internal/model"
)

func TestBuildRecord(t *testing.T) {
	endpoint := &model.Endpoint{ID: "ep1", UserID: "user1", Slug: "orders"}

	req := httptest.NewRequest("POST", "/wh/acme/orders?token=abc&retry=2", strings.NewReader(`{"n":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "push")

	body := []byte(`{"n":1}`)
	rec := Build(endpoint, req, body, int64(len(body)), "192.168.1.42")

	if rec.ID == "" {
		t.Error("record id not generated")
	}
	if rec.EndpointID != "ep1" {
		t.Errorf("endpoint id = %q, want ep1", rec.EndpointID)
	}
	if rec.Method != "POST" {
		t.Errorf("method = %q, want POST", rec.Method)
	}
	if rec.Headers["x-github-event"] != "push" {
		t.Errorf("header keys must be lower-cased, got %v", rec.Headers)
	}
	if _, upper := rec.Headers["X-GitHub-Event"]; upper {
		t.Error("original-case header key leaked into the record")
	}
	if rec.QueryParams["token"] != "abc" || rec.QueryParams["retry"] != "2" {
		t.Errorf("query params = %v", rec.QueryParams)
	}
	if rec.ContentType != "application/json" {
		t.Errorf("content type = %q", rec.ContentType)
	}
	if rec.Body == nil || *rec.Body != `{"n":1}` {
		t.Errorf("body = %v", rec.Body)
	}
	if rec.SizeBytes != int64(len(body)) {
		t.Errorf("size = %d, want %d", rec.SizeBytes, len(body))
	}
	if rec.SourceIP == nil || *rec.SourceIP != "192.168.1.0" {
		t.Errorf("source ip = %v, want anonymized 192.168.1.0", rec.SourceIP)
	}
}

func TestBuildEmptyBodyStoresNull(t *testing.T) {
	endpoint := &model.Endpoint{ID: "ep1", UserID: "user1"}
	req := httptest.NewRequest("GET", "/wh/acme/orders", nil)

	rec := Build(endpoint, req, nil, 0, "")
	if rec.Body != nil {
		t.Errorf("empty body must be stored as null, got %q", *rec.Body)
	}
	if rec.SourceIP != nil {
		t.Errorf("unknown ip must be stored as null, got %q", *rec.SourceIP)
	}
}
