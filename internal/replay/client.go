package replay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/hookgw/hookgw/internal/model"
)

var (
	ErrBreakerOpen = errors.New("replay: target breaker open")
	ErrDelivery    = errors.New("replay: delivery failed")
)

// hop-by-hop and host-bound headers never forwarded to the target.
var skipHeaders = map[string]struct{}{
	"host":              {},
	"connection":        {},
	"content-length":    {},
	"transfer-encoding": {},
	"keep-alive":        {},
	"upgrade":           {},
}

// TargetValidator screens outbound URLs. Satisfied by *ssrf.Validator.
type TargetValidator interface {
	Validate(ctx context.Context, rawURL string) ([]netip.Addr, error)
}

// Client re-issues a captured request to a user-chosen target. Every target
// URL passes the SSRF validator before the dial; each target host gets its
// own breaker.
type Client struct {
	validator TargetValidator
	client    *http.Client

	mu       sync.Mutex
	breakers map[string]*MicroBreaker

	failThreshold int
	openFor       time.Duration
}

func NewClient(validator TargetValidator, timeoutMs, failThreshold, openForMs int) *Client {
	if timeoutMs <= 0 {
		timeoutMs = 10000
	}
	if failThreshold <= 0 {
		failThreshold = 3
	}
	if openForMs <= 0 {
		openForMs = 15000
	}

	return &Client{
		validator:     validator,
		client:        &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		breakers:      make(map[string]*MicroBreaker),
		failThreshold: failThreshold,
		openFor:       time.Duration(openForMs) * time.Millisecond,
	}
}

func (c *Client) breakerFor(host string) *MicroBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.breakers[host]
	if !ok {
		b = NewMicroBreaker(c.failThreshold, c.openFor)
		c.breakers[host] = b
	}
	return b
}

// Deliver validates the target and re-sends the captured request. Returns
// the target's status code on success.
func (c *Client) Deliver(ctx context.Context, targetURL string, captured *model.CapturedRequest) (int, error) {
	if _, err := c.validator.Validate(ctx, targetURL); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, captured.Method, targetURL, bodyReader(captured.Body))
	if err != nil {
		return 0, fmt.Errorf("replay: build request: %w", err)
	}
	for k, v := range captured.Headers {
		if _, skip := skipHeaders[k]; skip {
			continue
		}
		req.Header.Set(k, v)
	}
	if captured.ContentType != "" {
		req.Header.Set("Content-Type", captured.ContentType)
	}

	br := c.breakerFor(req.URL.Host)
	if !br.TryAcquire() {
		return 0, ErrBreakerOpen
	}

	res, err := c.client.Do(req)
	if err != nil {
		br.OnFailure()
		return 0, fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer res.Body.Close()

	br.OnSuccess()
	return res.StatusCode, nil
}

func bodyReader(body *string) *strings.Reader {
	if body == nil {
		return strings.NewReader("")
	}
	return strings.NewReader(*body)
}
