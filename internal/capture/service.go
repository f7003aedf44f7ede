package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hookgw/hookgw/internal/model"
	"github.com/hookgw/hookgw/internal/repository"
	"github.com/hookgw/hookgw/internal/util"
	"github.com/jmoiron/sqlx"
)

// Service builds and persists captured requests. The request row and its
// outbox event commit in a single transaction so the realtime feed never
// announces a record that does not exist.
type Service struct {
	db     *sqlx.DB
	reqs   repository.RequestsRepository
	outbox repository.OutboxRepository
	topic  string
}

// New constructs the capture service.
func New(db *sqlx.DB, reqsRepo repository.RequestsRepository, outboxRepo repository.OutboxRepository, topic string) *Service {
	return &Service{
		db:     db,
		reqs:   reqsRepo,
		outbox: outboxRepo,
		topic:  topic,
	}
}

// Build assembles the record to persist from the already-read body. Header
// keys are lower-cased; an empty body is stored as null; the source IP is
// anonymized or null when it could not be determined.
func Build(endpoint *model.Endpoint, r *http.Request, body []byte, size int64, sourceIP string) model.CapturedRequest {
	headers := make(model.JSONMap, len(r.Header))
	for k, vals := range r.Header {
		headers[strings.ToLower(k)] = strings.Join(vals, ", ")
	}

	query := make(model.JSONMap)
	if q, err := url.ParseQuery(r.URL.RawQuery); err == nil {
		for k, vals := range q {
			if len(vals) > 0 {
				query[k] = vals[0]
			}
		}
	}

	var bodyPtr *string
	if len(body) > 0 {
		s := string(body)
		bodyPtr = &s
	}

	return model.CapturedRequest{
		ID:          util.New(),
		EndpointID:  endpoint.ID,
		Method:      r.Method,
		Headers:     headers,
		Body:        bodyPtr,
		QueryParams: query,
		ContentType: r.Header.Get("Content-Type"),
		SourceIP:    AnonymizeIP(sourceIP),
		SizeBytes:   size,
		ReceivedAt:  time.Now().UTC(),
	}
}

// Capture persists the record and its feed event atomically.
func (s *Service) Capture(ctx context.Context, endpoint *model.Endpoint, req model.CapturedRequest) error {
	env := model.Envelope{
		ID:         req.ID,
		EndpointID: endpoint.ID,
		UserID:     endpoint.UserID,
		Request:    req,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.reqs.Insert(ctx, tx, req); err != nil {
		return fmt.Errorf("insert request: %w", err)
	}

	if err := s.outbox.Insert(ctx, tx, "request", req.ID, s.topic, payload); err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}

	return tx.Commit()
}
