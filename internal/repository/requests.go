package repository

import (
	"context"
	"database/sql"

	"github.com/hookgw/hookgw/internal/model"
	"github.com/jmoiron/sqlx"
)

// RequestsRepository defines persistence for captured requests (insert-only).
type RequestsRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, r model.CapturedRequest) error
	GetByID(ctx context.Context, id string) (*model.CapturedRequest, error)
}

type RequestsRepositoryImpl struct {
	db *sqlx.DB
}

func NewRequestsRepository(db *sqlx.DB) *RequestsRepositoryImpl {
	return &RequestsRepositoryImpl{db: db}
}

var _ RequestsRepository = (*RequestsRepositoryImpl)(nil)

func (r *RequestsRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}
	t, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = t.Rollback() }()
	if err := fn(t); err != nil {
		return err
	}
	return t.Commit()
}

// Insert writes one captured request row. If tx is nil it opens and commits
// an internal transaction; otherwise it uses the given tx.
func (r *RequestsRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, req model.CapturedRequest) error {
	const q = `
		INSERT INTO requests
		    (id, endpoint_id, method, headers, body, query_params, content_type, source_ip, size_bytes, received_at)
		VALUES
		    (?,  ?,           ?,      ?,       ?,    ?,            ?,            ?,         ?,          ?)
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q,
			req.ID, req.EndpointID, req.Method, req.Headers, req.Body,
			req.QueryParams, req.ContentType, req.SourceIP, req.SizeBytes, req.ReceivedAt,
		)
		return err
	})
}

func (r *RequestsRepositoryImpl) GetByID(ctx context.Context, id string) (*model.CapturedRequest, error) {
	var req model.CapturedRequest
	err := r.db.GetContext(ctx, &req, `
		SELECT id, endpoint_id, method, headers, body, query_params, content_type, source_ip, size_bytes, received_at
		  FROM requests
		 WHERE id = ? LIMIT 1
	`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}
