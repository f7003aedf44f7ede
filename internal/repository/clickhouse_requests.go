package repository

import (
	"context"

	"github.com/hookgw/hookgw/internal/model"
	"github.com/jmoiron/sqlx"
)

// ArchiveRow pairs a captured request with its owner for the archive table,
// which is keyed by user for the export queries.
type ArchiveRow struct {
	UserID  string
	Request model.CapturedRequest
}

// CHRequestsRepository reads and writes the ClickHouse request archive
// (the export/reporting side; MySQL stays the source of truth).
type CHRequestsRepository interface {
	ListByOwner(ctx context.Context, userID, endpointID, method string, limit, offset int) ([]model.CapturedRequest, error)
	InsertBatch(ctx context.Context, rows []ArchiveRow) error
}

type chRequestsRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewCHRequestsRepository(ch *sqlx.DB) CHRequestsRepository {
	return &chRequestsRepository{ch: ch}
}

func (r *chRequestsRepository) ListByOwner(ctx context.Context, userID, endpointID, method string, limit, offset int) ([]model.CapturedRequest, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT id, endpoint_id, method, headers, body, query_params, content_type, source_ip, size_bytes, received_at
		FROM hookgw.requests_archive
		WHERE user_id = ?
	`
	args := []any{userID}

	if endpointID != "" {
		q += " AND endpoint_id = ?"
		args = append(args, endpointID)
	}
	if method != "" {
		q += " AND method = ?"
		args = append(args, method)
	}

	q += " ORDER BY received_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []model.CapturedRequest
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// InsertBatch appends archive rows inside one prepared statement. The table
// is append-only; duplicates collapse in the ReplacingMergeTree.
func (r *chRequestsRepository) InsertBatch(ctx context.Context, rows []ArchiveRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.ch.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO hookgw.requests_archive
		    (id, user_id, endpoint_id, method, headers, body, query_params, content_type, source_ip, size_bytes, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		req := row.Request
		if _, err := stmt.ExecContext(ctx,
			req.ID, row.UserID, req.EndpointID, req.Method, req.Headers, req.Body,
			req.QueryParams, req.ContentType, req.SourceIP, req.SizeBytes, req.ReceivedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}
