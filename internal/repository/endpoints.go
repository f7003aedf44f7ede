package repository

import (
	"context"
	"database/sql"

	"github.com/hookgw/hookgw/internal/model"
	"github.com/jmoiron/sqlx"
)

type EndpointsRepository interface {
	GetByOwnerSlug(ctx context.Context, userID, slug string) (*model.Endpoint, error)
	GetByID(ctx context.Context, id string) (*model.Endpoint, error)
	// ListBySlug returns endpoints matching slug across all owners, capped
	// at max rows. Used only by the legacy single-segment route.
	ListBySlug(ctx context.Context, slug string, max int) ([]model.Endpoint, error)
}

type EndpointsRepositoryImpl struct {
	db *sqlx.DB
}

func NewEndpointsRepository(db *sqlx.DB) *EndpointsRepositoryImpl {
	return &EndpointsRepositoryImpl{db: db}
}

var _ EndpointsRepository = (*EndpointsRepositoryImpl)(nil)

const endpointCols = `id, user_id, slug, name, is_active, response_code, response_body, response_headers, created_at, updated_at`

func (r *EndpointsRepositoryImpl) GetByOwnerSlug(ctx context.Context, userID, slug string) (*model.Endpoint, error) {
	var e model.Endpoint
	err := r.db.GetContext(ctx, &e, `
		SELECT `+endpointCols+`
		  FROM endpoints
		 WHERE user_id = ? AND slug = ? LIMIT 1
	`, userID, slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EndpointsRepositoryImpl) GetByID(ctx context.Context, id string) (*model.Endpoint, error) {
	var e model.Endpoint
	err := r.db.GetContext(ctx, &e, `
		SELECT `+endpointCols+`
		  FROM endpoints
		 WHERE id = ? LIMIT 1
	`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EndpointsRepositoryImpl) ListBySlug(ctx context.Context, slug string, max int) ([]model.Endpoint, error) {
	if max <= 0 {
		max = 2
	}
	var rows []model.Endpoint
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+endpointCols+`
		  FROM endpoints
		 WHERE slug = ? LIMIT ?
	`, slug, max)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
