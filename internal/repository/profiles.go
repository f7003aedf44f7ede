package repository

import (
	"context"
	"database/sql"

	"github.com/hookgw/hookgw/internal/model"
	"github.com/jmoiron/sqlx"
)

type ProfilesRepository interface {
	GetByUsername(ctx context.Context, username string) (*model.Profile, error)
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*model.Profile, error)
}

type ProfilesRepositoryImpl struct {
	db *sqlx.DB
}

func NewProfilesRepository(db *sqlx.DB) *ProfilesRepositoryImpl {
	return &ProfilesRepositoryImpl{db: db}
}

var _ ProfilesRepository = (*ProfilesRepositoryImpl)(nil)

func (r *ProfilesRepositoryImpl) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	var p model.Profile
	err := r.db.GetContext(ctx, &p, `
		SELECT id, username, api_key, rate_limit_override, created_at, updated_at
		  FROM profiles
		 WHERE username = ? LIMIT 1
	`, username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfilesRepositoryImpl) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	err := r.db.GetContext(ctx, &p, `
		SELECT id, username, api_key, rate_limit_override, created_at, updated_at
		  FROM profiles
		 WHERE id = ? LIMIT 1
	`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfilesRepositoryImpl) GetByAPIKey(ctx context.Context, apiKey string) (*model.Profile, error) {
	var p model.Profile
	err := r.db.GetContext(ctx, &p, `
		SELECT id, username, api_key, rate_limit_override, created_at, updated_at
		  FROM profiles
		 WHERE api_key = ? LIMIT 1
	`, apiKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
