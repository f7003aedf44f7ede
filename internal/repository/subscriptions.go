package repository

import (
	"context"
	"database/sql"

	"github.com/hookgw/hookgw/internal/model"
	"github.com/jmoiron/sqlx"
)

type SubscriptionsRepository interface {
	// GetByUserID returns nil, nil when the user has no subscription row,
	// which resolves to the free plan.
	GetByUserID(ctx context.Context, userID string) (*model.Subscription, error)
}

type SubscriptionsRepositoryImpl struct {
	db *sqlx.DB
}

func NewSubscriptionsRepository(db *sqlx.DB) *SubscriptionsRepositoryImpl {
	return &SubscriptionsRepositoryImpl{db: db}
}

var _ SubscriptionsRepository = (*SubscriptionsRepositoryImpl)(nil)

func (r *SubscriptionsRepositoryImpl) GetByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	var s model.Subscription
	err := r.db.GetContext(ctx, &s, `
		SELECT user_id, plan, status, created_at, updated_at
		  FROM subscriptions
		 WHERE user_id = ? LIMIT 1
	`, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
