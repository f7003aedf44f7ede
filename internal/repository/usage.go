package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// UsageRepository exposes the quota check-and-increment primitive.
type UsageRepository interface {
	// TryIncrement bumps the user's counter for the period if it is still
	// below limit, as one indivisible statement. limit 0 means unlimited.
	// Returns whether the increment was admitted.
	TryIncrement(ctx context.Context, userID, period string, limit int64) (bool, error)
}

type UsageRepositoryImpl struct {
	db *sqlx.DB
}

func NewUsageRepository(db *sqlx.DB) *UsageRepositoryImpl {
	return &UsageRepositoryImpl{db: db}
}

var _ UsageRepository = (*UsageRepositoryImpl)(nil)

// TryIncrement is a single conditional upsert so two concurrent requests
// racing the last quota slot serialize inside MySQL. With the default
// affected-rows semantics MySQL reports 1 for an insert, 2 for an update
// that changed the row, and 0 when the ON DUPLICATE KEY UPDATE left the
// counter untouched — i.e. 0 means the quota was already exhausted.
func (r *UsageRepositoryImpl) TryIncrement(ctx context.Context, userID, period string, limit int64) (bool, error) {
	const q = `
		INSERT INTO usage_counters (user_id, period, request_count, created_at, updated_at)
		VALUES (?, ?, 1, NOW(), NOW())
		ON DUPLICATE KEY UPDATE
		    updated_at    = IF(? = 0 OR request_count < ?, NOW(), updated_at),
		    request_count = request_count + IF(? = 0 OR request_count < ?, 1, 0)
	`
	res, err := r.db.ExecContext(ctx, q, userID, period, limit, limit, limit, limit)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
