package model

import "time"

// Profile maps the namespace segment of a capture path to a user. Username
// is immutable once set and globally unique.
type Profile struct {
	ID                string    `db:"id"` // user id
	Username          string    `db:"username"`
	APIKey            string    `db:"api_key"`
	RateLimitOverride *int      `db:"rate_limit_override"` // nullable, req/min
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}
