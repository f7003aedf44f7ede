package model

import "time"

// Endpoint is a tenant-owned capture target. The ingestion path reads it,
// never writes it.
type Endpoint struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	Slug            string    `db:"slug"` // unique per owner, not globally
	Name            string    `db:"name"`
	IsActive        bool      `db:"is_active"`
	ResponseCode    int       `db:"response_code"` // 100..599
	ResponseBody    string    `db:"response_body"`
	ResponseHeaders JSONMap   `db:"response_headers"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}
