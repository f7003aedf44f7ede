package model

import "time"

// UsageCounter tracks admitted requests per user per billing period.
// Period is the calendar month in UTC, encoded "YYYY-MM".
type UsageCounter struct {
	UserID       string    `db:"user_id"`
	Period       string    `db:"period"`
	RequestCount int64     `db:"request_count"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// CurrentPeriod returns the usage period key for t.
func CurrentPeriod(t time.Time) string {
	return t.UTC().Format("2006-01")
}
