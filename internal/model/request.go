package model

import "time"

// CapturedRequest is the persisted record of one admitted inbound request.
// Rows are insert-only; retention belongs to the storage tier.
type CapturedRequest struct {
	ID          string    `db:"id" json:"id"`
	EndpointID  string    `db:"endpoint_id" json:"endpoint_id"`
	Method      string    `db:"method" json:"method"`
	Headers     JSONMap   `db:"headers" json:"headers"` // lower-cased keys
	Body        *string   `db:"body" json:"body"`       // nil when the request had no body
	QueryParams JSONMap   `db:"query_params" json:"query_params"`
	ContentType string    `db:"content_type" json:"content_type"`
	SourceIP    *string   `db:"source_ip" json:"source_ip"` // anonymized, nil when unknown
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	ReceivedAt  time.Time `db:"received_at" json:"received_at"`
}
