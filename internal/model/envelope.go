package model

// Envelope is the payload published to Kafka (via the outbox relay) for the
// dashboard realtime feed and the archive worker.
type Envelope struct {
	ID         string          `json:"id"` // request ULID
	EndpointID string          `json:"endpoint_id"`
	UserID     string          `json:"user_id"`
	Request    CapturedRequest `json:"request"`
}
