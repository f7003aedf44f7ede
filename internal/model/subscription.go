package model

import (
	"strings"
	"time"
)

type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

func (p Plan) String() string { return string(p) }

func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPro
}

// ParsePlan normalizes input; empty => free.
func ParsePlan(s string) (Plan, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "free":
		return PlanFree, true
	case "pro":
		return PlanPro, true
	default:
		return PlanFree, false
	}
}

// Subscription is read-only from the gateway's perspective.
type Subscription struct {
	UserID    string    `db:"user_id"`
	Plan      Plan      `db:"plan"`
	Status    string    `db:"status"` // active|past_due|canceled|...
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Effective resolves the billable plan: pro only while the subscription is
// active, anything else (including a missing row) is free.
func (s *Subscription) Effective() Plan {
	if s == nil {
		return PlanFree
	}
	if s.Plan == PlanPro && s.Status == "active" {
		return PlanPro
	}
	return PlanFree
}
