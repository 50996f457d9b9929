package models

import "time"

// Audit actions written by this service.
const (
	ActionOrderExecuted = "order.executed"
	ActionOrderRejected = "order.rejected"
	ActionUserCreated   = "user.created"
	ActionSampleAppend  = "sample.appended"
)

// Audit target types.
const (
	TargetOrder = "order"
	TargetUser  = "user"
	TargetAsset = "asset"
)

// AuditLogEntry is append-only; it is never updated or deleted.
type AuditLogEntry struct {
	EntryID    string    `json:"entry_id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	Timestamp  time.Time `json:"timestamp"`
	Detail     string    `json:"detail"`
}

// AuditFilter narrows an audit query. Zero values mean "any".
type AuditFilter struct {
	ActorID string
	Action  string
	From    time.Time
	To      time.Time
	Limit   int
}

// Match reports whether e passes the filter (Limit is applied by the caller).
func (f AuditFilter) Match(e AuditLogEntry) bool {
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	return true
}
