// api/audit/model.go
package audit

import (
	"encoding/json"
	"time"
)

// AuditLog is one persisted domain event: who did what to which policy,
// subject or record, and with what outcome.
type AuditLog struct {
	Timestamp time.Time       `json:"timestamp"`
	EventType string          `json:"event_type"`
	CallerID  string          `json:"caller_id,omitempty"`
	SubjectID string          `json:"subject_id,omitempty"`
	PolicyID  string          `json:"policy_id,omitempty"`
	RecordID  string          `json:"record_id,omitempty"`
	Outcome   string          `json:"outcome,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
}
