// api/model/events.go
package model

// Domain event payloads published on the event bus by the services. Events
// carry no behavior; the audit subscriber persists them for external
// consumption.

type PolicyEventPayload struct {
	Policy   Policy `json:"policy"`
	CallerID string `json:"caller_id"`
}

type AttributeEventPayload struct {
	Attribute Attribute `json:"attribute"`
	CallerID  string    `json:"caller_id"`
}

type EvaluationEventPayload struct {
	PolicyID PolicyID `json:"policy_id"`
	Subject  string   `json:"subject"`
	Result   string   `json:"result"`
	CallerID string   `json:"caller_id"`
}

type AttachmentEventPayload struct {
	RecordID RecordID `json:"record_id"`
	PolicyID PolicyID `json:"policy_id"`
	CallerID string   `json:"caller_id"`
}

type AccessCheckEventPayload struct {
	RecordID RecordID `json:"record_id"`
	Subject  string   `json:"subject"`
	Granted  bool     `json:"granted"`
}

type RecordEventPayload struct {
	Record   HealthRecord `json:"record"`
	CallerID string       `json:"caller_id"`
}
