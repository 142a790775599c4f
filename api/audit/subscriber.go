// api/audit/subscriber.go
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/choiwab/patient-x/api/model"
	"github.com/choiwab/patient-x/api/util"
)

// Subscriber listens for domain events on the bus and persists each one as
// an AuditLog. Events carry no behavior of their own; this is the only
// consumer inside the service.
type Subscriber struct {
	service Service
}

func NewSubscriber(service Service) *Subscriber {
	return &Subscriber{service: service}
}

// Register subscribes the audit sink to every domain event type.
func (s *Subscriber) Register(bus *util.EventBus) {
	eventTypes := []string{
		util.EventPolicyCreated,
		util.EventPolicyUpdated,
		util.EventPolicyDeleted,
		util.EventPolicyEvaluated,
		util.EventAttributeAssigned,
		util.EventAttributeRevoked,
		util.EventRecordCreated,
		util.EventPolicyAttached,
		util.EventPolicyDetached,
		util.EventAccessChecked,
	}
	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, s.handleEvent)
	}
}

func (s *Subscriber) handleEvent(ctx context.Context, event util.Event) error {
	log := AuditLog{
		Timestamp: time.Now(),
		EventType: event.Type,
	}

	switch payload := event.Payload.(type) {
	case model.PolicyEventPayload:
		log.CallerID = payload.CallerID
		log.PolicyID = payload.Policy.ID.String()
		log.Details = marshalDetails(payload.Policy)
	case model.AttributeEventPayload:
		log.CallerID = payload.CallerID
		log.SubjectID = payload.Attribute.Subject
		log.Details = marshalDetails(payload.Attribute)
	case model.EvaluationEventPayload:
		log.CallerID = payload.CallerID
		log.SubjectID = payload.Subject
		log.PolicyID = payload.PolicyID.String()
		log.Outcome = payload.Result
	case model.AttachmentEventPayload:
		log.CallerID = payload.CallerID
		log.PolicyID = payload.PolicyID.String()
		log.RecordID = string(payload.RecordID)
	case model.AccessCheckEventPayload:
		log.SubjectID = payload.Subject
		log.RecordID = string(payload.RecordID)
		log.Outcome = fmt.Sprintf("granted=%t", payload.Granted)
	case model.RecordEventPayload:
		log.CallerID = payload.CallerID
		log.RecordID = string(payload.Record.ID)
	default:
		log.Details = marshalDetails(event.Payload)
	}

	return s.service.LogEvent(ctx, log)
}

func marshalDetails(v interface{}) json.RawMessage {
	details, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return details
}
