// api/service/access_service.go
package service

import (
	"context"

	"go.uber.org/zap"

	echo_errors "github.com/choiwab/patient-x/api/errors"
	logger "github.com/choiwab/patient-x/api/logging"
	"github.com/choiwab/patient-x/api/model"
	"github.com/choiwab/patient-x/api/pdp/engine"
	pdp_model "github.com/choiwab/patient-x/api/pdp/model"
	"github.com/choiwab/patient-x/api/storage"
	"github.com/choiwab/patient-x/api/util"
)

// IAccessService defines the interface for attachment and decision operations
type IAccessService interface {
	AttachPolicy(ctx context.Context, recordID model.RecordID, policyID model.PolicyID, callerID string) error
	DetachPolicy(ctx context.Context, recordID model.RecordID, policyID model.PolicyID, callerID string) error
	AttachedPolicies(ctx context.Context, recordID model.RecordID) ([]model.PolicyID, error)
	EvaluatePolicy(ctx context.Context, policyID model.PolicyID, subject, callerID string) (pdp_model.EvaluationResult, error)
	CheckRecordAccess(ctx context.Context, recordID model.RecordID, subject string) (*pdp_model.AccessDecision, error)
}

// AccessService wires the record registry, the attachment store and the
// decision engine into the administrative surface.
type AccessService struct {
	records     storage.RecordRegistry
	attachments storage.RecordPolicyStore
	policies    storage.PolicyStore
	evaluator   *engine.PolicyEvaluator
	aggregator  *engine.AccessAggregator
	clock       util.Clock
	eventBus    *util.EventBus
}

var _ IAccessService = (*AccessService)(nil)

// NewAccessService creates a new instance of AccessService
func NewAccessService(
	records storage.RecordRegistry,
	attachments storage.RecordPolicyStore,
	policies storage.PolicyStore,
	evaluator *engine.PolicyEvaluator,
	aggregator *engine.AccessAggregator,
	clock util.Clock,
	eventBus *util.EventBus,
) *AccessService {
	return &AccessService{
		records:     records,
		attachments: attachments,
		policies:    policies,
		evaluator:   evaluator,
		aggregator:  aggregator,
		clock:       clock,
		eventBus:    eventBus,
	}
}

// AttachPolicy attaches a policy to a record. Only the record owner may
// attach, and the policy must exist at attach time; after that the attachment
// lives its own life and survives policy deletion.
func (s *AccessService) AttachPolicy(ctx context.Context, recordID model.RecordID, policyID model.PolicyID, callerID string) error {
	record, err := s.records.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}
	if record.Owner != callerID {
		return echo_errors.ErrNotAuthorized
	}

	exists, err := s.policies.HasPolicy(ctx, policyID)
	if err != nil {
		return err
	}
	if !exists {
		return echo_errors.ErrPolicyNotFound
	}

	if err := s.attachments.AttachPolicy(ctx, recordID, policyID); err != nil {
		logger.Error("Error attaching policy",
			zap.Error(err),
			zap.String("recordID", string(recordID)),
			zap.String("policyID", policyID.String()))
		return err
	}

	s.eventBus.Publish(ctx, util.EventPolicyAttached, model.AttachmentEventPayload{
		RecordID: recordID,
		PolicyID: policyID,
		CallerID: callerID,
	})

	logger.Info("Policy attached to record",
		zap.String("recordID", string(recordID)),
		zap.String("policyID", policyID.String()),
		zap.String("callerID", callerID))
	return nil
}

// DetachPolicy removes a policy id from a record's attachment set. Detaching
// an id that is not attached succeeds as a no-op; the policy itself need not
// exist anymore.
func (s *AccessService) DetachPolicy(ctx context.Context, recordID model.RecordID, policyID model.PolicyID, callerID string) error {
	record, err := s.records.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}
	if record.Owner != callerID {
		return echo_errors.ErrNotAuthorized
	}

	if err := s.attachments.DetachPolicy(ctx, recordID, policyID); err != nil {
		logger.Error("Error detaching policy",
			zap.Error(err),
			zap.String("recordID", string(recordID)),
			zap.String("policyID", policyID.String()))
		return err
	}

	s.eventBus.Publish(ctx, util.EventPolicyDetached, model.AttachmentEventPayload{
		RecordID: recordID,
		PolicyID: policyID,
		CallerID: callerID,
	})

	logger.Info("Policy detached from record",
		zap.String("recordID", string(recordID)),
		zap.String("policyID", policyID.String()),
		zap.String("callerID", callerID))
	return nil
}

// AttachedPolicies lists the policy ids attached to a record, stale ids
// included.
func (s *AccessService) AttachedPolicies(ctx context.Context, recordID model.RecordID) ([]model.PolicyID, error) {
	return s.attachments.AttachedPolicies(ctx, recordID)
}

// EvaluatePolicy runs a single policy against a subject at the current tick.
// This is the diagnostic entry point; evaluation failures propagate to the
// caller unchanged and publish no event.
func (s *AccessService) EvaluatePolicy(ctx context.Context, policyID model.PolicyID, subject, callerID string) (pdp_model.EvaluationResult, error) {
	result, err := s.evaluator.Evaluate(ctx, policyID, subject, s.clock.Now())
	if err != nil {
		return "", err
	}

	s.eventBus.Publish(ctx, util.EventPolicyEvaluated, model.EvaluationEventPayload{
		PolicyID: policyID,
		Subject:  subject,
		Result:   string(result),
		CallerID: callerID,
	})

	return result, nil
}

// CheckRecordAccess runs the full deny-override decision for a subject
// against a record.
func (s *AccessService) CheckRecordAccess(ctx context.Context, recordID model.RecordID, subject string) (*pdp_model.AccessDecision, error) {
	decision, err := s.aggregator.CheckAccess(ctx, recordID, subject, s.clock.Now())
	if err != nil {
		logger.Error("Error checking record access",
			zap.Error(err),
			zap.String("recordID", string(recordID)),
			zap.String("subject", subject))
		return nil, err
	}

	s.eventBus.Publish(ctx, util.EventAccessChecked, model.AccessCheckEventPayload{
		RecordID: recordID,
		Subject:  subject,
		Granted:  decision.Granted,
	})

	logger.Info("Record access checked",
		zap.String("recordID", string(recordID)),
		zap.String("subject", subject),
		zap.Bool("granted", decision.Granted))
	return decision, nil
}
