// api/pdp/engine/aggregator.go
package engine

import (
	"context"

	"go.uber.org/zap"

	logger "github.com/choiwab/patient-x/api/logging"
	"github.com/choiwab/patient-x/api/model"
	pdp_model "github.com/choiwab/patient-x/api/pdp/model"
	"github.com/choiwab/patient-x/api/storage"
)

// AccessAggregator combines per-policy evaluation outcomes for every policy
// attached to a record into one access decision. A single satisfied Deny
// vetoes any number of satisfied Allows, regardless of attachment order.
type AccessAggregator struct {
	evaluator   *PolicyEvaluator
	attachments storage.RecordPolicyStore
}

func NewAccessAggregator(evaluator *PolicyEvaluator, attachments storage.RecordPolicyStore) *AccessAggregator {
	return &AccessAggregator{
		evaluator:   evaluator,
		attachments: attachments,
	}
}

// CheckAccess evaluates every policy attached to the record for the subject.
// A record with no attached policies is fail-open. A policy whose evaluation
// errors (deleted but still attached, missing or expired attribute) becomes an
// Indeterminate outcome and contributes to neither side of the decision.
func (aa *AccessAggregator) CheckAccess(ctx context.Context, recordID model.RecordID, subject string, now uint64) (*pdp_model.AccessDecision, error) {
	policyIDs, err := aa.attachments.AttachedPolicies(ctx, recordID)
	if err != nil {
		return nil, err
	}

	decision := &pdp_model.AccessDecision{
		RecordID:    recordID,
		Subject:     subject,
		EvaluatedAt: now,
	}

	for _, policyID := range policyIDs {
		evaluation := pdp_model.PolicyEvaluation{PolicyID: policyID}

		result, err := aa.evaluator.Evaluate(ctx, policyID, subject, now)
		if err != nil {
			evaluation.Outcome = pdp_model.OutcomeIndeterminate
			evaluation.Reason = err.Error()
			logger.Debug("Policy evaluation indeterminate",
				zap.String("policyID", policyID.String()),
				zap.String("subject", subject),
				zap.Error(err))
		} else {
			switch result {
			case pdp_model.ResultAllow:
				evaluation.Outcome = pdp_model.OutcomeAllow
			case pdp_model.ResultDeny:
				evaluation.Outcome = pdp_model.OutcomeDeny
			default:
				evaluation.Outcome = pdp_model.OutcomeNotApplicable
			}
		}

		decision.Policies = append(decision.Policies, evaluation)
	}

	decision.Granted = pdp_model.Combine(decision.Policies)
	return decision, nil
}
