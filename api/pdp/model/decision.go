// api/pdp/model/decision.go
package model

import (
	"github.com/choiwab/patient-x/api/model"
)

// EvaluationResult is the verdict of a single policy evaluation.
type EvaluationResult string

const (
	ResultAllow         EvaluationResult = "allow"
	ResultDeny          EvaluationResult = "deny"
	ResultNotApplicable EvaluationResult = "not_applicable"
)

// PolicyOutcome is the per-policy contribution to an aggregated access
// decision. Indeterminate marks a policy whose evaluation failed (missing or
// expired attribute, stale attachment); it contributes to neither side of the
// decision but stays visible to callers and auditors.
type PolicyOutcome string

const (
	OutcomeAllow         PolicyOutcome = "allow"
	OutcomeDeny          PolicyOutcome = "deny"
	OutcomeNotApplicable PolicyOutcome = "not_applicable"
	OutcomeIndeterminate PolicyOutcome = "indeterminate"
)

// PolicyEvaluation records one attached policy's outcome within a decision.
type PolicyEvaluation struct {
	PolicyID model.PolicyID `json:"policy_id"`
	Outcome  PolicyOutcome  `json:"outcome"`
	Reason   string         `json:"reason,omitempty"`
}

// AccessDecision is the aggregated result of evaluating every policy
// attached to a record for one subject at one instant of the logical clock.
type AccessDecision struct {
	RecordID    model.RecordID     `json:"record_id"`
	Subject     string             `json:"subject"`
	Granted     bool               `json:"granted"`
	EvaluatedAt uint64             `json:"evaluated_at"`
	Policies    []PolicyEvaluation `json:"policies,omitempty"`
}

// Combine folds per-policy outcomes into one boolean decision:
//
//   - no outcomes: true (a record with no attached policies is fail-open)
//   - otherwise: granted iff at least one Allow and no Deny
//
// NotApplicable and Indeterminate outcomes contribute to neither side, so a
// record whose only attached policy is Indeterminate denies access — attaching
// any policy removes the fail-open default.
func Combine(evaluations []PolicyEvaluation) bool {
	if len(evaluations) == 0 {
		return true
	}
	hasAllow := false
	hasDeny := false
	for _, eval := range evaluations {
		switch eval.Outcome {
		case OutcomeAllow:
			hasAllow = true
		case OutcomeDeny:
			hasDeny = true
		}
	}
	return hasAllow && !hasDeny
}
