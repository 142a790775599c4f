// api/pdp/engine/evaluator.go
package engine

import (
	"bytes"
	"context"
	"fmt"

	echo_errors "github.com/choiwab/patient-x/api/errors"
	"github.com/choiwab/patient-x/api/model"
	pdp_model "github.com/choiwab/patient-x/api/pdp/model"
	"github.com/choiwab/patient-x/api/storage"
)

// PolicyEvaluator evaluates a single policy against a subject's attributes at
// an instant of the logical clock. It is a pure function of store contents
// and the supplied timestamp; it holds no state and takes no locks.
type PolicyEvaluator struct {
	policies   storage.PolicyStore
	attributes storage.AttributeStore
}

func NewPolicyEvaluator(policies storage.PolicyStore, attributes storage.AttributeStore) *PolicyEvaluator {
	return &PolicyEvaluator{
		policies:   policies,
		attributes: attributes,
	}
}

// Evaluate resolves a policy for a subject.
//
// The policy's own inactivity or expiry yields NotApplicable; a missing or
// expired subject attribute aborts the whole evaluation with
// ErrAttributeNotFound / ErrAttributeExpired instead of marking the condition
// false. A condition that is present and unexpired but fails its comparison
// only lowers the satisfied count.
func (pe *PolicyEvaluator) Evaluate(ctx context.Context, policyID model.PolicyID, subject string, now uint64) (pdp_model.EvaluationResult, error) {
	policy, err := pe.policies.GetPolicy(ctx, policyID)
	if err != nil {
		return "", err
	}

	if !policy.Active {
		return pdp_model.ResultNotApplicable, nil
	}
	if policy.Expired(now) {
		return pdp_model.ResultNotApplicable, nil
	}

	satisfied := 0
	for _, condition := range policy.Conditions {
		ok, err := pe.evaluateCondition(ctx, condition, subject, now)
		if err != nil {
			return "", err
		}
		if ok {
			satisfied++
		}
	}

	var conditionsMet bool
	switch policy.Mode {
	case model.ModeAllOf:
		conditionsMet = satisfied == len(policy.Conditions)
	case model.ModeAnyOf:
		conditionsMet = satisfied > 0
	case model.ModeOneOf:
		conditionsMet = satisfied == 1
	default:
		return "", fmt.Errorf("%w: %q", echo_errors.ErrInvalidMode, policy.Mode)
	}

	if !conditionsMet {
		return pdp_model.ResultNotApplicable, nil
	}

	switch policy.Effect {
	case model.EffectAllow:
		return pdp_model.ResultAllow, nil
	case model.EffectDeny:
		return pdp_model.ResultDeny, nil
	default:
		return "", fmt.Errorf("%w: %q", echo_errors.ErrInvalidEffect, policy.Effect)
	}
}

func (pe *PolicyEvaluator) evaluateCondition(ctx context.Context, condition model.Condition, subject string, now uint64) (bool, error) {
	attribute, err := pe.attributes.GetAttribute(ctx, subject, condition.Key)
	if err != nil {
		return false, err
	}
	if attribute.Expired(now) {
		return false, echo_errors.ErrAttributeExpired
	}
	return evaluateOperator(condition.Operator, attribute.Value, condition.Value)
}

// evaluateOperator compares the attribute value against the condition value
// byte-wise.
//
// Contains is a byte-intersection test (any single byte of the attribute
// value occurring anywhere in the condition value), not subsequence
// containment. GreaterThan/LessThan compare lexicographically, which matches
// numeric ordering only for single-byte values. InRange compares for exact
// equality. All three are deliberate ports of the production semantics; see
// DESIGN.md before changing them.
func evaluateOperator(op model.Operator, attrValue, condValue []byte) (bool, error) {
	switch op {
	case model.OperatorEquals:
		return bytes.Equal(attrValue, condValue), nil
	case model.OperatorNotEquals:
		return !bytes.Equal(attrValue, condValue), nil
	case model.OperatorContains:
		for _, b := range attrValue {
			if bytes.IndexByte(condValue, b) >= 0 {
				return true, nil
			}
		}
		return false, nil
	case model.OperatorGreaterThan:
		return bytes.Compare(attrValue, condValue) > 0, nil
	case model.OperatorLessThan:
		return bytes.Compare(attrValue, condValue) < 0, nil
	case model.OperatorInRange:
		return bytes.Equal(attrValue, condValue), nil
	default:
		return false, fmt.Errorf("%w: %q", echo_errors.ErrInvalidOperator, op)
	}
}
