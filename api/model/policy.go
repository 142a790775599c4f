// api/model/policy.go
package model

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	echo_errors "github.com/choiwab/patient-x/api/errors"
)

// PolicyIDLength is the fixed width of a policy identifier in bytes.
const PolicyIDLength = 32

// MaxPolicyNameLength is the maximum policy name length in bytes.
const MaxPolicyNameLength = 64

// MaxAttributeKeyLength is the maximum attribute key length in bytes.
const MaxAttributeKeyLength = 32

// MaxAttributeValueLength is the maximum attribute value length in bytes.
const MaxAttributeValueLength = 64

// PolicyID is a fixed-width policy identifier, rendered as hex in JSON and URLs.
type PolicyID [PolicyIDLength]byte

// ParsePolicyID decodes a hex-encoded policy identifier.
func ParsePolicyID(s string) (PolicyID, error) {
	var id PolicyID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("%w: %v", echo_errors.ErrInvalidPolicyID, err)
	}
	if len(raw) != PolicyIDLength {
		return id, fmt.Errorf("%w: expected %d bytes, got %d", echo_errors.ErrInvalidPolicyID, PolicyIDLength, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

func (id PolicyID) String() string {
	return hex.EncodeToString(id[:])
}

func (id PolicyID) IsZero() bool {
	return id == PolicyID{}
}

func (id PolicyID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *PolicyID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePolicyID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Effect is the result a policy produces when its conditions are met.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// ParseEffect decodes an effect discriminant. Unknown values are rejected
// rather than silently mapped to a default.
func ParseEffect(s string) (Effect, error) {
	switch Effect(s) {
	case EffectAllow, EffectDeny:
		return Effect(s), nil
	default:
		return "", fmt.Errorf("%w: %q", echo_errors.ErrInvalidEffect, s)
	}
}

// Mode is the combinator applied over a policy's conditions.
type Mode string

const (
	// ModeAllOf requires every condition to be satisfied (AND).
	ModeAllOf Mode = "all_of"
	// ModeAnyOf requires at least one condition to be satisfied (OR).
	ModeAnyOf Mode = "any_of"
	// ModeOneOf requires exactly one condition to be satisfied (XOR).
	ModeOneOf Mode = "one_of"
)

// ParseMode decodes a combinator mode discriminant.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAllOf, ModeAnyOf, ModeOneOf:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", echo_errors.ErrInvalidMode, s)
	}
}

// Operator compares a subject attribute value against a condition value.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorContains    Operator = "contains"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorInRange     Operator = "in_range"
)

// ParseOperator decodes a condition operator discriminant.
func ParseOperator(s string) (Operator, error) {
	switch Operator(s) {
	case OperatorEquals, OperatorNotEquals, OperatorContains,
		OperatorGreaterThan, OperatorLessThan, OperatorInRange:
		return Operator(s), nil
	default:
		return "", fmt.Errorf("%w: %q", echo_errors.ErrInvalidOperator, s)
	}
}

// Condition is a single predicate over a named subject attribute.
// Value is an opaque byte sequence; operators compare byte-wise.
type Condition struct {
	Key      string   `json:"key"`
	Operator Operator `json:"operator"`
	Value    []byte   `json:"value"`
}

// Policy is a named access rule: an effect, a combinator mode over an
// ordered bounded list of conditions, and an optional expiration on the
// logical clock. Only the creator may toggle Active or delete the policy.
type Policy struct {
	ID         PolicyID    `json:"id"`
	Name       string      `json:"name"`
	Creator    string      `json:"creator"`
	Effect     Effect      `json:"effect"`
	Mode       Mode        `json:"mode"`
	Conditions []Condition `json:"conditions"`
	CreatedAt  uint64      `json:"created_at"`
	ExpiresAt  *uint64     `json:"expires_at,omitempty"`
	Active     bool        `json:"active"`
}

// Expired reports whether the policy's own expiration has passed at now.
// A policy with no expiration never expires.
func (p *Policy) Expired(now uint64) bool {
	return p.ExpiresAt != nil && now > *p.ExpiresAt
}
