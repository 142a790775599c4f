// api/model/attribute.go
package model

import (
	"fmt"

	echo_errors "github.com/choiwab/patient-x/api/errors"
)

// AttributeType classifies a subject attribute assignment.
type AttributeType string

const (
	AttributeTypeRole           AttributeType = "role"
	AttributeTypeOrganization   AttributeType = "organization"
	AttributeTypeDepartment     AttributeType = "department"
	AttributeTypeClearanceLevel AttributeType = "clearance_level"
	AttributeTypeLocation       AttributeType = "location"
	AttributeTypeTime           AttributeType = "time"
	AttributeTypeCustom         AttributeType = "custom"
)

// ParseAttributeType decodes an attribute type discriminant.
func ParseAttributeType(s string) (AttributeType, error) {
	switch AttributeType(s) {
	case AttributeTypeRole, AttributeTypeOrganization, AttributeTypeDepartment,
		AttributeTypeClearanceLevel, AttributeTypeLocation, AttributeTypeTime,
		AttributeTypeCustom:
		return AttributeType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", echo_errors.ErrInvalidAttributeType, s)
	}
}

// Attribute is a single (subject, key) attribute assignment. Assigning the
// same (subject, key) again overwrites the value in place. Value is an opaque
// byte sequence compared byte-wise by condition operators.
type Attribute struct {
	Subject    string        `json:"subject"`
	Key        string        `json:"key"`
	Value      []byte        `json:"value"`
	Type       AttributeType `json:"type"`
	AssignedBy string        `json:"assigned_by"`
	AssignedAt uint64        `json:"assigned_at"`
	ExpiresAt  *uint64       `json:"expires_at,omitempty"`
}

// Expired reports whether the assignment's expiration has passed at now.
func (a *Attribute) Expired(now uint64) bool {
	return a.ExpiresAt != nil && now > *a.ExpiresAt
}
