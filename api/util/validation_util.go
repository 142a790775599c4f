// api/util/validation_util.go

package util

import (
	"fmt"

	echo_errors "github.com/choiwab/patient-x/api/errors"
	"github.com/choiwab/patient-x/api/model"
)

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

func (v *ValidationUtil) ValidatePolicy(policy model.Policy) error {
	if policy.ID.IsZero() {
		return fmt.Errorf("%w: policy id cannot be zero", echo_errors.ErrInvalidPolicyData)
	}
	if policy.Name == "" {
		return fmt.Errorf("%w: policy name cannot be empty", echo_errors.ErrInvalidPolicyData)
	}
	if len(policy.Name) > model.MaxPolicyNameLength {
		return fmt.Errorf("%w: policy name exceeds %d bytes", echo_errors.ErrInvalidPolicyData, model.MaxPolicyNameLength)
	}
	if _, err := model.ParseEffect(string(policy.Effect)); err != nil {
		return err
	}
	if _, err := model.ParseMode(string(policy.Mode)); err != nil {
		return err
	}
	if len(policy.Conditions) == 0 {
		return fmt.Errorf("%w: policy must have at least one condition", echo_errors.ErrInvalidPolicyData)
	}
	for _, condition := range policy.Conditions {
		if err := v.validateCondition(condition); err != nil {
			return err
		}
	}
	return nil
}

func (v *ValidationUtil) validateCondition(condition model.Condition) error {
	if condition.Key == "" {
		return fmt.Errorf("%w: condition key cannot be empty", echo_errors.ErrInvalidPolicyData)
	}
	if len(condition.Key) > model.MaxAttributeKeyLength {
		return fmt.Errorf("%w: condition key exceeds %d bytes", echo_errors.ErrInvalidPolicyData, model.MaxAttributeKeyLength)
	}
	if len(condition.Value) > model.MaxAttributeValueLength {
		return fmt.Errorf("%w: condition value exceeds %d bytes", echo_errors.ErrInvalidPolicyData, model.MaxAttributeValueLength)
	}
	if _, err := model.ParseOperator(string(condition.Operator)); err != nil {
		return err
	}
	return nil
}

func (v *ValidationUtil) ValidateAttribute(attribute model.Attribute) error {
	if attribute.Subject == "" {
		return fmt.Errorf("%w: subject cannot be empty", echo_errors.ErrInvalidAttributeData)
	}
	if attribute.Key == "" {
		return fmt.Errorf("%w: attribute key cannot be empty", echo_errors.ErrInvalidAttributeData)
	}
	if len(attribute.Key) > model.MaxAttributeKeyLength {
		return fmt.Errorf("%w: attribute key exceeds %d bytes", echo_errors.ErrInvalidAttributeData, model.MaxAttributeKeyLength)
	}
	if len(attribute.Value) > model.MaxAttributeValueLength {
		return fmt.Errorf("%w: attribute value exceeds %d bytes", echo_errors.ErrInvalidAttributeData, model.MaxAttributeValueLength)
	}
	if _, err := model.ParseAttributeType(string(attribute.Type)); err != nil {
		return err
	}
	return nil
}

func (v *ValidationUtil) ValidateRecord(record model.HealthRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: record id cannot be empty", echo_errors.ErrInvalidRecordData)
	}
	if record.Owner == "" {
		return fmt.Errorf("%w: record owner cannot be empty", echo_errors.ErrInvalidRecordData)
	}
	return nil
}
