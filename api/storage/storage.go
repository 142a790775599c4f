// api/storage/storage.go
package storage

import (
	"context"

	"github.com/choiwab/patient-x/api/model"
)

// Capacities bounds every collection the stores manage. Inserts past a bound
// fail deterministically; nothing is truncated.
type Capacities struct {
	ConditionsPerPolicy  int
	AttributesPerSubject int
	PoliciesPerRecord    int
}

// DefaultCapacities mirrors the production runtime limits.
func DefaultCapacities() Capacities {
	return Capacities{
		ConditionsPerPolicy:  5,
		AttributesPerSubject: 100,
		PoliciesPerRecord:    50,
	}
}

// PolicyStore is the durable map from policy identifier to policy definition.
type PolicyStore interface {
	// GetPolicy returns the policy or ErrPolicyNotFound.
	GetPolicy(ctx context.Context, id model.PolicyID) (*model.Policy, error)
	// PutPolicy inserts or overwrites the policy row.
	PutPolicy(ctx context.Context, policy *model.Policy) error
	// DeletePolicy removes the policy row only; attachments referencing the
	// id are left in place. Fails with ErrPolicyNotFound if absent.
	DeletePolicy(ctx context.Context, id model.PolicyID) error
	// HasPolicy reports whether the policy row exists.
	HasPolicy(ctx context.Context, id model.PolicyID) (bool, error)
	// ListPolicies returns a page of policies.
	ListPolicies(ctx context.Context, limit, offset int) ([]*model.Policy, error)
}

// AttributeStore is the durable map from (subject, key) to an attribute
// assignment, plus a bounded per-subject index of keys.
type AttributeStore interface {
	// GetAttribute returns the assignment or ErrAttributeNotFound.
	GetAttribute(ctx context.Context, subject, key string) (*model.Attribute, error)
	// PutAttribute upserts the assignment. The key is linked into the
	// subject's index only if absent; the index insert is capacity-checked
	// before any write, so a full index leaves the store unchanged
	// (ErrTooManyAttributes).
	PutAttribute(ctx context.Context, attr *model.Attribute) error
	// DeleteAttribute removes the row and unlinks the key from the index
	// (index order is not preserved). Fails with ErrAttributeNotFound.
	DeleteAttribute(ctx context.Context, subject, key string) error
	// ListAttributes returns every live assignment for the subject.
	ListAttributes(ctx context.Context, subject string) ([]*model.Attribute, error)
}

// RecordPolicyStore is the durable map from record identifier to a bounded,
// order-irrelevant set of attached policy identifiers. Attachments survive
// policy deletion; stale ids surface as policy-not-found at evaluation time.
type RecordPolicyStore interface {
	// AttachedPolicies returns the attached ids; empty when none.
	AttachedPolicies(ctx context.Context, recordID model.RecordID) ([]model.PolicyID, error)
	// AttachPolicy idempotently adds the id, capacity-checked
	// (ErrTooManyPolicies when the set is full).
	AttachPolicy(ctx context.Context, recordID model.RecordID, policyID model.PolicyID) error
	// DetachPolicy removes the id if present; detaching an absent id is a no-op.
	DetachPolicy(ctx context.Context, recordID model.RecordID, policyID model.PolicyID) error
}

// RecordRegistry exposes the record existence/ownership boundary consumed by
// attach/detach authorization.
type RecordRegistry interface {
	// GetRecord returns the record or ErrRecordNotFound.
	GetRecord(ctx context.Context, id model.RecordID) (*model.HealthRecord, error)
	// PutRecord registers or overwrites a record.
	PutRecord(ctx context.Context, record *model.HealthRecord) error
}
