// api/storage/memory/store_test.go
package memory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echo_errors "github.com/choiwab/patient-x/api/errors"
	"github.com/choiwab/patient-x/api/model"
	"github.com/choiwab/patient-x/api/storage"
	"github.com/choiwab/patient-x/api/storage/memory"
)

func policyID(t *testing.T, b byte) model.PolicyID {
	t.Helper()
	id, err := model.ParsePolicyID(strings.Repeat(string([]byte{hexDigit(b >> 4), hexDigit(b & 0x0f)}), model.PolicyIDLength))
	require.NoError(t, err)
	return id
}

func hexDigit(b byte) byte {
	if b < 10 {
		return '0' + b
	}
	return 'a' + b - 10
}

func TestPolicyStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(storage.DefaultCapacities())
	id := policyID(t, 0x01)

	_, err := store.GetPolicy(ctx, id)
	assert.ErrorIs(t, err, echo_errors.ErrPolicyNotFound)

	policy := model.Policy{
		ID:     id,
		Name:   "ward-a-clinicians",
		Effect: model.EffectAllow,
		Mode:   model.ModeAllOf,
		Conditions: []model.Condition{
			{Key: "role", Operator: model.OperatorEquals, Value: []byte("doctor")},
		},
		Active: true,
	}
	require.NoError(t, store.PutPolicy(ctx, &policy))

	got, err := store.GetPolicy(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, policy.Name, got.Name)

	// Mutating the returned copy must not leak into the store.
	got.Conditions[0].Value[0] = 'x'
	again, err := store.GetPolicy(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("doctor"), again.Conditions[0].Value)

	ok, err := store.HasPolicy(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.DeletePolicy(ctx, id))
	assert.ErrorIs(t, store.DeletePolicy(ctx, id), echo_errors.ErrPolicyNotFound)
}

func TestListPoliciesPagination(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(storage.DefaultCapacities())

	for b := byte(1); b <= 5; b++ {
		require.NoError(t, store.PutPolicy(ctx, &model.Policy{ID: policyID(t, b), Name: "p"}))
	}

	page, err := store.ListPolicies(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page, err = store.ListPolicies(ctx, 10, 4)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	page, err = store.ListPolicies(ctx, 10, 100)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestAttributeStoreCapacity(t *testing.T) {
	ctx := context.Background()
	caps := storage.DefaultCapacities()
	caps.AttributesPerSubject = 2
	store := memory.NewStore(caps)

	put := func(key string) error {
		return store.PutAttribute(ctx, &model.Attribute{
			Subject: "alice",
			Key:     key,
			Value:   []byte("v"),
			Type:    model.AttributeTypeCustom,
		})
	}

	require.NoError(t, put("role"))
	require.NoError(t, put("dept"))

	// A third distinct key fails and leaves the store untouched.
	err := put("clearance")
	assert.ErrorIs(t, err, echo_errors.ErrTooManyAttributes)
	_, err = store.GetAttribute(ctx, "alice", "clearance")
	assert.ErrorIs(t, err, echo_errors.ErrAttributeNotFound)

	// Overwriting an existing key is always admitted.
	require.NoError(t, store.PutAttribute(ctx, &model.Attribute{
		Subject: "alice",
		Key:     "role",
		Value:   []byte("nurse"),
		Type:    model.AttributeTypeRole,
	}))
	got, err := store.GetAttribute(ctx, "alice", "role")
	require.NoError(t, err)
	assert.Equal(t, []byte("nurse"), got.Value)

	attrs, err := store.ListAttributes(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, attrs, 2)
}

func TestAttributeDeleteFreesCapacity(t *testing.T) {
	ctx := context.Background()
	caps := storage.DefaultCapacities()
	caps.AttributesPerSubject = 1
	store := memory.NewStore(caps)

	require.NoError(t, store.PutAttribute(ctx, &model.Attribute{Subject: "bob", Key: "role", Type: model.AttributeTypeRole}))
	require.NoError(t, store.DeleteAttribute(ctx, "bob", "role"))
	assert.ErrorIs(t, store.DeleteAttribute(ctx, "bob", "role"), echo_errors.ErrAttributeNotFound)

	assert.NoError(t, store.PutAttribute(ctx, &model.Attribute{Subject: "bob", Key: "dept", Type: model.AttributeTypeDepartment}))
}

func TestRecordPolicyStore(t *testing.T) {
	ctx := context.Background()
	caps := storage.DefaultCapacities()
	caps.PoliciesPerRecord = 2
	store := memory.NewStore(caps)

	recordID := model.RecordID("rec-1")
	p1 := policyID(t, 0x11)
	p2 := policyID(t, 0x22)
	p3 := policyID(t, 0x33)

	attached, err := store.AttachedPolicies(ctx, recordID)
	require.NoError(t, err)
	assert.Empty(t, attached)

	require.NoError(t, store.AttachPolicy(ctx, recordID, p1))
	// Idempotent: re-attaching the same id neither fails nor grows the set.
	require.NoError(t, store.AttachPolicy(ctx, recordID, p1))
	require.NoError(t, store.AttachPolicy(ctx, recordID, p2))

	assert.ErrorIs(t, store.AttachPolicy(ctx, recordID, p3), echo_errors.ErrTooManyPolicies)

	attached, err = store.AttachedPolicies(ctx, recordID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.PolicyID{p1, p2}, attached)

	// Detaching an absent id is a no-op.
	require.NoError(t, store.DetachPolicy(ctx, recordID, p3))
	require.NoError(t, store.DetachPolicy(ctx, recordID, p1))

	attached, err = store.AttachedPolicies(ctx, recordID)
	require.NoError(t, err)
	assert.Equal(t, []model.PolicyID{p2}, attached)
}

func TestAttachmentsSurvivePolicyDeletion(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(storage.DefaultCapacities())

	id := policyID(t, 0x44)
	recordID := model.RecordID("rec-2")

	require.NoError(t, store.PutPolicy(ctx, &model.Policy{ID: id, Name: "p"}))
	require.NoError(t, store.AttachPolicy(ctx, recordID, id))
	require.NoError(t, store.DeletePolicy(ctx, id))

	// The attachment set still carries the stale id.
	attached, err := store.AttachedPolicies(ctx, recordID)
	require.NoError(t, err)
	assert.Equal(t, []model.PolicyID{id}, attached)
}

func TestRecordRegistry(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(storage.DefaultCapacities())

	_, err := store.GetRecord(ctx, "missing")
	assert.ErrorIs(t, err, echo_errors.ErrRecordNotFound)

	record := model.HealthRecord{ID: "rec-3", Owner: "alice", Tags: []string{"cardiology"}}
	require.NoError(t, store.PutRecord(ctx, &record))

	got, err := store.GetRecord(ctx, "rec-3")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Owner)

	got.Tags[0] = "mutated"
	again, err := store.GetRecord(ctx, "rec-3")
	require.NoError(t, err)
	assert.Equal(t, []string{"cardiology"}, again.Tags)
}
