// api/service/access_service_test.go
package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echo_errors "github.com/choiwab/patient-x/api/errors"
	"github.com/choiwab/patient-x/api/model"
	"github.com/choiwab/patient-x/api/pdp/engine"
	pdp_model "github.com/choiwab/patient-x/api/pdp/model"
	"github.com/choiwab/patient-x/api/service"
	"github.com/choiwab/patient-x/api/storage"
	"github.com/choiwab/patient-x/api/storage/memory"
	"github.com/choiwab/patient-x/api/util"
)

type accessFixture struct {
	store   *memory.Store
	clock   *util.ManualClock
	service *service.AccessService
}

func newAccessFixture(caps storage.Capacities) *accessFixture {
	store := memory.NewStore(caps)
	clock := &util.ManualClock{}
	evaluator := engine.NewPolicyEvaluator(store, store)
	aggregator := engine.NewAccessAggregator(evaluator, store)
	svc := service.NewAccessService(
		store, store, store,
		evaluator, aggregator,
		clock,
		util.NewEventBus(),
	)
	return &accessFixture{store: store, clock: clock, service: svc}
}

func (f *accessFixture) registerRecord(t *testing.T, recordID model.RecordID, owner string) {
	t.Helper()
	require.NoError(t, f.store.PutRecord(context.Background(), &model.HealthRecord{ID: recordID, Owner: owner}))
}

func (f *accessFixture) putAllowPolicy(t *testing.T, id model.PolicyID, role string) {
	t.Helper()
	require.NoError(t, f.store.PutPolicy(context.Background(), &model.Policy{
		ID:     id,
		Name:   "p",
		Effect: model.EffectAllow,
		Mode:   model.ModeAllOf,
		Conditions: []model.Condition{
			{Key: "role", Operator: model.OperatorEquals, Value: []byte(role)},
		},
		Active: true,
	}))
}

func TestAttachPolicyAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newAccessFixture(storage.DefaultCapacities())
	policyID := testPolicyID(t, "1")
	f.putAllowPolicy(t, policyID, "doctor")

	t.Run("MissingRecord", func(t *testing.T) {
		err := f.service.AttachPolicy(ctx, "ghost", policyID, "alice")
		assert.ErrorIs(t, err, echo_errors.ErrRecordNotFound)
	})

	f.registerRecord(t, "rec-1", "alice")

	t.Run("NonOwner", func(t *testing.T) {
		err := f.service.AttachPolicy(ctx, "rec-1", policyID, "mallory")
		assert.ErrorIs(t, err, echo_errors.ErrNotAuthorized)
	})

	t.Run("MissingPolicy", func(t *testing.T) {
		err := f.service.AttachPolicy(ctx, "rec-1", testPolicyID(t, "ff"), "alice")
		assert.ErrorIs(t, err, echo_errors.ErrPolicyNotFound)
	})

	t.Run("OwnerAttaches", func(t *testing.T) {
		require.NoError(t, f.service.AttachPolicy(ctx, "rec-1", policyID, "alice"))
		attached, err := f.service.AttachedPolicies(ctx, "rec-1")
		require.NoError(t, err)
		assert.Equal(t, []model.PolicyID{policyID}, attached)
	})
}

func TestDetachPolicy(t *testing.T) {
	ctx := context.Background()
	f := newAccessFixture(storage.DefaultCapacities())
	policyID := testPolicyID(t, "1")
	f.putAllowPolicy(t, policyID, "doctor")
	f.registerRecord(t, "rec-1", "alice")
	require.NoError(t, f.service.AttachPolicy(ctx, "rec-1", policyID, "alice"))

	assert.ErrorIs(t, f.service.DetachPolicy(ctx, "rec-1", policyID, "mallory"), echo_errors.ErrNotAuthorized)

	require.NoError(t, f.service.DetachPolicy(ctx, "rec-1", policyID, "alice"))
	attached, err := f.service.AttachedPolicies(ctx, "rec-1")
	require.NoError(t, err)
	assert.Empty(t, attached)

	// Detaching an id that is no longer attached is a no-op.
	assert.NoError(t, f.service.DetachPolicy(ctx, "rec-1", policyID, "alice"))
}

func TestDetachSurvivesPolicyDeletion(t *testing.T) {
	ctx := context.Background()
	f := newAccessFixture(storage.DefaultCapacities())
	policyID := testPolicyID(t, "1")
	f.putAllowPolicy(t, policyID, "doctor")
	f.registerRecord(t, "rec-1", "alice")
	require.NoError(t, f.service.AttachPolicy(ctx, "rec-1", policyID, "alice"))

	// Delete the policy out from under the attachment, then detach the
	// stale id. Detach only needs the record, not the policy.
	require.NoError(t, f.store.DeletePolicy(ctx, policyID))
	assert.NoError(t, f.service.DetachPolicy(ctx, "rec-1", policyID, "alice"))
}

func TestEvaluatePolicy(t *testing.T) {
	ctx := context.Background()
	f := newAccessFixture(storage.DefaultCapacities())
	policyID := testPolicyID(t, "1")
	f.putAllowPolicy(t, policyID, "doctor")

	require.NoError(t, f.store.PutAttribute(ctx, &model.Attribute{
		Subject: "alice", Key: "role", Value: []byte("doctor"), Type: model.AttributeTypeRole,
	}))

	result, err := f.service.EvaluatePolicy(ctx, policyID, "alice", "admin")
	require.NoError(t, err)
	assert.Equal(t, pdp_model.ResultAllow, result)

	// Unlike the record-level check, a missing attribute surfaces as an
	// error here.
	_, err = f.service.EvaluatePolicy(ctx, policyID, "bob", "admin")
	assert.ErrorIs(t, err, echo_errors.ErrAttributeNotFound)
}

func TestCheckRecordAccess(t *testing.T) {
	ctx := context.Background()
	f := newAccessFixture(storage.DefaultCapacities())
	policyID := testPolicyID(t, "1")
	f.putAllowPolicy(t, policyID, "doctor")
	f.registerRecord(t, "rec-1", "alice")
	require.NoError(t, f.service.AttachPolicy(ctx, "rec-1", policyID, "alice"))
	require.NoError(t, f.store.PutAttribute(ctx, &model.Attribute{
		Subject: "bob", Key: "role", Value: []byte("doctor"), Type: model.AttributeTypeRole,
	}))

	f.clock.Ticks = 3
	decision, err := f.service.CheckRecordAccess(ctx, "rec-1", "bob")
	require.NoError(t, err)
	assert.True(t, decision.Granted)
	assert.Equal(t, uint64(3), decision.EvaluatedAt)

	// A record nobody has attached anything to stays fail-open.
	decision, err = f.service.CheckRecordAccess(ctx, "rec-unattached", "bob")
	require.NoError(t, err)
	assert.True(t, decision.Granted)
}
