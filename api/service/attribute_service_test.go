// api/service/attribute_service_test.go
package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echo_errors "github.com/choiwab/patient-x/api/errors"
	"github.com/choiwab/patient-x/api/model"
	"github.com/choiwab/patient-x/api/service"
	"github.com/choiwab/patient-x/api/storage"
	"github.com/choiwab/patient-x/api/storage/memory"
	"github.com/choiwab/patient-x/api/util"
)

func newAttributeService(caps storage.Capacities, clock util.Clock) (*service.AttributeService, *memory.Store) {
	store := memory.NewStore(caps)
	svc := service.NewAttributeService(
		store,
		clock,
		util.NewValidationUtil(),
		util.NewCacheService(),
		util.NewEventBus(),
	)
	return svc, store
}

func TestAssignAttribute(t *testing.T) {
	ctx := context.Background()
	clock := &util.ManualClock{Ticks: 9}
	svc, store := newAttributeService(storage.DefaultCapacities(), clock)

	assigned, err := svc.AssignAttribute(ctx, model.Attribute{
		Subject: "alice",
		Key:     "role",
		Value:   []byte("doctor"),
		Type:    model.AttributeTypeRole,
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", assigned.AssignedBy)
	assert.Equal(t, uint64(9), assigned.AssignedAt)

	stored, err := store.GetAttribute(ctx, "alice", "role")
	require.NoError(t, err)
	assert.Equal(t, []byte("doctor"), stored.Value)
}

func TestAssignAttributeOverwrites(t *testing.T) {
	ctx := context.Background()
	caps := storage.DefaultCapacities()
	caps.AttributesPerSubject = 1
	svc, store := newAttributeService(caps, &util.ManualClock{})

	_, err := svc.AssignAttribute(ctx, model.Attribute{
		Subject: "alice", Key: "role", Value: []byte("doctor"), Type: model.AttributeTypeRole,
	}, "admin")
	require.NoError(t, err)

	// Overwriting the only key on a full subject still succeeds.
	_, err = svc.AssignAttribute(ctx, model.Attribute{
		Subject: "alice", Key: "role", Value: []byte("nurse"), Type: model.AttributeTypeRole,
	}, "admin")
	require.NoError(t, err)

	stored, err := store.GetAttribute(ctx, "alice", "role")
	require.NoError(t, err)
	assert.Equal(t, []byte("nurse"), stored.Value)

	// A second distinct key does not fit.
	_, err = svc.AssignAttribute(ctx, model.Attribute{
		Subject: "alice", Key: "dept", Value: []byte("cardio"), Type: model.AttributeTypeDepartment,
	}, "admin")
	assert.ErrorIs(t, err, echo_errors.ErrTooManyAttributes)
}

func TestAssignAttributeValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAttributeService(storage.DefaultCapacities(), &util.ManualClock{})

	_, err := svc.AssignAttribute(ctx, model.Attribute{
		Subject: "alice", Key: "rank", Value: []byte("1"), Type: "rank",
	}, "admin")
	assert.ErrorIs(t, err, echo_errors.ErrInvalidAttributeType)

	_, err = svc.AssignAttribute(ctx, model.Attribute{
		Subject: "", Key: "role", Value: []byte("doctor"), Type: model.AttributeTypeRole,
	}, "admin")
	assert.ErrorIs(t, err, echo_errors.ErrInvalidAttributeData)
}

func TestRevokeAttribute(t *testing.T) {
	ctx := context.Background()
	svc, store := newAttributeService(storage.DefaultCapacities(), &util.ManualClock{})

	_, err := svc.AssignAttribute(ctx, model.Attribute{
		Subject: "alice", Key: "role", Value: []byte("doctor"), Type: model.AttributeTypeRole,
	}, "admin")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAttribute(ctx, "alice", "role", "admin"))
	_, err = store.GetAttribute(ctx, "alice", "role")
	assert.ErrorIs(t, err, echo_errors.ErrAttributeNotFound)

	assert.ErrorIs(t, svc.RevokeAttribute(ctx, "alice", "role", "admin"), echo_errors.ErrAttributeNotFound)
}

func TestListAttributes(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAttributeService(storage.DefaultCapacities(), &util.ManualClock{})

	for _, key := range []string{"role", "dept", "clearance"} {
		_, err := svc.AssignAttribute(ctx, model.Attribute{
			Subject: "alice", Key: key, Value: []byte("v"), Type: model.AttributeTypeCustom,
		}, "admin")
		require.NoError(t, err)
	}

	attrs, err := svc.ListAttributes(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, attrs, 3)

	attrs, err = svc.ListAttributes(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, attrs)
}
