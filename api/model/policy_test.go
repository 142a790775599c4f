// api/model/policy_test.go
package model_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echo_errors "github.com/choiwab/patient-x/api/errors"
	"github.com/choiwab/patient-x/api/model"
)

func TestParsePolicyID(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		raw := strings.Repeat("ab", model.PolicyIDLength)
		id, err := model.ParsePolicyID(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, id.String())
		assert.False(t, id.IsZero())
	})

	t.Run("RejectsBadHex", func(t *testing.T) {
		_, err := model.ParsePolicyID("zz")
		assert.ErrorIs(t, err, echo_errors.ErrInvalidPolicyID)
	})

	t.Run("RejectsWrongLength", func(t *testing.T) {
		_, err := model.ParsePolicyID("abcd")
		assert.ErrorIs(t, err, echo_errors.ErrInvalidPolicyID)
	})

	t.Run("JSONRoundTrip", func(t *testing.T) {
		raw := strings.Repeat("0f", model.PolicyIDLength)
		id, err := model.ParsePolicyID(raw)
		require.NoError(t, err)

		data, err := json.Marshal(id)
		require.NoError(t, err)
		assert.Equal(t, `"`+raw+`"`, string(data))

		var decoded model.PolicyID
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, id, decoded)
	})
}

func TestParseDiscriminants(t *testing.T) {
	t.Run("Effect", func(t *testing.T) {
		effect, err := model.ParseEffect("allow")
		require.NoError(t, err)
		assert.Equal(t, model.EffectAllow, effect)

		_, err = model.ParseEffect("permit")
		assert.ErrorIs(t, err, echo_errors.ErrInvalidEffect)

		_, err = model.ParseEffect("")
		assert.ErrorIs(t, err, echo_errors.ErrInvalidEffect)
	})

	t.Run("Mode", func(t *testing.T) {
		mode, err := model.ParseMode("one_of")
		require.NoError(t, err)
		assert.Equal(t, model.ModeOneOf, mode)

		_, err = model.ParseMode("some_of")
		assert.ErrorIs(t, err, echo_errors.ErrInvalidMode)
	})

	t.Run("Operator", func(t *testing.T) {
		op, err := model.ParseOperator("in_range")
		require.NoError(t, err)
		assert.Equal(t, model.OperatorInRange, op)

		_, err = model.ParseOperator("matches")
		assert.ErrorIs(t, err, echo_errors.ErrInvalidOperator)
	})

	t.Run("AttributeType", func(t *testing.T) {
		at, err := model.ParseAttributeType("clearance_level")
		require.NoError(t, err)
		assert.Equal(t, model.AttributeTypeClearanceLevel, at)

		_, err = model.ParseAttributeType("rank")
		assert.ErrorIs(t, err, echo_errors.ErrInvalidAttributeType)
	})
}

func TestPolicyExpired(t *testing.T) {
	t.Run("NoExpiryNeverExpires", func(t *testing.T) {
		policy := model.Policy{}
		assert.False(t, policy.Expired(0))
		assert.False(t, policy.Expired(1<<40))
	})

	t.Run("ExpiryIsExclusive", func(t *testing.T) {
		expiresAt := uint64(100)
		policy := model.Policy{ExpiresAt: &expiresAt}
		// The expiry tick itself is still live; only a strictly later tick
		// expires the policy.
		assert.False(t, policy.Expired(99))
		assert.False(t, policy.Expired(100))
		assert.True(t, policy.Expired(101))
	})
}

func TestAttributeExpired(t *testing.T) {
	expiresAt := uint64(5)
	attr := model.Attribute{ExpiresAt: &expiresAt}
	assert.False(t, attr.Expired(5))
	assert.True(t, attr.Expired(6))

	attr.ExpiresAt = nil
	assert.False(t, attr.Expired(6))
}
