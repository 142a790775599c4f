// test/mock/services.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/choiwab/patient-x/api/model"
	pdp_model "github.com/choiwab/patient-x/api/pdp/model"
)

// MockPolicyService is a mock implementation of service.IPolicyService
type MockPolicyService struct {
	mock.Mock
}

func (m *MockPolicyService) CreatePolicy(ctx context.Context, policy model.Policy, callerID string) (*model.Policy, error) {
	args := m.Called(ctx, policy, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Policy), args.Error(1)
}

func (m *MockPolicyService) SetPolicyStatus(ctx context.Context, policyID model.PolicyID, active bool, callerID string) (*model.Policy, error) {
	args := m.Called(ctx, policyID, active, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Policy), args.Error(1)
}

func (m *MockPolicyService) DeletePolicy(ctx context.Context, policyID model.PolicyID, callerID string) error {
	args := m.Called(ctx, policyID, callerID)
	return args.Error(0)
}

func (m *MockPolicyService) GetPolicy(ctx context.Context, policyID model.PolicyID) (*model.Policy, error) {
	args := m.Called(ctx, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Policy), args.Error(1)
}

func (m *MockPolicyService) ListPolicies(ctx context.Context, limit, offset int) ([]*model.Policy, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Policy), args.Error(1)
}

func (m *MockPolicyService) BulkCreatePolicies(ctx context.Context, policies []model.Policy, callerID string) ([]model.PolicyID, error) {
	args := m.Called(ctx, policies, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PolicyID), args.Error(1)
}

// MockAccessService is a mock implementation of service.IAccessService
type MockAccessService struct {
	mock.Mock
}

func (m *MockAccessService) AttachPolicy(ctx context.Context, recordID model.RecordID, policyID model.PolicyID, callerID string) error {
	args := m.Called(ctx, recordID, policyID, callerID)
	return args.Error(0)
}

func (m *MockAccessService) DetachPolicy(ctx context.Context, recordID model.RecordID, policyID model.PolicyID, callerID string) error {
	args := m.Called(ctx, recordID, policyID, callerID)
	return args.Error(0)
}

func (m *MockAccessService) AttachedPolicies(ctx context.Context, recordID model.RecordID) ([]model.PolicyID, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PolicyID), args.Error(1)
}

func (m *MockAccessService) EvaluatePolicy(ctx context.Context, policyID model.PolicyID, subject, callerID string) (pdp_model.EvaluationResult, error) {
	args := m.Called(ctx, policyID, subject, callerID)
	return args.Get(0).(pdp_model.EvaluationResult), args.Error(1)
}

func (m *MockAccessService) CheckRecordAccess(ctx context.Context, recordID model.RecordID, subject string) (*pdp_model.AccessDecision, error) {
	args := m.Called(ctx, recordID, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pdp_model.AccessDecision), args.Error(1)
}
