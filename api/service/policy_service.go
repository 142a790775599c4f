// api/service/policy_service.go
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	echo_errors "github.com/choiwab/patient-x/api/errors"
	logger "github.com/choiwab/patient-x/api/logging"
	"github.com/choiwab/patient-x/api/model"
	"github.com/choiwab/patient-x/api/storage"
	"github.com/choiwab/patient-x/api/util"
)

// IPolicyService defines the interface for policy operations
type IPolicyService interface {
	CreatePolicy(ctx context.Context, policy model.Policy, callerID string) (*model.Policy, error)
	SetPolicyStatus(ctx context.Context, policyID model.PolicyID, active bool, callerID string) (*model.Policy, error)
	DeletePolicy(ctx context.Context, policyID model.PolicyID, callerID string) error
	GetPolicy(ctx context.Context, policyID model.PolicyID) (*model.Policy, error)
	ListPolicies(ctx context.Context, limit, offset int) ([]*model.Policy, error)
	BulkCreatePolicies(ctx context.Context, policies []model.Policy, callerID string) ([]model.PolicyID, error)
}

// PolicyService handles business logic for policy operations
type PolicyService struct {
	policyStore    storage.PolicyStore
	caps           storage.Capacities
	clock          util.Clock
	validationUtil *util.ValidationUtil
	cacheService   *util.CacheService
	eventBus       *util.EventBus
}

var _ IPolicyService = (*PolicyService)(nil)

// NewPolicyService creates a new instance of PolicyService
func NewPolicyService(
	policyStore storage.PolicyStore,
	caps storage.Capacities,
	clock util.Clock,
	validationUtil *util.ValidationUtil,
	cacheService *util.CacheService,
	eventBus *util.EventBus,
) *PolicyService {
	return &PolicyService{
		policyStore:    policyStore,
		caps:           caps,
		clock:          clock,
		validationUtil: validationUtil,
		cacheService:   cacheService,
		eventBus:       eventBus,
	}
}

// CreatePolicy registers a new policy under the caller's ownership. The id is
// chosen by the caller; creating an id that already exists fails rather than
// overwriting. New policies start active.
func (s *PolicyService) CreatePolicy(ctx context.Context, policy model.Policy, callerID string) (*model.Policy, error) {
	if err := s.validationUtil.ValidatePolicy(policy); err != nil {
		return nil, err
	}

	// Conditions pass through a bounded list so the stored policy can never
	// exceed the configured bound.
	conditions := model.NewBoundedList[model.Condition](s.caps.ConditionsPerPolicy)
	for _, condition := range policy.Conditions {
		if err := conditions.Push(condition); err != nil {
			return nil, echo_errors.ErrTooManyConditions
		}
	}
	policy.Conditions = conditions.Items()

	exists, err := s.policyStore.HasPolicy(ctx, policy.ID)
	if err != nil {
		logger.Error("Error checking policy existence", zap.Error(err), zap.String("policyID", policy.ID.String()))
		return nil, err
	}
	if exists {
		return nil, echo_errors.ErrPolicyAlreadyExists
	}

	policy.Creator = callerID
	policy.CreatedAt = s.clock.Now()
	policy.Active = true

	if err := s.policyStore.PutPolicy(ctx, &policy); err != nil {
		logger.Error("Error creating policy", zap.Error(err), zap.String("callerID", callerID))
		return nil, fmt.Errorf("failed to create policy: %w", err)
	}

	if err := s.cacheService.SetPolicy(ctx, policy); err != nil {
		logger.Warn("Failed to cache policy", zap.Error(err), zap.String("policyID", policy.ID.String()))
	}

	s.eventBus.Publish(ctx, util.EventPolicyCreated, model.PolicyEventPayload{Policy: policy, CallerID: callerID})

	logger.Info("Policy created successfully",
		zap.String("policyID", policy.ID.String()),
		zap.String("callerID", callerID))
	return &policy, nil
}

// SetPolicyStatus toggles a policy active or inactive. Only the creator may
// change the status; the rest of the policy is immutable after creation.
func (s *PolicyService) SetPolicyStatus(ctx context.Context, policyID model.PolicyID, active bool, callerID string) (*model.Policy, error) {
	policy, err := s.policyStore.GetPolicy(ctx, policyID)
	if err != nil {
		logger.Error("Error retrieving policy for status update", zap.Error(err), zap.String("policyID", policyID.String()))
		return nil, err
	}

	if policy.Creator != callerID {
		return nil, echo_errors.ErrNotAuthorized
	}

	if policy.Active == active {
		return policy, nil
	}

	policy.Active = active
	if err := s.policyStore.PutPolicy(ctx, policy); err != nil {
		logger.Error("Error updating policy status", zap.Error(err), zap.String("policyID", policyID.String()))
		return nil, fmt.Errorf("failed to update policy: %w", err)
	}

	if err := s.cacheService.SetPolicy(ctx, *policy); err != nil {
		logger.Warn("Failed to update policy in cache", zap.Error(err), zap.String("policyID", policyID.String()))
	}

	s.eventBus.Publish(ctx, util.EventPolicyUpdated, model.PolicyEventPayload{Policy: *policy, CallerID: callerID})

	logger.Info("Policy status updated",
		zap.String("policyID", policyID.String()),
		zap.Bool("active", active),
		zap.String("callerID", callerID))
	return policy, nil
}

// DeletePolicy removes the policy row. Record attachments referencing the id
// are not touched; they become stale and evaluate as indeterminate.
func (s *PolicyService) DeletePolicy(ctx context.Context, policyID model.PolicyID, callerID string) error {
	policy, err := s.policyStore.GetPolicy(ctx, policyID)
	if err != nil {
		return err
	}
	if policy.Creator != callerID {
		return echo_errors.ErrNotAuthorized
	}

	if err := s.policyStore.DeletePolicy(ctx, policyID); err != nil {
		logger.Error("Error deleting policy", zap.Error(err), zap.String("policyID", policyID.String()))
		return fmt.Errorf("failed to delete policy: %w", err)
	}

	if err := s.cacheService.DeletePolicy(ctx, policyID); err != nil {
		logger.Warn("Failed to delete policy from cache", zap.Error(err), zap.String("policyID", policyID.String()))
	}

	s.eventBus.Publish(ctx, util.EventPolicyDeleted, model.PolicyEventPayload{Policy: *policy, CallerID: callerID})

	logger.Info("Policy deleted successfully",
		zap.String("policyID", policyID.String()),
		zap.String("callerID", callerID))
	return nil
}

// GetPolicy retrieves a policy by its ID
func (s *PolicyService) GetPolicy(ctx context.Context, policyID model.PolicyID) (*model.Policy, error) {
	cachedPolicy, err := s.cacheService.GetPolicy(ctx, policyID)
	if err == nil && cachedPolicy != nil {
		return cachedPolicy, nil
	}

	policy, err := s.policyStore.GetPolicy(ctx, policyID)
	if err != nil {
		if errors.Is(err, echo_errors.ErrPolicyNotFound) {
			return nil, echo_errors.ErrPolicyNotFound
		}
		logger.Error("Error retrieving policy", zap.Error(err), zap.String("policyID", policyID.String()))
		return nil, echo_errors.ErrInternalServer
	}

	if err := s.cacheService.SetPolicy(ctx, *policy); err != nil {
		logger.Warn("Failed to cache policy", zap.Error(err), zap.String("policyID", policyID.String()))
	}

	return policy, nil
}

// ListPolicies retrieves all policies, possibly with pagination
func (s *PolicyService) ListPolicies(ctx context.Context, limit, offset int) ([]*model.Policy, error) {
	policies, err := s.policyStore.ListPolicies(ctx, limit, offset)
	if err != nil {
		logger.Error("Error listing policies", zap.Error(err), zap.Int("limit", limit), zap.Int("offset", offset))
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	return policies, nil
}

// BulkCreatePolicies creates multiple policies in parallel
func (s *PolicyService) BulkCreatePolicies(ctx context.Context, policies []model.Policy, callerID string) ([]model.PolicyID, error) {
	g, ctx := errgroup.WithContext(ctx)
	policyIDs := make([]model.PolicyID, len(policies))

	// Limit concurrency to avoid overwhelming the store
	semaphore := make(chan struct{}, 10)

	for i, policy := range policies {
		i, policy := i, policy
		g.Go(func() error {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			createdPolicy, err := s.CreatePolicy(ctx, policy, callerID)
			if err != nil {
				return err
			}
			policyIDs[i] = createdPolicy.ID
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Error in bulk create policies", zap.Error(err), zap.String("callerID", callerID))
		return nil, fmt.Errorf("failed to bulk create policies: %w", err)
	}

	logger.Info("Bulk create policies completed",
		zap.Int("count", len(policyIDs)),
		zap.String("callerID", callerID))
	return policyIDs, nil
}
