// api/service/attribute_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	logger "github.com/choiwab/patient-x/api/logging"
	"github.com/choiwab/patient-x/api/model"
	"github.com/choiwab/patient-x/api/storage"
	"github.com/choiwab/patient-x/api/util"
)

// IAttributeService defines the interface for attribute operations
type IAttributeService interface {
	AssignAttribute(ctx context.Context, attribute model.Attribute, callerID string) (*model.Attribute, error)
	RevokeAttribute(ctx context.Context, subject, key, callerID string) error
	GetAttribute(ctx context.Context, subject, key string) (*model.Attribute, error)
	ListAttributes(ctx context.Context, subject string) ([]*model.Attribute, error)
}

// AttributeService handles business logic for subject attribute assignments
type AttributeService struct {
	attributeStore storage.AttributeStore
	clock          util.Clock
	validationUtil *util.ValidationUtil
	cacheService   *util.CacheService
	eventBus       *util.EventBus
}

var _ IAttributeService = (*AttributeService)(nil)

// NewAttributeService creates a new instance of AttributeService
func NewAttributeService(
	attributeStore storage.AttributeStore,
	clock util.Clock,
	validationUtil *util.ValidationUtil,
	cacheService *util.CacheService,
	eventBus *util.EventBus,
) *AttributeService {
	return &AttributeService{
		attributeStore: attributeStore,
		clock:          clock,
		validationUtil: validationUtil,
		cacheService:   cacheService,
		eventBus:       eventBus,
	}
}

// AssignAttribute upserts the (subject, key) assignment. Re-assigning an
// existing key overwrites value, type and expiry in place without consuming
// extra capacity.
func (s *AttributeService) AssignAttribute(ctx context.Context, attribute model.Attribute, callerID string) (*model.Attribute, error) {
	if err := s.validationUtil.ValidateAttribute(attribute); err != nil {
		return nil, err
	}

	attribute.AssignedBy = callerID
	attribute.AssignedAt = s.clock.Now()

	if err := s.attributeStore.PutAttribute(ctx, &attribute); err != nil {
		logger.Error("Error assigning attribute",
			zap.Error(err),
			zap.String("subject", attribute.Subject),
			zap.String("key", attribute.Key))
		return nil, err
	}

	if err := s.cacheService.SetAttribute(ctx, attribute); err != nil {
		logger.Warn("Failed to cache attribute",
			zap.Error(err),
			zap.String("subject", attribute.Subject),
			zap.String("key", attribute.Key))
	}

	s.eventBus.Publish(ctx, util.EventAttributeAssigned, model.AttributeEventPayload{Attribute: attribute, CallerID: callerID})

	logger.Info("Attribute assigned successfully",
		zap.String("subject", attribute.Subject),
		zap.String("key", attribute.Key),
		zap.String("callerID", callerID))
	return &attribute, nil
}

// RevokeAttribute removes the (subject, key) assignment. Revoking an absent
// assignment fails with ErrAttributeNotFound.
func (s *AttributeService) RevokeAttribute(ctx context.Context, subject, key, callerID string) error {
	attribute, err := s.attributeStore.GetAttribute(ctx, subject, key)
	if err != nil {
		return err
	}

	if err := s.attributeStore.DeleteAttribute(ctx, subject, key); err != nil {
		logger.Error("Error revoking attribute",
			zap.Error(err),
			zap.String("subject", subject),
			zap.String("key", key))
		return fmt.Errorf("failed to revoke attribute: %w", err)
	}

	if err := s.cacheService.DeleteAttribute(ctx, subject, key); err != nil {
		logger.Warn("Failed to delete attribute from cache",
			zap.Error(err),
			zap.String("subject", subject),
			zap.String("key", key))
	}

	s.eventBus.Publish(ctx, util.EventAttributeRevoked, model.AttributeEventPayload{Attribute: *attribute, CallerID: callerID})

	logger.Info("Attribute revoked successfully",
		zap.String("subject", subject),
		zap.String("key", key),
		zap.String("callerID", callerID))
	return nil
}

// GetAttribute retrieves a single (subject, key) assignment
func (s *AttributeService) GetAttribute(ctx context.Context, subject, key string) (*model.Attribute, error) {
	cachedAttribute, err := s.cacheService.GetAttribute(ctx, subject, key)
	if err == nil && cachedAttribute != nil {
		return cachedAttribute, nil
	}

	attribute, err := s.attributeStore.GetAttribute(ctx, subject, key)
	if err != nil {
		return nil, err
	}

	if err := s.cacheService.SetAttribute(ctx, *attribute); err != nil {
		logger.Warn("Failed to cache attribute",
			zap.Error(err),
			zap.String("subject", subject),
			zap.String("key", key))
	}

	return attribute, nil
}

// ListAttributes retrieves every live assignment for the subject
func (s *AttributeService) ListAttributes(ctx context.Context, subject string) ([]*model.Attribute, error) {
	attributes, err := s.attributeStore.ListAttributes(ctx, subject)
	if err != nil {
		logger.Error("Error listing attributes", zap.Error(err), zap.String("subject", subject))
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}
	return attributes, nil
}
