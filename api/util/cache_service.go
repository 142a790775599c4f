// api/util/cache_service.go

package util

import (
	"context"

	"github.com/choiwab/patient-x/api/db"
	"github.com/choiwab/patient-x/api/model"
)

// CacheService is a read-through cache for policy and attribute rows. Access
// decisions are never cached: they depend on the logical clock.
type CacheService struct{}

func NewCacheService() *CacheService {
	return &CacheService{}
}

func (c *CacheService) GetPolicy(ctx context.Context, policyID model.PolicyID) (*model.Policy, error) {
	return db.GetCachedPolicy(ctx, policyID)
}

func (c *CacheService) SetPolicy(ctx context.Context, policy model.Policy) error {
	return db.CachePolicy(ctx, &policy)
}

func (c *CacheService) DeletePolicy(ctx context.Context, policyID model.PolicyID) error {
	return db.DeleteCachedPolicy(ctx, policyID)
}

func (c *CacheService) GetAttribute(ctx context.Context, subject, key string) (*model.Attribute, error) {
	return db.GetCachedAttribute(ctx, subject, key)
}

func (c *CacheService) SetAttribute(ctx context.Context, attribute model.Attribute) error {
	return db.CacheAttribute(ctx, &attribute)
}

func (c *CacheService) DeleteAttribute(ctx context.Context, subject, key string) error {
	return db.DeleteCachedAttribute(ctx, subject, key)
}
