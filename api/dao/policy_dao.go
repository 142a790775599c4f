// api/dao/policy_dao.go
package dao

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	echo_errors "github.com/choiwab/patient-x/api/errors"
	logger "github.com/choiwab/patient-x/api/logging"
	"github.com/choiwab/patient-x/api/model"
	"github.com/choiwab/patient-x/api/storage"
)

// PolicyDAO persists policies as (:Policy) nodes. The row is the source of
// truth; record attachments never reference it by relationship, so deleting
// a policy leaves attached ids dangling on purpose.
type PolicyDAO struct {
	Driver neo4j.Driver
}

var _ storage.PolicyStore = (*PolicyDAO)(nil)

func NewPolicyDAO(driver neo4j.Driver) *PolicyDAO {
	dao := &PolicyDAO{Driver: driver}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for Policy", zap.Error(err))
	}
	return dao
}

func (dao *PolicyDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on Policy ID")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_policy_id IF NOT EXISTS
        FOR (p:Policy) REQUIRE p.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})

	if err != nil {
		logger.Error("Failed to ensure unique constraint on Policy ID", zap.Error(err))
		return err
	}
	return nil
}

func (dao *PolicyDAO) PutPolicy(ctx context.Context, policy *model.Policy) error {
	start := time.Now()
	logger.Info("Upserting policy", zap.String("policyID", policy.ID.String()))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (p:Policy {id: $id})
        ON CREATE SET p += $props
        ON MATCH SET p += $props
        RETURN p.id as id
        `

		conditionsJSON, _ := json.Marshal(policy.Conditions)

		props := map[string]interface{}{
			"name":       policy.Name,
			"creator":    policy.Creator,
			"effect":     string(policy.Effect),
			"mode":       string(policy.Mode),
			"conditions": string(conditionsJSON),
			"createdAt":  int64(policy.CreatedAt),
			"active":     policy.Active,
		}
		if policy.ExpiresAt != nil {
			props["expiresAt"] = int64(*policy.ExpiresAt)
		} else {
			props["expiresAt"] = nil
		}

		result, err := transaction.Run(query, map[string]interface{}{
			"id":    policy.ID.String(),
			"props": props,
		})
		if err != nil {
			return nil, echo_errors.ErrDatabaseOperation
		}

		if result.Next() {
			return result.Record().Values[0], nil
		}
		return nil, echo_errors.ErrInternalServer
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to upsert policy",
			zap.Error(err),
			zap.String("policyID", policy.ID.String()),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Policy upserted successfully",
		zap.String("policyID", policy.ID.String()),
		zap.Duration("duration", duration))
	return nil
}

func (dao *PolicyDAO) GetPolicy(ctx context.Context, id model.PolicyID) (*model.Policy, error) {
	start := time.Now()
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (p:Policy {id: $id})
    RETURN p
    `
	result, err := session.Run(query, map[string]interface{}{"id": id.String()})
	if err != nil {
		logger.Error("Failed to execute get policy query",
			zap.Error(err),
			zap.String("policyID", id.String()),
			zap.Duration("duration", time.Since(start)))
		return nil, echo_errors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		policy, err := mapNodeToPolicy(node)
		if err != nil {
			logger.Error("Failed to map policy node to struct",
				zap.Error(err),
				zap.String("policyID", id.String()))
			return nil, echo_errors.ErrInternalServer
		}
		return policy, nil
	}

	return nil, echo_errors.ErrPolicyNotFound
}

func (dao *PolicyDAO) HasPolicy(ctx context.Context, id model.PolicyID) (bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (p:Policy {id: $id})
    RETURN count(p) as cnt
    `
	result, err := session.Run(query, map[string]interface{}{"id": id.String()})
	if err != nil {
		logger.Error("Failed to execute has policy query",
			zap.Error(err),
			zap.String("policyID", id.String()))
		return false, echo_errors.ErrDatabaseOperation
	}

	if result.Next() {
		return result.Record().Values[0].(int64) > 0, nil
	}
	return false, nil
}

// DeletePolicy removes the policy node only. Attached ids on record nodes are
// deliberately left behind and surface as not-found at evaluation time.
func (dao *PolicyDAO) DeletePolicy(ctx context.Context, id model.PolicyID) error {
	start := time.Now()
	logger.Info("Deleting policy", zap.String("policyID", id.String()))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (p:Policy {id: $id})
        DELETE p
        `
		result, err := transaction.Run(query, map[string]interface{}{"id": id.String()})
		if err != nil {
			return nil, echo_errors.ErrDatabaseOperation
		}

		summary, err := result.Consume()
		if err != nil {
			return nil, echo_errors.ErrDatabaseOperation
		}

		if summary.Counters().NodesDeleted() == 0 {
			return nil, echo_errors.ErrPolicyNotFound
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete policy",
			zap.Error(err),
			zap.String("policyID", id.String()),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Policy deleted successfully",
		zap.String("policyID", id.String()),
		zap.Duration("duration", duration))
	return nil
}

func (dao *PolicyDAO) ListPolicies(ctx context.Context, limit, offset int) ([]*model.Policy, error) {
	start := time.Now()
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (p:Policy)
    RETURN p
    ORDER BY p.createdAt DESC
    SKIP $offset
    LIMIT $limit
    `
	result, err := session.Run(query, map[string]interface{}{
		"limit":  limit,
		"offset": offset,
	})
	if err != nil {
		logger.Error("Failed to execute list policies query",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return nil, echo_errors.ErrDatabaseOperation
	}

	var policies []*model.Policy
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		policy, err := mapNodeToPolicy(node)
		if err != nil {
			logger.Error("Failed to map policy node to struct", zap.Error(err))
			return nil, echo_errors.ErrInternalServer
		}
		policies = append(policies, policy)
	}

	logger.Info("Policies listed successfully",
		zap.Int("count", len(policies)),
		zap.Duration("duration", time.Since(start)))
	return policies, nil
}

// Helper function to map a Neo4j node to a Policy struct. Discriminants are
// re-parsed on read so a corrupt row fails loudly instead of defaulting.
func mapNodeToPolicy(node neo4j.Node) (*model.Policy, error) {
	props := node.Props
	policy := &model.Policy{}

	id, err := model.ParsePolicyID(props["id"].(string))
	if err != nil {
		return nil, err
	}
	policy.ID = id
	policy.Name = props["name"].(string)
	policy.Creator = props["creator"].(string)

	policy.Effect, err = model.ParseEffect(props["effect"].(string))
	if err != nil {
		return nil, err
	}
	policy.Mode, err = model.ParseMode(props["mode"].(string))
	if err != nil {
		return nil, err
	}

	conditionsJSON := props["conditions"].(string)
	if err := json.Unmarshal([]byte(conditionsJSON), &policy.Conditions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy conditions: %w", err)
	}

	policy.CreatedAt = uint64(props["createdAt"].(int64))
	if raw, ok := props["expiresAt"]; ok && raw != nil {
		expiresAt := uint64(raw.(int64))
		policy.ExpiresAt = &expiresAt
	}
	policy.Active = props["active"].(bool)

	return policy, nil
}
