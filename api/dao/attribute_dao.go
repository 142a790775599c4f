// api/dao/attribute_dao.go
package dao

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	echo_errors "github.com/choiwab/patient-x/api/errors"
	logger "github.com/choiwab/patient-x/api/logging"
	"github.com/choiwab/patient-x/api/model"
	"github.com/choiwab/patient-x/api/storage"
)

// AttributeDAO persists attribute assignments as (:Attribute) nodes keyed by
// the composite "subject:key" id. The per-subject bound is enforced inside the
// write transaction: a full subject gains no new keys and loses no data.
type AttributeDAO struct {
	Driver neo4j.Driver
	caps   storage.Capacities
}

var _ storage.AttributeStore = (*AttributeDAO)(nil)

func NewAttributeDAO(driver neo4j.Driver, caps storage.Capacities) *AttributeDAO {
	dao := &AttributeDAO{Driver: driver, caps: caps}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for Attribute", zap.Error(err))
	}
	return dao
}

func (dao *AttributeDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on Attribute ID")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_attribute_id IF NOT EXISTS
        FOR (a:Attribute) REQUIRE a.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})

	if err != nil {
		logger.Error("Failed to ensure unique constraint on Attribute ID", zap.Error(err))
		return err
	}
	return nil
}

func attributeNodeID(subject, key string) string {
	return subject + ":" + key
}

func (dao *AttributeDAO) PutAttribute(ctx context.Context, attr *model.Attribute) error {
	start := time.Now()
	logger.Info("Upserting attribute",
		zap.String("subject", attr.Subject),
		zap.String("key", attr.Key))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		// Capacity is checked before the write in the same transaction, so
		// a full subject is left exactly as it was. Overwrites of an
		// existing key are always admitted.
		countQuery := `
        MATCH (a:Attribute {subject: $subject})
        RETURN count(a) as total, count(CASE WHEN a.key = $key THEN 1 END) as present
        `
		countResult, err := transaction.Run(countQuery, map[string]interface{}{
			"subject": attr.Subject,
			"key":     attr.Key,
		})
		if err != nil {
			return nil, echo_errors.ErrDatabaseOperation
		}
		if !countResult.Next() {
			return nil, echo_errors.ErrDatabaseOperation
		}
		total := countResult.Record().Values[0].(int64)
		present := countResult.Record().Values[1].(int64)
		if present == 0 && total >= int64(dao.caps.AttributesPerSubject) {
			return nil, echo_errors.ErrTooManyAttributes
		}

		query := `
        MERGE (a:Attribute {id: $id})
        ON CREATE SET a += $props
        ON MATCH SET a += $props
        RETURN a.id as id
        `

		props := map[string]interface{}{
			"subject":    attr.Subject,
			"key":        attr.Key,
			"value":      base64.StdEncoding.EncodeToString(attr.Value),
			"type":       string(attr.Type),
			"assignedBy": attr.AssignedBy,
			"assignedAt": int64(attr.AssignedAt),
		}
		if attr.ExpiresAt != nil {
			props["expiresAt"] = int64(*attr.ExpiresAt)
		} else {
			props["expiresAt"] = nil
		}

		result, err := transaction.Run(query, map[string]interface{}{
			"id":    attributeNodeID(attr.Subject, attr.Key),
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
		logger.Error("Failed to upsert attribute",
			zap.Error(err),
			zap.String("subject", attr.Subject),
			zap.String("key", attr.Key),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Attribute upserted successfully",
		zap.String("subject", attr.Subject),
		zap.String("key", attr.Key),
		zap.Duration("duration", duration))
	return nil
}

func (dao *AttributeDAO) GetAttribute(ctx context.Context, subject, key string) (*model.Attribute, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (a:Attribute {id: $id})
    RETURN a
    `
	result, err := session.Run(query, map[string]interface{}{"id": attributeNodeID(subject, key)})
	if err != nil {
		logger.Error("Failed to execute get attribute query",
			zap.Error(err),
			zap.String("subject", subject),
			zap.String("key", key))
		return nil, echo_errors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		attr, err := mapNodeToAttribute(node)
		if err != nil {
			logger.Error("Failed to map attribute node to struct",
				zap.Error(err),
				zap.String("subject", subject),
				zap.String("key", key))
			return nil, echo_errors.ErrInternalServer
		}
		return attr, nil
	}

	return nil, echo_errors.ErrAttributeNotFound
}

func (dao *AttributeDAO) DeleteAttribute(ctx context.Context, subject, key string) error {
	start := time.Now()
	logger.Info("Deleting attribute",
		zap.String("subject", subject),
		zap.String("key", key))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (a:Attribute {id: $id})
        DELETE a
        `
		result, err := transaction.Run(query, map[string]interface{}{"id": attributeNodeID(subject, key)})
		if err != nil {
			return nil, echo_errors.ErrDatabaseOperation
		}

		summary, err := result.Consume()
		if err != nil {
			return nil, echo_errors.ErrDatabaseOperation
		}

		if summary.Counters().NodesDeleted() == 0 {
			return nil, echo_errors.ErrAttributeNotFound
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete attribute",
			zap.Error(err),
			zap.String("subject", subject),
			zap.String("key", key),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Attribute deleted successfully",
		zap.String("subject", subject),
		zap.String("key", key),
		zap.Duration("duration", duration))
	return nil
}

func (dao *AttributeDAO) ListAttributes(ctx context.Context, subject string) ([]*model.Attribute, error) {
	start := time.Now()
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (a:Attribute {subject: $subject})
    RETURN a
    ORDER BY a.key
    `
	result, err := session.Run(query, map[string]interface{}{"subject": subject})
	if err != nil {
		logger.Error("Failed to execute list attributes query",
			zap.Error(err),
			zap.String("subject", subject),
			zap.Duration("duration", time.Since(start)))
		return nil, echo_errors.ErrDatabaseOperation
	}

	var attrs []*model.Attribute
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		attr, err := mapNodeToAttribute(node)
		if err != nil {
			logger.Error("Failed to map attribute node to struct", zap.Error(err))
			return nil, echo_errors.ErrInternalServer
		}
		attrs = append(attrs, attr)
	}

	return attrs, nil
}

// Helper function to map a Neo4j node to an Attribute struct.
func mapNodeToAttribute(node neo4j.Node) (*model.Attribute, error) {
	props := node.Props
	attr := &model.Attribute{}

	attr.Subject = props["subject"].(string)
	attr.Key = props["key"].(string)

	value, err := base64.StdEncoding.DecodeString(props["value"].(string))
	if err != nil {
		return nil, err
	}
	attr.Value = value

	attr.Type, err = model.ParseAttributeType(props["type"].(string))
	if err != nil {
		return nil, err
	}

	attr.AssignedBy = props["assignedBy"].(string)
	attr.AssignedAt = uint64(props["assignedAt"].(int64))
	if raw, ok := props["expiresAt"]; ok && raw != nil {
		expiresAt := uint64(raw.(int64))
		attr.ExpiresAt = &expiresAt
	}

	return attr, nil
}
