// api/dao/record_dao.go
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

// RecordDAO persists the record registry as (:Record) nodes and the attached
// policy ids as a JSON array property on a separate (:RecordPolicies) node.
// Ids are stored as opaque hex strings, never as relationships to (:Policy),
// so deleting a policy cannot cascade into the attachment sets.
type RecordDAO struct {
	Driver neo4j.Driver
	caps   storage.Capacities
}

var (
	_ storage.RecordRegistry    = (*RecordDAO)(nil)
	_ storage.RecordPolicyStore = (*RecordDAO)(nil)
)

func NewRecordDAO(driver neo4j.Driver, caps storage.Capacities) *RecordDAO {
	dao := &RecordDAO{Driver: driver, caps: caps}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for Record", zap.Error(err))
	}
	return dao
}

func (dao *RecordDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraints on Record IDs")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		queries := []string{
			`CREATE CONSTRAINT unique_record_id IF NOT EXISTS
             FOR (r:Record) REQUIRE r.id IS UNIQUE`,
			`CREATE CONSTRAINT unique_record_policies_id IF NOT EXISTS
             FOR (rp:RecordPolicies) REQUIRE rp.id IS UNIQUE`,
		}
		for _, query := range queries {
			if _, err := transaction.Run(query, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})

	if err != nil {
		logger.Error("Failed to ensure unique constraints on Record IDs", zap.Error(err))
		return err
	}
	return nil
}

func (dao *RecordDAO) PutRecord(ctx context.Context, record *model.HealthRecord) error {
	start := time.Now()
	logger.Info("Upserting record", zap.String("recordID", string(record.ID)))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (r:Record {id: $id})
        ON CREATE SET r += $props
        ON MATCH SET r += $props
        RETURN r.id as id
        `

		tagsJSON, _ := json.Marshal(record.Tags)

		result, err := transaction.Run(query, map[string]interface{}{
			"id": string(record.ID),
			"props": map[string]interface{}{
				"owner":     record.Owner,
				"tags":      string(tagsJSON),
				"createdAt": int64(record.CreatedAt),
			},
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
		logger.Error("Failed to upsert record",
			zap.Error(err),
			zap.String("recordID", string(record.ID)),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Record upserted successfully",
		zap.String("recordID", string(record.ID)),
		zap.Duration("duration", duration))
	return nil
}

func (dao *RecordDAO) GetRecord(ctx context.Context, id model.RecordID) (*model.HealthRecord, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (r:Record {id: $id})
    RETURN r
    `
	result, err := session.Run(query, map[string]interface{}{"id": string(id)})
	if err != nil {
		logger.Error("Failed to execute get record query",
			zap.Error(err),
			zap.String("recordID", string(id)))
		return nil, echo_errors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		record, err := mapNodeToRecord(node)
		if err != nil {
			logger.Error("Failed to map record node to struct",
				zap.Error(err),
				zap.String("recordID", string(id)))
			return nil, echo_errors.ErrInternalServer
		}
		return record, nil
	}

	return nil, echo_errors.ErrRecordNotFound
}

// AttachedPolicies returns the attached ids for the record, empty when the
// record has never had an attachment.
func (dao *RecordDAO) AttachedPolicies(ctx context.Context, recordID model.RecordID) ([]model.PolicyID, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (rp:RecordPolicies {id: $id})
    RETURN rp.policyIds as policyIds
    `
	result, err := session.Run(query, map[string]interface{}{"id": string(recordID)})
	if err != nil {
		logger.Error("Failed to execute attached policies query",
			zap.Error(err),
			zap.String("recordID", string(recordID)))
		return nil, echo_errors.ErrDatabaseOperation
	}

	if !result.Next() {
		return nil, nil
	}

	policyIDs, err := decodePolicyIDs(result.Record().Values[0].(string))
	if err != nil {
		logger.Error("Failed to decode attached policy ids",
			zap.Error(err),
			zap.String("recordID", string(recordID)))
		return nil, echo_errors.ErrInternalServer
	}
	return policyIDs, nil
}

// AttachPolicy adds the policy id to the record's set. Attaching an already
// attached id is a no-op; a full set fails without being modified.
func (dao *RecordDAO) AttachPolicy(ctx context.Context, recordID model.RecordID, policyID model.PolicyID) error {
	start := time.Now()
	logger.Info("Attaching policy to record",
		zap.String("recordID", string(recordID)),
		zap.String("policyID", policyID.String()))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		ids, err := readPolicyIDsForUpdate(transaction, recordID)
		if err != nil {
			return nil, err
		}

		for _, existing := range ids {
			if existing == policyID {
				return nil, nil
			}
		}
		if len(ids) >= dao.caps.PoliciesPerRecord {
			return nil, echo_errors.ErrTooManyPolicies
		}
		ids = append(ids, policyID)

		return nil, writePolicyIDs(transaction, recordID, ids)
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to attach policy to record",
			zap.Error(err),
			zap.String("recordID", string(recordID)),
			zap.String("policyID", policyID.String()),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Policy attached successfully",
		zap.String("recordID", string(recordID)),
		zap.String("policyID", policyID.String()),
		zap.Duration("duration", duration))
	return nil
}

// DetachPolicy removes the policy id from the record's set. Detaching an id
// that is not attached is a no-op.
func (dao *RecordDAO) DetachPolicy(ctx context.Context, recordID model.RecordID, policyID model.PolicyID) error {
	start := time.Now()
	logger.Info("Detaching policy from record",
		zap.String("recordID", string(recordID)),
		zap.String("policyID", policyID.String()))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		ids, err := readPolicyIDsForUpdate(transaction, recordID)
		if err != nil {
			return nil, err
		}

		kept := ids[:0]
		for _, existing := range ids {
			if existing != policyID {
				kept = append(kept, existing)
			}
		}
		if len(kept) == len(ids) {
			return nil, nil
		}

		return nil, writePolicyIDs(transaction, recordID, kept)
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to detach policy from record",
			zap.Error(err),
			zap.String("recordID", string(recordID)),
			zap.String("policyID", policyID.String()),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Policy detached successfully",
		zap.String("recordID", string(recordID)),
		zap.String("policyID", policyID.String()),
		zap.Duration("duration", duration))
	return nil
}

func readPolicyIDsForUpdate(transaction neo4j.Transaction, recordID model.RecordID) ([]model.PolicyID, error) {
	query := `
    MATCH (rp:RecordPolicies {id: $id})
    RETURN rp.policyIds as policyIds
    `
	result, err := transaction.Run(query, map[string]interface{}{"id": string(recordID)})
	if err != nil {
		return nil, echo_errors.ErrDatabaseOperation
	}
	if !result.Next() {
		return nil, nil
	}
	ids, err := decodePolicyIDs(result.Record().Values[0].(string))
	if err != nil {
		return nil, echo_errors.ErrInternalServer
	}
	return ids, nil
}

func writePolicyIDs(transaction neo4j.Transaction, recordID model.RecordID, ids []model.PolicyID) error {
	encoded := make([]string, len(ids))
	for i, id := range ids {
		encoded[i] = id.String()
	}
	idsJSON, err := json.Marshal(encoded)
	if err != nil {
		return echo_errors.ErrInternalServer
	}

	query := `
    MERGE (rp:RecordPolicies {id: $id})
    SET rp.policyIds = $policyIds
    `
	if _, err := transaction.Run(query, map[string]interface{}{
		"id":        string(recordID),
		"policyIds": string(idsJSON),
	}); err != nil {
		return echo_errors.ErrDatabaseOperation
	}
	return nil
}

func decodePolicyIDs(idsJSON string) ([]model.PolicyID, error) {
	var encoded []string
	if err := json.Unmarshal([]byte(idsJSON), &encoded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attached policy ids: %w", err)
	}
	ids := make([]model.PolicyID, 0, len(encoded))
	for _, raw := range encoded {
		id, err := model.ParsePolicyID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Helper function to map a Neo4j node to a HealthRecord struct.
func mapNodeToRecord(node neo4j.Node) (*model.HealthRecord, error) {
	props := node.Props
	record := &model.HealthRecord{}

	record.ID = model.RecordID(props["id"].(string))
	record.Owner = props["owner"].(string)

	tagsJSON := props["tags"].(string)
	if err := json.Unmarshal([]byte(tagsJSON), &record.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record tags: %w", err)
	}

	record.CreatedAt = uint64(props["createdAt"].(int64))
	return record, nil
}
