// api/service/record_service.go
package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	logger "github.com/choiwab/patient-x/api/logging"
	"github.com/choiwab/patient-x/api/model"
	"github.com/choiwab/patient-x/api/storage"
	"github.com/choiwab/patient-x/api/util"
)

// IRecordService defines the interface for health record registry operations
type IRecordService interface {
	RegisterRecord(ctx context.Context, record model.HealthRecord, callerID string) (*model.HealthRecord, error)
	GetRecord(ctx context.Context, recordID model.RecordID) (*model.HealthRecord, error)
}

// RecordService maintains the registry of protected records. Record content
// lives elsewhere; the registry only tracks existence and ownership.
type RecordService struct {
	records        storage.RecordRegistry
	clock          util.Clock
	validationUtil *util.ValidationUtil
	eventBus       *util.EventBus
}

var _ IRecordService = (*RecordService)(nil)

// NewRecordService creates a new instance of RecordService
func NewRecordService(
	records storage.RecordRegistry,
	clock util.Clock,
	validationUtil *util.ValidationUtil,
	eventBus *util.EventBus,
) *RecordService {
	return &RecordService{
		records:        records,
		clock:          clock,
		validationUtil: validationUtil,
		eventBus:       eventBus,
	}
}

// RegisterRecord registers a record under the caller's ownership. An id is
// minted when the caller does not supply one.
func (s *RecordService) RegisterRecord(ctx context.Context, record model.HealthRecord, callerID string) (*model.HealthRecord, error) {
	if record.ID == "" {
		record.ID = model.RecordID(uuid.New().String())
	}
	record.Owner = callerID
	record.CreatedAt = s.clock.Now()

	if err := s.validationUtil.ValidateRecord(record); err != nil {
		return nil, err
	}

	if err := s.records.PutRecord(ctx, &record); err != nil {
		logger.Error("Error registering record",
			zap.Error(err),
			zap.String("recordID", string(record.ID)))
		return nil, err
	}

	s.eventBus.Publish(ctx, util.EventRecordCreated, model.RecordEventPayload{Record: record, CallerID: callerID})

	logger.Info("Record registered successfully",
		zap.String("recordID", string(record.ID)),
		zap.String("callerID", callerID))
	return &record, nil
}

// GetRecord retrieves the registry entry for a record
func (s *RecordService) GetRecord(ctx context.Context, recordID model.RecordID) (*model.HealthRecord, error) {
	return s.records.GetRecord(ctx, recordID)
}
