// api/audit/service.go
package audit

import (
	"context"
	"time"
)

type Service interface {
	LogEvent(ctx context.Context, log AuditLog) error
	QueryLogs(ctx context.Context, from, to time.Time, subjectID, recordID string) ([]AuditLog, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) LogEvent(ctx context.Context, log AuditLog) error {
	return s.repo.LogEvent(ctx, log)
}

func (s *service) QueryLogs(ctx context.Context, from, to time.Time, subjectID, recordID string) ([]AuditLog, error) {
	return s.repo.QueryLogs(ctx, from, to, subjectID, recordID)
}
