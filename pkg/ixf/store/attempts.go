package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ixfabric/ixfrecon/pkg/ixf/models"
)

// BeginAttempt records the start of a reconciliation run against lanID.
func (s *GORMStore) BeginAttempt(ctx context.Context, lanID uuid.UUID, startedAt time.Time) (*models.ImportAttempt, error) {
	attempt := &models.ImportAttempt{
		ID:        uuid.New(),
		IXLanID:   lanID,
		StartedAt: startedAt,
	}
	if err := s.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

// FinishAttempt closes out an attempt with its outcome.
func (s *GORMStore) FinishAttempt(ctx context.Context, id uuid.UUID, success bool, errMsg string, finishedAt time.Time) error {
	return s.db.WithContext(ctx).Model(&models.ImportAttempt{}).Where("id = ?", id).Updates(map[string]any{
		"success":     success,
		"error":       errMsg,
		"finished_at": finishedAt,
	}).Error
}
