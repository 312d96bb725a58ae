package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ixfabric/ixfrecon/pkg/ixf/models"
)

// GetIXLan returns one IXLan by id.
func (s *GORMStore) GetIXLan(ctx context.Context, id uuid.UUID) (*models.IXLan, error) {
	var lan models.IXLan
	if err := s.db.WithContext(ctx).First(&lan, "id = ?", id).Error; err != nil {
		return nil, convertNotFoundError(err, models.ErrIXLanNotFound)
	}
	return &lan, nil
}

// ListIXLansWithFeed returns every active IXLan that publishes an IX-F
// feed, the set a full reconciliation sweep iterates over.
func (s *GORMStore) ListIXLansWithFeed(ctx context.Context) ([]models.IXLan, error) {
	var lans []models.IXLan
	err := s.db.WithContext(ctx).
		Where("status = ? AND ixf_url <> ''", models.StatusOK).
		Find(&lans).Error
	return lans, err
}

// SetIXFImportError records (or clears, with msg == "") the last parse
// error seen for an IXLan's feed.
func (s *GORMStore) SetIXFImportError(ctx context.Context, id uuid.UUID, msg string) error {
	return s.db.WithContext(ctx).Model(&models.IXLan{}).
		Where("id = ?", id).
		Update("ixf_import_error", msg).Error
}

// ShouldNotifyImportError reports whether enough time has passed since
// the last parse-error notification for this IXLan to send another one,
// and if so returns true and stamps IXFImportErrorNotified to now.
func (s *GORMStore) ShouldNotifyImportError(ctx context.Context, id uuid.UUID, period time.Duration, now time.Time) (bool, error) {
	lan, err := s.GetIXLan(ctx, id)
	if err != nil {
		return false, err
	}
	if lan.IXFImportErrorNotified != nil && now.Sub(*lan.IXFImportErrorNotified) < period {
		return false, nil
	}
	if err := s.db.WithContext(ctx).Model(&models.IXLan{}).
		Where("id = ?", id).
		Update("ixf_import_error_notified", now).Error; err != nil {
		return false, err
	}
	return true, nil
}
