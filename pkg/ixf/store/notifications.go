package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ixfabric/ixfrecon/pkg/ixf/models"
)

// ErrTicketNotFound is returned by FindTicketBySubject when no prior
// ticket log entry matches.
var ErrTicketNotFound = errors.New("store: no ticket log entry for subject")

// RecordEmail appends an audit row for a sent (or MAIL_DEBUG-suppressed) notification.
func (s *GORMStore) RecordEmail(ctx context.Context, e *models.EmailLogEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(e).Error
}

// RecordTicket appends an audit row for a ticket creation attempt, success or failure.
func (s *GORMStore) RecordTicket(ctx context.Context, t *models.TicketLogEntry) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(t).Error
}

// FindTicketBySubject returns the most recent ticket log entry whose
// subject matches, used to inherit a ticket id/ref across repeated runs
// the way the original importer keyed off subject text.
func (s *GORMStore) FindTicketBySubject(ctx context.Context, subject string) (*models.TicketLogEntry, error) {
	var t models.TicketLogEntry
	err := s.db.WithContext(ctx).
		Where("subject = ?", subject).
		Order("created_at DESC").
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}
