package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ixfabric/ixfrecon/pkg/ixf/models"
)

// CreateImportLog inserts the archive header for one run's changes.
func CreateImportLog(tx *gorm.DB, log *models.ImportLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	return tx.Create(log).Error
}

// CreateImportLogEntries appends a batch of archive entries under log.
func CreateImportLogEntries(tx *gorm.DB, entries []models.ImportLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		if entries[i].ID == uuid.Nil {
			entries[i].ID = uuid.New()
		}
	}
	return tx.Create(&entries).Error
}

// ListLogEntriesByASN returns archive entries for an ASN across every
// IXLan, newest first, limited to limit rows — the query the post-mortem
// report runs.
func (s *GORMStore) ListLogEntriesByASN(ctx context.Context, asn uint32, limit int) ([]PostMortemRow, error) {
	var rows []PostMortemRow
	q := s.db.WithContext(ctx).
		Table("import_log_entries e").
		Select(`e.id, e.asn, e.ipv4, e.ipv6, e.action, e.reason, e.changes,
		        e.speed, e.is_rs_peer, e.operational, e.created_at,
		        l.ixlan_id, il.name AS ixlan_name, il.exchange_id, il.exchange_name`).
		Joins("JOIN import_logs l ON l.id = e.import_log_id").
		Joins("JOIN ixlans il ON il.id = l.ixlan_id").
		Where("e.asn = ?", asn).
		Order("e.created_at DESC, e.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}

// PostMortemRow is the flat shape the post-mortem report reads directly
// off the archive join, one row per applied change.
type PostMortemRow struct {
	ID          uuid.UUID
	ASN         uint32
	IPv4        *string
	IPv6        *string
	Action      string
	Reason      string
	Changes     string
	Speed       int
	IsRSPeer    bool
	Operational bool
	CreatedAt   time.Time

	IXLanID      uuid.UUID `gorm:"column:ixlan_id"`
	IXLanName    string    `gorm:"column:ixlan_name"`
	ExchangeID   uuid.UUID
	ExchangeName string
}
