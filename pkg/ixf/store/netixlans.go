package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ixfabric/ixfrecon/pkg/ixf/models"
)

// ListActiveNetIXLans returns every non-deleted connection on lanID,
// the local half of the three-way merge the Decision Engine runs
// against one feed's candidates.
func (s *GORMStore) ListActiveNetIXLans(ctx context.Context, lanID uuid.UUID) ([]models.NetIXLan, error) {
	var rows []models.NetIXLan
	err := s.db.WithContext(ctx).
		Where("ixlan_id = ? AND status = ?", lanID, models.StatusOK).
		Find(&rows).Error
	return rows, err
}

// GetNetIXLan returns one connection by id within a transaction-scoped
// db handle (tx may be s.db or an active *gorm.DB transaction).
func GetNetIXLan(tx *gorm.DB, id uuid.UUID) (*models.NetIXLan, error) {
	var row models.NetIXLan
	if err := tx.First(&row, "id = ?", id).Error; err != nil {
		return nil, convertNotFoundError(err, models.ErrNetIXLanNotFound)
	}
	return &row, nil
}

// CreateNetIXLan inserts n, starting Version at 1.
func CreateNetIXLan(tx *gorm.DB, n *models.NetIXLan) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.Version = 1
	n.Status = models.StatusOK
	if err := tx.Create(n).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.ErrDuplicateAddress
		}
		return err
	}
	return nil
}

// UpdateNetIXLan persists n's mutable fields and bumps Version.
func UpdateNetIXLan(tx *gorm.DB, n *models.NetIXLan) error {
	n.Version++
	return tx.Model(&models.NetIXLan{}).Where("id = ?", n.ID).Updates(map[string]any{
		"ipv4":        n.IPv4,
		"ipv6":        n.IPv6,
		"speed":       n.Speed,
		"is_rs_peer":  n.IsRSPeer,
		"operational": n.Operational,
		"version":     n.Version,
	}).Error
}

// DeleteNetIXLan soft-deletes n by marking it StatusDeleted and bumping
// Version, mirroring the original importer's handling of a connection
// that disappeared from the feed ("entry gone from remote").
func DeleteNetIXLan(tx *gorm.DB, id uuid.UUID) (*models.NetIXLan, error) {
	row, err := GetNetIXLan(tx, id)
	if err != nil {
		return nil, err
	}
	row.Version++
	if err := tx.Model(&models.NetIXLan{}).Where("id = ?", id).Updates(map[string]any{
		"status":  models.StatusDeleted,
		"version": row.Version,
	}).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Tx runs fn inside a database transaction, the boundary the Applier
// uses so a run's deletes and saves commit atomically.
func (s *GORMStore) Tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}
