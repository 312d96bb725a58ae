package store

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/ixfabric/ixfrecon/pkg/ixf/models"
)

// GetNetwork returns the network registered under asn.
func (s *GORMStore) GetNetwork(ctx context.Context, asn uint32) (*models.Network, error) {
	var n models.Network
	if err := s.db.WithContext(ctx).First(&n, "asn = ?", asn).Error; err != nil {
		return nil, convertNotFoundError(err, models.ErrNetworkNotFound)
	}
	return &n, nil
}

// UpsertNetwork creates or updates a network row. The importer itself
// never calls this: it is here for the registry sync that keeps
// networks/ixlans current ahead of a reconciliation run.
func (s *GORMStore) UpsertNetwork(ctx context.Context, n *models.Network) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asn"}},
		UpdateAll: true,
	}).Create(n).Error
}

// ListNetworksByASN returns networks for the given set of ASNs, used by
// the Decision Engine to batch-load consent/protocol-support flags for
// one feed's worth of candidates.
func (s *GORMStore) ListNetworksByASN(ctx context.Context, asns []uint32) (map[uint32]*models.Network, error) {
	if len(asns) == 0 {
		return map[uint32]*models.Network{}, nil
	}
	var rows []models.Network
	if err := s.db.WithContext(ctx).Where("asn IN ?", asns).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint32]*models.Network, len(rows))
	for i := range rows {
		out[rows[i].ASN] = &rows[i]
	}
	return out, nil
}
