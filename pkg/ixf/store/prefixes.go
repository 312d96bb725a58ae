package store

import (
	"context"
	"net/netip"

	"github.com/google/uuid"

	"github.com/ixfabric/ixfrecon/pkg/ixf/models"
)

// PrefixSet is the set of IPv4/IPv6 prefixes active on one IXLan, used
// by the Parser's prefix-containment filter.
type PrefixSet struct {
	V4 []netip.Prefix
	V6 []netip.Prefix
}

// Contains4 reports whether addr falls within any active IPv4 prefix.
func (p PrefixSet) Contains4(addr netip.Addr) bool {
	for _, pfx := range p.V4 {
		if pfx.Contains(addr) {
			return true
		}
	}
	return false
}

// Contains6 reports whether addr falls within any active IPv6 prefix.
func (p PrefixSet) Contains6(addr netip.Addr) bool {
	for _, pfx := range p.V6 {
		if pfx.Contains(addr) {
			return true
		}
	}
	return false
}

// Empty reports whether the IXLan has no active prefixes at all. The
// importer does not treat that as an error; the Parser's prefix filter
// then drops every feed row that carries an address.
func (p PrefixSet) Empty() bool {
	return len(p.V4) == 0 && len(p.V6) == 0
}

// ActivePrefixes loads the active prefix set for lanID.
func (s *GORMStore) ActivePrefixes(ctx context.Context, lanID uuid.UUID) (PrefixSet, error) {
	var rows []models.IXPfx
	if err := s.db.WithContext(ctx).
		Where("ixlan_id = ? AND status = ?", lanID, models.StatusOK).
		Find(&rows).Error; err != nil {
		return PrefixSet{}, err
	}

	var set PrefixSet
	for _, row := range rows {
		pfx, err := netip.ParsePrefix(row.Prefix)
		if err != nil {
			continue
		}
		if row.Family == 6 {
			set.V6 = append(set.V6, pfx)
		} else {
			set.V4 = append(set.V4, pfx)
		}
	}
	return set, nil
}
