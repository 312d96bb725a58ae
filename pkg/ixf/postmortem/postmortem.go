// Package postmortem implements the reconciliation engine's read-only
// retrospective query over the archive (spec.md §4.10): every applied
// change for one ASN, newest first.
package postmortem

import (
	"context"
	"fmt"
	"strings"

	"github.com/ixfabric/ixfrecon/pkg/ixf/store"
)

// DefaultLimit is the limit Report uses when the caller passes none, and
// the largest limit it accepts.
const DefaultLimit = 200

// Record is one flat, human-readable line of an ASN's reconciliation history.
type Record struct {
	Exchange string
	IXLan    string

	Action  string
	Reason  string
	Changes map[string]string

	IPv4        string
	IPv6        string
	Speed       int
	IsRSPeer    bool
	Operational bool

	ArchivedAt string // formatted "2006-01-02 15:04:05"
}

// Report runs the post-mortem query for asn, applying limit (falling back
// to DefaultLimit when limit <= 0, and lowering any larger limit to
// DefaultLimit). The cap is the DefaultLimit constant, not the configured
// IXF_POSTMORTEM_LIMIT: a configured value above DefaultLimit has no effect.
func Report(ctx context.Context, s *store.GORMStore, asn uint32, limit int) ([]Record, error) {
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}
	rows, err := s.ListLogEntriesByASN(ctx, asn, limit)
	if err != nil {
		return nil, fmt.Errorf("postmortem: querying archive for AS%d: %w", asn, err)
	}

	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record{
			Exchange:    r.ExchangeName,
			IXLan:       r.IXLanName,
			Action:      r.Action,
			Reason:      r.Reason,
			Changes:     parseChanges(r.Changes),
			IPv4:        strOrEmpty(r.IPv4),
			IPv6:        strOrEmpty(r.IPv6),
			Speed:       r.Speed,
			IsRSPeer:    r.IsRSPeer,
			Operational: r.Operational,
			ArchivedAt:  r.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return out, nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// parseChanges turns the Applier's "field: old -> new; field: old -> new"
// diff string back into a map, the shape a UI/CLI table wants to render.
func parseChanges(s string) map[string]string {
	if s == "" {
		return nil
	}
	out := map[string]string{}
	for _, part := range strings.Split(s, "; ") {
		field, rest, ok := strings.Cut(part, ": ")
		if !ok {
			continue
		}
		out[field] = rest
	}
	return out
}
