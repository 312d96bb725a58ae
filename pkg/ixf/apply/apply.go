// Package apply implements the reconciliation engine's Applier (spec.md
// §4.6): within one transaction per run it executes deletes then
// creates/updates, consolidating a delete+add pair into a single modify,
// and degrades a write that fails validation into a conflicted Proposal
// instead of aborting the run.
package apply

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ixfabric/ixfrecon/internal/logger"
	"github.com/ixfabric/ixfrecon/pkg/ixf/decide"
	"github.com/ixfabric/ixfrecon/pkg/ixf/models"
	"github.com/ixfabric/ixfrecon/pkg/ixf/store"
)

// Conflict is a decision whose write failed validation: per spec.md §4.6
// it does not abort the run. It is surfaced as a newly conflicted
// Proposal and a queued "conflict" notification.
type Conflict struct {
	Decision decide.Decision
	Proposal models.Proposal
}

// Outcome is everything one transaction produced, ready for the Archiver
// (after commit, per spec.md §5's ordering) and the Notifier.
type Outcome struct {
	Entries   []models.ImportLogEntry
	Conflicts []Conflict
}

// Applier executes direct-apply decisions (consent granted, spec.md §4.5)
// against the connection registry.
type Applier struct {
	store *store.GORMStore
}

// New returns an Applier backed by s.
func New(s *store.GORMStore) *Applier {
	return &Applier{store: s}
}

// Apply runs decisions — already filtered to DirectApply by the caller —
// in one transaction: consolidated deletes first, then saves. It never
// returns an error for a single bad decision; those become Outcome.Conflicts.
// A non-nil error means the transaction itself failed (e.g. a context
// cancellation or a genuine internal error) and nothing was committed.
func (a *Applier) Apply(ctx context.Context, lanID uuid.UUID, decisions []decide.Decision) (*Outcome, error) {
	direct := make([]decide.Decision, 0, len(decisions))
	for _, d := range decisions {
		if d.Action != decide.ActionNoop && d.DirectApply {
			direct = append(direct, d)
		}
	}
	consolidated := decide.Consolidate(direct)

	out := &Outcome{}
	err := a.store.Tx(ctx, func(tx *gorm.DB) error {
		// Deletes first: standalone deletes plus every consolidated
		// unit's absorbed sibling, so a freed address is available to
		// the save pass below (spec.md §4.6).
		for _, c := range consolidated {
			for _, req := range c.Requirements {
				a.applyDelete(tx, lanID, req, out)
			}
			if c.Decision.Action == decide.ActionDelete {
				a.applyDelete(tx, lanID, c.Decision, out)
			}
		}

		for _, c := range consolidated {
			switch c.Decision.Action {
			case decide.ActionAdd:
				a.applyAdd(tx, lanID, c.Decision, out)
			case decide.ActionModify:
				a.applyModify(tx, lanID, c.Decision, out)
			}
		}
		return nil
	})
	return out, err
}

func (a *Applier) applyDelete(tx *gorm.DB, lanID uuid.UUID, d decide.Decision, out *Outcome) {
	if d.ExistingID == nil {
		return
	}
	row, err := store.GetNetIXLan(tx, *d.ExistingID)
	if err != nil {
		a.conflict(tx, lanID, d, err, out)
		return
	}
	before := row.Version
	if _, err := store.DeleteNetIXLan(tx, *d.ExistingID); err != nil {
		a.conflict(tx, lanID, d, err, out)
		return
	}
	out.Entries = append(out.Entries, models.ImportLogEntry{
		ASN: d.ASN, IPv4: d.IPv4, IPv6: d.IPv6,
		Action: decide.ActionDelete, Reason: d.Reason,
		VersionBefore: before, VersionAfter: 0,
		Speed: d.Speed, IsRSPeer: d.IsRSPeer, Operational: d.Operational,
	})
}

func (a *Applier) applyAdd(tx *gorm.DB, lanID uuid.UUID, d decide.Decision, out *Outcome) {
	row := &models.NetIXLan{
		ID: uuid.New(), IXLanID: lanID, ASN: d.ASN,
		IPv4: d.IPv4, IPv6: d.IPv6,
		Speed: d.Speed, IsRSPeer: d.IsRSPeer, Operational: d.Operational,
	}
	if err := store.CreateNetIXLan(tx, row); err != nil {
		a.conflict(tx, lanID, d, err, out)
		return
	}
	out.Entries = append(out.Entries, models.ImportLogEntry{
		ASN: d.ASN, IPv4: d.IPv4, IPv6: d.IPv6,
		Action: decide.ActionAdd, Reason: d.Reason,
		VersionBefore: 0, VersionAfter: row.Version,
		Speed: d.Speed, IsRSPeer: d.IsRSPeer, Operational: d.Operational,
	})
}

func (a *Applier) applyModify(tx *gorm.DB, lanID uuid.UUID, d decide.Decision, out *Outcome) {
	if d.ExistingID == nil {
		a.conflict(tx, lanID, d, fmt.Errorf("apply: modify decision has no existing record"), out)
		return
	}
	row, err := store.GetNetIXLan(tx, *d.ExistingID)
	if err != nil {
		a.conflict(tx, lanID, d, err, out)
		return
	}
	before := row.Version
	changes := diff(*row, d)

	row.IPv4 = d.IPv4
	row.IPv6 = d.IPv6
	row.Speed = d.Speed
	row.IsRSPeer = d.IsRSPeer
	row.Operational = d.Operational
	if err := store.UpdateNetIXLan(tx, row); err != nil {
		a.conflict(tx, lanID, d, err, out)
		return
	}
	if row.Version == before {
		// No observable version change: nothing to archive.
		return
	}
	out.Entries = append(out.Entries, models.ImportLogEntry{
		ASN: d.ASN, IPv4: d.IPv4, IPv6: d.IPv6,
		Action: decide.ActionModify, Reason: d.Reason, Changes: changes,
		VersionBefore: before, VersionAfter: row.Version,
		Speed: d.Speed, IsRSPeer: d.IsRSPeer, Operational: d.Operational,
	})
}

// conflict degrades a failed write into a conflicted Proposal instead of
// aborting the transaction (spec.md §4.6/§7.3): the consent the network
// gave still doesn't let a broken write through, so the change surfaces
// for human attention exactly as if consent had been withheld.
func (a *Applier) conflict(tx *gorm.DB, lanID uuid.UUID, d decide.Decision, cause error, out *Outcome) {
	logger.Warn("apply: decision conflicted", "asn", d.ASN, "action", d.Action, "error", cause)
	p := models.Proposal{
		ID: uuid.New(), IXLanID: lanID, ASN: d.ASN,
		IPv4: d.IPv4, IPv6: d.IPv6,
		Action: d.Action, Reason: d.Reason,
		Speed: d.Speed, IsRSPeer: d.IsRSPeer, Operational: d.Operational,
		NetIXLanID: d.ExistingID,
		State:      store.ProposalStateConflicted,
	}
	if err := store.CreateProposal(tx, &p); err != nil {
		logger.Error("apply: failed to persist conflicted proposal", "error", err)
		return
	}
	out.Conflicts = append(out.Conflicts, Conflict{Decision: d, Proposal: p})
}

func diff(row models.NetIXLan, d decide.Decision) string {
	var out string
	add := func(field string, oldV, newV any) {
		if out != "" {
			out += "; "
		}
		out += fmt.Sprintf("%s: %v -> %v", field, oldV, newV)
	}
	if row.Speed != d.Speed {
		add("speed", row.Speed, d.Speed)
	}
	if row.IsRSPeer != d.IsRSPeer {
		add("is_rs_peer", row.IsRSPeer, d.IsRSPeer)
	}
	if row.Operational != d.Operational {
		add("operational", row.Operational, d.Operational)
	}
	if strPtr(row.IPv4) != strPtr(d.IPv4) {
		add("ipv4", strPtr(row.IPv4), strPtr(d.IPv4))
	}
	if strPtr(row.IPv6) != strPtr(d.IPv6) {
		add("ipv6", strPtr(row.IPv6), strPtr(d.IPv6))
	}
	return out
}

func strPtr(s *string) string {
	if s == nil {
		return "none"
	}
	return *s
}
