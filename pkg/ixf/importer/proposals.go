package importer

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ixfabric/ixfrecon/pkg/ixf/decide"
	"github.com/ixfabric/ixfrecon/pkg/ixf/identity"
	"github.com/ixfabric/ixfrecon/pkg/ixf/models"
	"github.com/ixfabric/ixfrecon/pkg/ixf/store"
)

// persistProposals implements spec.md §4.5's consent gate for every
// decision the Decision Engine routed away from direct apply: it
// consolidates them exactly as the Applier does (spec.md §4.6) so a
// delete+add pair collapses into one modify proposal with its sibling
// recorded as a requirement, then finds-or-updates the persisted row per
// identity (spec.md's "any existing Proposal for the same identity is
// updated in place").
func (imp *Importer) persistProposals(ctx context.Context, lan *models.IXLan, decisions []decide.Decision) ([]models.Proposal, error) {
	var pending []decide.Decision
	for _, d := range decisions {
		if d.Action == decide.ActionNoop || d.DirectApply {
			continue
		}
		pending = append(pending, d)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	db := imp.store.DB().WithContext(ctx)
	var out []models.Proposal
	for _, c := range decide.Consolidate(pending) {
		parent, err := upsertProposal(db, lan.ID, c.Decision, nil)
		if err != nil {
			return out, err
		}
		out = append(out, *parent)
		for _, req := range c.Requirements {
			child, err := upsertProposal(db, lan.ID, req, &parent.ID)
			if err != nil {
				return out, err
			}
			out = append(out, *child)
		}
	}
	return out, nil
}

// upsertProposal creates a new open Proposal for d's identity, or updates
// the existing open one in place when there already is one.
func upsertProposal(db *gorm.DB, lanID uuid.UUID, d decide.Decision, requirementOf *uuid.UUID) (*models.Proposal, error) {
	existing, err := store.FindOpenProposalByIdentity(db, lanID, d.ASN, d.IPv4, d.IPv6)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Action = d.Action
		existing.Reason = d.Reason
		existing.Speed = d.Speed
		existing.IsRSPeer = d.IsRSPeer
		existing.Operational = d.Operational
		existing.NetIXLanID = d.ExistingID
		existing.RequirementOf = requirementOf
		if err := store.UpdateProposal(db, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	p := &models.Proposal{
		ID: uuid.New(), IXLanID: lanID, ASN: d.ASN,
		IPv4: d.IPv4, IPv6: d.IPv6,
		Action: d.Action, Reason: d.Reason,
		Speed: d.Speed, IsRSPeer: d.IsRSPeer, Operational: d.Operational,
		NetIXLanID:    d.ExistingID,
		RequirementOf: requirementOf,
	}
	if err := store.CreateProposal(db, p); err != nil {
		return nil, err
	}
	return p, nil
}

// resolveProposals implements spec.md §4.7's end-of-run cleanup: every
// open proposal on this run's scope (one ASN, or the whole IXLan) is
// checked against the rule for its action and retired when satisfied.
// A proposal whose identity now decides as noop is resolved regardless
// of its own action — the feed and the registry agree, however that
// came to be, so the ask is moot.
func (imp *Importer) resolveProposals(ctx context.Context, lan *models.IXLan, decisions []decide.Decision, seen *identity.SeenSet, asnFilter uint32) ([]models.Proposal, error) {
	open, err := imp.openProposalsInScope(ctx, lan.ID, asnFilter)
	if err != nil {
		return nil, err
	}
	if len(open) == 0 {
		return nil, nil
	}

	noop := map[string]bool{}
	for _, d := range decisions {
		if d.Action == decide.ActionNoop {
			noop[d.Identity.Key()] = true
		}
	}

	db := imp.store.DB().WithContext(ctx)
	var resolved []models.Proposal
	for _, p := range open {
		var done bool
		switch {
		case noop[p.Identity().Key()]:
			done = true
		case p.Action == decide.ActionDelete:
			done = netIXLanDeleted(db, p)
		case p.Action == decide.ActionAdd || p.Action == decide.ActionModify:
			done = !seen.Contains(p.Identity())
		}
		if !done {
			continue
		}
		if err := store.UpdateProposalState(db, p.ID, store.ProposalStateResolved); err != nil {
			return resolved, err
		}
		p.State = store.ProposalStateResolved
		resolved = append(resolved, p)
	}
	return resolved, nil
}

func (imp *Importer) openProposalsInScope(ctx context.Context, lanID uuid.UUID, asnFilter uint32) ([]models.Proposal, error) {
	if asnFilter != 0 {
		return imp.store.ListOpenProposals(ctx, lanID, asnFilter)
	}
	return imp.store.ListOpenProposalsForIXLan(ctx, lanID)
}

func netIXLanDeleted(db *gorm.DB, p models.Proposal) bool {
	if p.NetIXLanID == nil {
		return false
	}
	row, err := store.GetNetIXLan(db, *p.NetIXLanID)
	if err != nil {
		return errors.Is(err, models.ErrNetIXLanNotFound)
	}
	return row.Status == models.StatusDeleted
}
