// Package decide implements the reconciliation engine's Decision Engine
// (spec.md §4.5): for every feed candidate and every local connection
// record, it produces an action in {add, modify, delete, noop} with a
// reason, gated by the network's consent to automatic application.
package decide

import (
	"github.com/google/uuid"

	"github.com/ixfabric/ixfrecon/pkg/ixf/identity"
	"github.com/ixfabric/ixfrecon/pkg/ixf/models"
	"github.com/ixfabric/ixfrecon/pkg/ixf/parse"
)

// Action mirrors the Proposal/log action vocabulary.
const (
	ActionAdd    = "add"
	ActionModify = "modify"
	ActionDelete = "delete"
	ActionNoop   = "noop"
)

// Decision is one candidate or existing record's verdict. ExistingID is
// set for modify/delete (the matched local record); it is nil for add.
// DirectApply mirrors the consent gate (spec.md §4.5): true routes the
// decision to the Applier, false routes it to the Proposal Store.
type Decision struct {
	Identity identity.Identity
	ASN      uint32

	Action string
	Reason string

	ExistingID *uuid.UUID

	IPv4        *string
	IPv6        *string
	Speed       int
	IsRSPeer    bool
	Operational bool

	DirectApply bool
}

// Engine runs the match-and-decide pass described in spec.md §4.4/§4.5.
type Engine struct {
	// Networks maps ASN to the Network controlling consent/protocol
	// support, loaded once per run by the caller.
	Networks map[uint32]*models.Network
}

// Decide evaluates every candidate (add/modify/noop pass) and every
// existing local record not re-seen in the feed (deletion pass), in that
// order — the order in which spec.md §4.5 describes the two passes.
// Consolidate indexes the deletions in a pass of its own, so it does not
// depend on this order.
func (e *Engine) Decide(candidates []parse.Candidate, existing []models.NetIXLan, seen *identity.SeenSet, asnFilter uint32) []Decision {
	byIdentity := make(map[string]models.NetIXLan, len(existing))
	for _, row := range existing {
		byIdentity[row.Identity().Key()] = row
	}

	var decisions []Decision
	for _, cand := range candidates {
		decisions = append(decisions, e.decideCandidate(cand, byIdentity))
	}
	for _, row := range existing {
		if asnFilter != 0 && row.ASN != asnFilter {
			continue
		}
		if seen.Contains(row.Identity()) {
			continue
		}
		decisions = append(decisions, e.decideDeletion(row))
	}
	return decisions
}

func (e *Engine) decideCandidate(cand parse.Candidate, byIdentity map[string]models.NetIXLan) Decision {
	d := Decision{
		Identity:    cand.Identity,
		ASN:         cand.ASN,
		IPv4:        models.AddrString(cand.Identity.V4),
		IPv6:        models.AddrString(cand.Identity.V6),
		Speed:       cand.Speed,
		IsRSPeer:    cand.IsRSPeer,
		Operational: cand.Operational,
		DirectApply: e.allowsAutoApply(cand.ASN),
	}

	existing, ok := byIdentity[cand.Identity.Key()]
	if !ok {
		d.Action = ActionAdd
		d.Reason = "new entry"
		return d
	}

	id := existing.ID
	d.ExistingID = &id
	if changed := businessFieldsChanged(existing, cand); changed != "" {
		d.Action = ActionModify
		d.Reason = "values changed: " + changed
	} else {
		d.Action = ActionNoop
		d.Reason = "no changes"
	}
	return d
}

func (e *Engine) decideDeletion(row models.NetIXLan) Decision {
	id := row.ID
	return Decision{
		Identity:    row.Identity(),
		ASN:         row.ASN,
		ExistingID:  &id,
		IPv4:        row.IPv4,
		IPv6:        row.IPv6,
		Speed:       row.Speed,
		IsRSPeer:    row.IsRSPeer,
		Operational: row.Operational,
		Action:      ActionDelete,
		Reason:      "entry gone from remote",
		DirectApply: e.allowsAutoApply(row.ASN),
	}
}

func (e *Engine) allowsAutoApply(asn uint32) bool {
	network, ok := e.Networks[asn]
	return ok && network.AllowIXPUpdate
}

// businessFieldsChanged compares the fields a modify decision cares about
// and returns a comma-joined list of the ones that differ, or "" if none
// did (spec.md §4.5: "if they differ, emit modify with reason 'values
// changed: <fields>'").
func businessFieldsChanged(existing models.NetIXLan, cand parse.Candidate) string {
	var changed []string
	if existing.Speed != cand.Speed {
		changed = append(changed, "speed")
	}
	if existing.IsRSPeer != cand.IsRSPeer {
		changed = append(changed, "is_rs_peer")
	}
	if existing.Operational != cand.Operational {
		changed = append(changed, "operational")
	}
	if len(changed) == 0 {
		return ""
	}
	out := changed[0]
	for _, c := range changed[1:] {
		out += ", " + c
	}
	return out
}
