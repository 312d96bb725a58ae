package decide

// Consolidated is one post-consolidation unit of work. Ordinarily it
// wraps a single Decision unchanged. When a dual-stack add absorbed one
// or two single-stack delete siblings (spec.md §4.6), Decision becomes a
// modify against the surviving record and Requirements holds the other
// sibling decisions that are now a precondition of it rather than
// standalone deletes — the design note's "children carry a
// back-reference id only" (no ownership cycle back from the parent).
type Consolidated struct {
	Decision     Decision
	Requirements []Decision
}

// Consolidate implements spec.md §4.6's delete+add consolidation and §4.9's
// "proposals that are a requirement_of another proposal are suppressed":
// it runs once over a full decision list — direct-apply and proposal-bound
// alike — keyed by (asn, v4) and (asn, v6), per the design note ("not
// inline during parse", "mirror the source's rule exactly" on which
// reason string a partial match gets).
//
// A dual-stack add whose identity's single-stack halves each match a
// pending delete for the same asn collapses with both into one modify,
// reusing the v4 sibling's record id and reason "IP addresses moved to
// same entry"; the v6 sibling becomes its Requirement. An add matching
// only one single-stack sibling collapses with that sibling alone,
// reason "IPv6 not set" or "IPv4 not set" depending on which family
// the matched sibling carried (the other family is the one newly
// present), and has no Requirements of its own.
func Consolidate(decisions []Decision) []Consolidated {
	v4Deletes := map[string]int{} // "asn|v4|none" -> index into decisions
	v6Deletes := map[string]int{} // "asn|none|v6" -> index into decisions
	for i, d := range decisions {
		if d.Action != ActionDelete {
			continue
		}
		if d.Identity.HasV4() && !d.Identity.HasV6() {
			v4Deletes[d.Identity.WithV4Only().Key()] = i
		}
		if d.Identity.HasV6() && !d.Identity.HasV4() {
			v6Deletes[d.Identity.WithV6Only().Key()] = i
		}
	}

	consumed := make([]bool, len(decisions))
	var out []Consolidated

	for addIdx, d := range decisions {
		if d.Action != ActionAdd || !d.Identity.HasV4() || !d.Identity.HasV6() {
			continue
		}
		v4Idx, hasV4Sibling := v4Deletes[d.Identity.WithV4Only().Key()]
		v6Idx, hasV6Sibling := v6Deletes[d.Identity.WithV6Only().Key()]
		if !hasV4Sibling && !hasV6Sibling {
			continue
		}

		var (
			survivor     Decision
			requirements []Decision
			reason       string
		)
		switch {
		case hasV4Sibling && hasV6Sibling:
			survivor = decisions[v4Idx]
			requirements = []Decision{decisions[v6Idx]}
			reason = "IP addresses moved to same entry"
		case hasV4Sibling:
			survivor = decisions[v4Idx]
			reason = "IPv6 not set"
		default:
			survivor = decisions[v6Idx]
			reason = "IPv4 not set"
		}

		merged := survivor
		merged.Action = ActionModify
		merged.Reason = reason
		merged.Identity = d.Identity
		merged.IPv4 = d.IPv4
		merged.IPv6 = d.IPv6
		merged.Speed = d.Speed
		merged.IsRSPeer = d.IsRSPeer
		merged.Operational = d.Operational
		merged.DirectApply = d.DirectApply

		consumed[addIdx] = true
		if hasV4Sibling {
			consumed[v4Idx] = true
		}
		if hasV6Sibling {
			consumed[v6Idx] = true
		}
		out = append(out, Consolidated{Decision: merged, Requirements: requirements})
	}

	for i, d := range decisions {
		if consumed[i] {
			continue
		}
		out = append(out, Consolidated{Decision: d})
	}
	return out
}
