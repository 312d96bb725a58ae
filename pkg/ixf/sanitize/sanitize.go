// Package sanitize fixes up known vendor quirks in IX-F documents before
// package parse walks them.
package sanitize

import (
	"errors"

	"github.com/ixfabric/ixfrecon/pkg/ixf/feed"
)

// ErrNoVLANEntries is returned when a document carries no vlan_list
// entries on any connection of any member: such a document can't
// possibly describe any usable member addressing and the run is
// aborted rather than silently reconciling to "everyone left".
var ErrNoVLANEntries = errors.New("sanitize: no entries in any of the vlan_list lists")

// Sanitize mutates doc in place, merging the two-entry vlan_list split
// some exchanges publish (one entry carrying only ipv4, the other only
// ipv6, for what is really one logical VLAN attachment — AMS-IX is a
// known example) into a single entry, and returns ErrNoVLANEntries if no
// connection anywhere in the document carries any vlan_list at all.
func Sanitize(doc *feed.Document) error {
	sawVlanList := false

	for mi := range doc.MemberList {
		conns := doc.MemberList[mi].ConnectionList
		for ci := range conns {
			vlans := conns[ci].VlanList
			if len(vlans) == 0 {
				continue
			}
			sawVlanList = true

			if len(vlans) == 2 && exactlyOneHasV4AndOneHasV6(vlans[0], vlans[1]) {
				merged := vlans[0]
				if merged.IPv4 == nil {
					merged.IPv4 = vlans[1].IPv4
				}
				if merged.IPv6 == nil {
					merged.IPv6 = vlans[1].IPv6
				}
				conns[ci].VlanList = []feed.Vlan{merged}
			}
		}
	}

	if !sawVlanList {
		return ErrNoVLANEntries
	}
	return nil
}

func exactlyOneHasV4AndOneHasV6(a, b feed.Vlan) bool {
	v4Count := boolToInt(a.IPv4 != nil) + boolToInt(b.IPv4 != nil)
	v6Count := boolToInt(a.IPv6 != nil) + boolToInt(b.IPv6 != nil)
	return v4Count == 1 && v6Count == 1
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
