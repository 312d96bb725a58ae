// Package identity implements the reconciliation engine's notion of member
// identity: the (asn, ipv4?, ipv6?) triple used to match IX-F feed rows
// against local connection records, and the per-run "seen-set" used to
// detect records that disappeared from a feed.
package identity

import (
	"fmt"
	"net/netip"
)

// Identity is the triple (asn, ipv4, ipv6) that uniquely names a member
// connection on one IXLan. A nil address is the "none" sentinel: it is
// never a wildcard and is never equal to a present address.
type Identity struct {
	ASN uint32
	V4  *netip.Addr
	V6  *netip.Addr
}

// New builds an Identity from optionally-present addresses.
func New(asn uint32, v4, v6 *netip.Addr) Identity {
	return Identity{ASN: asn, V4: v4, V6: v6}
}

// WithV4Only returns the single-stack identity (asn, v4, none).
func (id Identity) WithV4Only() Identity {
	return Identity{ASN: id.ASN, V4: id.V4}
}

// WithV6Only returns the single-stack identity (asn, none, v6).
func (id Identity) WithV6Only() Identity {
	return Identity{ASN: id.ASN, V6: id.V6}
}

// HasV4 reports whether the identity carries an IPv4 component.
func (id Identity) HasV4() bool { return id.V4 != nil }

// HasV6 reports whether the identity carries an IPv6 component.
func (id Identity) HasV6() bool { return id.V6 != nil }

// Key renders a stable string suitable for use as a map key. "none" is
// rendered distinctly from any valid address so it can never collide.
func (id Identity) Key() string {
	v4 := "none"
	if id.V4 != nil {
		v4 = id.V4.String()
	}
	v6 := "none"
	if id.V6 != nil {
		v6 = id.V6.String()
	}
	return fmt.Sprintf("%d|%s|%s", id.ASN, v4, v6)
}

// Equal reports exact component equality; none is not a wildcard.
func (id Identity) Equal(other Identity) bool {
	return id.Key() == other.Key()
}

func (id Identity) String() string {
	v4 := "-"
	if id.V4 != nil {
		v4 = id.V4.String()
	}
	v6 := "-"
	if id.V6 != nil {
		v6 = id.V6.String()
	}
	return fmt.Sprintf("AS%d (%s, %s)", id.ASN, v4, v6)
}

// SeenSet tracks identity keys observed while parsing one feed. It also
// carries the auxiliary single-stack keys inserted per spec so a local
// single-stack record is not mistaken for a deletion when the network
// does not support both protocols the feed offers (see Add).
type SeenSet struct {
	keys map[string]Identity
}

// NewSeenSet returns an empty SeenSet.
func NewSeenSet() *SeenSet {
	return &SeenSet{keys: make(map[string]Identity)}
}

// Add records id (and, when v4Supported/v6Supported indicate the network
// doesn't support one of the two families the feed row carries, the
// relevant single-stack auxiliary key) as seen in this run.
func (s *SeenSet) Add(id Identity, v4Supported, v6Supported bool) {
	s.add(id)
	if id.HasV4() && id.HasV6() {
		if !v6Supported {
			s.add(id.WithV4Only())
		} else if !v4Supported {
			s.add(id.WithV6Only())
		}
	}
}

func (s *SeenSet) add(id Identity) {
	s.keys[id.Key()] = id
}

// Contains reports whether id (exact triple) was seen in this run.
func (s *SeenSet) Contains(id Identity) bool {
	_, ok := s.keys[id.Key()]
	return ok
}

// Len returns the number of distinct keys recorded, including auxiliary
// single-stack keys.
func (s *SeenSet) Len() int {
	return len(s.keys)
}
