package models

import (
	"net/netip"

	"github.com/ixfabric/ixfrecon/pkg/ixf/identity"
)

// Identity renders n's (asn, ipv4, ipv6) as an identity.Identity, parsing
// the stored address strings. Malformed stored addresses are treated as
// absent rather than erroring: they cannot occur for rows this package
// itself wrote.
func (n NetIXLan) Identity() identity.Identity {
	return identity.New(n.ASN, parseAddr(n.IPv4), parseAddr(n.IPv6))
}

func (p Proposal) Identity() identity.Identity {
	return identity.New(p.ASN, parseAddr(p.IPv4), parseAddr(p.IPv6))
}

func parseAddr(s *string) *netip.Addr {
	if s == nil || *s == "" {
		return nil
	}
	addr, err := netip.ParseAddr(*s)
	if err != nil {
		return nil
	}
	return &addr
}

// AddrString renders addr for storage, or nil if addr is nil.
func AddrString(addr *netip.Addr) *string {
	if addr == nil {
		return nil
	}
	s := addr.String()
	return &s
}
