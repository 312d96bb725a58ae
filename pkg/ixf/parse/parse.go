// Package parse walks a sanitized IX-F document into candidate member
// connection rows, applying every filter spec.md §4.3 requires before a
// row reaches the Decision Engine.
package parse

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/ixfabric/ixfrecon/internal/logger"
	"github.com/ixfabric/ixfrecon/pkg/ixf/feed"
	"github.com/ixfabric/ixfrecon/pkg/ixf/identity"
	"github.com/ixfabric/ixfrecon/pkg/ixf/models"
	"github.com/ixfabric/ixfrecon/pkg/ixf/store"
)

var allowedMemberTypes = map[string]bool{
	"peering":     true,
	"ixp":         true,
	"routeserver": true,
	"probono":     true,
}

var allowedConnectionStates = map[string]bool{
	"":            true,
	"active":      true,
	"inactive":    true,
	"connected":   true,
	"operational": true,
}

// Candidate is one surviving feed row, ready for the Decision Engine.
type Candidate struct {
	ASN         uint32
	Identity    identity.Identity
	Speed       int
	IsRSPeer    bool
	Operational bool
}

// ProtocolConflict records a feed row carrying an address in a family
// the network doesn't support, queued as its own notification rather
// than folded into a regular decision.
type ProtocolConflict struct {
	ASN  uint32
	IPv4 *netip.Addr
	IPv6 *netip.Addr
}

// Result is everything one parse pass produced.
type Result struct {
	Candidates        []Candidate
	ProtocolConflicts []ProtocolConflict
	AddressErrors     []string
	ASNs              []uint32
	Seen              *identity.SeenSet
}

// Parser walks one document's member_list. ASNFilter, when non-zero,
// restricts processing to a single ASN (a single-ASN run).
type Parser struct {
	Networks map[uint32]*models.Network
	Prefixes store.PrefixSet
	ASNFilter uint32
}

// Parse walks doc and returns every surviving candidate plus diagnostics.
// It never returns an error itself: per-row problems are logged and
// skipped, matching spec.md §4.3/§7's "logged and skipped, run continues".
func (p *Parser) Parse(doc *feed.Document) Result {
	res := Result{Seen: identity.NewSeenSet()}
	seenASN := map[uint32]bool{}

	for _, member := range doc.MemberList {
		memberType := strings.ToLower(member.MemberType)
		if memberType == "" {
			memberType = "peering"
		}
		if !allowedMemberTypes[memberType] {
			logger.Info("ignoring member row", "asn", member.ASNum, "reason", "invalid member type", "member_type", memberType)
			continue
		}

		asn := member.ASNum
		if p.ASNFilter != 0 && asn != p.ASNFilter {
			continue
		}
		if !seenASN[asn] {
			seenASN[asn] = true
			res.ASNs = append(res.ASNs, asn)
		}

		network, ok := p.Networks[asn]
		if !ok {
			logger.Info("ignoring member row", "asn", asn, "reason", "network unknown")
			continue
		}
		if network.Status != models.StatusOK {
			logger.Info("ignoring member row", "asn", asn, "reason", "network status", "status", network.Status)
			continue
		}

		p.parseConnections(member, network, &res)
	}

	return res
}

func (p *Parser) parseConnections(member feed.Member, network *models.Network, res *Result) {
	asn := member.ASNum
	for _, conn := range member.ConnectionList {
		state := strings.ToLower(conn.State)
		if !allowedConnectionStates[state] {
			logger.Info("ignoring connection", "asn", asn, "reason", "invalid connection state", "state", state)
			continue
		}

		speed := parseSpeed(asn, conn.IfList)
		operational := state != "inactive"

		for _, vlan := range conn.VlanList {
			p.parseVlan(asn, vlan, network, operational, speed, res)
		}
	}
}

func (p *Parser) parseVlan(asn uint32, vlan feed.Vlan, network *models.Network, operational bool, speed int, res *Result) {
	var ipv4Addr, ipv6Addr string
	var rsV4, rsV6 bool
	if vlan.IPv4 != nil {
		ipv4Addr = vlan.IPv4.Address
		rsV4 = vlan.IPv4.RouteServer
	}
	if vlan.IPv6 != nil {
		ipv6Addr = vlan.IPv6.Address
		rsV6 = vlan.IPv6.RouteServer
	}

	if ipv4Addr == "" && ipv6Addr == "" {
		logger.Info("ignoring vlan row", "asn", asn, "vlan_id", vlan.VlanID, "reason", "no ipv4 or ipv6 address")
		return
	}

	var v4, v6 *netip.Addr
	if ipv4Addr != "" {
		addr, err := netip.ParseAddr(ipv4Addr)
		if err != nil {
			res.AddressErrors = append(res.AddressErrors, err.Error())
			logger.Info("ignoring vlan row", "asn", asn, "vlan_id", vlan.VlanID, "reason", "invalid ipv4 address", "error", err)
			return
		}
		v4 = &addr
	}
	if ipv6Addr != "" {
		addr, err := netip.ParseAddr(ipv6Addr)
		if err != nil {
			res.AddressErrors = append(res.AddressErrors, err.Error())
			logger.Info("ignoring vlan row", "asn", asn, "vlan_id", vlan.VlanID, "reason", "invalid ipv6 address", "error", err)
			return
		}
		v6 = &addr
	}

	if !p.passesPrefixFilter(v4, v6) {
		return
	}

	fullIdentity := identity.New(asn, v4, v6)

	var conflict bool
	if v4 != nil && !network.SupportsV4 {
		conflict = true
	}
	if v6 != nil && !network.SupportsV6 {
		conflict = true
	}
	if conflict {
		res.ProtocolConflicts = append(res.ProtocolConflicts, ProtocolConflict{ASN: asn, IPv4: v4, IPv6: v6})
	}

	res.Seen.Add(fullIdentity, network.SupportsV4, network.SupportsV6)

	candAddr4, candAddr6 := v4, v6
	if v4 != nil && !network.SupportsV4 {
		candAddr4 = nil
	}
	if v6 != nil && !network.SupportsV6 {
		candAddr6 = nil
	}
	if candAddr4 == nil && candAddr6 == nil {
		return
	}

	res.Candidates = append(res.Candidates, Candidate{
		ASN:         asn,
		Identity:    identity.New(asn, candAddr4, candAddr6),
		Speed:       speed,
		IsRSPeer:    rsV4 || rsV6,
		Operational: operational,
	})
}

// passesPrefixFilter implements spec.md §4.3's prefix-containment rule.
func (p *Parser) passesPrefixFilter(v4, v6 *netip.Addr) bool {
	v4In := v4 != nil && p.Prefixes.Contains4(*v4)
	v6In := v6 != nil && p.Prefixes.Contains6(*v6)

	switch {
	case v4 != nil && v6 != nil && !v4In && !v6In:
		return false
	case v4 != nil && v6 == nil && !v4In:
		return false
	case v6 != nil && v4 == nil && !v6In:
		return false
	}
	return true
}

func parseSpeed(asn uint32, ifList []feed.IfSpec) int {
	total := 0
	for _, iface := range ifList {
		speed, ok := ifSpeedValue(iface.IfSpeed)
		if !ok || speed < 0 {
			logger.Info("ignoring interface speed", "asn", asn, "reason", "invalid speed", "if_speed", iface.IfSpeed)
			continue
		}
		total += speed
	}
	return total
}

// ifSpeedValue converts a decoded if_speed value to an int, accepting the
// JSON number case (decodes as float64) and the string-encoded case some
// feeds use; anything else (bool, null, non-numeric string) is invalid.
func ifSpeedValue(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
