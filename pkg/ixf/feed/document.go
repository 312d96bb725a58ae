// Package feed fetches and decodes IX-F member-list export documents:
// the wire format exchanges publish describing who is connected to
// their peering LAN(s) and how.
package feed

// Document is the subset of the euro-ix "member list" IX-F schema the
// reconciliation engine understands. Unknown fields are ignored at every
// level when the document is decoded.
type Document struct {
	Version    string   `json:"version" jsonschema:"required"`
	Timestamp  string   `json:"timestamp"`
	MemberList []Member `json:"member_list" jsonschema:"required"`
}

// Member is one member AS entry in the feed.
type Member struct {
	ASNum          uint32       `json:"asnum" jsonschema:"required"`
	MemberType     string       `json:"member_type"`
	ConnectionList []Connection `json:"connection_list"`
}

// Connection is one physical/logical attachment a member has to the LAN.
type Connection struct {
	State    string   `json:"state"`
	IfList   []IfSpec `json:"if_list"`
	VlanList []Vlan   `json:"vlan_list"`
}

// IfSpec carries the link speed (Mbps) of one interface on a connection;
// a connection's total speed is the sum across IfList. IfSpeed decodes as
// any rather than int: some feeds publish a non-numeric value here, and
// that must be a per-row parse error (spec.md §4.3/§7.2), not a decode
// failure that aborts the whole document.
type IfSpec struct {
	IfSpeed any `json:"if_speed"`
}

// Vlan is one VLAN on a connection, carrying up to one IPv4 and one
// IPv6 address assignment. Some exchanges publish a vlan_list with the
// IPv4 and IPv6 halves of the same logical attachment split across two
// entries that otherwise share a vlan_id; sanitize.Sanitize merges those
// before parsing.
type Vlan struct {
	VlanID int        `json:"vlan_id"`
	IPv4   *VlanAddr  `json:"ipv4,omitempty"`
	IPv6   *VlanAddr  `json:"ipv6,omitempty"`
}

// VlanAddr is one address family's assignment within a Vlan entry.
type VlanAddr struct {
	Address      string `json:"address"`
	RouteServer  bool   `json:"routeserver"`
}
