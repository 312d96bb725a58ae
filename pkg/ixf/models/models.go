// Package models defines the GORM-backed persistence types for the
// reconciliation engine: the local registry objects it reads (IXLan,
// Network) and the objects it owns (NetIXLan connections, Proposals,
// import attempts, and the append-only archive).
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status values shared by IXLan, Network and NetIXLan rows.
const (
	StatusOK      = "ok"
	StatusDeleted = "deleted"
)

// IXLan is the local registry's record of one exchange's peering LAN.
// The importer treats it as read-mostly: it only ever updates error/
// notification bookkeeping columns on it.
type IXLan struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name   string    `gorm:"size:255;not null"`
	Status string    `gorm:"size:32;not null;default:ok"`

	ExchangeID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ExchangeName string    `gorm:"size:255;not null"`

	// ExchangeTechEmail is the exchange's technical contact, used by the
	// Notifier's contact resolution (spec.md §4.9) for the "IX" side of a
	// consolidated notification. The original system keeps this on a
	// separate Exchange object; it is flattened onto IXLan here because
	// this importer never otherwise needs Exchange as its own entity.
	ExchangeTechEmail string `gorm:"size:255"`

	// IXFURL is the canonical IX-F member-list export for this LAN. Empty
	// means the LAN doesn't publish IX-F and the importer skips it.
	IXFURL string `gorm:"column:ixf_url;size:1024"`

	// Bookkeeping mirrored from the original importer's ixlan fields.
	IXFImportError         string     `gorm:"type:text"`
	IXFImportErrorNotified *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (IXLan) TableName() string { return "ixlans" }

// ExchangeTechContacts splits the exchange's technical contact column into
// the list the Notifier's contact resolution (spec.md §4.9) expects. The
// original system models this as a list on a separate Exchange object;
// here it is a comma-separated column on the flattened IXLan.
func (l *IXLan) ExchangeTechContacts() []string { return splitContacts(l.ExchangeTechEmail) }

// Network is the local registry's record of one member AS. PolicyEmail
// (network side) and the IXLan's ExchangeTechEmail (exchange side, stored
// on a separate Exchange in the original system but flattened here) are
// where proposal/conflict notifications are sent; TechEmail is stored but
// not used for notifications.
type Network struct {
	ASN uint32 `gorm:"primaryKey"`
	Name string `gorm:"size:255;not null"`
	Status string `gorm:"size:32;not null;default:ok"`

	PolicyEmail string `gorm:"size:255"`
	TechEmail   string `gorm:"size:255"`

	// SupportsV4/SupportsV6 record whether this network runs each address
	// family at all. The Parser records a protocol conflict for a feed row
	// carrying an address of an unsupported family and drops that address
	// from the row's candidate.
	SupportsV4 bool `gorm:"not null;default:true"`
	SupportsV6 bool `gorm:"not null;default:true"`

	// AllowIXPUpdate is the network's consent to let the importer apply
	// IX-F-driven changes directly (spec.md §3/§4.5): true routes a
	// decision straight to the Applier, false routes it to the Proposal
	// store instead. PeeringDB carries this flag on the Network, not the
	// IXLan — the Decision Engine's consent gate reads it from here.
	AllowIXPUpdate bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Network) TableName() string { return "networks" }

// PolicyContacts and TechContacts split the network's contact columns
// into lists. The Notifier's contact resolution (spec.md §4.9) consults
// PolicyContacts only, falling back to ticket creation when a side has none.
func (n *Network) PolicyContacts() []string { return splitContacts(n.PolicyEmail) }
func (n *Network) TechContacts() []string   { return splitContacts(n.TechEmail) }

func splitContacts(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IXPfx is one prefix assigned to an IXLan, used by the Parser's prefix
// filtering pass to reject feed addresses that don't belong on the LAN.
type IXPfx struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	IXLanID uuid.UUID `gorm:"column:ixlan_id;type:uuid;not null;index"`
	Family  int       `gorm:"not null"` // 4 or 6
	Prefix  string    `gorm:"size:64;not null"`
	Status  string    `gorm:"size:32;not null;default:ok"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (IXPfx) TableName() string { return "ix_prefixes" }

// NetIXLan is one connection a network holds on an IXLan: the record the
// importer reconciles against IX-F feed rows. Version is bumped by the
// Applier inside the same transaction as any add/modify/delete and is the
// substitute for the revision history the original system kept via
// django-reversion: the Archiver reads it back as VersionBefore/After.
type NetIXLan struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	IXLanID uuid.UUID `gorm:"column:ixlan_id;type:uuid;not null;index:idx_netixlan_ixlan_asn;uniqueIndex:idx_netixlan_ixlan_v4;uniqueIndex:idx_netixlan_ixlan_v6"`
	ASN     uint32    `gorm:"not null;index:idx_netixlan_ixlan_asn"`

	IPv4 *string `gorm:"size:64;uniqueIndex:idx_netixlan_ixlan_v4,where:ipv4 IS NOT NULL"`
	IPv6 *string `gorm:"size:64;uniqueIndex:idx_netixlan_ixlan_v6,where:ipv6 IS NOT NULL"`

	Speed       int  `gorm:"not null;default:0"`
	IsRSPeer    bool `gorm:"not null;default:false"`
	Operational bool `gorm:"not null;default:true"`

	Status  string `gorm:"size:32;not null;default:ok"`
	Version uint64 `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (NetIXLan) TableName() string { return "netixlans" }

// Proposal is a pending, aging suggestion to add/modify/delete a NetIXLan
// that the network has not authorized the importer to apply directly
// (Network.AllowIXPUpdate == false). It is the Go-side equivalent of the
// original system's IXFMemberData "suggestion" rows.
type Proposal struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	IXLanID uuid.UUID `gorm:"column:ixlan_id;type:uuid;not null;index"`
	ASN     uint32    `gorm:"not null;index"`
	IPv4    *string   `gorm:"size:64"`
	IPv6    *string   `gorm:"size:64"`

	Action string `gorm:"size:16;not null"` // add|modify|delete
	Reason string `gorm:"type:text"`

	Speed       int  `gorm:"not null;default:0"`
	IsRSPeer    bool `gorm:"not null;default:false"`
	Operational bool `gorm:"not null;default:true"`

	// NetIXLanID links a modify/delete proposal back to the existing
	// connection record that triggered it (nil for a plain add).
	NetIXLanID *uuid.UUID `gorm:"type:uuid;index"`

	// RequirementOf is set on a proposal that is a precondition of
	// another — e.g. one half of a delete+add pair consolidated into a
	// sibling modify proposal — and holds the parent proposal's id. The
	// parent carries no reference back beyond what a query by
	// RequirementOf returns, avoiding an ownership cycle.
	RequirementOf *uuid.UUID `gorm:"type:uuid;index"`

	State string `gorm:"size:16;not null;default:open;index"` // open|resolved|conflicted

	TicketID  string `gorm:"size:64"`
	TicketRef string `gorm:"size:128"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Proposal) TableName() string { return "proposals" }

// ImportAttempt records one reconciliation run against one IXLan,
// independent of whether it produced any changes. It holds no link to the
// ImportLog of the same run; both carry only the IXLan id.
type ImportAttempt struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	IXLanID uuid.UUID `gorm:"column:ixlan_id;type:uuid;not null;index"`

	Success bool   `gorm:"not null"`
	Error   string `gorm:"type:text"`

	StartedAt  time.Time `gorm:"not null"`
	FinishedAt time.Time
}

func (ImportAttempt) TableName() string { return "import_attempts" }

// ImportLog is the append-only archive header for one run's changes,
// created only when the run actually mutated data (save=true and at
// least one decision was applied).
type ImportLog struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	IXLanID uuid.UUID `gorm:"column:ixlan_id;type:uuid;not null;index"`

	RawFeed string `gorm:"type:text"` // verbatim IX-F payload for replay/debugging

	CreatedAt time.Time
}

func (ImportLog) TableName() string { return "import_logs" }

// ImportLogEntry is one applied change within an ImportLog: the permanent
// record a post-mortem query reads. VersionBefore/VersionAfter are the
// NetIXLan.Version values observed immediately before and after the
// change (0/absent for adds, N/0 for deletes).
type ImportLogEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ImportLogID uuid.UUID `gorm:"type:uuid;not null;index"`

	ASN  uint32  `gorm:"not null"`
	IPv4 *string `gorm:"size:64"`
	IPv6 *string `gorm:"size:64"`

	Action string `gorm:"size:16;not null"` // add|modify|delete|noop
	Reason string `gorm:"type:text"`

	// Changes is a human-readable diff of the fields that changed, the Go
	// equivalent of the original importer's per-entry "changes" dict.
	Changes string `gorm:"type:text"`

	VersionBefore uint64
	VersionAfter  uint64

	Speed       int
	IsRSPeer    bool
	Operational bool

	CreatedAt time.Time
}

func (ImportLogEntry) TableName() string { return "import_log_entries" }

// EmailLogEntry records one notification email sent (or, under MAIL_DEBUG,
// suppressed) for a run, mirroring the original system's audit trail.
type EmailLogEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Recipient string    `gorm:"size:255;not null"`
	Subject   string    `gorm:"size:255;not null"`
	Body      string    `gorm:"type:text"`
	Debug     bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (EmailLogEntry) TableName() string { return "email_log_entries" }

// TicketLogEntry records one ticket created against the configured ticket
// system for a proposal, including failures (Failed=true, Error set).
type TicketLogEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProposalID uuid.UUID `gorm:"type:uuid;not null;index"`

	TicketID  string `gorm:"size:64"`
	TicketRef string `gorm:"size:128"`
	Subject   string `gorm:"size:255"`
	Body      string `gorm:"type:text"`

	Failed bool   `gorm:"not null;default:false"`
	Error  string `gorm:"type:text"`

	CreatedAt time.Time
}

func (TicketLogEntry) TableName() string { return "ticket_log_entries" }

// AllModels returns every model GORM should AutoMigrate, in an order safe
// for foreign-key creation.
func AllModels() []any {
	return []any{
		&Network{},
		&IXLan{},
		&IXPfx{},
		&NetIXLan{},
		&Proposal{},
		&ImportAttempt{},
		&ImportLog{},
		&ImportLogEntry{},
		&EmailLogEntry{},
		&TicketLogEntry{},
	}
}
