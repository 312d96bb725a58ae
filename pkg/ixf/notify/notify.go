// Package notify implements the reconciliation engine's Notifier
// (spec.md §4.9): it consolidates queued notifications by network and by
// exchange, resolves recipients, falls back to ticket creation when a
// side has no contact, and ages open proposals into tickets.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ixfabric/ixfrecon/internal/logger"
	"github.com/ixfabric/ixfrecon/pkg/ixf/models"
	"github.com/ixfabric/ixfrecon/pkg/ixf/parse"
	"github.com/ixfabric/ixfrecon/pkg/ixf/store"
)

// Notification type tags, carried through to the EmailLogEntry/subject
// and to the template lookup.
const (
	TypeProposal         = "proposal"
	TypeResolved         = "resolved"
	TypeConflict         = "conflict"
	TypeProtocolConflict = "protocol-conflict"
	TypeFeedError        = "feed-error"
)

// Queued is one item the run decided needs a human's attention, before
// consolidation groups it with its siblings.
type Queued struct {
	Type     string
	Proposal *models.Proposal
	Network  *models.Network
	IXLan    *models.IXLan

	// ProtocolConflict is set only when Type == TypeProtocolConflict.
	ProtocolConflict *parse.ProtocolConflict
}

// Config gates dispatch per spec.md §6's configuration options.
type Config struct {
	SendTickets          bool
	TicketOnConflict     bool
	NotifyIXOnConflict   bool
	NotifyNetOnConflict  bool
	DaysUntilTicket      int
	ParseErrorPeriod     time.Duration
	SubjectPrefix        string
	AdminEmail           string
}

// Notifier dispatches email and ticket traffic for one reconciliation run.
type Notifier struct {
	store   *store.GORMStore
	mailer  Mailer
	tickets TicketClient
	cfg     Config
}

// New returns a Notifier wired to the given mailer and ticket client.
func New(s *store.GORMStore, mailer Mailer, tickets TicketClient, cfg Config) *Notifier {
	return &Notifier{store: s, mailer: mailer, tickets: tickets, cfg: cfg}
}

// byNetwork/byExchange are the two consolidation projections spec.md §4.9
// describes: same items, grouped by a different primary key, each with an
// inner map keyed by the other entity so one message covers one
// (recipient, other_entity) pair.
type byNetworkMap map[uint32]map[uuid.UUID][]Queued
type byExchangeMap map[uuid.UUID]map[uint32][]Queued

// Consolidate builds both projections, suppressing proposals that are a
// requirement_of another proposal (spec.md §4.9) and collapsing repeated
// protocol-conflict signals for the same (asn, exchange) pair into the
// latest one rather than a list.
func Consolidate(ctx context.Context, s *store.GORMStore, items []Queued) (byNetworkMap, byExchangeMap, error) {
	suppressed := map[uuid.UUID]bool{}
	for _, q := range items {
		if q.Proposal == nil {
			continue
		}
		reqs, err := s.ListRequirementsOf(ctx, q.Proposal.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("notify: listing requirements of %s: %w", q.Proposal.ID, err)
		}
		for _, r := range reqs {
			suppressed[r.ID] = true
		}
	}

	byNet := byNetworkMap{}
	byExch := byExchangeMap{}
	protocolSlot := map[string]Queued{}

	for _, q := range items {
		if q.Proposal != nil && suppressed[q.Proposal.ID] {
			continue
		}
		if q.Type == TypeResolved {
			// Resolved items dispatch individually; never consolidated.
			continue
		}
		if q.Type == TypeProtocolConflict {
			key := fmt.Sprintf("%d|%s", q.ProtocolConflict.ASN, q.IXLan.ID)
			protocolSlot[key] = q
			continue
		}
		if q.Network == nil || q.IXLan == nil {
			continue
		}
		if byNet[q.Network.ASN] == nil {
			byNet[q.Network.ASN] = map[uuid.UUID][]Queued{}
		}
		byNet[q.Network.ASN][q.IXLan.ExchangeID] = append(byNet[q.Network.ASN][q.IXLan.ExchangeID], q)

		if byExch[q.IXLan.ExchangeID] == nil {
			byExch[q.IXLan.ExchangeID] = map[uint32][]Queued{}
		}
		byExch[q.IXLan.ExchangeID][q.Network.ASN] = append(byExch[q.IXLan.ExchangeID][q.Network.ASN], q)
	}

	for _, q := range protocolSlot {
		if byNet[q.ProtocolConflict.ASN] == nil {
			byNet[q.ProtocolConflict.ASN] = map[uuid.UUID][]Queued{}
		}
		byNet[q.ProtocolConflict.ASN][q.IXLan.ExchangeID] = append(byNet[q.ProtocolConflict.ASN][q.IXLan.ExchangeID], q)

		if byExch[q.IXLan.ExchangeID] == nil {
			byExch[q.IXLan.ExchangeID] = map[uint32][]Queued{}
		}
		byExch[q.IXLan.ExchangeID][q.ProtocolConflict.ASN] = append(byExch[q.IXLan.ExchangeID][q.ProtocolConflict.ASN], q)
	}

	return byNet, byExch, nil
}

// Dispatch consolidates items and sends one message per (recipient,
// other_entity) pair to each side whose contacts are available, falling
// back to a ticket when either side lacks one (spec.md §4.9), plus
// dispatches resolved notifications individually. It also ticket-escalates
// conflict items, gated by TicketOnConflict. The by-exchange projection
// Consolidate also builds is for the UI/query surfaces spec.md keeps out
// of this engine's scope; dispatch itself only needs the by-network view.
func (n *Notifier) Dispatch(ctx context.Context, items []Queued) error {
	byNet, _, err := Consolidate(ctx, n.store, items)
	if err != nil {
		return err
	}

	for asn, byExchange := range byNet {
		for exchangeID, group := range byExchange {
			n.dispatchGroup(ctx, asn, exchangeID, group)
		}
	}

	for _, q := range items {
		if q.Type == TypeResolved {
			n.dispatchResolved(ctx, q)
		}
	}
	return nil
}

func (n *Notifier) dispatchGroup(ctx context.Context, asn uint32, exchangeID uuid.UUID, group []Queued) {
	if len(group) == 0 {
		return
	}
	network := group[0].Network
	lan := group[0].IXLan

	hasConflict := false
	for _, q := range group {
		if q.Type == TypeConflict {
			hasConflict = true
		}
	}
	if hasConflict && !n.allowEmail(network, lan) {
		n.ticketEscalate(ctx, group)
		return
	}

	netContacts := contactsOf(network)
	ixContacts := lanContactsOf(lan)
	if len(netContacts) == 0 || len(ixContacts) == 0 {
		n.ticketEscalate(ctx, group)
		return
	}

	subject := n.subjectFor(asn, lan, group)
	body := renderBody(group)

	for _, to := range netContacts {
		if hasConflict && !n.cfg.NotifyNetOnConflict {
			continue
		}
		n.send(ctx, to, subject, body)
	}
	for _, to := range ixContacts {
		if hasConflict && !n.cfg.NotifyIXOnConflict {
			continue
		}
		n.send(ctx, to, subject, body)
	}

	if hasConflict && n.cfg.TicketOnConflict {
		n.ticketEscalate(ctx, group)
	}
}

func (n *Notifier) allowEmail(network *models.Network, lan *models.IXLan) bool {
	return len(contactsOf(network)) > 0 && len(lanContactsOf(lan)) > 0
}

func contactsOf(network *models.Network) []string {
	if network == nil {
		return nil
	}
	return network.PolicyContacts()
}

func lanContactsOf(lan *models.IXLan) []string {
	if lan == nil {
		return nil
	}
	return lan.ExchangeTechContacts()
}

func (n *Notifier) subjectFor(asn uint32, lan *models.IXLan, group []Queued) string {
	exchange := ""
	if lan != nil {
		exchange = lan.ExchangeName
	}
	return fmt.Sprintf("%sAS%d @ %s: %d pending item(s)", n.cfg.SubjectPrefix, asn, exchange, len(group))
}

func renderBody(group []Queued) string {
	body := ""
	for _, q := range group {
		if q.Proposal == nil {
			if q.ProtocolConflict != nil {
				body += fmt.Sprintf("protocol conflict: AS%d\n", q.ProtocolConflict.ASN)
			}
			continue
		}
		p := q.Proposal
		body += fmt.Sprintf("%s: %s (%s)\n", p.Action, p.Reason, q.Type)
	}
	return body
}

func (n *Notifier) send(ctx context.Context, to, subject, body string) {
	debug := n.mailer.Send(ctx, to, subject, body)
	if err := n.store.RecordEmail(ctx, &models.EmailLogEntry{
		Recipient: to, Subject: subject, Body: body, Debug: debug,
	}); err != nil {
		logger.Error("notify: failed to record email", "error", err)
	}
}

func (n *Notifier) dispatchResolved(ctx context.Context, q Queued) {
	if q.Network == nil || q.IXLan == nil || q.Proposal == nil {
		return
	}
	subject := n.subjectFor(q.Network.ASN, q.IXLan, []Queued{q})
	body := fmt.Sprintf("resolved: %s %s\n", q.Proposal.Action, q.Proposal.Reason)
	for _, to := range contactsOf(q.Network) {
		n.send(ctx, to, subject, body)
	}
	for _, to := range lanContactsOf(q.IXLan) {
		n.send(ctx, to, subject, body)
	}
}

// ticketEscalate creates (or, per subject match, updates) one ticket per
// proposal in the group (spec.md's create-or-update-by-subject semantics,
// spec.md §6).
func (n *Notifier) ticketEscalate(ctx context.Context, group []Queued) {
	for _, q := range group {
		if q.Proposal == nil {
			continue
		}
		n.CreateOrUpdateTicket(ctx, q.Proposal, q.Network, q.IXLan)
	}
}

// CreateOrUpdateTicket implements spec.md §4.9/§6's ticket semantics: the
// action verb `delete` renders as `remove`, a prior ticket with the same
// subject inherits its handle, and a failed call does not raise — it is
// recorded with a `[FAILED]` subject and the error body appended
// (spec.md §7's downstream-delivery rule).
func (n *Notifier) CreateOrUpdateTicket(ctx context.Context, p *models.Proposal, network *models.Network, lan *models.IXLan) {
	verb := p.Action
	if verb == "delete" {
		verb = "remove"
	}
	exchange := ""
	if lan != nil {
		exchange = lan.ExchangeName
	}
	subject := fmt.Sprintf("%sAS%d %s @ %s", n.cfg.SubjectPrefix, p.ASN, verb, exchange)
	body := p.Reason

	ticketID, ticketRef := p.TicketID, p.TicketRef
	if prior, err := n.store.FindTicketBySubject(ctx, subject); err == nil && prior.TicketID != "" {
		ticketID, ticketRef = prior.TicketID, prior.TicketRef
	}

	entry := &models.TicketLogEntry{ProposalID: p.ID, Subject: subject, Body: body}

	id, ref, err := n.tickets.CreateOrUpdate(ctx, ticketID, subject, body)
	if err != nil {
		entry.Failed = true
		entry.Error = err.Error()
		entry.Subject = "[FAILED] " + subject
		logger.Warn("notify: ticket call failed", "asn", p.ASN, "error", err)
	} else {
		ticketID, ticketRef = id, ref
		entry.TicketID = id
		entry.TicketRef = ref
	}

	if err := n.store.RecordTicket(ctx, entry); err != nil {
		logger.Error("notify: failed to record ticket", "error", err)
	}
	if err := n.store.DB().WithContext(ctx).Model(&models.Proposal{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{"ticket_id": ticketID, "ticket_ref": ticketRef}).Error; err != nil {
		logger.Error("notify: failed to stamp proposal ticket handle", "error", err)
	}

	if !entry.Failed && ticketRef != "" {
		n.copyTicketReference(ctx, subject, ticketRef, network, lan)
	}
}

// copyTicketReference implements spec.md §4.9's "(if enabled) copy both
// parties with the ticket reference in the subject" for a freshly created
// or aged-up ticket.
func (n *Notifier) copyTicketReference(ctx context.Context, subject, ticketRef string, network *models.Network, lan *models.IXLan) {
	withRef := fmt.Sprintf("%s [%s]", subject, ticketRef)
	if n.cfg.NotifyNetOnConflict {
		for _, to := range contactsOf(network) {
			n.send(ctx, to, withRef, "")
		}
	}
	if n.cfg.NotifyIXOnConflict {
		for _, to := range lanContactsOf(lan) {
			n.send(ctx, to, withRef, "")
		}
	}
}

// AgeToTicket scans open, not-yet-ticketed proposals older than
// IXF_IMPORTER_DAYS_UNTIL_TICKET and escalates each to a ticket
// (spec.md §4.9's "aging to ticket"). DaysUntilTicket == 0 disables
// age-gating entirely, per spec.md §6: every open, not-yet-ticketed
// proposal is escalated on the next sweep.
func (n *Notifier) AgeToTicket(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-time.Duration(n.cfg.DaysUntilTicket) * 24 * time.Hour)
	aged, err := n.store.ListAgedOpenProposals(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("notify: listing aged proposals: %w", err)
	}
	for i := range aged {
		p := &aged[i]
		lan, err := n.store.GetIXLan(ctx, p.IXLanID)
		if err != nil {
			logger.Warn("notify: aging sweep could not load ixlan", "ixlan_id", p.IXLanID, "error", err)
			continue
		}
		network, err := n.store.GetNetwork(ctx, p.ASN)
		if err != nil {
			logger.Warn("notify: aging sweep could not load network", "asn", p.ASN, "error", err)
			network = nil
		}
		n.CreateOrUpdateTicket(ctx, p, network, lan)
	}
	return nil
}

// NotifyFeedError implements spec.md §7.1's throttled feed-error
// notification: at most one per IXF_PARSE_ERROR_NOTIFICATION_PERIOD hours
// per IXLan, to the exchange's contacts and the administrative contact.
func (n *Notifier) NotifyFeedError(ctx context.Context, lan *models.IXLan, cause error, now time.Time) error {
	ok, err := n.store.ShouldNotifyImportError(ctx, lan.ID, n.cfg.ParseErrorPeriod, now)
	if err != nil {
		return fmt.Errorf("notify: checking feed-error throttle: %w", err)
	}
	if !ok {
		return nil
	}
	subject := fmt.Sprintf("%sfeed error: %s", n.cfg.SubjectPrefix, lan.ExchangeName)
	body := cause.Error()
	for _, to := range lanContactsOf(lan) {
		n.send(ctx, to, subject, body)
	}
	if n.cfg.AdminEmail != "" {
		n.send(ctx, n.cfg.AdminEmail, subject, body)
	}
	return nil
}
