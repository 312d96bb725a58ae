package notify

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ixfabric/ixfrecon/pkg/ixf/models"
	"github.com/ixfabric/ixfrecon/pkg/ixf/store"
)

func newTestStore(t *testing.T) *store.GORMStore {
	t.Helper()
	s, err := store.New(&store.Config{Type: store.DatabaseTypeSQLite, SQLite: store.SQLiteConfig{Path: ":memory:"}})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDispatchEmailsBothPartiesWhenContactsPresent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lan := &models.IXLan{ID: uuid.New(), Name: "lan", ExchangeID: uuid.New(), ExchangeName: "TEST-IX", ExchangeTechEmail: "ix@example.org"}
	network := &models.Network{ASN: 64500, Name: "acme", PolicyEmail: "noc@acme.example"}

	mailer := NewDebugMailer()
	n := New(s, mailer, NewMockTicketClient(), Config{})

	q := Queued{
		Type:     TypeProposal,
		Proposal: &models.Proposal{ID: uuid.New(), ASN: 64500, Action: "modify", Reason: "values changed: speed"},
		Network:  network, IXLan: lan,
	}
	require.NoError(t, n.Dispatch(ctx, []Queued{q}))

	require.Len(t, mailer.Sent, 2)
	var recipients []string
	for _, m := range mailer.Sent {
		recipients = append(recipients, m.To)
	}
	assert.Contains(t, recipients, "noc@acme.example")
	assert.Contains(t, recipients, "ix@example.org")
}

func TestDispatchFallsBackToTicketWhenContactMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lan := &models.IXLan{ID: uuid.New(), Name: "lan", ExchangeID: uuid.New(), ExchangeName: "TEST-IX"}
	network := &models.Network{ASN: 64500, Name: "acme", PolicyEmail: "noc@acme.example"}

	mailer := NewDebugMailer()
	tickets := NewMockTicketClient()
	n := New(s, mailer, tickets, Config{})

	p := &models.Proposal{ID: uuid.New(), ASN: 64500, Action: "add", Reason: "new entry"}
	require.NoError(t, s.DB().Create(p).Error)

	q := Queued{Type: TypeProposal, Proposal: p, Network: network, IXLan: lan}
	require.NoError(t, n.Dispatch(ctx, []Queued{q}))

	assert.Empty(t, mailer.Sent, "no IX contact means the proposal must route to a ticket, not email")
	assert.Len(t, tickets.Created, 1)
}

func TestDispatchSuppressesRequirementOfItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lan := &models.IXLan{ID: uuid.New(), Name: "lan", ExchangeID: uuid.New(), ExchangeName: "TEST-IX", ExchangeTechEmail: "ix@example.org"}
	network := &models.Network{ASN: 64500, Name: "acme", PolicyEmail: "noc@acme.example"}

	parent := &models.Proposal{ID: uuid.New(), ASN: 64500, Action: "modify", Reason: "IP addresses moved to same entry"}
	require.NoError(t, s.DB().Create(parent).Error)
	child := &models.Proposal{ID: uuid.New(), ASN: 64500, Action: "delete", RequirementOf: &parent.ID}
	require.NoError(t, s.DB().Create(child).Error)

	mailer := NewDebugMailer()
	n := New(s, mailer, NewMockTicketClient(), Config{})

	items := []Queued{
		{Type: TypeProposal, Proposal: parent, Network: network, IXLan: lan},
		{Type: TypeProposal, Proposal: child, Network: network, IXLan: lan},
	}
	require.NoError(t, n.Dispatch(ctx, items))

	require.Len(t, mailer.Sent, 2)
	for _, m := range mailer.Sent {
		assert.Contains(t, m.Body, "IP addresses moved to same entry")
		assert.NotContains(t, m.Body, "delete:", "the requirement_of child must be suppressed from its own notification")
	}
}

func TestAgeToTicketSkipsWhenDisabled(t *testing.T) {
	s := newTestStore(t)
	n := New(s, NewDebugMailer(), NewMockTicketClient(), Config{DaysUntilTicket: 0})
	require.NoError(t, n.AgeToTicket(context.Background(), time.Now()))
}

