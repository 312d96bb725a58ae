package apply

import (
	"context"
	"net/netip"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ixfabric/ixfrecon/pkg/ixf/decide"
	"github.com/ixfabric/ixfrecon/pkg/ixf/identity"
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

func addrString(t *testing.T, s string) *string {
	t.Helper()
	addr, err := netip.ParseAddr(s)
	require.NoError(t, err)
	return models.AddrString(&addr)
}

func TestApplierCreatesAddedRecord(t *testing.T) {
	s := newTestStore(t)
	a := New(s)
	lanID := uuid.New()

	d := decide.Decision{
		ASN: 64500, Action: decide.ActionAdd, Reason: "new entry",
		IPv4: addrString(t, "198.51.100.5"), Speed: 10000, Operational: true,
		DirectApply: true,
	}
	out, err := a.Apply(context.Background(), lanID, []decide.Decision{d})
	require.NoError(t, err)
	require.Len(t, out.Entries, 1)
	assert.Equal(t, decide.ActionAdd, out.Entries[0].Action)
	assert.Equal(t, uint64(1), out.Entries[0].VersionAfter)

	rows, err := s.ListActiveNetIXLans(context.Background(), lanID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, uint32(64500), rows[0].ASN)
}

func TestApplierSkipsNonDirectApplyDecisions(t *testing.T) {
	s := newTestStore(t)
	a := New(s)
	lanID := uuid.New()

	d := decide.Decision{ASN: 64500, Action: decide.ActionAdd, DirectApply: false}
	out, err := a.Apply(context.Background(), lanID, []decide.Decision{d})
	require.NoError(t, err)
	assert.Empty(t, out.Entries)

	rows, err := s.ListActiveNetIXLans(context.Background(), lanID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestApplierDeletesVanishedRecord(t *testing.T) {
	s := newTestStore(t)
	a := New(s)
	lanID := uuid.New()
	ctx := context.Background()

	row := &models.NetIXLan{ID: uuid.New(), IXLanID: lanID, ASN: 64501, IPv4: addrString(t, "198.51.100.9")}
	require.NoError(t, createRow(ctx, s, row))

	d := decide.Decision{
		ASN: 64501, Action: decide.ActionDelete, ExistingID: &row.ID,
		IPv4: row.IPv4, Reason: "entry gone from remote", DirectApply: true,
	}
	out, err := a.Apply(ctx, lanID, []decide.Decision{d})
	require.NoError(t, err)
	require.Len(t, out.Entries, 1)
	assert.Equal(t, decide.ActionDelete, out.Entries[0].Action)
	assert.Equal(t, uint64(0), out.Entries[0].VersionAfter)

	rows, err := s.ListActiveNetIXLans(ctx, lanID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestApplierConsolidatesDeleteAndAddIntoModify(t *testing.T) {
	s := newTestStore(t)
	a := New(s)
	lanID := uuid.New()
	ctx := context.Background()

	v4Row := &models.NetIXLan{ID: uuid.New(), IXLanID: lanID, ASN: 64500, IPv4: addrString(t, "198.51.100.5"), Speed: 1000, Operational: true}
	require.NoError(t, createRow(ctx, s, v4Row))

	v4 := v4Row.IPv4
	v6 := addrString(t, "2001:db8::5")
	v4Addr, _ := netip.ParseAddr(*v4)
	v6Addr, _ := netip.ParseAddr(*v6)

	deleteDecision := decide.Decision{
		ASN: 64500, Action: decide.ActionDelete, ExistingID: &v4Row.ID,
		Identity: identity.New(64500, &v4Addr, nil), IPv4: v4, DirectApply: true,
	}
	addDecision := decide.Decision{
		ASN: 64500, Action: decide.ActionAdd,
		Identity: identity.New(64500, &v4Addr, &v6Addr), IPv4: v4, IPv6: v6,
		Speed: 10000, Operational: true, DirectApply: true,
	}

	out, err := a.Apply(ctx, lanID, []decide.Decision{deleteDecision, addDecision})
	require.NoError(t, err)
	require.Len(t, out.Entries, 1)
	assert.Equal(t, decide.ActionModify, out.Entries[0].Action)
	assert.Equal(t, "IPv6 not set", out.Entries[0].Reason)

	rows, err := s.ListActiveNetIXLans(ctx, lanID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, v6, rows[0].IPv6)
	assert.Equal(t, 10000, rows[0].Speed)
}

func createRow(ctx context.Context, s *store.GORMStore, row *models.NetIXLan) error {
	return s.Tx(ctx, func(tx *gorm.DB) error {
		return store.CreateNetIXLan(tx, row)
	})
}
