package importer

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

func addrString(t *testing.T, s string) *string {
	t.Helper()
	addr, err := netip.ParseAddr(s)
	require.NoError(t, err)
	return models.AddrString(&addr)
}

func TestPersistProposalsConsolidatesDeleteAndAddIntoOneModify(t *testing.T) {
	s := newTestStore(t)
	imp := &Importer{store: s}
	lan := &models.IXLan{ID: uuid.New()}

	v4 := addrString(t, "198.51.100.5")
	v6 := addrString(t, "2001:db8::5")
	v4Addr, _ := netip.ParseAddr(*v4)
	v6Addr, _ := netip.ParseAddr(*v6)
	existingID := uuid.New()

	decisions := []decide.Decision{
		{
			ASN: 64500, Action: decide.ActionDelete, ExistingID: &existingID,
			Identity: identity.New(64500, &v4Addr, nil), IPv4: v4,
			Reason: "stale", DirectApply: false,
		},
		{
			ASN: 64500, Action: decide.ActionAdd,
			Identity: identity.New(64500, &v4Addr, &v6Addr), IPv4: v4, IPv6: v6,
			Speed: 10000, Operational: true, DirectApply: false,
		},
	}

	proposals, err := imp.persistProposals(context.Background(), lan, decisions)
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, decide.ActionModify, proposals[0].Action)
	assert.Nil(t, proposals[0].RequirementOf)

	open, err := s.ListOpenProposalsForIXLan(context.Background(), lan.ID)
	require.NoError(t, err)
	require.Len(t, open, 1)
}

func TestPersistProposalsSkipsDirectApplyAndNoop(t *testing.T) {
	s := newTestStore(t)
	imp := &Importer{store: s}
	lan := &models.IXLan{ID: uuid.New()}

	decisions := []decide.Decision{
		{ASN: 64500, Action: decide.ActionAdd, DirectApply: true},
		{ASN: 64500, Action: decide.ActionNoop, DirectApply: false},
	}

	proposals, err := imp.persistProposals(context.Background(), lan, decisions)
	require.NoError(t, err)
	assert.Empty(t, proposals)
}

func TestPersistProposalsUpdatesExistingOpenProposalInPlace(t *testing.T) {
	s := newTestStore(t)
	imp := &Importer{store: s}
	lan := &models.IXLan{ID: uuid.New()}
	v4 := addrString(t, "198.51.100.9")

	first := []decide.Decision{
		{ASN: 64502, Action: decide.ActionAdd, IPv4: v4, Speed: 1000, Reason: "first pass"},
	}
	proposals, err := imp.persistProposals(context.Background(), lan, first)
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	firstID := proposals[0].ID

	second := []decide.Decision{
		{ASN: 64502, Action: decide.ActionAdd, IPv4: v4, Speed: 2000, Reason: "second pass"},
	}
	proposals, err = imp.persistProposals(context.Background(), lan, second)
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, firstID, proposals[0].ID)
	assert.Equal(t, 2000, proposals[0].Speed)
	assert.Equal(t, "second pass", proposals[0].Reason)

	open, err := s.ListOpenProposalsForIXLan(context.Background(), lan.ID)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestResolveProposalsResolvesWhenIdentityNowDecidesNoop(t *testing.T) {
	s := newTestStore(t)
	imp := &Importer{store: s}
	lan := &models.IXLan{ID: uuid.New()}
	v4 := addrString(t, "198.51.100.5")
	v4Addr, _ := netip.ParseAddr(*v4)

	seeded, err := imp.persistProposals(context.Background(), lan, []decide.Decision{
		{ASN: 64500, Action: decide.ActionAdd, IPv4: v4, Reason: "pending"},
	})
	require.NoError(t, err)
	require.Len(t, seeded, 1)

	noopDecisions := []decide.Decision{
		{ASN: 64500, Action: decide.ActionNoop, Identity: identity.New(64500, &v4Addr, nil)},
	}
	resolved, err := imp.resolveProposals(context.Background(), lan, noopDecisions, identity.NewSeenSet(), 0)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, store.ProposalStateResolved, resolved[0].State)

	open, err := s.ListOpenProposalsForIXLan(context.Background(), lan.ID)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestResolveProposalsLeavesUnsatisfiedProposalsOpen(t *testing.T) {
	s := newTestStore(t)
	imp := &Importer{store: s}
	lan := &models.IXLan{ID: uuid.New()}
	v4 := addrString(t, "198.51.100.5")

	seeded, err := imp.persistProposals(context.Background(), lan, []decide.Decision{
		{ASN: 64500, Action: decide.ActionAdd, IPv4: v4, Reason: "still pending"},
	})
	require.NoError(t, err)
	require.Len(t, seeded, 1)

	v4Addr, _ := netip.ParseAddr(*v4)
	seen := identity.NewSeenSet()
	seen.Add(identity.New(64500, &v4Addr, nil), true, true)

	resolved, err := imp.resolveProposals(context.Background(), lan, nil, seen, 0)
	require.NoError(t, err)
	assert.Empty(t, resolved)

	open, err := s.ListOpenProposalsForIXLan(context.Background(), lan.ID)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestNetIXLanDeletedReportsTrueForSoftDeletedRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	lanID := uuid.New()
	row := &models.NetIXLan{ID: uuid.New(), IXLanID: lanID, ASN: 64503}
	require.NoError(t, s.Tx(ctx, func(tx *gorm.DB) error {
		if err := store.CreateNetIXLan(tx, row); err != nil {
			return err
		}
		_, err := store.DeleteNetIXLan(tx, row.ID)
		return err
	}))

	p := models.Proposal{NetIXLanID: &row.ID}
	assert.True(t, netIXLanDeleted(s.DB(), p))
}

func TestNetIXLanDeletedReportsFalseWhenNoExistingID(t *testing.T) {
	p := models.Proposal{}
	assert.False(t, netIXLanDeleted(nil, p))
}
