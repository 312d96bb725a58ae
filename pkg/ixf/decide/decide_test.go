package decide

import (
	"net/netip"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ixfabric/ixfrecon/pkg/ixf/identity"
	"github.com/ixfabric/ixfrecon/pkg/ixf/models"
	"github.com/ixfabric/ixfrecon/pkg/ixf/parse"
)

func mustAddr(t *testing.T, s string) netip.Addr {
	t.Helper()
	addr, err := netip.ParseAddr(s)
	require.NoError(t, err)
	return addr
}

func TestDecideEmitsAddForUnmatchedCandidate(t *testing.T) {
	v4 := mustAddr(t, "198.51.100.5")
	cand := parse.Candidate{ASN: 64500, Identity: identity.New(64500, &v4, nil), Speed: 10000, Operational: true}

	e := &Engine{Networks: map[uint32]*models.Network{64500: {ASN: 64500, AllowIXPUpdate: true}}}
	decisions := e.Decide([]parse.Candidate{cand}, nil, identity.NewSeenSet(), 0)

	require.Len(t, decisions, 1)
	assert.Equal(t, ActionAdd, decisions[0].Action)
	assert.Equal(t, "new entry", decisions[0].Reason)
	assert.True(t, decisions[0].DirectApply)
}

func TestDecideEmitsModifyWhenBusinessFieldsDiffer(t *testing.T) {
	v4 := mustAddr(t, "198.51.100.5")
	id := identity.New(64500, &v4, nil)
	existingID := uuid.New()
	existing := []models.NetIXLan{{
		ID: existingID, ASN: 64500, IPv4: models.AddrString(&v4),
		Speed: 1000, Operational: true, Status: models.StatusOK,
	}}
	cand := parse.Candidate{ASN: 64500, Identity: id, Speed: 10000, Operational: true}

	e := &Engine{Networks: map[uint32]*models.Network{64500: {ASN: 64500}}}
	seen := identity.NewSeenSet()
	seen.Add(id, true, true)
	decisions := e.Decide([]parse.Candidate{cand}, existing, seen, 0)

	require.Len(t, decisions, 1)
	assert.Equal(t, ActionModify, decisions[0].Action)
	assert.Contains(t, decisions[0].Reason, "speed")
	assert.Equal(t, existingID, *decisions[0].ExistingID)
	assert.False(t, decisions[0].DirectApply)
}

func TestDecideEmitsNoopWhenFieldsMatch(t *testing.T) {
	v4 := mustAddr(t, "198.51.100.5")
	id := identity.New(64500, &v4, nil)
	existing := []models.NetIXLan{{
		ID: uuid.New(), ASN: 64500, IPv4: models.AddrString(&v4),
		Speed: 10000, Operational: true, Status: models.StatusOK,
	}}
	cand := parse.Candidate{ASN: 64500, Identity: id, Speed: 10000, Operational: true}

	e := &Engine{Networks: map[uint32]*models.Network{}}
	seen := identity.NewSeenSet()
	seen.Add(id, true, true)
	decisions := e.Decide([]parse.Candidate{cand}, existing, seen, 0)

	require.Len(t, decisions, 1)
	assert.Equal(t, ActionNoop, decisions[0].Action)
}

func TestDecideEmitsDeleteForVanishedRecord(t *testing.T) {
	v4 := mustAddr(t, "198.51.100.9")
	existing := []models.NetIXLan{{
		ID: uuid.New(), ASN: 64501, IPv4: models.AddrString(&v4), Status: models.StatusOK,
	}}

	e := &Engine{Networks: map[uint32]*models.Network{}}
	decisions := e.Decide(nil, existing, identity.NewSeenSet(), 0)

	require.Len(t, decisions, 1)
	assert.Equal(t, ActionDelete, decisions[0].Action)
	assert.Equal(t, "entry gone from remote", decisions[0].Reason)
}

func TestDecideFiltersDeletionPassByASN(t *testing.T) {
	existing := []models.NetIXLan{
		{ID: uuid.New(), ASN: 64501, IPv4: models.AddrString(ptr(mustAddr(t, "198.51.100.9"))), Status: models.StatusOK},
		{ID: uuid.New(), ASN: 64502, IPv4: models.AddrString(ptr(mustAddr(t, "198.51.100.10"))), Status: models.StatusOK},
	}

	e := &Engine{Networks: map[uint32]*models.Network{}}
	decisions := e.Decide(nil, existing, identity.NewSeenSet(), 64501)

	require.Len(t, decisions, 1)
	assert.Equal(t, uint32(64501), decisions[0].ASN)
}

func ptr[T any](v T) *T { return &v }

func TestConsolidateCollapsesBothSiblingsIntoModify(t *testing.T) {
	v4 := mustAddr(t, "198.51.100.5")
	v6 := mustAddr(t, "2001:db8::5")
	v4ExistingID := uuid.New()
	v6ExistingID := uuid.New()

	decisions := []Decision{
		{Identity: identity.New(64500, &v4, nil), Action: ActionDelete, ExistingID: &v4ExistingID},
		{Identity: identity.New(64500, nil, &v6), Action: ActionDelete, ExistingID: &v6ExistingID},
		{Identity: identity.New(64500, &v4, &v6), Action: ActionAdd, IPv4: models.AddrString(&v4), IPv6: models.AddrString(&v6)},
	}

	out := Consolidate(decisions)
	require.Len(t, out, 1)
	assert.Equal(t, ActionModify, out[0].Decision.Action)
	assert.Equal(t, "IP addresses moved to same entry", out[0].Decision.Reason)
	assert.Equal(t, v4ExistingID, *out[0].Decision.ExistingID)
	require.Len(t, out[0].Requirements, 1)
	assert.Equal(t, v6ExistingID, *out[0].Requirements[0].ExistingID)
}

func TestConsolidateCollapsesSingleSiblingWithNoSetReason(t *testing.T) {
	v4 := mustAddr(t, "198.51.100.5")
	v6 := mustAddr(t, "2001:db8::5")
	v4ExistingID := uuid.New()

	decisions := []Decision{
		{Identity: identity.New(64500, &v4, nil), Action: ActionDelete, ExistingID: &v4ExistingID},
		{Identity: identity.New(64500, &v4, &v6), Action: ActionAdd, IPv4: models.AddrString(&v4), IPv6: models.AddrString(&v6)},
	}

	out := Consolidate(decisions)
	require.Len(t, out, 1)
	assert.Equal(t, ActionModify, out[0].Decision.Action)
	assert.Equal(t, "IPv6 not set", out[0].Decision.Reason)
	assert.Empty(t, out[0].Requirements)
}

func TestConsolidateLeavesUnrelatedDecisionsAlone(t *testing.T) {
	v4 := mustAddr(t, "198.51.100.7")
	decisions := []Decision{
		{Identity: identity.New(64502, &v4, nil), Action: ActionAdd},
	}
	out := Consolidate(decisions)
	require.Len(t, out, 1)
	assert.Equal(t, ActionAdd, out[0].Decision.Action)
	assert.Empty(t, out[0].Requirements)
}
