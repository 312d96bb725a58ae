package postmortem

import (
	"context"
	"testing"

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

func seedArchive(t *testing.T, s *store.GORMStore, asn uint32) {
	t.Helper()
	lan := &models.IXLan{ID: uuid.New(), Name: "LAN1", ExchangeID: uuid.New(), ExchangeName: "TEST-IX"}
	require.NoError(t, s.DB().Create(lan).Error)
	log := &models.ImportLog{ID: uuid.New(), IXLanID: lan.ID}
	require.NoError(t, s.DB().Create(log).Error)
	entry := &models.ImportLogEntry{
		ID: uuid.New(), ImportLogID: log.ID, ASN: asn,
		Action: "modify", Reason: "values changed: speed", Changes: "speed: 1000 -> 2000",
		VersionBefore: 1, VersionAfter: 2, Speed: 2000, Operational: true,
	}
	require.NoError(t, s.DB().Create(entry).Error)
}

func TestReportFormatsChangesAndTimestamp(t *testing.T) {
	s := newTestStore(t)
	seedArchive(t, s, 64500)

	records, err := Report(context.Background(), s, 64500, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "TEST-IX", r.Exchange)
	assert.Equal(t, "modify", r.Action)
	assert.Equal(t, map[string]string{"speed": "1000 -> 2000"}, r.Changes)
	assert.Len(t, r.ArchivedAt, len("2006-01-02 15:04:05"))
}

func TestReportCapsAtDefaultLimit(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		seedArchive(t, s, 64500)
	}
	records, err := Report(context.Background(), s, 64500, 1000)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(records), DefaultLimit)
	assert.Len(t, records, 3)
}

func TestReportReturnsEmptyForUnknownASN(t *testing.T) {
	s := newTestStore(t)
	seedArchive(t, s, 64500)

	records, err := Report(context.Background(), s, 64999, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}
