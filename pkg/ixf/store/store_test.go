package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ixfabric/ixfrecon/pkg/ixf/models"
)

func createTestStore(t *testing.T) *GORMStore {
	t.Helper()
	s, err := New(&Config{
		Type:   DatabaseTypeSQLite,
		SQLite: SQLiteConfig{Path: ":memory:"},
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewAppliesDefaultsAndValidates(t *testing.T) {
	config := &Config{}
	config.ApplyDefaults()
	if config.Type != DatabaseTypeSQLite {
		t.Errorf("expected sqlite default, got %s", config.Type)
	}

	if _, err := New(&Config{Type: "invalid"}); err == nil {
		t.Error("expected error for invalid database type")
	}
}

func TestNetIXLanCreateUpdateDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	lanID := uuid.New()

	n := &models.NetIXLan{ID: uuid.New(), IXLanID: lanID, ASN: 64500, Speed: 1000}
	if err := s.Tx(ctx, func(tx *gorm.DB) error {
		return CreateNetIXLan(tx, n)
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if n.Version != 1 {
		t.Errorf("expected version 1 after create, got %d", n.Version)
	}

	n.Speed = 2000
	if err := s.Tx(ctx, func(tx *gorm.DB) error {
		return UpdateNetIXLan(tx, n)
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if n.Version != 2 {
		t.Errorf("expected version 2 after update, got %d", n.Version)
	}

	var deleted *models.NetIXLan
	if err := s.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = DeleteNetIXLan(tx, n.ID)
		return err
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.Version != 3 {
		t.Errorf("expected version 3 after delete, got %d", deleted.Version)
	}

	active, err := s.ListActiveNetIXLans(ctx, lanID)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected no active netixlans after delete, got %d", len(active))
	}
}

func TestProposalLifecycle(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	lanID := uuid.New()

	p := &models.Proposal{ID: uuid.New(), IXLanID: lanID, ASN: 64500, Action: "add"}
	if err := s.Tx(ctx, func(tx *gorm.DB) error {
		return CreateProposal(tx, p)
	}); err != nil {
		t.Fatalf("create proposal: %v", err)
	}

	open, err := s.ListOpenProposals(ctx, lanID, 64500)
	if err != nil || len(open) != 1 {
		t.Fatalf("expected one open proposal, got %d (err=%v)", len(open), err)
	}

	if err := s.Tx(ctx, func(tx *gorm.DB) error {
		return UpdateProposalState(tx, p.ID, ProposalStateResolved)
	}); err != nil {
		t.Fatalf("resolve proposal: %v", err)
	}

	open, err = s.ListOpenProposals(ctx, lanID, 64500)
	if err != nil || len(open) != 0 {
		t.Fatalf("expected zero open proposals after resolve, got %d (err=%v)", len(open), err)
	}
}

func TestImportAttemptLifecycle(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	lanID := uuid.New()

	attempt, err := s.BeginAttempt(ctx, lanID, time.Now())
	if err != nil {
		t.Fatalf("begin attempt: %v", err)
	}
	if err := s.FinishAttempt(ctx, attempt.ID, true, "", time.Now()); err != nil {
		t.Fatalf("finish attempt: %v", err)
	}
}
