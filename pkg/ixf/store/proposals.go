package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ixfabric/ixfrecon/pkg/ixf/models"
)

const (
	ProposalStateOpen       = "open"
	ProposalStateResolved   = "resolved"
	ProposalStateConflicted = "conflicted"
)

// ListOpenProposals returns every open proposal for an ASN on an IXLan,
// the set cleanup_ixf_member_data-equivalent logic re-evaluates against
// a fresh feed each run.
func (s *GORMStore) ListOpenProposals(ctx context.Context, lanID uuid.UUID, asn uint32) ([]models.Proposal, error) {
	var rows []models.Proposal
	err := s.db.WithContext(ctx).
		Where("ixlan_id = ? AND asn = ? AND state = ?", lanID, asn, ProposalStateOpen).
		Find(&rows).Error
	return rows, err
}

// ListOpenProposalsForIXLan returns every open proposal on an IXLan
// regardless of ASN, the set an end-of-run resolution sweep (spec.md
// §4.7) considers when a run was not scoped to a single ASN.
func (s *GORMStore) ListOpenProposalsForIXLan(ctx context.Context, lanID uuid.UUID) ([]models.Proposal, error) {
	var rows []models.Proposal
	err := s.db.WithContext(ctx).
		Where("ixlan_id = ? AND state = ?", lanID, ProposalStateOpen).
		Find(&rows).Error
	return rows, err
}

// ListAgedOpenProposals returns open, not-yet-ticketed proposals created at
// or before cutoff, across all IXLans, for the aging-to-ticket sweep
// (spec.md §4.9). The cutoff is computed by the caller (now - days-until-
// ticket) rather than in SQL, so the query stays portable across SQLite
// (tests) and PostgreSQL (production) instead of relying on either
// dialect's interval syntax.
func (s *GORMStore) ListAgedOpenProposals(ctx context.Context, cutoff time.Time) ([]models.Proposal, error) {
	var rows []models.Proposal
	err := s.db.WithContext(ctx).
		Where("state = ? AND ticket_id = '' AND created_at <= ?", ProposalStateOpen, cutoff).
		Find(&rows).Error
	return rows, err
}

// FindOpenProposalByIdentity returns the open proposal for asn/ipv4/ipv6 on
// lanID, if any — the uniqueness-by-identity-key lookup the importer's
// upsertProposal uses to update an existing proposal in place rather than
// duplicate it.
func FindOpenProposalByIdentity(tx *gorm.DB, lanID uuid.UUID, asn uint32, ipv4, ipv6 *string) (*models.Proposal, error) {
	var p models.Proposal
	q := tx.Where("ixlan_id = ? AND asn = ? AND state = ?", lanID, asn, ProposalStateOpen)
	if ipv4 != nil {
		q = q.Where("ipv4 = ?", *ipv4)
	} else {
		q = q.Where("ipv4 IS NULL")
	}
	if ipv6 != nil {
		q = q.Where("ipv6 = ?", *ipv6)
	} else {
		q = q.Where("ipv6 IS NULL")
	}
	err := q.First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ListRequirementsOf returns the proposals that name parentID as their
// RequirementOf — the children suppressed from their own notification
// because they are a precondition of parentID (spec.md §4.9).
func (s *GORMStore) ListRequirementsOf(ctx context.Context, parentID uuid.UUID) ([]models.Proposal, error) {
	var rows []models.Proposal
	err := s.db.WithContext(ctx).Where("requirement_of = ?", parentID).Find(&rows).Error
	return rows, err
}

func CreateProposal(tx *gorm.DB, p *models.Proposal) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.State == "" {
		p.State = ProposalStateOpen
	}
	return tx.Create(p).Error
}

// UpdateProposal persists a proposal's reason/payload in place, the
// "existing Proposal for the same identity is updated in place (new
// reason, refreshed updated)" rule of spec.md §4.5.
func UpdateProposal(tx *gorm.DB, p *models.Proposal) error {
	return tx.Model(&models.Proposal{}).Where("id = ?", p.ID).Updates(map[string]any{
		"action":         p.Action,
		"reason":         p.Reason,
		"speed":          p.Speed,
		"is_rs_peer":     p.IsRSPeer,
		"operational":    p.Operational,
		"net_ix_lan_id":  p.NetIXLanID,
		"requirement_of": p.RequirementOf,
	}).Error
}

func UpdateProposalState(tx *gorm.DB, id uuid.UUID, state string) error {
	return tx.Model(&models.Proposal{}).Where("id = ?", id).Update("state", state).Error
}

func SetProposalTicket(tx *gorm.DB, id uuid.UUID, ticketID, ticketRef string) error {
	return tx.Model(&models.Proposal{}).Where("id = ?", id).Updates(map[string]any{
		"ticket_id":  ticketID,
		"ticket_ref": ticketRef,
	}).Error
}

// DeleteProposal removes a proposal outright. The importer does not call
// it: proposals that are no longer needed are marked resolved instead
// (UpdateProposalState).
func DeleteProposal(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&models.Proposal{}, "id = ?", id).Error
}
