// Package importer wires the reconciliation engine's leaf components —
// feed, sanitize, parse, identity, decide, apply, notify, store — into
// the one-IXLan-per-run pipeline spec.md §2 describes: fetch, sanitize,
// parse, decide, apply-or-propose, archive, notify, age-to-ticket.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ixfabric/ixfrecon/internal/logger"
	"github.com/ixfabric/ixfrecon/internal/telemetry"
	"github.com/ixfabric/ixfrecon/pkg/ixf/apply"
	"github.com/ixfabric/ixfrecon/pkg/ixf/decide"
	"github.com/ixfabric/ixfrecon/pkg/ixf/feed"
	"github.com/ixfabric/ixfrecon/pkg/ixf/metrics"
	"github.com/ixfabric/ixfrecon/pkg/ixf/models"
	"github.com/ixfabric/ixfrecon/pkg/ixf/notify"
	"github.com/ixfabric/ixfrecon/pkg/ixf/parse"
	"github.com/ixfabric/ixfrecon/pkg/ixf/sanitize"
	"github.com/ixfabric/ixfrecon/pkg/ixf/store"
)

// Importer runs one reconciliation pass at a time against a single
// backing store, feed client, and notifier. It holds no per-run state;
// everything that varies across runs is threaded through RunOptions.
type Importer struct {
	store    *store.GORMStore
	feed     *feed.Client
	applier  *apply.Applier
	notifier *notify.Notifier
}

// New returns an Importer wired to its collaborators. The caller builds
// fc and n once per process (the feed cache and ticket client are
// process-wide singletons per spec.md §5/§9).
func New(s *store.GORMStore, fc *feed.Client, n *notify.Notifier) *Importer {
	return &Importer{store: s, feed: fc, applier: apply.New(s), notifier: n}
}

// RunOptions configures one reconciliation pass.
type RunOptions struct {
	// ASNFilter, when non-zero, restricts the run to one member AS
	// (spec.md §4.5's "single-ASN run").
	ASNFilter uint32

	// Save gates every write: false computes the same decision stream
	// for preview without touching the database, email, or tickets
	// (spec.md §5's dry-run mode).
	Save bool

	// CacheOnly skips the network fetch and fails if nothing is cached
	// for this IXLan's feed URL (spec.md §4.1).
	CacheOnly bool
}

// Result is everything one run produced, enough for a caller to render a
// preview UI or a CLI summary without re-querying the store.
type Result struct {
	IXLanID   uuid.UUID
	Decisions []decide.Decision
	Applied   *apply.Outcome
	Proposals []models.Proposal
	Resolved  int
	Queued    []notify.Queued

	// FeedError is set when the run aborted at the feed-source stage
	// (fetch, decode, or "no vlan entries"); every other field is zero.
	FeedError error
}

// RunAll reconciles every IXLan that publishes a feed, one after another.
// Per spec.md §5, runs for distinct IXLans are independent and could be
// parallelized by the caller; this loop itself stays sequential: each
// IXLan's run starts after the previous one finishes, and the first run
// that returns an error stops the loop.
func (imp *Importer) RunAll(ctx context.Context, opts RunOptions) ([]*Result, error) {
	lans, err := imp.store.ListIXLansWithFeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("importer: listing feed-bearing ixlans: %w", err)
	}
	results := make([]*Result, 0, len(lans))
	for _, lan := range lans {
		res, err := imp.RunIXLan(ctx, lan.ID, opts)
		if err != nil {
			return results, fmt.Errorf("importer: run for ixlan %s: %w", lan.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// RunIXLan executes one full reconciliation pass against lanID.
func (imp *Importer) RunIXLan(ctx context.Context, lanID uuid.UUID, opts RunOptions) (*Result, error) {
	ctx = logger.WithFields(ctx, "ixlan_id", lanID, "save", opts.Save)
	ctx, span := telemetry.StartRunSpan(ctx, lanID.String(), !opts.Save)
	defer span.End()

	lan, err := imp.store.GetIXLan(ctx, lanID)
	if err != nil {
		return nil, fmt.Errorf("importer: loading ixlan %s: %w", lanID, err)
	}
	if lan.IXFURL == "" {
		return nil, fmt.Errorf("importer: ixlan %s has no ixf feed url", lanID)
	}

	now := time.Now()
	var attempt *models.ImportAttempt
	if opts.Save {
		attempt, err = imp.store.BeginAttempt(ctx, lanID, now)
		if err != nil {
			return nil, fmt.Errorf("importer: starting attempt: %w", err)
		}
	}

	res := &Result{IXLanID: lanID}
	doc, raw, err := imp.fetch(ctx, lan, opts)
	if err != nil {
		res.FeedError = err
		imp.finishFailedAttempt(ctx, attempt, lan, err, opts)
		return res, nil
	}

	if err := sanitize.Sanitize(doc); err != nil {
		res.FeedError = err
		imp.finishFailedAttempt(ctx, attempt, lan, err, opts)
		return res, nil
	}

	decisions, parseRes, err := imp.decide(ctx, lan, doc, opts)
	if err != nil {
		res.FeedError = err
		imp.finishFailedAttempt(ctx, attempt, lan, err, opts)
		return res, nil
	}
	res.Decisions = decisions
	for _, d := range decisions {
		metrics.RecordDecision(d.Action)
	}

	queued := protocolConflictNotifications(lan, parseRes)

	var proposed []models.Proposal
	var resolvedCount int
	if opts.Save {
		_, applySpan := telemetry.StartPhaseSpan(ctx, telemetry.SpanApply)
		outcome, err := imp.applier.Apply(ctx, lanID, decisions)
		applySpan.End()
		if err != nil {
			imp.finishFailedAttempt(ctx, attempt, lan, err, opts)
			return res, nil
		}
		res.Applied = outcome
		for _, c := range outcome.Conflicts {
			metrics.RecordApply(c.Decision.Action, "conflicted")
			metrics.RecordConflict()
			queued = append(queued, notify.Queued{Type: notify.TypeConflict, Proposal: &c.Proposal, Network: imp.networkFor(ctx, c.Decision.ASN), IXLan: lan})
		}
		for _, e := range outcome.Entries {
			metrics.RecordApply(e.Action, "applied")
		}
		if err := imp.archive(ctx, lanID, raw, outcome.Entries); err != nil {
			logger.ErrorCtx(ctx, "importer: archiving run", "error", err)
		}

		proposed, err = imp.persistProposals(ctx, lan, decisions)
		if err != nil {
			logger.ErrorCtx(ctx, "importer: persisting proposals", "error", err)
		}
		for i := range proposed {
			metrics.RecordApply(proposed[i].Action, "proposed")
			queued = append(queued, notify.Queued{Type: notify.TypeProposal, Proposal: &proposed[i], Network: imp.networkFor(ctx, proposed[i].ASN), IXLan: lan})
		}

		resolved, err := imp.resolveProposals(ctx, lan, decisions, parseRes.Seen, opts.ASNFilter)
		if err != nil {
			logger.ErrorCtx(ctx, "importer: resolving proposals", "error", err)
		}
		resolvedCount = len(resolved)
		for i := range resolved {
			queued = append(queued, notify.Queued{Type: notify.TypeResolved, Proposal: &resolved[i], Network: imp.networkFor(ctx, resolved[i].ASN), IXLan: lan})
		}
	}
	res.Proposals = proposed
	res.Resolved = resolvedCount
	res.Queued = queued

	if opts.Save {
		_, notifySpan := telemetry.StartPhaseSpan(ctx, telemetry.SpanNotify)
		if err := imp.notifier.Dispatch(ctx, queued); err != nil {
			logger.ErrorCtx(ctx, "importer: dispatching notifications", "error", err)
		}
		if err := imp.notifier.AgeToTicket(ctx, time.Now()); err != nil {
			logger.ErrorCtx(ctx, "importer: aging proposals to ticket", "error", err)
		}
		notifySpan.End()
		if err := imp.store.SetIXFImportError(ctx, lanID, ""); err != nil {
			logger.ErrorCtx(ctx, "importer: clearing feed error", "error", err)
		}
		if err := imp.store.FinishAttempt(ctx, attempt.ID, true, "", time.Now()); err != nil {
			logger.ErrorCtx(ctx, "importer: finishing attempt", "error", err)
		}
	}

	return res, nil
}

func (imp *Importer) fetch(ctx context.Context, lan *models.IXLan, opts RunOptions) (*feed.Document, []byte, error) {
	_, span := telemetry.StartPhaseSpan(ctx, telemetry.SpanFetch)
	defer span.End()

	if opts.CacheOnly {
		doc, raw, err := imp.feed.FetchCached(lan.IXFURL)
		if err != nil {
			return nil, nil, err
		}
		return doc, raw, nil
	}
	doc, raw, err := imp.feed.Fetch(ctx, lan.IXFURL)
	if err != nil {
		metrics.RecordFeedError(lan.ID.String())
		return nil, nil, err
	}
	if err := feed.Validate(raw); err != nil {
		metrics.RecordFeedError(lan.ID.String())
		return nil, nil, fmt.Errorf("importer: validating feed shape: %w", err)
	}
	return doc, raw, nil
}

func (imp *Importer) decide(ctx context.Context, lan *models.IXLan, doc *feed.Document, opts RunOptions) ([]decide.Decision, parse.Result, error) {
	_, parseSpan := telemetry.StartPhaseSpan(ctx, telemetry.SpanParse)
	prefixes, err := imp.store.ActivePrefixes(ctx, lan.ID)
	if err != nil {
		parseSpan.End()
		return nil, parse.Result{}, fmt.Errorf("importer: loading active prefixes: %w", err)
	}

	networks, err := imp.store.ListNetworksByASN(ctx, memberASNs(doc))
	if err != nil {
		parseSpan.End()
		return nil, parse.Result{}, fmt.Errorf("importer: loading networks: %w", err)
	}

	parser := &parse.Parser{Networks: networks, Prefixes: prefixes, ASNFilter: opts.ASNFilter}
	parseRes := parser.Parse(doc)
	parseSpan.End()

	if len(parseRes.AddressErrors) > 0 {
		logger.WarnCtx(ctx, "importer: address parse errors this run", "count", len(parseRes.AddressErrors))
	}

	existing, err := imp.store.ListActiveNetIXLans(ctx, lan.ID)
	if err != nil {
		return nil, parse.Result{}, fmt.Errorf("importer: loading existing connections: %w", err)
	}

	_, decideSpan := telemetry.StartPhaseSpan(ctx, telemetry.SpanDecide)
	defer decideSpan.End()
	engine := &decide.Engine{Networks: networks}
	decisions := engine.Decide(parseRes.Candidates, existing, parseRes.Seen, opts.ASNFilter)
	decideSpan.SetAttributes(telemetry.DecisionCount(len(decisions)))
	return decisions, parseRes, nil
}

func (imp *Importer) archive(ctx context.Context, lanID uuid.UUID, raw []byte, entries []models.ImportLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	log := models.ImportLog{IXLanID: lanID, RawFeed: string(raw)}
	return imp.store.DB().Transaction(func(tx *gorm.DB) error {
		if err := store.CreateImportLog(tx, &log); err != nil {
			return err
		}
		for i := range entries {
			entries[i].ImportLogID = log.ID
		}
		return store.CreateImportLogEntries(tx, entries)
	})
}

func (imp *Importer) networkFor(ctx context.Context, asn uint32) *models.Network {
	n, err := imp.store.GetNetwork(ctx, asn)
	if err != nil {
		return nil
	}
	return n
}

func (imp *Importer) finishFailedAttempt(ctx context.Context, attempt *models.ImportAttempt, lan *models.IXLan, cause error, opts RunOptions) {
	logger.ErrorCtx(ctx, "importer: run aborted", "error", cause)
	telemetry.RecordError(ctx, cause)
	if !opts.Save {
		return
	}
	if err := imp.store.SetIXFImportError(ctx, lan.ID, cause.Error()); err != nil {
		logger.ErrorCtx(ctx, "importer: recording feed error", "error", err)
	}
	if attempt != nil {
		if err := imp.store.FinishAttempt(ctx, attempt.ID, false, cause.Error(), time.Now()); err != nil {
			logger.ErrorCtx(ctx, "importer: finishing failed attempt", "error", err)
		}
	}
	if err := imp.notifier.NotifyFeedError(ctx, lan, cause, time.Now()); err != nil {
		logger.ErrorCtx(ctx, "importer: notifying feed error", "error", err)
	}
}

// protocolConflictNotifications turns this run's protocol-conflict
// signals (spec.md §4.4) into queued notifications. No proposal or
// apply is involved: the conflict is informational only.
func protocolConflictNotifications(lan *models.IXLan, res parse.Result) []notify.Queued {
	out := make([]notify.Queued, 0, len(res.ProtocolConflicts))
	for i := range res.ProtocolConflicts {
		out = append(out, notify.Queued{
			Type:             notify.TypeProtocolConflict,
			IXLan:            lan,
			ProtocolConflict: &res.ProtocolConflicts[i],
		})
	}
	return out
}

func memberASNs(doc *feed.Document) []uint32 {
	seen := map[uint32]bool{}
	var out []uint32
	for _, m := range doc.MemberList {
		if seen[m.ASNum] {
			continue
		}
		seen[m.ASNum] = true
		out = append(out, m.ASNum)
	}
	return out
}
