package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for one reconciliation run.
const (
	AttrIXLanID    = "ixf.ixlan_id"
	AttrExchangeID = "ixf.exchange_id"
	AttrASN        = "ixf.asn"
	AttrAction     = "ixf.action"
	AttrDecisions  = "ixf.decision_count"
	AttrConflicts  = "ixf.conflict_count"
	AttrDryRun     = "ixf.dry_run"
)

// Span names for the run's phases (spec.md §4: fetch, parse, decide,
// apply, notify).
const (
	SpanRun    = "reconcile.run"
	SpanFetch  = "reconcile.fetch"
	SpanParse  = "reconcile.parse"
	SpanDecide = "reconcile.decide"
	SpanApply  = "reconcile.apply"
	SpanNotify = "reconcile.notify"
)

func IXLanID(id string) attribute.KeyValue { return attribute.String(AttrIXLanID, id) }
func ExchangeID(id string) attribute.KeyValue { return attribute.String(AttrExchangeID, id) }
func ASN(asn uint32) attribute.KeyValue     { return attribute.Int64(AttrASN, int64(asn)) }
func Action(action string) attribute.KeyValue { return attribute.String(AttrAction, action) }
func DecisionCount(n int) attribute.KeyValue { return attribute.Int(AttrDecisions, n) }
func ConflictCount(n int) attribute.KeyValue { return attribute.Int(AttrConflicts, n) }
func DryRun(dry bool) attribute.KeyValue     { return attribute.Bool(AttrDryRun, dry) }

// StartRunSpan starts the root span for one reconciliation run over a
// single IXLAN.
func StartRunSpan(ctx context.Context, ixlanID string, dryRun bool) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanRun, trace.WithAttributes(IXLanID(ixlanID), DryRun(dryRun)))
}

// StartPhaseSpan starts a span for one of the run's fixed phases.
func StartPhaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, name, trace.WithAttributes(attrs...))
}
