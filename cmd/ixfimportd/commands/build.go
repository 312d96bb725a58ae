package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/ixfabric/ixfrecon/internal/config"
	"github.com/ixfabric/ixfrecon/internal/logger"
	"github.com/ixfabric/ixfrecon/internal/telemetry"
	"github.com/ixfabric/ixfrecon/pkg/ixf/feed"
	"github.com/ixfabric/ixfrecon/pkg/ixf/importer"
	"github.com/ixfabric/ixfrecon/pkg/ixf/metrics"
	"github.com/ixfabric/ixfrecon/pkg/ixf/notify"
	"github.com/ixfabric/ixfrecon/pkg/ixf/store"
)

// defaultFeedTimeout bounds every IX-F fetch per spec.md §4.1's default.
const defaultFeedTimeout = 5 * time.Second

// engine bundles everything one CLI invocation needs, plus the shutdown
// hooks the command must run on its way out.
type engine struct {
	cfg      *config.Config
	store    *store.GORMStore
	importer *importer.Importer

	shutdownTelemetry func(context.Context) error
}

// buildEngine loads configuration and wires every collaborator the way
// cmd/dittofs/main.go's runStart wires the dittofs daemon: logger, then
// telemetry, then metrics, then the store, then the domain objects.
func buildEngine(ctx context.Context) (*engine, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	loggerCfg := logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}
	if err := logger.Init(loggerCfg); err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	telemetryCfg := telemetry.Config{
		Enabled: cfg.Telemetry.Enabled, ServiceName: "ixfimportd", ServiceVersion: version,
		Endpoint: cfg.Telemetry.Endpoint, Insecure: cfg.Telemetry.Insecure, SampleRate: cfg.Telemetry.SampleRate,
	}
	shutdownTelemetry, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	s, err := store.New(&cfg.Database)
	if err != nil {
		_ = shutdownTelemetry(ctx)
		return nil, fmt.Errorf("open database: %w", err)
	}

	mailer := buildMailer(cfg)
	tickets := buildTicketClient(cfg)
	notifyCfg := notify.Config{
		SendTickets: cfg.Notify.SendTickets, TicketOnConflict: cfg.Notify.TicketOnConflict,
		NotifyIXOnConflict: cfg.Notify.NotifyIXOnConflict, NotifyNetOnConflict: cfg.Notify.NotifyNetOnConflict,
		DaysUntilTicket: cfg.Notify.DaysUntilTicket, ParseErrorPeriod: cfg.Notify.ParseErrorPeriod,
		SubjectPrefix: cfg.Notify.SubjectPrefix, AdminEmail: cfg.Notify.AdminEmail,
	}
	notifier := notify.New(s, mailer, tickets, notifyCfg)

	client := feed.NewClient(defaultFeedTimeout)
	imp := importer.New(s, client, notifier)

	return &engine{cfg: cfg, store: s, importer: imp, shutdownTelemetry: shutdownTelemetry}, nil
}

func (e *engine) Close(ctx context.Context) {
	if err := e.shutdownTelemetry(ctx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}
	if err := e.store.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}
}

func buildMailer(cfg *config.Config) notify.Mailer {
	if cfg.Mail.Debug {
		return notify.NewDebugMailer()
	}
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host: cfg.Mail.Host, Port: cfg.Mail.Port, From: cfg.Mail.From,
	})
}

func buildTicketClient(cfg *config.Config) notify.TicketClient {
	if !cfg.Notify.SendTickets {
		return notify.NewMockTicketClient()
	}
	return notify.NewHTTPTicketClient(cfg.Tickets.BaseURL, cfg.Tickets.Token)
}
