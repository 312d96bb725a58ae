package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ixfabric/ixfrecon/internal/config"
	"github.com/ixfabric/ixfrecon/pkg/ixf/postmortem"
	"github.com/ixfabric/ixfrecon/pkg/ixf/store"
)

var postmortemLimit int

var postmortemCmd = &cobra.Command{
	Use:   "postmortem <asn>",
	Short: "Show the archived reconciliation history for one AS",
	Long: `postmortem is a read-only retrospective query over the import archive
(spec.md §4.10): it lists the most recent applied changes touching one
member AS, newest first, with no side effects.`,
	Args: cobra.ExactArgs(1),
	RunE: runPostmortem,
}

func init() {
	postmortemCmd.Flags().IntVar(&postmortemLimit, "limit", 0, "cap the number of entries (default: config IXF_POSTMORTEM_LIMIT)")
}

func runPostmortem(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	asn64, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("postmortem: invalid ASN %q: %w", args[0], err)
	}
	asn := uint32(asn64)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	s, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	limit := postmortemLimit
	if limit <= 0 {
		limit = cfg.PostmortemLimit
	}

	records, err := postmortem.Report(ctx, s, asn, limit)
	if err != nil {
		return fmt.Errorf("postmortem: %w", err)
	}
	if len(records) == 0 {
		fmt.Printf("no archived entries for AS%d\n", asn)
		return nil
	}
	for _, r := range records {
		fmt.Printf("%s  %-7s %-35s %s @ %s (speed=%d rs_peer=%v)\n",
			r.ArchivedAt, r.Action, r.Reason, r.Exchange, r.IXLan, r.Speed, r.IsRSPeer)
	}
	return nil
}
