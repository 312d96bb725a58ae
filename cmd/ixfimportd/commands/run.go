package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ixfabric/ixfrecon/internal/logger"
	"github.com/ixfabric/ixfrecon/pkg/ixf/importer"
)

var (
	runIXLan     string
	runASN       uint32
	runSave      bool
	runCacheOnly bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconcile one IXLan's feed, or every feed-bearing IXLan",
	Long: `run fetches each configured exchange's IX-F member-export feed and
reconciles it against the local connection registry: consented changes
are applied directly, everything else becomes a dated proposal.

Examples:
  # Reconcile every IXLan that publishes a feed
  ixfimportd run --save

  # Preview decisions for one IXLan without writing anything
  ixfimportd run --ixlan 6c1f0b2e-...-000000000001

  # Scope one run to a single member AS
  ixfimportd run --ixlan 6c1f0b2e-...-000000000001 --asn 64500 --save`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runIXLan, "ixlan", "", "restrict the run to one IXLan id (default: every feed-bearing IXLan)")
	runCmd.Flags().Uint32Var(&runASN, "asn", 0, "restrict the run to one member AS")
	runCmd.Flags().BoolVar(&runSave, "save", false, "write decisions to the database and dispatch notifications (default: dry run)")
	runCmd.Flags().BoolVar(&runCacheOnly, "cache-only", false, "skip the network fetch and use the feed document cached in memory by this process (a new process has none, so each IXLan reports a feed error)")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	eng, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close(ctx)

	opts := importer.RunOptions{ASNFilter: runASN, Save: runSave, CacheOnly: runCacheOnly}
	if !runSave {
		logger.InfoCtx(ctx, "run: dry-run mode — no database, email, or ticket writes")
	}

	if runIXLan == "" {
		results, err := eng.importer.RunAll(ctx, opts)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		for _, r := range results {
			printResult(r)
		}
		return nil
	}

	id, err := uuid.Parse(runIXLan)
	if err != nil {
		return fmt.Errorf("run: invalid --ixlan %q: %w", runIXLan, err)
	}
	res, err := eng.importer.RunIXLan(ctx, id, opts)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	printResult(res)
	return nil
}

func printResult(r *importer.Result) {
	if r.FeedError != nil {
		fmt.Printf("ixlan %s: feed error: %v\n", r.IXLanID, r.FeedError)
		return
	}
	var add, modify, del, noop int
	for _, d := range r.Decisions {
		switch d.Action {
		case "add":
			add++
		case "modify":
			modify++
		case "delete":
			del++
		case "noop":
			noop++
		}
	}
	fmt.Printf("ixlan %s: add=%d modify=%d delete=%d noop=%d proposals=%d resolved=%d\n",
		r.IXLanID, add, modify, del, noop, len(r.Proposals), r.Resolved)
}
