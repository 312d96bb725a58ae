// Command ixfimportd is the thin CLI front end for the reconciliation
// engine: it wires configuration, logging, telemetry, the database, the
// mailer, and the ticket client together and drives runs of pkg/ixf/importer.
// It is not a management API or web UI (spec.md §1 keeps both out of the
// core); it exists to exercise the engine end to end.
package main

import (
	"fmt"
	"os"

	"github.com/ixfabric/ixfrecon/cmd/ixfimportd/commands"
)

// version/commit/date are injected at build time via -ldflags, matching
// the teacher's cmd/dittofs/main.go convention.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
