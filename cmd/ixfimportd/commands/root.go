// Package commands holds the ixfimportd cobra command tree: a root
// command carrying the shared --config flag, plus run and postmortem
// subcommands, in the teacher's cmd/dittofsctl layout (one file per
// command, package-level cobra.Command vars wired up from init()).
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cfgFile string

	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo records build-time version info for the version command.
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

var rootCmd = &cobra.Command{
	Use:   "ixfimportd",
	Short: "IX-F reconciliation engine",
	Long: `ixfimportd reconciles local network-to-exchange connection records
against each exchange's published IX-F member-export feed: it decides
which records to add, modify, or remove, applies what the network has
pre-authorized, and turns everything else into a dated proposal.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default: $XDG_CONFIG_HOME/ixfrecon/config.yaml)")
	rootCmd.AddCommand(runCmd, postmortemCmd, versionCmd)
}

// Execute runs the command tree; main.go's only job is to call this and
// translate a returned error into an exit code.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("ixfimportd %s (commit: %s, built: %s)\n", version, commit, date)
		return nil
	},
}
