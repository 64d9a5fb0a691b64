package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Flags below are shared persistent state across every subcommand (calculate
// is rootCmd's default action, remote is explicit). Tests flip these
// directly rather than going through cobra's flag parser, so their names
// are part of this package's contract, not just its CLI surface.
var (
	flagPath         string
	flagBranch       string
	flagCommit       string
	flagConfig       string
	flagOutput       string
	flagShowVariable string
	flagShowConfig   bool
	flagExplain      bool
	flagVerbosity    string
)

var rootCmd = &cobra.Command{
	Use:   "verso",
	Short: "Semantic versioning from git history",
	Long:  "verso calculates the next semantic version based on git history, tags, and branch conventions.",
	RunE:  calculateRunE,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&flagPath, "path", "p", ".", "path to the git repository")
	flags.StringVarP(&flagBranch, "branch", "b", "", "target branch (default: current HEAD)")
	flags.StringVarP(&flagCommit, "commit", "c", "", "target commit SHA (default: branch tip)")
	flags.StringVar(&flagConfig, "config", "", "path to config file (default: auto-detect)")
	flags.StringVarP(&flagOutput, "output", "o", "", "output format: json, or empty for key=value lines")
	flags.StringVar(&flagShowVariable, "show-variable", "", "output a single variable (e.g. SemVer, FullSemVer)")
	flags.BoolVar(&flagShowConfig, "show-config", false, "display the effective configuration and exit")
	flags.BoolVar(&flagExplain, "explain", false, "show how the version was calculated")
	flags.StringVarP(&flagVerbosity, "verbosity", "v", "info", "log verbosity: quiet, info, debug")
}

// Execute runs rootCmd, printing any error to stderr and exiting non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
