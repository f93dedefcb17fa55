// Package cmd wires the searcher binary's cobra commands onto
// internal/search, internal/httpapi and internal/instance.
package cmd

import (
	"github.com/inconshreveable/log15"
	"github.com/spf13/cobra"

	"github.com/sadikovi/searcher/internal/envconfig"
)

var log = log15.New("cmd", "searcher")

var rootCmd = &cobra.Command{
	Use:   "searcher",
	Short: "Search a directory tree for a filename or content pattern",
	Long: `searcher walks a directory tree in parallel, matching file names and
file contents against a literal or regular-expression pattern.

Use "searcher search" for a one-shot query, or "searcher serve" to run a
long-lived HTTP server other tools can query repeatedly without paying the
walk's startup cost on every call.`,
}

// Execute runs the root command.
func Execute() error {
	envconfig.Lock()
	envconfig.HandleHelpFlag()
	return rootCmd.Execute()
}
