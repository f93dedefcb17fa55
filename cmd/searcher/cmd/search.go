package cmd

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadikovi/searcher/internal/cache"
	"github.com/sadikovi/searcher/internal/search"
)

var (
	searchUseRegex bool
	searchUseCache bool
	searchTimeout  time.Duration
)

var searchCmd = &cobra.Command{
	Use:   "search <dir> <pattern>",
	Short: "Run a single search and print the JSON report to stdout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, pattern := args[0], args[1]

		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()

		orchestrator := search.NewFindOrchestrator()
		orchestrator.Log = log
		if searchUseCache {
			orchestrator.Cache = cache.NewDirCache(5*time.Minute, time.Minute)
		}

		report, err := orchestrator.Find(ctx, search.QueryParams{
			Dir:      dir,
			Pattern:  pattern,
			UseRegex: searchUseRegex,
			UseCache: searchUseCache,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchUseRegex, "regex", false, "interpret pattern as a regular expression")
	searchCmd.Flags().BoolVar(&searchUseCache, "cache", false, "use an in-memory directory cache; it lasts for this invocation only and is not reused by later invocations")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", 30*time.Second, "maximum time to spend searching")
	rootCmd.AddCommand(searchCmd)
}
