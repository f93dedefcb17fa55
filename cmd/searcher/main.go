// searcher is a local code-search service: a one-shot "search" subcommand
// for scripting and a "serve" subcommand that runs a long-lived HTTP server,
// single-instanced per directory via internal/instance. See internal/search
// for the core engine.
package main

import (
	"fmt"
	"os"

	"github.com/sadikovi/searcher/cmd/searcher/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
