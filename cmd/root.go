package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lockgraphx [command]",
	Short: "Diagnose deadlocks from lock state snapshots",
	Long: `lockgraphx is a CLI tool that builds the waits-for graph of a paused
multi-threaded process from a lock state snapshot, detects deadlock cycles,
and renders the graph as DOT, JSON, or Cypher, or pushes it to Neo4j.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
