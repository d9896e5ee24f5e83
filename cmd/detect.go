package cmd

import (
	"lockgraphx/internal/config"
	"lockgraphx/internal/runner"

	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect [snapshot_file]",
	Short: "Build the waits-for graph and detect deadlock cycles",
	Long: `lockgraphx detect builds the waits-for graph from a lock state snapshot,
prunes threads and locks with no wait relationship, and reports whether the
remaining graph contains a deadlock cycle.

The snapshot is a JSON document produced by the debugger-side exporter. Pass
its path as an argument, or '-' to read it from stdin.

Examples:
  # Detect deadlocks in a snapshot and print the annotated digraph
  lockgraphx detect snapshot.json

  # Save the digraph to a file for rendering with dot(1)
  lockgraphx detect snapshot.json --output=locks.dot

  # Emit the graph as Cypher statements
  lockgraphx detect snapshot.json --format=cypher

  # Also push the graph to a Neo4j database
  lockgraphx detect snapshot.json --update --neo4j-pass=secret`,
	RunE: runDetect,
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadAndMerge(cmd, args)
	if err != nil {
		return err
	}

	return runner.Run(cfg)
}

func init() {
	rootCmd.AddCommand(detectCmd)
	registerDetectFlags(detectCmd)
}

func registerDetectFlags(cmd *cobra.Command) {
	// Output flags
	cmd.Flags().String("format", "dot", "Output format for the graph (dot, json, cypher)")
	cmd.Flags().String("snapshot", "", "Path to a lock state snapshot file (optional, '-' for stdin)")
	cmd.Flags().String("output", "", "Write the rendered graph to this file instead of stdout")

	// Neo4j integration flags
	cmd.Flags().Bool("update", false, "Update a Neo4j database with the graph")
	cmd.Flags().String("neo4j-uri", "bolt://localhost:7687", "URI for the Neo4j database")
	cmd.Flags().String("neo4j-user", "neo4j", "Username for the Neo4j database")
	cmd.Flags().String("neo4j-pass", "", "Password for the Neo4j database")
}
