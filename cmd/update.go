package cmd

import (
	"lockgraphx/internal/config"
	"lockgraphx/internal/runner"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update [snapshot_file]",
	Short: "Update a Neo4j database with the waits-for graph",
	Long: `lockgraphx update builds the waits-for graph from a lock state snapshot
and pushes the resulting graph to a Neo4j database.

The graph is stored as nodes (threads and locks) and relationships (WAITS_ON,
HELD_BY) in Neo4j, allowing you to query and visualize the contention state.`,
	RunE: runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadAndMerge(cmd, args)
	if err != nil {
		return err
	}
	cfg.Update = true

	return runner.Run(cfg)
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().String("snapshot", "", "Path to a lock state snapshot file (optional, '-' for stdin)")
	updateCmd.Flags().String("format", "dot", "Output format for the graph (dot, json, cypher)")
	updateCmd.Flags().String("output", "", "Write the rendered graph to this file instead of stdout")
	updateCmd.Flags().String("neo4j-uri", "bolt://localhost:7687", "URI for the Neo4j database")
	updateCmd.Flags().String("neo4j-user", "neo4j", "Username for the Neo4j database")
	updateCmd.Flags().String("neo4j-pass", "", "Password for the Neo4j database")
}
