package cmd

import (
	"fmt"
	"log"

	"lockgraphx/internal/config"
	"lockgraphx/internal/detector"
	"lockgraphx/internal/snapshot"

	"github.com/spf13/cobra"
)

var locksCmd = &cobra.Command{
	Use:   "locks [snapshot_file]",
	Short: "List the lock and mutex wait relationships in a snapshot",
	Long: `lockgraphx locks prints every observed wait relationship in a snapshot
as a human-readable line, without building a graph:

  Mutex at 0x00007f3b2c0012a0 held by conn2 (Thread ...) waited on by conn1 (Thread ...)

Useful for a quick look at contention before generating the full digraph.`,
	RunE: runLocks,
}

func runLocks(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadAndMerge(cmd, args)
	if err != nil {
		return err
	}

	snap, err := snapshot.Parse(cfg.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	lines, diags, err := detector.Facts(snap)
	if err != nil {
		return err
	}

	for _, diag := range diags {
		log.Println(diag)
	}

	if len(lines) == 0 {
		fmt.Println("No lock or mutex waits found in the snapshot")
		return nil
	}
	for _, line := range lines {
		fmt.Println(line)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(locksCmd)

	locksCmd.Flags().String("snapshot", "", "Path to a lock state snapshot file (optional, '-' for stdin)")
}
