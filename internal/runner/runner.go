package runner

import (
	"context"
	"fmt"
	"log"
	"os"

	"lockgraphx/internal/config"
	"lockgraphx/internal/detector"
	"lockgraphx/internal/formatter"
	"lockgraphx/internal/neo4j"
	"lockgraphx/internal/snapshot"
)

// Run executes one full detection pass: read the snapshot, build and prune
// the waits-for graph, detect a cycle, and emit the report in the
// configured format. Every pass ends in exactly one of three ways: a full
// report, the explicit empty-graph notice, or an error describing why the
// pass was aborted.
func Run(cfg *config.Config) error {
	// Validate Neo4j configuration early so a push does not fail after the work is done
	if cfg.Update {
		if err := validateNeo4jConfig(&cfg.Neo4j); err != nil {
			return err
		}
	}

	log.Println("Reading lock snapshot...")
	snap, err := snapshot.Parse(cfg.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	log.Println("Building waits-for graph...")
	report, err := detector.Detect(snap)
	if err != nil {
		return fmt.Errorf("detection pass aborted: %w", err)
	}

	for _, diag := range report.Diagnostics {
		log.Println(diag)
	}

	if report.Empty {
		fmt.Println("Not generating the digraph, since the lock graph is empty")
		return nil
	}

	out, err := formatReport(report, cfg.Format)
	if err != nil {
		return err
	}

	if cfg.Output != "" {
		log.Printf("Saving digraph to %s", cfg.Output)
		if err := os.WriteFile(cfg.Output, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Println(report.Summary)
	} else {
		fmt.Println(out)
	}

	if cfg.Update {
		return updateNeo4jDatabase(report, &cfg.Neo4j)
	}

	return nil
}

// formatReport renders the report in the requested output format.
func formatReport(report *detector.Report, format string) (string, error) {
	switch format {
	case "", config.FormatDOT:
		return report.Graph.Render(report.CycleKeys(), report.Summary)
	case config.FormatJSON:
		return formatter.ToJSON(report.Graph)
	case config.FormatCypher:
		return formatter.ToCypher(report.Graph)
	default:
		return "", fmt.Errorf("unknown output format %q (expected dot, json, or cypher)", format)
	}
}

func updateNeo4jDatabase(report *detector.Report, neo4jCfg *config.Neo4jConfig) error {
	log.Printf("Connecting to Neo4j at %s...", neo4jCfg.URI)
	ctx := context.Background()

	client, err := neo4j.NewClient(neo4jCfg.URI, neo4jCfg.User, neo4jCfg.Password)
	if err != nil {
		return fmt.Errorf("failed to create neo4j client: %w", err)
	}
	defer client.Close(ctx)

	if err := client.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("failed to connect to neo4j: %w", err)
	}

	log.Println("Updating Neo4j database...")
	if err := client.UpdateGraph(ctx, report.Graph); err != nil {
		return fmt.Errorf("failed to update neo4j graph: %w", err)
	}

	log.Println("Successfully updated Neo4j database.")
	return nil
}

func validateNeo4jConfig(cfg *config.Neo4jConfig) error {
	if cfg.URI == "" || cfg.User == "" || cfg.Password == "" {
		return fmt.Errorf("neo4j-uri, neo4j-user, and neo4j-pass are required when pushing to Neo4j. Please configure them in .lockgraphx.yaml or pass them as flags")
	}
	return nil
}
