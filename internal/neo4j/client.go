package neo4j

import (
	"context"
	"fmt"

	"lockgraphx/internal/formatter"
	"lockgraphx/internal/graph"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Client handles the connection and communication with a Neo4j database.
type Client struct {
	Driver neo4j.DriverWithContext
}

// NewClient creates a new Neo4j client and establishes a connection.
func NewClient(uri, user, pass string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, pass, ""))
	if err != nil {
		return nil, fmt.Errorf("could not create neo4j driver: %w", err)
	}

	return &Client{Driver: driver}, nil
}

// Close gracefully shuts down the driver.
func (c *Client) Close(ctx context.Context) error {
	return c.Driver.Close(ctx)
}

// VerifyConnectivity checks if a connection can be established with the database.
func (c *Client) VerifyConnectivity(ctx context.Context) error {
	return c.Driver.VerifyConnectivity(ctx)
}

// UpdateGraph synchronizes the Neo4j database with the given waits-for
// graph. Nodes from earlier snapshots that no longer appear are removed,
// then the current threads, locks, and wait relationships are upserted.
func (c *Client) UpdateGraph(ctx context.Context, g *graph.Graph) error {
	session := c.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		// Get current state from Neo4j
		existingKeys, err := c.fetchExistingKeys(ctx, tx)
		if err != nil {
			return nil, err
		}

		// Remove nodes left over from previous snapshots
		if err := c.deleteStaleNodes(ctx, tx, existingKeys, g); err != nil {
			return nil, err
		}

		// Upsert current graph state
		return c.upsertGraph(ctx, tx, g)
	})

	if err != nil {
		return fmt.Errorf("failed to update graph: %w", err)
	}

	return nil
}

// fetchExistingKeys retrieves the keys of all thread and lock nodes
// currently in Neo4j.
func (c *Client) fetchExistingKeys(ctx context.Context, tx neo4j.ManagedTransaction) (map[string]bool, error) {
	query := "MATCH (n) WHERE n:Thread OR n:Lock RETURN n.key as key"
	result, err := tx.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing nodes: %w", err)
	}

	existingKeys := make(map[string]bool)
	for result.Next(ctx) {
		record := result.Record()
		if key, ok := record.Get("key"); ok {
			if keyStr, ok := key.(string); ok {
				existingKeys[keyStr] = true
			}
		}
	}

	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate existing nodes: %w", err)
	}

	return existingKeys, nil
}

// deleteStaleNodes removes nodes that exist in Neo4j but not in the new graph.
func (c *Client) deleteStaleNodes(ctx context.Context, tx neo4j.ManagedTransaction, existingKeys map[string]bool, g *graph.Graph) error {
	// Build set of current node keys
	currentKeys := make(map[string]bool, g.Len())
	for _, key := range g.Keys() {
		currentKeys[key] = true
	}

	// Find nodes to delete
	var keysToDelete []string
	for existingKey := range existingKeys {
		if !currentKeys[existingKey] {
			keysToDelete = append(keysToDelete, existingKey)
		}
	}

	// Delete stale nodes and their relationships
	if len(keysToDelete) > 0 {
		query := "UNWIND $staleKeys AS staleKey MATCH (n {key: staleKey}) WHERE n:Thread OR n:Lock DETACH DELETE n"
		params := map[string]interface{}{"staleKeys": keysToDelete}

		if _, err := tx.Run(ctx, query, params); err != nil {
			return fmt.Errorf("failed to delete stale nodes: %w", err)
		}
	}

	return nil
}

// upsertGraph inserts or updates the current graph state in Neo4j.
func (c *Client) upsertGraph(ctx context.Context, tx neo4j.ManagedTransaction, g *graph.Graph) (interface{}, error) {
	query, params := formatter.ToCypherTransaction(g)
	if query == "" {
		return nil, nil
	}
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert graph: %w", err)
	}
	return result.Consume(ctx)
}
