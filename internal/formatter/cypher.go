package formatter

import (
	"bytes"
	"fmt"
	"strings"

	"lockgraphx/internal/graph"
)

// ToCypher converts a graph to a series of idempotent Cypher MERGE
// statements, suitable for pasting into a Neo4j shell.
func ToCypher(g *graph.Graph) (string, error) {
	var sb strings.Builder
	exported := Export(g)

	// Using MERGE to ensure idempotency. It will match existing nodes on 'key' or create them.
	for _, node := range exported.Nodes {
		sb.WriteString(fmt.Sprintf("MERGE (n:%s {key: '%s'})\n", node.Kind, node.Key))
		sb.WriteString(fmt.Sprintf("SET n.label = '%s';\n", escapeSingleQuotes(node.Label)))
	}

	sb.WriteString("\n")

	for _, edge := range exported.Edges {
		cypher := fmt.Sprintf(
			"MATCH (from {key: '%s'}), (to {key: '%s'})\nMERGE (from)-[:%s]->(to);\n",
			edge.From,
			edge.To,
			edge.Relation,
		)
		sb.WriteString(cypher)
	}

	return sb.String(), nil
}

// ToCypherTransaction converts a graph into a single parameterized query.
// This is the recommended approach for Neo4j driver execution as it:
// - Prevents Cypher injection
// - Improves performance through query plan caching
// - Handles special characters automatically
func ToCypherTransaction(g *graph.Graph) (string, map[string]interface{}) {
	var query bytes.Buffer
	params := make(map[string]interface{})
	exported := Export(g)

	var threads, locks []map[string]interface{}
	for _, node := range exported.Nodes {
		data := map[string]interface{}{
			"key":   node.Key,
			"label": node.Label,
		}
		if node.Kind == ThreadLabel {
			threads = append(threads, data)
		} else {
			locks = append(locks, data)
		}
	}

	var waits, holds []map[string]string
	for _, edge := range exported.Edges {
		data := map[string]string{"from": edge.From, "to": edge.To}
		if edge.Relation == WaitsOnRelation {
			waits = append(waits, data)
		} else {
			holds = append(holds, data)
		}
	}

	// Each section is guarded: UNWIND over a missing parameter would
	// short-circuit the whole query.
	if len(threads) > 0 {
		params["threads"] = threads
		query.WriteString("UNWIND $threads AS thread_data\n")
		query.WriteString("MERGE (n:Thread {key: thread_data.key})\n")
		query.WriteString("SET n.label = thread_data.label\n")
	}

	if len(locks) > 0 {
		params["locks"] = locks
		if len(threads) > 0 {
			query.WriteString("WITH *\n")
		}
		query.WriteString("UNWIND $locks AS lock_data\n")
		query.WriteString("MERGE (n:Lock {key: lock_data.key})\n")
		query.WriteString("SET n.label = lock_data.label\n")
	}

	if len(waits) > 0 {
		params["waits"] = waits
		query.WriteString("WITH *\n")
		query.WriteString("UNWIND $waits AS wait_data\n")
		query.WriteString("MATCH (from:Thread {key: wait_data.from})\n")
		query.WriteString("MATCH (to:Lock {key: wait_data.to})\n")
		query.WriteString("MERGE (from)-[:WAITS_ON]->(to)\n")
	}

	if len(holds) > 0 {
		params["holds"] = holds
		query.WriteString("WITH *\n")
		query.WriteString("UNWIND $holds AS hold_data\n")
		query.WriteString("MATCH (from:Lock {key: hold_data.from})\n")
		query.WriteString("MATCH (to:Thread {key: hold_data.to})\n")
		query.WriteString("MERGE (from)-[:HELD_BY]->(to)\n")
	}

	return query.String(), params
}

func escapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
