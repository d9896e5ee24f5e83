package formatter

import (
	"encoding/json"
	"strings"
	"testing"

	"lockgraphx/internal/graph"
)

// testGraph models T1 waiting on L1, which is held by T2.
func testGraph() *graph.Graph {
	g := graph.New()
	t1 := &graph.ThreadNode{ThreadID: 0x1, LWPID: 1, Name: "conn1"}
	t2 := &graph.ThreadNode{ThreadID: 0x2, LWPID: 2, Name: "conn2"}
	l1 := &graph.LockNode{Address: 0xaa, Kind: "Mutex"}
	g.AddEdge(t1, l1)
	g.AddEdge(l1, t2)
	return g
}

func TestExport(t *testing.T) {
	exported := Export(testGraph())

	if len(exported.Nodes) != 3 {
		t.Fatalf("Expected 3 nodes, got %d", len(exported.Nodes))
	}
	if len(exported.Edges) != 2 {
		t.Fatalf("Expected 2 edges, got %d", len(exported.Edges))
	}

	if exported.Nodes[0].Kind != ThreadLabel {
		t.Errorf("Expected first node to be a Thread, got %q", exported.Nodes[0].Kind)
	}
	if exported.Nodes[1].Kind != LockLabel {
		t.Errorf("Expected second node to be a Lock, got %q", exported.Nodes[1].Kind)
	}

	// Edge relation follows the source variant
	if exported.Edges[0].Relation != WaitsOnRelation {
		t.Errorf("Thread -> lock edge should be %s, got %s", WaitsOnRelation, exported.Edges[0].Relation)
	}
	if exported.Edges[1].Relation != HeldByRelation {
		t.Errorf("Lock -> thread edge should be %s, got %s", HeldByRelation, exported.Edges[1].Relation)
	}
}

func TestToJSON(t *testing.T) {
	out, err := ToJSON(testGraph())
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	var decoded ExportGraph
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("ToJSON produced invalid JSON: %v", err)
	}
	if len(decoded.Nodes) != 3 || len(decoded.Edges) != 2 {
		t.Errorf("Expected 3 nodes and 2 edges, got %d and %d", len(decoded.Nodes), len(decoded.Edges))
	}
	if decoded.Nodes[0].Key != "Thread 0x000000000001" {
		t.Errorf("Unexpected first node key: %s", decoded.Nodes[0].Key)
	}
}

func TestToCypher(t *testing.T) {
	out, err := ToCypher(testGraph())
	if err != nil {
		t.Fatalf("ToCypher failed: %v", err)
	}

	if !strings.Contains(out, "MERGE (n:Thread {key: 'Thread 0x000000000001'})") {
		t.Error("Cypher output missing thread MERGE")
	}
	if !strings.Contains(out, "MERGE (n:Lock {key: 'Lock 0x0000000000aa'})") {
		t.Error("Cypher output missing lock MERGE")
	}
	if !strings.Contains(out, "MERGE (from)-[:WAITS_ON]->(to)") {
		t.Error("Cypher output missing WAITS_ON relationship")
	}
	if !strings.Contains(out, "MERGE (from)-[:HELD_BY]->(to)") {
		t.Error("Cypher output missing HELD_BY relationship")
	}
}

func TestToCypherTransaction(t *testing.T) {
	query, params := ToCypherTransaction(testGraph())

	// Check the query string
	if !strings.Contains(query, "UNWIND $threads AS thread_data") {
		t.Error("Transactional cypher query missing 'UNWIND $threads'")
	}
	if !strings.Contains(query, "UNWIND $locks AS lock_data") {
		t.Error("Transactional cypher query missing 'UNWIND $locks'")
	}
	if !strings.Contains(query, "UNWIND $waits AS wait_data") {
		t.Error("Transactional cypher query missing 'UNWIND $waits'")
	}
	if !strings.Contains(query, "UNWIND $holds AS hold_data") {
		t.Error("Transactional cypher query missing 'UNWIND $holds'")
	}

	// Check the parameters
	threads, _ := params["threads"].([]map[string]interface{})
	if len(threads) != 2 {
		t.Errorf("Expected 2 threads in params, got %d", len(threads))
	}
	locks, _ := params["locks"].([]map[string]interface{})
	if len(locks) != 1 {
		t.Errorf("Expected 1 lock in params, got %d", len(locks))
	}
	waits, _ := params["waits"].([]map[string]string)
	if len(waits) != 1 {
		t.Errorf("Expected 1 wait edge in params, got %d", len(waits))
	}
	holds, _ := params["holds"].([]map[string]string)
	if len(holds) != 1 {
		t.Errorf("Expected 1 hold edge in params, got %d", len(holds))
	}
}

func TestToCypherTransactionEmptyGraph(t *testing.T) {
	query, params := ToCypherTransaction(graph.New())

	if query != "" {
		t.Errorf("Expected empty query for empty graph, got %q", query)
	}
	if len(params) != 0 {
		t.Errorf("Expected no params for empty graph, got %v", params)
	}
}
