package graph

import (
	"testing"
)

func thread(id uint64, lwpid int, name string) *ThreadNode {
	return &ThreadNode{ThreadID: id, LWPID: lwpid, Name: name}
}

func lock(addr uint64, kind string) *LockNode {
	return &LockNode{Address: addr, Kind: kind}
}

// twoThreadDeadlock builds the classic ABBA graph: T1 waits on L1 held by
// T2, T2 waits on L2 held by T1.
func twoThreadDeadlock() *Graph {
	g := New()
	t1 := thread(0x1, 1, "conn1")
	t2 := thread(0x2, 2, "conn2")
	l1 := lock(0xaa, "Mutex")
	l2 := lock(0xbb, "Mutex")

	g.AddEdge(t1, l1)
	g.AddEdge(l1, t2)
	g.AddEdge(t2, l2)
	g.AddEdge(l2, t1)
	return g
}

func TestNodeKeys(t *testing.T) {
	tn := thread(0x7f1122334455, 42, "conn1")
	if tn.Key() != "Thread 0x7f1122334455" {
		t.Errorf("Unexpected thread key: %s", tn.Key())
	}
	if tn.String() != "conn1 (Thread 0x7f1122334455 (LWP 42))" {
		t.Errorf("Unexpected thread label: %s", tn.String())
	}

	ln := lock(0xaa, "Mutex")
	if ln.Key() != "Lock 0x0000000000aa" {
		t.Errorf("Unexpected lock key: %s", ln.Key())
	}
	if ln.String() != "Lock 0x0000000000aa (Mutex)" {
		t.Errorf("Unexpected lock label: %s", ln.String())
	}
}

func TestAddNodeIdempotent(t *testing.T) {
	g := New()
	first := thread(0x1, 1, "conn1")
	g.AddNode(first)
	// Same key, different representation: the first one must win
	g.AddNode(thread(0x1, 99, "other"))

	if g.Len() != 1 {
		t.Fatalf("Expected 1 node, got %d", g.Len())
	}
	if entry := g.FindNode(first); entry == nil || entry.Node != Node(first) {
		t.Error("Expected the first registered node to be kept")
	}
}

func TestAddEdgeIdempotent(t *testing.T) {
	g := New()
	t1 := thread(0x1, 1, "conn1")
	l1 := lock(0xaa, "Mutex")

	for i := 0; i < 5; i++ {
		g.AddEdge(t1, l1)
	}

	entry := g.FindNode(t1)
	if entry == nil {
		t.Fatal("Edge source was not registered")
	}
	if len(entry.Next) != 1 {
		t.Errorf("Expected 1 outgoing edge after repeated insertion, got %d", len(entry.Next))
	}
	if g.Len() != 2 {
		t.Errorf("Expected 2 nodes, got %d", g.Len())
	}
}

func TestAddEdgeRegistersEndpoints(t *testing.T) {
	g := New()
	t1 := thread(0x1, 1, "conn1")
	l1 := lock(0xaa, "Mutex")
	g.AddEdge(t1, l1)

	if g.Lookup(t1.Key()) == nil {
		t.Error("Edge source was not lazily registered")
	}
	if g.Lookup(l1.Key()) == nil {
		t.Error("Edge target was not lazily registered")
	}
}

func TestNodeIdentityStability(t *testing.T) {
	g := New()
	// Two facts referencing the same thread id from different call sites
	g.AddEdge(thread(0x1, 1, "conn1"), lock(0xaa, "Mutex"))
	g.AddEdge(lock(0xbb, "Mutex"), thread(0x1, 1, "conn1"))

	if g.Len() != 3 {
		t.Errorf("Expected 3 nodes (thread resolved once), got %d", g.Len())
	}
}

func TestFindIncomingSource(t *testing.T) {
	g := twoThreadDeadlock()

	l1 := g.Lookup("Lock 0x0000000000aa")
	source := g.FindIncomingSource(l1)
	if source == nil {
		t.Fatal("Expected an incoming source for L1")
	}
	if source.Node.Key() != "Thread 0x000000000001" {
		t.Errorf("Expected T1 as incoming source, got %s", source.Node.Key())
	}

	g2 := New()
	g2.AddNode(thread(0x9, 9, "idle"))
	if g2.FindIncomingSource(g2.Lookup("Thread 0x000000000009")) != nil {
		t.Error("Expected no incoming source for an isolated node")
	}
}

func TestPruneIsolated(t *testing.T) {
	g := twoThreadDeadlock()
	// A thread with no wait relationship at all
	g.AddNode(thread(0x9, 9, "idle"))

	if g.Len() != 5 {
		t.Fatalf("Expected 5 nodes before pruning, got %d", g.Len())
	}

	g.PruneIsolated()

	if g.Len() != 4 {
		t.Errorf("Expected 4 nodes after pruning, got %d", g.Len())
	}
	if g.Lookup("Thread 0x000000000009") != nil {
		t.Error("Isolated node survived pruning")
	}
	for _, entry := range g.Entries() {
		if len(entry.Next) == 0 && g.FindIncomingSource(entry) == nil {
			t.Errorf("Node %s has no edges after pruning", entry.Node.Key())
		}
	}
}

func TestPruneKeepsEdgeOnlyPairs(t *testing.T) {
	// A waiter and a holder connected through a lock: all three must survive
	g := New()
	t1 := thread(0x1, 1, "conn1")
	l1 := lock(0xaa, "Mutex")
	holder := thread(0x63, 99, "[unknown]")
	g.AddEdge(t1, l1)
	g.AddEdge(l1, holder)

	g.PruneIsolated()

	if g.Len() != 3 {
		t.Errorf("Expected 3 nodes after pruning, got %d", g.Len())
	}
	if g.Lookup(holder.Key()) == nil {
		t.Error("Holder with only an incoming edge was pruned")
	}
}

func TestDetectCycleAcyclic(t *testing.T) {
	g := New()
	a := thread(0x1, 1, "a")
	b := lock(0xaa, "Mutex")
	c := thread(0x2, 2, "c")
	g.AddEdge(a, b)
	g.AddEdge(b, c)

	if cycle := g.DetectCycle(); cycle != nil {
		t.Errorf("Expected no cycle, got %d nodes", len(cycle))
	}
}

func TestDetectCycleDiamond(t *testing.T) {
	// Two paths converging on the same node is not a cycle; the DFS must
	// backtrack correctly instead of mistaking the shared suffix for one.
	g := New()
	a := thread(0x1, 1, "a")
	b := lock(0xaa, "Mutex")
	c := lock(0xbb, "Mutex")
	d := thread(0x2, 2, "d")
	g.AddEdge(a, b)
	g.AddEdge(a, c)
	g.AddEdge(b, d)
	g.AddEdge(c, d)

	if cycle := g.DetectCycle(); cycle != nil {
		t.Errorf("Expected no cycle in diamond graph, got %d nodes", len(cycle))
	}
}

func TestDetectCycleTwoThreads(t *testing.T) {
	g := twoThreadDeadlock()

	cycle := g.DetectCycle()
	if cycle == nil {
		t.Fatal("Expected a cycle")
	}
	if len(cycle) != 4 {
		t.Fatalf("Expected a 4-node cycle, got %d", len(cycle))
	}

	expected := []string{
		"Thread 0x000000000001",
		"Lock 0x0000000000aa",
		"Thread 0x000000000002",
		"Lock 0x0000000000bb",
	}
	for i, entry := range cycle {
		if entry.Node.Key() != expected[i] {
			t.Errorf("Cycle position %d: expected %s, got %s", i, expected[i], entry.Node.Key())
		}
	}

	assertCycleWellFormed(t, g, cycle)
}

func TestDetectCycleThreeThreads(t *testing.T) {
	g := New()
	t1 := thread(0x1, 1, "conn1")
	t2 := thread(0x2, 2, "conn2")
	t3 := thread(0x3, 3, "conn3")
	l1 := lock(0xaa, "Mutex")
	l2 := lock(0xbb, "Mutex")
	l3 := lock(0xcc, "Mutex")

	g.AddEdge(t1, l1)
	g.AddEdge(l1, t2)
	g.AddEdge(t2, l2)
	g.AddEdge(l2, t3)
	g.AddEdge(t3, l3)
	g.AddEdge(l3, t1)

	cycle := g.DetectCycle()
	if cycle == nil {
		t.Fatal("Expected a cycle")
	}
	if len(cycle) != 6 {
		t.Errorf("Expected a 6-node cycle, got %d", len(cycle))
	}
	assertCycleWellFormed(t, g, cycle)
}

func TestDetectCycleSkipsAcyclicPrefix(t *testing.T) {
	// A chain leading into a cycle: the reported cycle must not include
	// the prefix nodes.
	g := New()
	outside := thread(0x9, 9, "outside")
	t1 := thread(0x1, 1, "conn1")
	t2 := thread(0x2, 2, "conn2")
	l0 := lock(0x99, "Mutex")
	l1 := lock(0xaa, "Mutex")
	l2 := lock(0xbb, "Mutex")

	g.AddEdge(outside, l0)
	g.AddEdge(l0, t1)
	g.AddEdge(t1, l1)
	g.AddEdge(l1, t2)
	g.AddEdge(t2, l2)
	g.AddEdge(l2, t1)

	cycle := g.DetectCycle()
	if cycle == nil {
		t.Fatal("Expected a cycle")
	}
	if len(cycle) != 4 {
		t.Fatalf("Expected a 4-node cycle, got %d", len(cycle))
	}
	for _, entry := range cycle {
		key := entry.Node.Key()
		if key == outside.Key() || key == l0.Key() {
			t.Errorf("Acyclic prefix node %s reported as part of the cycle", key)
		}
	}
	assertCycleWellFormed(t, g, cycle)
}

func TestDetectCycleFromLaterRoot(t *testing.T) {
	// The first nodes explored are acyclic; the cycle is only reachable
	// from a root visited later.
	g := New()
	g.AddEdge(thread(0x8, 8, "a"), lock(0x88, "Mutex"))

	t1 := thread(0x1, 1, "conn1")
	t2 := thread(0x2, 2, "conn2")
	l1 := lock(0xaa, "Mutex")
	l2 := lock(0xbb, "Mutex")
	g.AddEdge(t1, l1)
	g.AddEdge(l1, t2)
	g.AddEdge(t2, l2)
	g.AddEdge(l2, t1)

	cycle := g.DetectCycle()
	if cycle == nil {
		t.Fatal("Expected a cycle")
	}
	if len(cycle) != 4 {
		t.Errorf("Expected a 4-node cycle, got %d", len(cycle))
	}
	assertCycleWellFormed(t, g, cycle)
}

// assertCycleWellFormed checks that consecutive cycle elements, including
// the wrap-around from last to first, are connected by existing edges and
// that no element repeats.
func assertCycleWellFormed(t *testing.T, g *Graph, cycle []*Entry) {
	t.Helper()
	seen := make(map[string]bool)
	for i, entry := range cycle {
		key := entry.Node.Key()
		if seen[key] {
			t.Errorf("Node %s appears more than once in the cycle", key)
		}
		seen[key] = true

		next := cycle[(i+1)%len(cycle)].Node.Key()
		found := false
		for _, n := range g.Lookup(key).Next {
			if n == next {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("No edge from %s to %s in the graph", key, next)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	g := New()
	if !g.IsEmpty() {
		t.Error("New graph should be empty")
	}
	g.AddNode(thread(0x1, 1, "conn1"))
	if g.IsEmpty() {
		t.Error("Graph with a node should not be empty")
	}
	g.PruneIsolated()
	if !g.IsEmpty() {
		t.Error("Graph should be empty after pruning its only isolated node")
	}
}

func TestEntriesInsertionOrder(t *testing.T) {
	g := twoThreadDeadlock()
	expected := []string{
		"Thread 0x000000000001",
		"Lock 0x0000000000aa",
		"Thread 0x000000000002",
		"Lock 0x0000000000bb",
	}
	entries := g.Entries()
	if len(entries) != len(expected) {
		t.Fatalf("Expected %d entries, got %d", len(expected), len(entries))
	}
	for i, entry := range entries {
		if entry.Node.Key() != expected[i] {
			t.Errorf("Entry %d: expected %s, got %s", i, expected[i], entry.Node.Key())
		}
	}
}
