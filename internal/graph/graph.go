package graph

import "fmt"

// Node is anything that can live in a waits-for graph. Identity is defined
// by Key(), not by pointer equality: two nodes with the same key are the
// same vertex no matter which observation produced them.
type Node interface {
	// Key returns the stable identity of the node, e.g. "Thread 0x0000000000ab".
	Key() string
	// String returns the human-readable label shown in rendered output.
	String() string
}

// ThreadNode represents one execution context of the inspected process.
type ThreadNode struct {
	ThreadID uint64
	LWPID    int
	Name     string
}

// Key returns the thread key derived from the in-process thread id.
func (t *ThreadNode) Key() string {
	return fmt.Sprintf("Thread 0x%012x", t.ThreadID)
}

func (t *ThreadNode) String() string {
	return fmt.Sprintf("%s (Thread 0x%012x (LWP %d))", t.Name, t.ThreadID, t.LWPID)
}

// LockNode represents an exclusive resource (a pthread mutex, a database
// lock, ...) identified by its address in the inspected process.
type LockNode struct {
	Address uint64
	Kind    string
}

// Key returns the lock key derived from the resource address.
func (l *LockNode) Key() string {
	return fmt.Sprintf("Lock 0x%012x", l.Address)
}

func (l *LockNode) String() string {
	return fmt.Sprintf("Lock 0x%012x (%s)", l.Address, l.Kind)
}

// Entry is a registered node together with the keys of its outgoing edges.
type Entry struct {
	Node Node
	// Next holds the keys this node points at, in insertion order and
	// without duplicates.
	Next []string
}

// Graph is a directed graph keyed by node identity. Iteration order is the
// order in which nodes were first registered, which makes rendering
// deterministic for identical input.
type Graph struct {
	nodes map[string]*Entry
	order []string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*Entry)}
}

// IsEmpty reports whether the graph has no nodes.
func (g *Graph) IsEmpty() bool {
	return len(g.nodes) == 0
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// AddNode registers node under its key. If a node with the same key is
// already present the call is a no-op and the first representation wins.
func (g *Graph) AddNode(node Node) {
	key := node.Key()
	if _, ok := g.nodes[key]; ok {
		return
	}
	g.nodes[key] = &Entry{Node: node}
	g.order = append(g.order, key)
}

// FindNode returns the entry registered under node's key, or nil.
func (g *Graph) FindNode(node Node) *Entry {
	return g.nodes[node.Key()]
}

// Lookup returns the entry registered under key, or nil.
func (g *Graph) Lookup(key string) *Entry {
	return g.nodes[key]
}

// AddEdge adds a directed edge from -> to, registering either endpoint
// first if it has not been seen yet. Inserting an edge that already exists
// is a no-op, so the same wait relationship may be reported any number of
// times per pass.
func (g *Graph) AddEdge(from, to Node) {
	g.AddNode(from)
	g.AddNode(to)

	entry := g.nodes[from.Key()]
	toKey := to.Key()
	for _, next := range entry.Next {
		if next == toKey {
			return
		}
	}
	entry.Next = append(entry.Next, toKey)
}

// FindIncomingSource returns some node with an edge pointing at target, or
// nil if target has no incoming edges. The first match in iteration order
// is returned; callers only need existence.
func (g *Graph) FindIncomingSource(target *Entry) *Entry {
	targetKey := target.Node.Key()
	for _, key := range g.order {
		for _, next := range g.nodes[key].Next {
			if next == targetKey {
				return g.nodes[key]
			}
		}
	}
	return nil
}

// PruneIsolated rebuilds the graph without any node that has neither
// outgoing nor incoming edges. Only contended nodes are interesting in a
// deadlock report; everything else is noise.
func (g *Graph) PruneIsolated() {
	nodes := make(map[string]*Entry, len(g.nodes))
	order := make([]string, 0, len(g.order))
	for _, key := range g.order {
		entry := g.nodes[key]
		if len(entry.Next) > 0 || g.FindIncomingSource(entry) != nil {
			nodes[key] = entry
			order = append(order, key)
		}
	}
	g.nodes = nodes
	g.order = order
}

// Keys returns the node keys in insertion order.
func (g *Graph) Keys() []string {
	keys := make([]string, len(g.order))
	copy(keys, g.order)
	return keys
}

// Entries returns the node entries in insertion order.
func (g *Graph) Entries() []*Entry {
	entries := make([]*Entry, 0, len(g.order))
	for _, key := range g.order {
		entries = append(entries, g.nodes[key])
	}
	return entries
}

// DetectCycle returns the nodes of some cycle in the graph, in edge order,
// or nil if the graph is acyclic. One witness is enough to diagnose a
// deadlock, so the search stops at the first cycle found.
func (g *Graph) DetectCycle() []*Entry {
	visited := make(map[string]bool, len(g.nodes))
	var path []string
	for _, key := range g.order {
		if visited[key] {
			continue
		}
		if cycle := g.depthFirstSearch(key, visited, &path); cycle != nil {
			entries := make([]*Entry, len(cycle))
			for i, k := range cycle {
				entries[i] = g.nodes[k]
			}
			return entries
		}
	}
	return nil
}

// depthFirstSearch explores the graph from key. visited holds every node
// that has been fully explored; path holds the ancestors on the current
// root-to-here branch. When an outgoing edge points back into path, the
// suffix of path starting at that node is exactly the cycle.
func (g *Graph) depthFirstSearch(key string, visited map[string]bool, path *[]string) []string {
	visited[key] = true
	*path = append(*path, key)
	for _, next := range g.nodes[key].Next {
		if i := indexOf(*path, next); i >= 0 {
			cycle := make([]string, len(*path)-i)
			copy(cycle, (*path)[i:])
			return cycle
		}
		if !visited[next] {
			if cycle := g.depthFirstSearch(next, visited, path); cycle != nil {
				return cycle
			}
		}
	}
	// Not part of a cycle through this branch; backtrack so the key can
	// appear on a different candidate path.
	*path = (*path)[:len(*path)-1]
	return nil
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}
