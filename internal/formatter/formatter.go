package formatter

import (
	"lockgraphx/internal/graph"
)

// Relation names used for the two edge directions of a waits-for graph.
const (
	WaitsOnRelation = "WAITS_ON" // thread -> lock
	HeldByRelation  = "HELD_BY"  // lock -> thread
)

// Node label names used in exported graphs.
const (
	ThreadLabel = "Thread"
	LockLabel   = "Lock"
)

// ExportNode is the serializable view of one graph node.
type ExportNode struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

// ExportEdge is the serializable view of one directed edge.
type ExportEdge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

// ExportGraph is the serializable view of a waits-for graph.
type ExportGraph struct {
	Nodes []ExportNode `json:"nodes"`
	Edges []ExportEdge `json:"edges"`
}

// nodeKind maps a node variant to its exported label name.
func nodeKind(n graph.Node) string {
	switch n.(type) {
	case *graph.ThreadNode:
		return ThreadLabel
	case *graph.LockNode:
		return LockLabel
	default:
		return ""
	}
}

// relationFor picks the relation name from the edge's source variant: a
// thread waits on a lock, a lock is held by a thread.
func relationFor(from graph.Node) string {
	if _, ok := from.(*graph.ThreadNode); ok {
		return WaitsOnRelation
	}
	return HeldByRelation
}

// Export flattens a graph into its serializable view, preserving the
// graph's iteration order.
func Export(g *graph.Graph) *ExportGraph {
	out := &ExportGraph{
		Nodes: make([]ExportNode, 0, g.Len()),
		Edges: make([]ExportEdge, 0),
	}

	for _, entry := range g.Entries() {
		out.Nodes = append(out.Nodes, ExportNode{
			Key:   entry.Node.Key(),
			Label: entry.Node.String(),
			Kind:  nodeKind(entry.Node),
		})
		for _, next := range entry.Next {
			out.Edges = append(out.Edges, ExportEdge{
				From:     entry.Node.Key(),
				To:       next,
				Relation: relationFor(entry.Node),
			})
		}
	}

	return out
}
