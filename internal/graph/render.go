package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/awalterschulze/gographviz"
)

// DigraphName is the name of the rendered DOT digraph.
const DigraphName = "lock-status"

// Render produces the textual DOT description of the graph, preceded by a
// legend explaining edge semantics and an optional message line. Nodes whose
// key appears in highlight are colored red (the detected cycle). The output
// is deterministic for an unmodified graph and is meant to be fed to an
// external layout tool such as dot(1).
func (g *Graph) Render(highlight map[string]bool, message string) (string, error) {
	var sb strings.Builder
	sb.WriteString("# Legend:\n")
	sb.WriteString("#    Thread 1 -> Lock 1 indicates Thread 1 is waiting on Lock 1\n")
	sb.WriteString("#    Lock 2 -> Thread 2 indicates Lock 2 is held by Thread 2\n")
	if message != "" {
		sb.WriteString("# " + message + "\n")
	}

	name := strconv.Quote(DigraphName)
	dot := gographviz.NewGraph()
	if err := dot.SetName(name); err != nil {
		return "", fmt.Errorf("failed to name digraph: %w", err)
	}
	if err := dot.SetDir(true); err != nil {
		return "", fmt.Errorf("failed to mark digraph as directed: %w", err)
	}

	for _, key := range g.order {
		entry := g.nodes[key]
		attrs := map[string]string{
			"label": strconv.Quote(entry.Node.String()),
		}
		if highlight[key] {
			attrs["color"] = "red"
		}
		if err := dot.AddNode(name, strconv.Quote(key), attrs); err != nil {
			return "", fmt.Errorf("failed to add node %q: %w", key, err)
		}
	}

	for _, key := range g.order {
		for _, next := range g.nodes[key].Next {
			if err := dot.AddEdge(strconv.Quote(key), strconv.Quote(next), true, nil); err != nil {
				return "", fmt.Errorf("failed to add edge %q -> %q: %w", key, next, err)
			}
		}
	}

	sb.WriteString(dot.String())
	return sb.String(), nil
}
