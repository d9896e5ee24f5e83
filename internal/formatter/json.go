package formatter

import (
	"encoding/json"

	"lockgraphx/internal/graph"
)

// ToJSON converts a graph to its indented JSON representation.
func ToJSON(g *graph.Graph) (string, error) {
	jsonData, err := json.MarshalIndent(Export(g), "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}
