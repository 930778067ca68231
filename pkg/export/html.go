package export

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"

	"github.com/factgraph/factgraph/pkg/graph"
)

// Node colors by entity type, matching the dashboard palette.
var typeColors = map[string]string{
	"Person":       "#FF6B6B",
	"Organization": "#4ECDC4",
	"Location":     "#45B7D1",
	"Concept":      "#FFA07A",
	"Product":      "#98D8C8",
	"Date":         "#F7DC6F",
	"Event":        "#BB8FCE",
	"Technology":   "#85C1E2",
	"Other":        "#BDC3C7",
}

const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Knowledge Graph</title>
<script src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
<style>
  body { margin: 0; background: #222222; }
  #graph { width: 100vw; height: 100vh; }
</style>
</head>
<body>
<div id="graph"></div>
<script>
  const nodes = new vis.DataSet({{.Nodes}});
  const edges = new vis.DataSet({{.Edges}});
  const container = document.getElementById("graph");
  const options = {
    physics: {
      enabled: true,
      barnesHut: {
        gravitationalConstant: -30000,
        centralGravity: 0.3,
        springLength: 200,
        springConstant: 0.04,
        damping: 0.09
      },
      stabilization: { enabled: true, iterations: 100 }
    },
    interaction: { hover: true, navigationButtons: true, keyboard: true },
    nodes: { shape: "dot", size: 25, font: { size: 14, color: "white" } },
    edges: { color: { color: "#848484" }, arrows: "to", font: { size: 10, align: "middle" } }
  };
  new vis.Network(container, { nodes: nodes, edges: edges }, options);
</script>
</body>
</html>
`

var htmlTemplate = template.Must(template.New("graph").Parse(htmlPage))

type visNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
	Color string `json:"color"`
}

type visEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

// WriteHTML renders a self-contained interactive force-layout page.
func WriteHTML(data *graph.GraphData, path string) error {
	nodes := make([]visNode, 0, len(data.Nodes))
	for _, n := range data.Nodes {
		color, ok := typeColors[n.Type]
		if !ok {
			color = typeColors["Other"]
		}
		nodes = append(nodes, visNode{
			ID:    n.ID,
			Label: n.Label,
			Title: fmt.Sprintf("%s (%s)", n.Label, n.Type),
			Color: color,
		})
	}
	edges := make([]visEdge, 0, len(data.Edges))
	for _, e := range data.Edges {
		edges = append(edges, visEdge{From: e.Source, To: e.Target, Label: e.Type})
	}

	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("failed to encode nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(edges)
	if err != nil {
		return fmt.Errorf("failed to encode edges: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	return htmlTemplate.Execute(f, map[string]any{
		"Nodes": template.JS(nodesJSON),
		"Edges": template.JS(edgesJSON),
	})
}
