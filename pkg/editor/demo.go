package editor

import (
	"github.com/matzehuels/nestgraph/pkg/geometry"
	"github.com/matzehuels/nestgraph/pkg/graph"
)

// DemoDocument returns a small sample diagram: a backend container holding
// a nested database container, a frontend container, and edges crossing
// between them, some of them through ports.
func DemoDocument() graph.Document {
	s := graph.New()
	at := func(x, y float64) geometry.Vec2 { return geometry.Vec2{X: x, Y: y} }
	box := func(w, h float64) geometry.Size { return geometry.Size{Width: w, Height: h} }

	containers := []graph.Entity{
		{ID: "backend", Label: "Backend", Position: at(40, 40), Size: box(520, 360)},
		{ID: "db", Label: "Storage", Position: at(300, 100), Size: box(220, 240), ParentID: "backend"},
		{ID: "frontend", Label: "Frontend", Position: at(640, 40), Size: box(240, 240)},
	}
	nodes := []graph.Entity{
		{ID: "api", Label: "API", Position: at(80, 120), ParentID: "backend",
			Ports: []graph.Port{{ID: "http", Label: "http"}, {ID: "sql", Label: "sql"}}},
		{ID: "worker", Label: "Worker", Position: at(80, 260), ParentID: "backend"},
		{ID: "postgres", Label: "Postgres", Position: at(340, 160), ParentID: "db",
			Ports: []graph.Port{{ID: "in", Label: "in"}}},
		{ID: "redis", Label: "Redis", Position: at(340, 250), ParentID: "db"},
		{ID: "web", Label: "Web", Position: at(680, 100), ParentID: "frontend"},
		{ID: "cdn", Label: "CDN", Position: at(680, 180), ParentID: "frontend"},
	}
	edges := []graph.Edge{
		{ID: "e-web-api", SourceID: "web", TargetID: "api", TargetPortID: "http", Label: "REST"},
		{ID: "e-api-pg", SourceID: "api", SourcePortID: "sql", TargetID: "postgres", TargetPortID: "in"},
		{ID: "e-worker-redis", SourceID: "worker", TargetID: "redis", Label: "jobs"},
		{ID: "e-worker-pg", SourceID: "worker", TargetID: "postgres"},
		{ID: "e-cdn-web", SourceID: "cdn", TargetID: "web"},
	}

	for _, c := range containers {
		must(s.AddContainer(c))
	}
	for _, n := range nodes {
		must(s.AddNode(n))
	}
	for _, e := range edges {
		must(s.AddEdge(e))
	}
	return s.ExportState()
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
