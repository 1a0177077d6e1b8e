package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/graph"
	graphio "github.com/matzehuels/nestgraph/pkg/io"
)

// Runner executes one Cypher statement and buffers its result.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error)
}

// Neo4jConfig holds connection settings.
type Neo4jConfig struct {
	URI      string
	User     string
	Password string
	Database string
}

// neo4jExecutor runs statements through the driver's managed transactions.
type neo4jExecutor struct {
	driver neo4j.DriverWithContext
	db     string
}

func (e *neo4jExecutor) Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	res, err := neo4j.ExecuteQuery(ctx, e.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(e.db))
	if err != nil {
		return nil, fmt.Errorf("execute neo4j query: %w", err)
	}
	return res, nil
}

// Neo4jStore keeps every document as a (:Document) node holding the JSON
// snapshot. Each save also projects the document into the graph so it can
// be explored with Cypher:
//
//	(:Document {name})-[:HAS]->(:Entity {id, kind, label, x, y, width, height, collapsed})
//	(:Entity)-[:CONTAINS]->(:Entity)
//	(:Entity)-[:EDGE {id, label, sourcePort, targetPort}]->(:Entity)
//
// Load reads only the snapshot; the projection is derived data.
type Neo4jStore struct {
	runner Runner
	close  func() error
	now    func() time.Time
}

// NewNeo4jStore connects with basic auth and verifies connectivity.
func NewNeo4jStore(ctx context.Context, cfg Neo4jConfig) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "create neo4j driver")
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "connect to neo4j")
	}
	s := NewNeo4jStoreWithRunner(&neo4jExecutor{driver: driver, db: cfg.Database})
	s.close = func() error { return driver.Close(context.Background()) }
	return s, nil
}

// NewNeo4jStoreWithRunner builds a store on an existing runner.
func NewNeo4jStoreWithRunner(r Runner) *Neo4jStore {
	return &Neo4jStore{runner: r, close: func() error { return nil }, now: time.Now}
}

const (
	cypherLoad = `MATCH (d:Document {name: $name}) RETURN d.snapshot AS snapshot`

	cypherClearProjection = `MATCH (:Document {name: $name})-[:HAS]->(e:Entity) DETACH DELETE e`

	cypherSaveSnapshot = `MERGE (d:Document {name: $name})
SET d.snapshot = $snapshot, d.updatedAt = $updatedAt,
    d.nodes = $nodes, d.containers = $containers, d.edges = $edges`

	cypherCreateEntities = `MATCH (d:Document {name: $name})
UNWIND $rows AS r
CREATE (d)-[:HAS]->(:Entity {id: r.id, kind: r.kind, label: r.label,
    x: r.x, y: r.y, width: r.width, height: r.height, collapsed: r.collapsed})`

	cypherCreateContains = `MATCH (d:Document {name: $name})
UNWIND $rows AS r
MATCH (d)-[:HAS]->(p:Entity {id: r.parent}), (d)-[:HAS]->(m:Entity {id: r.member})
CREATE (p)-[:CONTAINS]->(m)`

	cypherCreateEdges = `MATCH (d:Document {name: $name})
UNWIND $rows AS r
MATCH (d)-[:HAS]->(s:Entity {id: r.source}), (d)-[:HAS]->(t:Entity {id: r.target})
CREATE (s)-[:EDGE {id: r.id, label: r.label, sourcePort: r.sourcePort, targetPort: r.targetPort}]->(t)`

	cypherDelete = `MATCH (d:Document {name: $name})
OPTIONAL MATCH (d)-[:HAS]->(e:Entity)
DETACH DELETE e, d`

	cypherList = `MATCH (d:Document)
RETURN d.name AS name, d.updatedAt AS updatedAt,
       d.nodes AS nodes, d.containers AS containers, d.edges AS edges
ORDER BY name`
)

// Load returns the snapshot of the named document.
func (s *Neo4jStore) Load(ctx context.Context, name string) (graph.Document, error) {
	if err := errs.ValidateDocumentName(name); err != nil {
		return graph.Document{}, err
	}
	res, err := s.runner.Run(ctx, cypherLoad, map[string]any{"name": name})
	if err != nil {
		return graph.Document{}, errs.Wrap(errs.ErrCodeNetwork, err, "load %q", name)
	}
	if len(res.Records) == 0 {
		return graph.Document{}, notFound(name)
	}
	snapshot, isNil, err := neo4j.GetRecordValue[string](res.Records[0], "snapshot")
	if err != nil || isNil {
		return graph.Document{}, errs.New(errs.ErrCodeMalformedInput, "document %q has no snapshot", name)
	}
	return decodeSnapshot(name, []byte(snapshot))
}

// Save replaces the snapshot and rebuilds the projection. The snapshot is
// written before the projection, so a failure part way leaves a loadable
// document with a stale projection.
func (s *Neo4jStore) Save(ctx context.Context, name string, doc graph.Document) error {
	if err := errs.ValidateDocumentName(name); err != nil {
		return err
	}
	data, err := graphio.Marshal(doc)
	if err != nil {
		return err
	}
	info := infoOf(name, doc, s.now().UTC())
	steps := []struct {
		query  string
		params map[string]any
	}{
		{cypherSaveSnapshot, map[string]any{
			"name": name, "snapshot": string(data), "updatedAt": info.UpdatedAt,
			"nodes": info.Nodes, "containers": info.Containers, "edges": info.Edges,
		}},
		{cypherClearProjection, map[string]any{"name": name}},
		{cypherCreateEntities, map[string]any{"name": name, "rows": entityRows(doc)}},
		{cypherCreateContains, map[string]any{"name": name, "rows": containsRows(doc)}},
		{cypherCreateEdges, map[string]any{"name": name, "rows": edgeRows(doc)}},
	}
	for _, step := range steps {
		if rows, ok := step.params["rows"].([]map[string]any); ok && len(rows) == 0 {
			continue
		}
		if _, err := s.runner.Run(ctx, step.query, step.params); err != nil {
			return errs.Wrap(errs.ErrCodeNetwork, err, "save %q", name)
		}
	}
	return nil
}

// Delete removes the document and its projection.
func (s *Neo4jStore) Delete(ctx context.Context, name string) error {
	if _, err := s.runner.Run(ctx, cypherDelete, map[string]any{"name": name}); err != nil {
		return errs.Wrap(errs.ErrCodeNetwork, err, "delete %q", name)
	}
	return nil
}

// List reads the summary properties of every document node.
func (s *Neo4jStore) List(ctx context.Context) ([]Info, error) {
	res, err := s.runner.Run(ctx, cypherList, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "list documents")
	}
	out := make([]Info, 0, len(res.Records))
	for _, rec := range res.Records {
		out = append(out, infoFromRecord(rec))
	}
	return out, nil
}

// Close closes the driver.
func (s *Neo4jStore) Close() error { return s.close() }

func infoFromRecord(rec *neo4j.Record) Info {
	var info Info
	if v, ok := rec.Get("name"); ok {
		info.Name, _ = v.(string)
	}
	if v, ok := rec.Get("updatedAt"); ok {
		info.UpdatedAt, _ = v.(time.Time)
	}
	count := func(key string) int {
		v, _ := rec.Get(key)
		switch n := v.(type) {
		case int64:
			return int(n)
		case int:
			return n
		}
		return 0
	}
	info.Nodes = count("nodes")
	info.Containers = count("containers")
	info.Edges = count("edges")
	return info
}

// entityRows flattens nodes and containers into Cypher parameters.
func entityRows(doc graph.Document) []map[string]any {
	rows := make([]map[string]any, 0, len(doc.Nodes)+len(doc.Containers))
	add := func(e graph.Entity) {
		rows = append(rows, map[string]any{
			"id":        e.ID,
			"kind":      string(e.Kind),
			"label":     e.Label,
			"x":         e.Position.X,
			"y":         e.Position.Y,
			"width":     e.Size.Width,
			"height":    e.Size.Height,
			"collapsed": e.Collapsed,
		})
	}
	for _, e := range doc.Containers {
		add(e)
	}
	for _, e := range doc.Nodes {
		add(e)
	}
	return rows
}

// containsRows lists parent/member pairs from the members' parent ids.
func containsRows(doc graph.Document) []map[string]any {
	var rows []map[string]any
	for _, list := range [][]graph.Entity{doc.Containers, doc.Nodes} {
		for _, e := range list {
			if e.ParentID != "" {
				rows = append(rows, map[string]any{"parent": e.ParentID, "member": e.ID})
			}
		}
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows
}

func edgeRows(doc graph.Document) []map[string]any {
	rows := make([]map[string]any, 0, len(doc.Edges))
	for _, e := range doc.Edges {
		rows = append(rows, map[string]any{
			"id":         e.ID,
			"source":     e.SourceID,
			"target":     e.TargetID,
			"label":      e.Label,
			"sourcePort": e.SourcePortID,
			"targetPort": e.TargetPortID,
		})
	}
	return rows
}

var _ Store = (*Neo4jStore)(nil)
