package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/graph"
	graphio "github.com/matzehuels/nestgraph/pkg/io"
)

// MongoCollection is the collection documents are kept in.
const MongoCollection = "documents"

// MongoStore keeps one MongoDB document per diagram, keyed by name. The
// snapshot is stored as JSON text next to summary counts that List reads
// without fetching the snapshot.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoRecord struct {
	Name       string    `bson:"_id"`
	Snapshot   string    `bson:"snapshot,omitempty"`
	Nodes      int       `bson:"nodes"`
	Containers int       `bson:"containers"`
	Edges      int       `bson:"edges"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func newMongoRecord(name string, doc graph.Document, at time.Time) (mongoRecord, error) {
	data, err := graphio.Marshal(doc)
	if err != nil {
		return mongoRecord{}, err
	}
	info := infoOf(name, doc, at)
	return mongoRecord{
		Name:       name,
		Snapshot:   string(data),
		Nodes:      info.Nodes,
		Containers: info.Containers,
		Edges:      info.Edges,
		UpdatedAt:  at.UTC().Truncate(time.Millisecond),
	}, nil
}

func (r mongoRecord) info() Info {
	return Info{Name: r.Name, UpdatedAt: r.UpdatedAt, Nodes: r.Nodes, Containers: r.Containers, Edges: r.Edges}
}

// NewMongoStore connects to uri and uses the given database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "ping mongodb")
	}
	return &MongoStore{client: client, coll: client.Database(database).Collection(MongoCollection)}, nil
}

// Load fetches the named document.
func (s *MongoStore) Load(ctx context.Context, name string) (graph.Document, error) {
	if err := errs.ValidateDocumentName(name); err != nil {
		return graph.Document{}, err
	}
	var rec mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return graph.Document{}, notFound(name)
	}
	if err != nil {
		return graph.Document{}, errs.Wrap(errs.ErrCodeNetwork, err, "load %q", name)
	}
	return decodeSnapshot(name, []byte(rec.Snapshot))
}

// Save upserts the named document.
func (s *MongoStore) Save(ctx context.Context, name string, doc graph.Document) error {
	if err := errs.ValidateDocumentName(name); err != nil {
		return err
	}
	rec, err := newMongoRecord(name, doc, time.Now())
	if err != nil {
		return err
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": name}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return errs.Wrap(errs.ErrCodeNetwork, err, "save %q", name)
	}
	return nil
}

// Delete removes the named document.
func (s *MongoStore) Delete(ctx context.Context, name string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": name}); err != nil {
		return errs.Wrap(errs.ErrCodeNetwork, err, "delete %q", name)
	}
	return nil
}

// List returns the summaries of all documents without their snapshots.
func (s *MongoStore) List(ctx context.Context) ([]Info, error) {
	opts := options.Find().
		SetProjection(bson.M{"snapshot": 0}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "list documents")
	}
	var recs []mongoRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "list documents")
	}
	out := make([]Info, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.info())
	}
	return out, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
