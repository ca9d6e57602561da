package source

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/graph"
)

// MongoConfig locates a graph document in MongoDB. The document has the
// shape of graph.Document with the graph ID as _id:
//
//	{_id: "deps", nodes: [{id: "a", data: {...}}], edges: [...]}
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
	GraphID    string `toml:"graph_id"`
}

// Default MongoDB locations.
const (
	DefaultMongoDatabase   = "graphview"
	DefaultMongoCollection = "graphs"
)

// Mongo follows a graph document through a MongoDB change stream. Change
// streams require a replica set or sharded cluster.
type Mongo struct {
	cfg    MongoConfig
	client *mongo.Client
	coll   *mongo.Collection
	logger *log.Logger

	changes chan Snapshot[graph.Attrs, graph.Attrs]
	done    chan struct{}
	once    sync.Once
}

// NewMongo connects to MongoDB and verifies the connection.
func NewMongo(ctx context.Context, cfg MongoConfig, logger *log.Logger) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidOption, "mongo uri is required")
	}
	if cfg.GraphID == "" {
		return nil, errors.New(errors.ErrCodeInvalidOption, "mongo graph id is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultMongoDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultMongoCollection
	}
	if logger == nil {
		logger = log.Default()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOption, err, "connect mongo")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeInvalidOption, err, "ping mongo")
	}

	return &Mongo{
		cfg:     cfg,
		client:  client,
		coll:    client.Database(cfg.Database).Collection(cfg.Collection),
		logger:  logger,
		changes: make(chan Snapshot[graph.Attrs, graph.Attrs], 1),
		done:    make(chan struct{}),
	}, nil
}

// Load implements Source.
func (m *Mongo) Load(ctx context.Context) (Snapshot[graph.Attrs, graph.Attrs], error) {
	var doc graph.Document
	err := m.coll.FindOne(ctx, bson.M{"_id": m.cfg.GraphID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return Snapshot[graph.Attrs, graph.Attrs]{}, errors.New(errors.ErrCodeNotFound, "graph %q not found in %s.%s", m.cfg.GraphID, m.cfg.Database, m.cfg.Collection)
	}
	if err != nil {
		return Snapshot[graph.Attrs, graph.Attrs]{}, err
	}
	return m.snapshot(doc)
}

// Changes implements Source.
func (m *Mongo) Changes() <-chan Snapshot[graph.Attrs, graph.Attrs] { return m.changes }

// changeEvent is the part of a change stream event graphview reads.
type changeEvent struct {
	OperationType string         `bson:"operationType"`
	FullDocument  graph.Document `bson:"fullDocument"`
}

// Watch follows the graph document until ctx ends or the source is
// closed, then closes the changes channel. Invalid versions are skipped
// with a warning; deletions are ignored.
func (m *Mongo) Watch(ctx context.Context) error {
	defer close(m.changes)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-m.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: m.cfg.GraphID}}}},
	}
	stream, err := m.coll.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnsupported, err, "open change stream")
	}
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		var ev changeEvent
		if err := stream.Decode(&ev); err != nil {
			m.logger.Warn("undecodable change event", "err", err)
			continue
		}
		switch ev.OperationType {
		case "insert", "update", "replace":
		default:
			continue
		}
		snap, err := m.snapshot(ev.FullDocument)
		if err != nil {
			m.logger.Warn("ignoring invalid graph version", "graph", m.cfg.GraphID, "err", err)
			continue
		}
		m.logger.Debug("graph changed", "graph", m.cfg.GraphID, "op", ev.OperationType)
		select {
		case m.changes <- snap:
		case <-ctx.Done():
			return nil
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (m *Mongo) snapshot(doc graph.Document) (Snapshot[graph.Attrs, graph.Attrs], error) {
	doc.AssignEdgeIDs()
	if err := graph.Validate(doc.Nodes, doc.Edges); err != nil {
		return Snapshot[graph.Attrs, graph.Attrs]{}, err
	}
	return SnapshotOf(doc), nil
}

// Close stops a running Watch and disconnects.
func (m *Mongo) Close() error {
	var err error
	m.once.Do(func() {
		close(m.done)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = m.client.Disconnect(ctx)
	})
	return err
}
