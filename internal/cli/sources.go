package cli

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/graph"
	"github.com/matzehuels/graphview/pkg/source"
)

type graphSource = source.Source[graph.Attrs, graph.Attrs]

// watcher is a source that publishes changes while Watch runs.
type watcher interface {
	Watch(ctx context.Context) error
}

// sourceFlags select where a live command reads its graph from.
type sourceFlags struct {
	watch bool
	mongo source.MongoConfig
}

func addSourceFlags(cmd *cobra.Command, f *sourceFlags) {
	fl := cmd.Flags()
	fl.BoolVarP(&f.watch, "watch", "w", false, "re-layout whenever the graph changes")
	fl.StringVar(&f.mongo.URI, "mongo-uri", os.Getenv(envMongoURI), "read the graph from MongoDB (env "+envMongoURI+")")
	fl.StringVar(&f.mongo.Database, "mongo-db", source.DefaultMongoDatabase, "MongoDB database")
	fl.StringVar(&f.mongo.Collection, "mongo-collection", source.DefaultMongoCollection, "MongoDB collection")
	fl.StringVar(&f.mongo.GraphID, "graph-id", "", "MongoDB graph document _id")
}

// open returns the graph source and, when watching, the function that
// keeps it publishing. MongoDB wins when a URI is configured; otherwise
// args must name a graph file.
func (f *sourceFlags) open(ctx context.Context, cmd *cobra.Command, args []string, cfg fileConfig, logger *log.Logger) (graphSource, func(context.Context) error, error) {
	mc := cfg.Mongo
	for name, dst := range map[string]*string{
		"mongo-uri":        &mc.URI,
		"mongo-db":         &mc.Database,
		"mongo-collection": &mc.Collection,
		"graph-id":         &mc.GraphID,
	} {
		if cmd.Flags().Changed(name) || *dst == "" {
			*dst = cmd.Flags().Lookup(name).Value.String()
		}
	}
	watch := f.watch || cfg.Serve.Watch

	var (
		src graphSource
		w   watcher
	)
	switch {
	case mc.URI != "":
		if mc.GraphID == "" {
			return nil, nil, errors.New(errors.ErrCodeInvalidOption, "--graph-id is required with --mongo-uri")
		}
		m, err := source.NewMongo(ctx, mc, logger)
		if err != nil {
			return nil, nil, err
		}
		src, w = m, m
	case len(args) == 1:
		fs, err := source.NewFile(args[0], logger)
		if err != nil {
			return nil, nil, err
		}
		src, w = fs, fs
	default:
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "a graph file or --mongo-uri is required")
	}

	if !watch {
		return src, nil, nil
	}
	return src, w.Watch, nil
}
