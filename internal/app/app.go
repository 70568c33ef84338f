package app

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/logosgraph-export/internal/canon"
	"github.com/yungbote/logosgraph-export/internal/crossref"
	"github.com/yungbote/logosgraph-export/internal/data/corpusdb"
	"github.com/yungbote/logosgraph-export/internal/data/db"
	"github.com/yungbote/logosgraph-export/internal/data/graph"
	"github.com/yungbote/logosgraph-export/internal/domain/scripture"
	"github.com/yungbote/logosgraph-export/internal/export"
	"github.com/yungbote/logosgraph-export/internal/observability"
	"github.com/yungbote/logosgraph-export/internal/platform/gcp"
	"github.com/yungbote/logosgraph-export/internal/platform/logger"
	"github.com/yungbote/logosgraph-export/internal/platform/neo4jdb"
	"github.com/yungbote/logosgraph-export/internal/topverses"
)

const metricsJob = "logosgraph_export"

type App struct {
	Log     *logger.Logger
	Cfg     Config
	Corpus  scripture.Corpus
	Sink    export.Sink
	Metrics *observability.Metrics

	closers []func(context.Context) error
}

// New opens the corpus backend and the output sink named by cfg.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{Log: log, Cfg: cfg, Metrics: observability.NewMetrics()}

	shutdown := observability.InitOTel(ctx, log, cfg.Otel)
	a.closers = append(a.closers, shutdown)

	corpus, err := openCorpus(ctx, log, cfg)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.Corpus = corpus
	a.closers = append(a.closers, corpus.Close)

	sink, closeSink, err := openSink(ctx, log, cfg)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.Sink = sink
	if closeSink != nil {
		a.closers = append(a.closers, closeSink)
	}
	return a, nil
}

func openCorpus(ctx context.Context, log *logger.Logger, cfg Config) (scripture.Corpus, error) {
	switch cfg.Backend {
	case BackendNeo4j:
		client, err := neo4jdb.New(ctx, log, cfg.Neo4j)
		if err != nil {
			return nil, scripture.Unavailable("app.open_corpus", err)
		}
		return graph.NewNeo4jCorpus(client, log), nil
	default:
		gdb, err := db.Open(log, cfg.DB)
		if err != nil {
			return nil, scripture.Unavailable("app.open_corpus", err)
		}
		store := corpusdb.New(gdb, log, "")
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, scripture.Unavailable("app.open_corpus", err)
		}
		return store, nil
	}
}

func openSink(ctx context.Context, log *logger.Logger, cfg Config) (export.Sink, func(context.Context) error, error) {
	if cfg.Sink == SinkLocal {
		return export.NewLocalDirSink(cfg.OutputDir, log), nil, nil
	}
	storageCfg, err := gcp.StorageConfigFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("app: storage config: %w", err)
	}
	bucket, err := gcp.NewBucket(ctx, log, storageCfg)
	if err != nil {
		return nil, nil, err
	}
	desc := "gs://" + storageCfg.Bucket
	if storageCfg.Prefix != "" {
		desc += "/" + storageCfg.Prefix
	}
	return export.NewGCSSink(bucket, desc, log), func(context.Context) error { return bucket.Close() }, nil
}

// Export runs one pipeline invocation and pushes its metrics.
func (a *App) Export(ctx context.Context, command string, datasets []export.Dataset) (export.Result, error) {
	p := export.NewPipeline(a.Corpus, canon.Default(), a.Sink, a.Log, export.WithMetrics(a.Metrics))
	res, err := p.Run(ctx, export.Request{
		Datasets: datasets,
		Filter:   crossref.Filter{Sources: a.Cfg.Sources},
		TopN:     topverses.Options{TopNPerBook: a.Cfg.TopN},
	})
	a.Metrics.Run(command, err, time.Now().Unix())
	if perr := a.Metrics.Push(ctx, a.Cfg.PushgatewayURL, metricsJob, res.Stamp.RunID); perr != nil {
		a.Log.Warn("Metrics push failed", "error", perr)
	}
	return res, err
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	a.Log.Sync()
	return first
}
