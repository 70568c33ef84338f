package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/logosgraph-export/internal/data/db"
	"github.com/yungbote/logosgraph-export/internal/observability"
	"github.com/yungbote/logosgraph-export/internal/platform/envutil"
	"github.com/yungbote/logosgraph-export/internal/platform/logger"
	"github.com/yungbote/logosgraph-export/internal/platform/neo4jdb"
)

const (
	BackendNeo4j    = "neo4j"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"

	SinkLocal = "local"
	SinkGCS   = "gcs"
)

// DefaultSources is the evidence filter used when EXPORT_SOURCES is unset.
var DefaultSources = []string{"Haydock"}

type Config struct {
	LogMode string
	Backend string
	Sink    string

	OutputDir string
	// Sources nil means every source.
	Sources []string
	TopN    int

	Neo4j          neo4jdb.Config
	DB             db.Config
	Otel           observability.OtelConfig
	PushgatewayURL string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		LogMode:        envutil.String("LOG_MODE", "development"),
		Backend:        strings.ToLower(envutil.String("CORPUS_BACKEND", BackendNeo4j)),
		Sink:           strings.ToLower(envutil.String("EXPORT_SINK", SinkLocal)),
		OutputDir:      envutil.String("EXPORT_OUTPUT_DIR", "data"),
		Sources:        NormalizeSources(envutil.List("EXPORT_SOURCES", DefaultSources)),
		TopN:           envutil.Int("EXPORT_TOP_N", 0),
		Neo4j:          neo4jdb.ConfigFromEnv(),
		Otel:           observability.OtelConfigFromEnv(),
		PushgatewayURL: envutil.String("METRICS_PUSHGATEWAY_URL", ""),
	}
	cfg.DB = db.ConfigFromEnv(db.Dialect(cfg.Backend))
	log.Info("Loaded export config",
		"backend", cfg.Backend,
		"sink", cfg.Sink,
		"output_dir", cfg.OutputDir,
		"sources", cfg.Sources,
		"top_n", cfg.TopN,
	)
	return cfg
}

// NormalizeSources trims blanks; "*" anywhere selects every source.
func NormalizeSources(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "*" {
			return nil
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendNeo4j, BackendSQLite, BackendPostgres:
	default:
		return fmt.Errorf("app: unknown CORPUS_BACKEND %q", c.Backend)
	}
	switch c.Sink {
	case SinkLocal:
		if strings.TrimSpace(c.OutputDir) == "" {
			return fmt.Errorf("app: output directory required for the local sink")
		}
	case SinkGCS:
	default:
		return fmt.Errorf("app: unknown EXPORT_SINK %q", c.Sink)
	}
	if c.TopN < 0 {
		return fmt.Errorf("app: top-n must be >= 0, got %d", c.TopN)
	}
	return nil
}
