package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/logosgraph-export/internal/platform/envutil"
	"github.com/yungbote/logosgraph-export/internal/platform/logger"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type Config struct {
	Dialect    Dialect
	SQLitePath string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresName     string

	// Silent turns off gorm's own query log.
	Silent bool
}

func ConfigFromEnv(dialect Dialect) Config {
	return Config{
		Dialect:          dialect,
		SQLitePath:       envutil.String("CORPUS_SQLITE_PATH", "logosgraph.db"),
		PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
		PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
		PostgresUser:     envutil.String("POSTGRES_USER", "postgres"),
		PostgresPassword: envutil.String("POSTGRES_PASSWORD", ""),
		PostgresName:     envutil.String("POSTGRES_NAME", "logosgraph"),
	}
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresName,
	)
}

func Open(logg *logger.Logger, cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch Dialect(strings.ToLower(string(cfg.Dialect))) {
	case DialectSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return nil, fmt.Errorf("db: sqlite path required")
		}
		dialector = sqlite.Open(cfg.SQLitePath)
	case DialectPostgres:
		dialector = postgres.Open(cfg.PostgresDSN())
	default:
		return nil, fmt.Errorf("db: unsupported dialect %q", cfg.Dialect)
	}

	level := gormLogger.Warn
	if cfg.Silent {
		level = gormLogger.Silent
	}
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gdb, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect %s: %w", cfg.Dialect, err)
	}
	if logg != nil {
		logg.With("service", "CorpusDB").Info("Connected to corpus database", "dialect", cfg.Dialect)
	}
	return gdb, nil
}
