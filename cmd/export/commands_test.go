package main

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/yungbote/logosgraph-export/internal/app"
	"github.com/yungbote/logosgraph-export/internal/data/db"
)

func parsed(t *testing.T, args ...string) (*cobra.Command, *flags) {
	t.Helper()
	f := &flags{}
	cmd := &cobra.Command{Use: "test"}
	pf := cmd.Flags()
	pf.StringArrayVar(&f.sources, "source", nil, "")
	pf.BoolVar(&f.allSources, "all-sources", false, "")
	pf.IntVar(&f.topN, "top-n", 0, "")
	pf.StringVar(&f.out, "out", "", "")
	pf.StringVar(&f.backend, "backend", "", "")
	pf.StringVar(&f.sink, "sink", "", "")
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	return cmd, f
}

func baseConfig() app.Config {
	return app.Config{
		Backend:   app.BackendNeo4j,
		Sink:      app.SinkLocal,
		OutputDir: "data",
		Sources:   []string{"Haydock"},
		TopN:      10,
	}
}

func TestApplyFlagsOverrides(t *testing.T) {
	cmd, f := parsed(t, "--source", "TSK", "--source", "Haydock", "--top-n", "3", "--out", "/tmp/x", "--backend", "sqlite")
	cfg, err := applyFlags(cmd, f, baseConfig())
	if err != nil {
		t.Fatalf("applyFlags: %v", err)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[0] != "TSK" {
		t.Fatalf("sources: %v", cfg.Sources)
	}
	if cfg.TopN != 3 || cfg.OutputDir != "/tmp/x" {
		t.Fatalf("config: %+v", cfg)
	}
	if cfg.Backend != app.BackendSQLite || cfg.DB.Dialect != db.DialectSQLite {
		t.Fatalf("backend: %q dialect: %q", cfg.Backend, cfg.DB.Dialect)
	}
}

func TestApplyFlagsNormalizesCase(t *testing.T) {
	cmd, f := parsed(t, "--backend", " SQLite ", "--sink", "LOCAL")
	cfg, err := applyFlags(cmd, f, baseConfig())
	if err != nil {
		t.Fatalf("applyFlags: %v", err)
	}
	if cfg.Backend != app.BackendSQLite || cfg.DB.Dialect != db.DialectSQLite {
		t.Fatalf("backend: want=%q got=%q dialect=%q", app.BackendSQLite, cfg.Backend, cfg.DB.Dialect)
	}
	if cfg.Sink != app.SinkLocal {
		t.Fatalf("sink: want=%q got=%q", app.SinkLocal, cfg.Sink)
	}
}

func TestApplyFlagsKeepsEnvWhenUnset(t *testing.T) {
	cmd, f := parsed(t)
	cfg, err := applyFlags(cmd, f, baseConfig())
	if err != nil {
		t.Fatalf("applyFlags: %v", err)
	}
	if cfg.TopN != 10 || len(cfg.Sources) != 1 {
		t.Fatalf("config changed without flags: %+v", cfg)
	}
}

func TestApplyFlagsAllSources(t *testing.T) {
	cmd, f := parsed(t, "--all-sources")
	cfg, err := applyFlags(cmd, f, baseConfig())
	if err != nil {
		t.Fatalf("applyFlags: %v", err)
	}
	if cfg.Sources != nil {
		t.Fatalf("sources: want nil got %v", cfg.Sources)
	}

	cmd, f = parsed(t, "--all-sources", "--source", "TSK")
	if _, err := applyFlags(cmd, f, baseConfig()); err == nil {
		t.Fatalf("conflicting flags: expected error")
	}
}

func TestApplyFlagsValidates(t *testing.T) {
	cmd, f := parsed(t, "--sink", "ftp")
	if _, err := applyFlags(cmd, f, baseConfig()); err == nil {
		t.Fatalf("bad sink: expected error")
	}
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"books", "crossrefs", "top-verses", "all"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("subcommand %s: cmd=%v err=%v", name, cmd, err)
		}
	}
	if root.PersistentFlags().Lookup("source") == nil || root.PersistentFlags().Lookup("top-n") == nil {
		t.Fatalf("persistent flags missing")
	}
}
