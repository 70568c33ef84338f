package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/logosgraph-export/internal/app"
	"github.com/yungbote/logosgraph-export/internal/export"
	"github.com/yungbote/logosgraph-export/internal/platform/logger"
)

type flags struct {
	sources    []string
	allSources bool
	topN       int
	out        string
	backend    string
	sink       string
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "export",
		Short: "Export LogosGraph positions and cross-references as JSON datasets",
		Long: `Reads verses and cross-reference edges from the corpus, lays every verse
out on one axis in canonical book order, and writes the books, crossrefs and
top-verses datasets. Without a subcommand every dataset is written.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, f, "all", export.AllDatasets())
		},
	}

	pf := root.PersistentFlags()
	pf.StringArrayVar(&f.sources, "source", nil, "Evidence source to keep (repeatable; default from EXPORT_SOURCES or Haydock)")
	pf.BoolVar(&f.allSources, "all-sources", false, "Keep cross-references from every source")
	pf.IntVar(&f.topN, "top-n", 0, "Source verses kept per book in top-verses (0 keeps all)")
	pf.StringVar(&f.out, "out", "", "Output directory for the local sink")
	pf.StringVar(&f.backend, "backend", "", "Corpus backend: neo4j, sqlite or postgres")
	pf.StringVar(&f.sink, "sink", "", "Output sink: local or gcs")

	for _, sub := range []struct {
		use, short string
		datasets   []export.Dataset
	}{
		{"books", "Write books.json", []export.Dataset{export.DatasetBooks}},
		{"crossrefs", "Write crossrefs-ot-to-nt.json and crossrefs-nt-to-ot.json", []export.Dataset{export.DatasetCrossrefs}},
		{"top-verses", "Write top-verses.json", []export.Dataset{export.DatasetTopVerses}},
		{"all", "Write every dataset", export.AllDatasets()},
	} {
		root.AddCommand(&cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runExport(cmd, f, sub.use, sub.datasets)
			},
		})
	}
	return root
}

// applyFlags overrides env config with flags the user actually set.
func applyFlags(cmd *cobra.Command, f *flags, cfg app.Config) (app.Config, error) {
	changed := cmd.Flags().Changed
	if changed("all-sources") && changed("source") {
		return cfg, fmt.Errorf("--source and --all-sources are mutually exclusive")
	}
	if changed("source") {
		cfg.Sources = app.NormalizeSources(f.sources)
	}
	if changed("all-sources") && f.allSources {
		cfg.Sources = nil
	}
	if changed("top-n") {
		cfg.TopN = f.topN
	}
	if changed("out") {
		cfg.OutputDir = f.out
	}
	if changed("backend") {
		cfg.Backend = strings.ToLower(strings.TrimSpace(f.backend))
		cfg.DB.Dialect = dialectFor(cfg.Backend, cfg.DB.Dialect)
	}
	if changed("sink") {
		cfg.Sink = strings.ToLower(strings.TrimSpace(f.sink))
	}
	return cfg, cfg.Validate()
}

func runExport(cmd *cobra.Command, f *flags, command string, datasets []export.Dataset) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, err := logger.New(envLogMode())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	cfg, err := applyFlags(cmd, f, app.LoadConfig(log))
	if err != nil {
		log.Sync()
		return err
	}

	a, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return err
	}
	defer func() {
		if cerr := a.Close(context.Background()); cerr != nil {
			log.Warn("Shutdown error", "error", cerr)
		}
	}()

	res, err := a.Export(ctx, command, datasets)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run %s wrote %d file(s) to %s\n", res.Stamp.RunID, len(res.Files), a.Sink.Describe())
	return nil
}
