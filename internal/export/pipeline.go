// Package export runs one export invocation end to end: snapshot the
// corpus, position every verse, aggregate cross-references and publish the
// requested datasets through a Sink.
package export

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/logosgraph-export/internal/canon"
	"github.com/yungbote/logosgraph-export/internal/crossref"
	"github.com/yungbote/logosgraph-export/internal/domain/scripture"
	"github.com/yungbote/logosgraph-export/internal/observability"
	"github.com/yungbote/logosgraph-export/internal/platform/logger"
	"github.com/yungbote/logosgraph-export/internal/positions"
	"github.com/yungbote/logosgraph-export/internal/topverses"
)

type Dataset string

const (
	DatasetBooks     Dataset = "books"
	DatasetCrossrefs Dataset = "crossrefs"
	DatasetTopVerses Dataset = "top-verses"
)

func AllDatasets() []Dataset {
	return []Dataset{DatasetBooks, DatasetCrossrefs, DatasetTopVerses}
}

func ParseDataset(raw string) (Dataset, error) {
	switch d := Dataset(strings.ToLower(strings.TrimSpace(raw))); d {
	case DatasetBooks, DatasetCrossrefs, DatasetTopVerses:
		return d, nil
	default:
		return "", fmt.Errorf("export: unknown dataset %q", raw)
	}
}

type Request struct {
	Datasets []Dataset
	Filter   crossref.Filter
	TopN     topverses.Options
}

func (r Request) wants(d Dataset) bool {
	for _, x := range r.Datasets {
		if x == d {
			return true
		}
	}
	return false
}

// Result summarizes a finished run.
type Result struct {
	Stamp     Stamp
	Files     []string
	Index     positions.IndexReport
	Crossrefs crossref.Report
	Expand    topverses.ExpandReport
}

type Pipeline struct {
	corpus  scripture.Corpus
	canon   *canon.Index
	sink    Sink
	log     *logger.Logger
	metrics *observability.Metrics

	now   func() time.Time
	runID func() string
}

type Option func(*Pipeline)

func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

func WithRunID(f func() string) Option { return func(p *Pipeline) { p.runID = f } }

func WithMetrics(m *observability.Metrics) Option { return func(p *Pipeline) { p.metrics = m } }

func NewPipeline(corpus scripture.Corpus, idx *canon.Index, sink Sink, log *logger.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	p := &Pipeline{
		corpus:  corpus,
		canon:   idx,
		sink:    sink,
		log:     log.With("component", "ExportPipeline"),
		metrics: observability.NewMetrics(),
		now:     time.Now,
		runID:   func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Pipeline) Metrics() *observability.Metrics { return p.metrics }

// Run builds every requested dataset in memory before handing them to the
// sink in a single call. Any error aborts the run with nothing published.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if len(req.Datasets) == 0 {
		req.Datasets = AllDatasets()
	}
	res := Result{Stamp: Stamp{Generated: p.now(), RunID: p.runID()}}
	log := p.log.With("run_id", res.Stamp.RunID)

	ctx, span := observability.StartSpan(ctx, "export.run",
		attribute.String("run_id", res.Stamp.RunID),
		attribute.String("source", req.Filter.Label()),
	)
	defer span.End()

	files, err := p.build(ctx, log, req, &res)
	if err == nil {
		err = p.stage(ctx, "publish", func(ctx context.Context) error {
			return p.sink.WriteAll(ctx, files)
		})
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("Export aborted", "error", err)
		return res, err
	}

	for _, f := range files {
		res.Files = append(res.Files, f.Name)
		p.metrics.Dataset(f.Name, f.Records, len(f.Data))
	}
	log.Info("Export complete", "files", res.Files, "destination", p.sink.Describe(), "corpus", p.corpus.Label())
	return res, nil
}

func (p *Pipeline) build(ctx context.Context, log *logger.Logger, req Request, res *Result) ([]File, error) {
	var snap *scripture.Snapshot
	err := p.stage(ctx, "snapshot", func(ctx context.Context) error {
		var err error
		snap, err = p.corpus.Snapshot(ctx, req.Filter.Sources)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info("Snapshot loaded", "books", len(snap.VerseCounts), "verses", len(snap.Verses), "edges", len(snap.Edges))

	var (
		layout *positions.Layout
		vi     *positions.VerseIndex
	)
	err = p.stage(ctx, "positions", func(ctx context.Context) error {
		layout = positions.CalculateBookPositions(p.canon, snap.VerseCounts)
		var err error
		vi, res.Index, err = positions.IndexVerses(p.canon, layout, snap.Verses)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(layout.UnmappedBooks) > 0 {
		log.Warn("Books outside the canonical order", "books", layout.UnmappedBooks, "skipped_verses", res.Index.Skipped)
	}
	p.metrics.VersesSkipped(res.Index.Skipped)
	log.Info("Positions assigned", "total", layout.Total, "indexed", res.Index.Indexed)

	var files []File
	if req.wants(DatasetBooks) {
		books := BuildBooks(p.canon, layout, p.corpus.Label(), res.Stamp)
		f, err := encode(FileBooks, books, len(books.Books))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if !req.wants(DatasetCrossrefs) && !req.wants(DatasetTopVerses) {
		return files, nil
	}

	var buckets crossref.Buckets
	err = p.stage(ctx, "classify", func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		buckets, res.Crossrefs = crossref.Classify(p.canon, vi, snap.Edges, req.Filter)
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.metrics.EdgesSeen(res.Crossrefs.Total)
	p.metrics.EdgesDropped("filtered", res.Crossrefs.FilteredOut)
	p.metrics.EdgesDropped("unresolved", res.Crossrefs.Unresolved)
	p.metrics.EdgesDropped("same_testament", res.Crossrefs.SameTestament)
	log.Info("Cross-references classified",
		"source", req.Filter.Label(),
		"total", res.Crossrefs.Total,
		"ot_to_nt", len(buckets.OTToNT),
		"nt_to_ot", len(buckets.NTToOT),
		"filtered_out", res.Crossrefs.FilteredOut,
		"unresolved", res.Crossrefs.Unresolved,
		"same_testament", res.Crossrefs.SameTestament,
	)

	if req.wants(DatasetCrossrefs) {
		for _, d := range []crossref.Direction{crossref.OTToNT, crossref.NTToOT} {
			ds := BuildCrossrefs(buckets, d, req.Filter, res.Stamp)
			f, err := encode(CrossrefFile(d), ds, ds.Metadata.Count)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
	}

	if req.wants(DatasetTopVerses) {
		ranked := map[crossref.Direction]topverses.Ranked{}
		err := p.stage(ctx, "top_verses", func(ctx context.Context) error {
			expander := topverses.NewExpander(p.corpus, vi, log)
			for _, d := range []crossref.Direction{crossref.OTToNT, crossref.NTToOT} {
				r := topverses.Rank(buckets.Get(d), req.TopN)
				rep, err := expander.Expand(ctx, r)
				if err != nil {
					return err
				}
				res.Expand.Groups += rep.Groups
				res.Expand.Fetched += rep.Fetched
				res.Expand.Empty += rep.Empty
				ranked[d] = r
				logLeaders(log, d, r)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		p.metrics.Groups(res.Expand.Fetched, res.Expand.Empty)
		ds := BuildTopVerses(ranked[crossref.OTToNT], ranked[crossref.NTToOT], req.Filter, req.TopN, res.Stamp)
		f, err := encode(FileTopVerses, ds, ds.OTToNT.Len()+ds.NTToOT.Len())
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := observability.StartSpan(ctx, "export."+name)
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	p.metrics.Stage(name, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("export: %s: %w", name, err)
	}
	return nil
}

// logLeaders logs the most referenced source verse of each book at debug.
func logLeaders(log *logger.Logger, d crossref.Direction, r topverses.Ranked) {
	books := make([]string, 0, len(r))
	for b := range r {
		books = append(books, b)
	}
	sort.Strings(books)
	for _, b := range books {
		if len(r[b]) == 0 {
			continue
		}
		top := r[b][0]
		log.Debug("Top verse", "direction", d.Label(), "book", b, "verse", scripture.FormatReference(top.FromID), "count", top.Count)
	}
	log.Info("Top verses ranked", "direction", d.Label(), "books", len(r), "verses", r.Len())
}
