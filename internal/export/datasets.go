package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/yungbote/logosgraph-export/internal/canon"
	"github.com/yungbote/logosgraph-export/internal/crossref"
	"github.com/yungbote/logosgraph-export/internal/positions"
	"github.com/yungbote/logosgraph-export/internal/topverses"
)

const (
	FileBooks          = "books.json"
	FileCrossrefsOTNT  = "crossrefs-ot-to-nt.json"
	FileCrossrefsNTOT  = "crossrefs-nt-to-ot.json"
	FileTopVerses      = "top-verses.json"
	generatedTimestamp = "2006-01-02T15:04:05.000000Z"
)

// CrossrefFile names the dataset file for one direction.
func CrossrefFile(d crossref.Direction) string {
	if d == crossref.NTToOT {
		return FileCrossrefsNTOT
	}
	return FileCrossrefsOTNT
}

// Stamp is shared by every dataset of one run.
type Stamp struct {
	Generated time.Time
	RunID     string
}

func (s Stamp) generated() string { return s.Generated.UTC().Format(generatedTimestamp) }

type BooksMetadata struct {
	Generated   string `json:"generated"`
	Source      string `json:"source"`
	BookCount   int    `json:"bookCount"`
	TotalVerses int    `json:"totalVerses"`
	RunID       string `json:"runId"`
}

type BooksDataset struct {
	Metadata              BooksMetadata    `json:"metadata"`
	TotalVerses           int              `json:"totalVerses"`
	OTEndPosition         int              `json:"otEndPosition"`
	NTStartPosition       int              `json:"ntStartPosition"`
	DeuterocanonicalBooks []string         `json:"deuterocanonicalBooks"`
	Books                 []positions.Book `json:"books"`
}

// BuildBooks reports the OT end as the last position of the final OT book
// and the NT start as the first position of the first NT book.
func BuildBooks(idx *canon.Index, layout *positions.Layout, source string, stamp Stamp) BooksDataset {
	otEnd, _ := layout.Book(idx.OTEnd())
	ntStart, _ := layout.Book(idx.NTStart())
	books := append([]positions.Book{}, layout.Books...)
	return BooksDataset{
		Metadata: BooksMetadata{
			Generated:   stamp.generated(),
			Source:      source,
			BookCount:   len(books),
			TotalVerses: layout.Total,
			RunID:       stamp.RunID,
		},
		TotalVerses:           layout.Total,
		OTEndPosition:         otEnd.EndPosition,
		NTStartPosition:       ntStart.StartPosition,
		DeuterocanonicalBooks: idx.DeuterocanonicalIDs(),
		Books:                 books,
	}
}

type CrossrefMetadata struct {
	Generated string `json:"generated"`
	Source    string `json:"source"`
	Direction string `json:"direction"`
	Count     int    `json:"count"`
	RunID     string `json:"runId"`
}

type CrossrefDataset struct {
	Metadata   CrossrefMetadata     `json:"metadata"`
	References []crossref.Reference `json:"references"`
}

func BuildCrossrefs(buckets crossref.Buckets, d crossref.Direction, filter crossref.Filter, stamp Stamp) CrossrefDataset {
	refs := append([]crossref.Reference{}, buckets.Get(d)...)
	return CrossrefDataset{
		Metadata: CrossrefMetadata{
			Generated: stamp.generated(),
			Source:    filter.Label(),
			Direction: d.Label(),
			Count:     len(refs),
			RunID:     stamp.RunID,
		},
		References: refs,
	}
}

type TopVersesMetadata struct {
	Generated string `json:"generated"`
	Source    string `json:"source"`
	// TopN is null when every source verse is kept.
	TopN  *int   `json:"topN"`
	RunID string `json:"runId"`
}

type TopVersesDataset struct {
	Metadata TopVersesMetadata `json:"metadata"`
	OTToNT   topverses.Ranked  `json:"otToNt"`
	NTToOT   topverses.Ranked  `json:"ntToOt"`
}

func BuildTopVerses(otToNT, ntToOT topverses.Ranked, filter crossref.Filter, opts topverses.Options, stamp Stamp) TopVersesDataset {
	var topN *int
	if opts.TopNPerBook > 0 {
		n := opts.TopNPerBook
		topN = &n
	}
	if otToNT == nil {
		otToNT = topverses.Ranked{}
	}
	if ntToOT == nil {
		ntToOT = topverses.Ranked{}
	}
	return TopVersesDataset{
		Metadata: TopVersesMetadata{
			Generated: stamp.generated(),
			Source:    filter.Label(),
			TopN:      topN,
			RunID:     stamp.RunID,
		},
		OTToNT: otToNT,
		NTToOT: ntToOT,
	}
}

// File is one encoded dataset ready for a Sink.
type File struct {
	Name    string
	Data    []byte
	Records int
}

func encode(name string, v any, records int) (File, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return File{}, fmt.Errorf("export: encode %s: %w", name, err)
	}
	return File{Name: name, Data: append(b, '\n'), Records: records}, nil
}
