// Package crossref narrows raw reference edges to the cross-testament
// arcs the visualization draws, annotated with both endpoint positions.
package crossref

import (
	"sort"
	"strings"

	"github.com/yungbote/logosgraph-export/internal/canon"
	"github.com/yungbote/logosgraph-export/internal/domain/scripture"
	"github.com/yungbote/logosgraph-export/internal/positions"
)

type Direction string

const (
	OTToNT Direction = "ot_to_nt"
	NTToOT Direction = "nt_to_ot"
)

func (d Direction) Label() string {
	switch d {
	case OTToNT:
		return "OT to NT"
	case NTToOT:
		return "NT to OT"
	default:
		return string(d)
	}
}

// Filter selects edges by evidence source. No sources means every edge.
type Filter struct {
	Sources []string
}

func (f Filter) All() bool { return len(f.Sources) == 0 }

func (f Filter) Label() string {
	if f.All() {
		return "All Sources"
	}
	return strings.Join(f.Sources, " + ")
}

func (f Filter) set() map[string]struct{} {
	out := make(map[string]struct{}, len(f.Sources))
	for _, s := range f.Sources {
		out[s] = struct{}{}
	}
	return out
}

// Reference is a resolvable edge. Only the tagged fields are exported in
// the cross-reference datasets; texts and passage group feed ranking.
type Reference struct {
	FromID       string   `json:"fromId"`
	FromBook     string   `json:"fromBook"`
	FromPosition int      `json:"fromPosition"`
	ToID         string   `json:"toId"`
	ToBook       string   `json:"toBook"`
	ToPosition   int      `json:"toPosition"`
	Sources      []string `json:"sources"`
	Votes        int      `json:"votes"`

	FromText     string `json:"-"`
	ToText       string `json:"-"`
	PassageGroup string `json:"-"`
}

type Buckets struct {
	OTToNT []Reference
	NTToOT []Reference
}

func (b Buckets) Get(d Direction) []Reference {
	if d == OTToNT {
		return b.OTToNT
	}
	return b.NTToOT
}

type Report struct {
	Total         int
	FilteredOut   int
	Unresolved    int
	SameTestament int
}

// Classify filters edges by source, drops any edge with an unpositioned
// endpoint, and splits the rest by endpoint testaments. Same-testament
// edges land in neither bucket. Each bucket is ordered by
// (fromPosition, toPosition, passageGroup).
func Classify(idx *canon.Index, vi *positions.VerseIndex, edges []scripture.CrossReference, filter Filter) (Buckets, Report) {
	var (
		out    Buckets
		report = Report{Total: len(edges)}
		keep   = filter.set()
	)
	for _, e := range edges {
		if !filter.All() && !e.HasSource(keep) {
			report.FilteredOut++
			continue
		}
		from, okFrom := vi.Lookup(e.FromVerseID)
		to, okTo := vi.Lookup(e.ToVerseID)
		if !okFrom || !okTo {
			report.Unresolved++
			continue
		}
		ft, _ := idx.Testament(from.BookID)
		tt, _ := idx.Testament(to.BookID)

		ref := Reference{
			FromID:       from.ID,
			FromBook:     from.BookID,
			FromPosition: from.Position,
			ToID:         to.ID,
			ToBook:       to.BookID,
			ToPosition:   to.Position,
			Sources:      append([]string{}, e.Sources...),
			Votes:        e.Votes,
			FromText:     from.Text,
			ToText:       to.Text,
			PassageGroup: e.PassageGroup,
		}
		switch {
		case ft == canon.OT && tt == canon.NT:
			out.OTToNT = append(out.OTToNT, ref)
		case ft == canon.NT && tt == canon.OT:
			out.NTToOT = append(out.NTToOT, ref)
		default:
			report.SameTestament++
		}
	}
	sortReferences(out.OTToNT)
	sortReferences(out.NTToOT)
	return out, report
}

func sortReferences(refs []Reference) {
	sort.SliceStable(refs, func(i, j int) bool {
		a, b := refs[i], refs[j]
		if a.FromPosition != b.FromPosition {
			return a.FromPosition < b.FromPosition
		}
		if a.ToPosition != b.ToPosition {
			return a.ToPosition < b.ToPosition
		}
		return a.PassageGroup < b.PassageGroup
	})
}
