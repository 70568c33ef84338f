// Package topverses ranks the most-referencing source verses of each book
// and expands passage-group targets into their member verses.
package topverses

import (
	"sort"

	"github.com/yungbote/logosgraph-export/internal/crossref"
	"github.com/yungbote/logosgraph-export/internal/domain/scripture"
)

type Target struct {
	ToID   string `json:"to_id"`
	ToBook string `json:"to_book"`
	ToText string `json:"to_text"`
	// PassageGroup is null when the edge is not grouped.
	PassageGroup   *string                   `json:"passage_group"`
	PassageMembers []scripture.PassageMember `json:"passage_members,omitempty"`
}

type SourceVerse struct {
	FromID   string   `json:"from_id"`
	FromBook string   `json:"from_book"`
	FromText string   `json:"from_text"`
	Targets  []Target `json:"targets"`
	Count    int      `json:"count"`

	position int
}

// Ranked maps a book id to its source verses, highest count first.
type Ranked map[string][]SourceVerse

func (r Ranked) Len() int {
	n := 0
	for _, vs := range r {
		n += len(vs)
	}
	return n
}

type Options struct {
	// TopNPerBook keeps the first N verses per book; 0 keeps all.
	TopNPerBook int
}

// GroupBySource folds references into one aggregate per source verse. The
// first reference seen for a verse seeds FromBook, FromText and position;
// every reference appends a target and bumps Count. Keys come back in
// first-seen order.
func GroupBySource(refs []crossref.Reference) (map[string]*SourceVerse, []string) {
	groups := make(map[string]*SourceVerse)
	var order []string
	for _, ref := range refs {
		agg, ok := groups[ref.FromID]
		if !ok {
			agg = &SourceVerse{
				FromID:   ref.FromID,
				FromBook: ref.FromBook,
				FromText: ref.FromText,
				Targets:  []Target{},
				position: ref.FromPosition,
			}
			groups[ref.FromID] = agg
			order = append(order, ref.FromID)
		}
		t := Target{ToID: ref.ToID, ToBook: ref.ToBook, ToText: ref.ToText}
		if ref.PassageGroup != "" {
			g := ref.PassageGroup
			t.PassageGroup = &g
		}
		agg.Targets = append(agg.Targets, t)
		agg.Count++
	}
	return groups, order
}

// Rank groups references by source verse, buckets the aggregates by source
// book and orders each bucket by descending count. Equal counts keep
// canonical order (ascending global position of the source verse).
func Rank(refs []crossref.Reference, opts Options) Ranked {
	groups, order := GroupBySource(refs)

	out := Ranked{}
	for _, id := range order {
		agg := groups[id]
		out[agg.FromBook] = append(out[agg.FromBook], *agg)
	}
	for book, vs := range out {
		sort.SliceStable(vs, func(i, j int) bool {
			if vs[i].Count != vs[j].Count {
				return vs[i].Count > vs[j].Count
			}
			return vs[i].position < vs[j].position
		})
		if opts.TopNPerBook > 0 && len(vs) > opts.TopNPerBook {
			vs = vs[:opts.TopNPerBook]
		}
		out[book] = vs
	}
	return out
}
