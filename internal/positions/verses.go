package positions

import (
	"sort"

	"github.com/yungbote/logosgraph-export/internal/canon"
	"github.com/yungbote/logosgraph-export/internal/domain/scripture"
)

type PositionedVerse struct {
	scripture.Verse
	Position int
}

type IndexReport struct {
	Indexed int
	// Skipped counts verses whose book is outside the canonical order.
	Skipped       int
	UnmappedBooks []string
}

// VerseIndex maps verse ids to their global position. Positions form the
// range [0, Len()) with no gaps.
type VerseIndex struct {
	layout  *Layout
	byID    map[string]int
	ordered []PositionedVerse
}

// IndexVerses assigns every verse of a canonical book the position
// bookStart + (rank of the verse within its book by chapter, verse).
// The layout must be built from the same snapshot as verses; any
// disagreement between counted and enumerated verses is reported as an
// inconsistent snapshot.
func IndexVerses(idx *canon.Index, layout *Layout, verses []scripture.Verse) (*VerseIndex, IndexReport, error) {
	var report IndexReport
	unmapped := map[string]struct{}{}

	sorted := make([]scripture.Verse, 0, len(verses))
	order := make(map[string]int, idx.Len())
	for _, v := range verses {
		o, ok := idx.Order(v.BookID)
		if !ok {
			report.Skipped++
			unmapped[v.BookID] = struct{}{}
			continue
		}
		order[v.BookID] = o
		sorted = append(sorted, v)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if order[a.BookID] != order[b.BookID] {
			return order[a.BookID] < order[b.BookID]
		}
		if a.Chapter != b.Chapter {
			return a.Chapter < b.Chapter
		}
		if a.Verse != b.Verse {
			return a.Verse < b.Verse
		}
		return a.ID < b.ID
	})

	vi := &VerseIndex{
		layout:  layout,
		byID:    make(map[string]int, len(sorted)),
		ordered: make([]PositionedVerse, 0, len(sorted)),
	}
	counter := make(map[string]int, idx.Len())
	for _, v := range sorted {
		book, _ := layout.Book(v.BookID)
		n := counter[v.BookID]
		if n >= book.VerseCount {
			return nil, report, scripture.Inconsistent("positions.index", "book %s: %d verses counted but more enumerated", v.BookID, book.VerseCount)
		}
		if _, dup := vi.byID[v.ID]; dup {
			return nil, report, scripture.Inconsistent("positions.index", "verse id %s enumerated twice", v.ID)
		}
		pos := book.StartPosition + n
		counter[v.BookID] = n + 1
		vi.byID[v.ID] = len(vi.ordered)
		vi.ordered = append(vi.ordered, PositionedVerse{Verse: v, Position: pos})
	}
	for _, b := range layout.Books {
		if counter[b.ID] != b.VerseCount {
			return nil, report, scripture.Inconsistent("positions.index", "book %s: %d verses counted, %d enumerated", b.ID, b.VerseCount, counter[b.ID])
		}
	}

	report.Indexed = len(vi.ordered)
	for id := range unmapped {
		report.UnmappedBooks = append(report.UnmappedBooks, id)
	}
	sort.Strings(report.UnmappedBooks)
	return vi, report, nil
}

func (vi *VerseIndex) Len() int { return len(vi.ordered) }

func (vi *VerseIndex) Layout() *Layout { return vi.layout }

func (vi *VerseIndex) Position(id string) (int, bool) {
	i, ok := vi.byID[id]
	if !ok {
		return 0, false
	}
	return vi.ordered[i].Position, true
}

func (vi *VerseIndex) Lookup(id string) (PositionedVerse, bool) {
	i, ok := vi.byID[id]
	if !ok {
		return PositionedVerse{}, false
	}
	return vi.ordered[i], true
}

// At returns the verse at global position pos.
func (vi *VerseIndex) At(pos int) (PositionedVerse, bool) {
	if pos < 0 || pos >= len(vi.ordered) {
		return PositionedVerse{}, false
	}
	return vi.ordered[pos], true
}
