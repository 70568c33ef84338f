// Package positions lays every verse of the corpus out on one dense,
// zero-based axis that follows the canonical book order.
package positions

import (
	"sort"

	"github.com/yungbote/logosgraph-export/internal/canon"
)

// Book is one row of the books dataset. EndPosition < StartPosition marks an
// empty range (VerseCount == 0).
type Book struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Order            int             `json:"order"`
	Testament        canon.Testament `json:"testament"`
	StartPosition    int             `json:"startPosition"`
	EndPosition      int             `json:"endPosition"`
	VerseCount       int             `json:"verseCount"`
	Deuterocanonical bool            `json:"isDeuterocanonical"`
}

func (b Book) Empty() bool { return b.VerseCount == 0 }

func (b Book) Contains(pos int) bool {
	return !b.Empty() && pos >= b.StartPosition && pos <= b.EndPosition
}

type Layout struct {
	Books []Book
	Total int
	// UnmappedBooks lists count-map keys outside the canonical order, sorted.
	UnmappedBooks []string

	byID map[string]int
}

// CalculateBookPositions scans the canonical order once, giving each book the
// range [running, running+count-1] and advancing running by count. Books
// absent from counts get an empty range.
func CalculateBookPositions(idx *canon.Index, counts map[string]int) *Layout {
	books := idx.Books()
	out := &Layout{
		Books: make([]Book, 0, len(books)),
		byID:  make(map[string]int, len(books)),
	}

	running := 0
	for i, b := range books {
		n := counts[b.ID]
		if n < 0 {
			n = 0
		}
		out.Books = append(out.Books, Book{
			ID:               b.ID,
			Name:             b.Name,
			Order:            b.Order,
			Testament:        b.Testament,
			StartPosition:    running,
			EndPosition:      running + n - 1,
			VerseCount:       n,
			Deuterocanonical: b.Deuterocanonical,
		})
		out.byID[b.ID] = i
		running += n
	}
	out.Total = running

	for id := range counts {
		if !idx.Contains(id) {
			out.UnmappedBooks = append(out.UnmappedBooks, id)
		}
	}
	sort.Strings(out.UnmappedBooks)
	return out
}

func (l *Layout) Book(id string) (Book, bool) {
	i, ok := l.byID[id]
	if !ok {
		return Book{}, false
	}
	return l.Books[i], true
}

func (l *Layout) Start(id string) (int, bool) {
	b, ok := l.Book(id)
	return b.StartPosition, ok
}

// BookAt finds the book whose range holds pos.
func (l *Layout) BookAt(pos int) (Book, bool) {
	if pos < 0 || pos >= l.Total {
		return Book{}, false
	}
	i := sort.Search(len(l.Books), func(i int) bool {
		return l.Books[i].StartPosition+l.Books[i].VerseCount > pos
	})
	if i == len(l.Books) {
		return Book{}, false
	}
	return l.Books[i], true
}

// EndOf returns the end position of id, or -1 for unknown ids.
func (l *Layout) EndOf(id string) int {
	b, ok := l.Book(id)
	if !ok {
		return -1
	}
	return b.EndPosition
}
