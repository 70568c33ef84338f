// Package canon holds the fixed canonical book order every position in the
// export is computed against, together with the OT/NT split and the
// deuterocanonical set.
package canon

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type Testament string

const (
	OT Testament = "OT"
	NT Testament = "NT"
)

//go:embed books.yaml
var booksYAML []byte

var ErrInvalidTable = errors.New("canon: invalid book table")

type Book struct {
	ID               string
	Name             string
	Order            int
	Testament        Testament
	Deuterocanonical bool
}

// Index is immutable once built and safe to share.
type Index struct {
	books   []Book
	byID    map[string]int
	otEnd   int
	deutero []string
}

// Spec names one book of a table passed to New.
type Spec struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type tableFile struct {
	OTEnd            string   `yaml:"ot_end"`
	Deuterocanonical []string `yaml:"deuterocanonical"`
	Books            []Spec   `yaml:"books"`
}

const (
	cpdvBookCount         = 73
	deuterocanonicalCount = 7
)

var (
	defaultOnce  sync.Once
	defaultIndex *Index
)

// Default returns the embedded CPDV order.
func Default() *Index {
	defaultOnce.Do(func() {
		idx, err := parse(booksYAML)
		if err != nil {
			panic(err)
		}
		if idx.Len() != cpdvBookCount || len(idx.deutero) != deuterocanonicalCount {
			panic(fmt.Errorf("%w: embedded table has %d books, %d deuterocanonical", ErrInvalidTable, idx.Len(), len(idx.deutero)))
		}
		defaultIndex = idx
	})
	return defaultIndex
}

func parse(raw []byte) (*Index, error) {
	var tf tableFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	return New(tf.Books, tf.OTEnd, tf.Deuterocanonical)
}

// New builds an index from books in canonical order. otEnd names the last
// OT book and must have a successor; every deuterocanonical id must be listed.
func New(books []Spec, otEnd string, deuterocanonical []string) (*Index, error) {
	if len(books) == 0 {
		return nil, fmt.Errorf("%w: no books", ErrInvalidTable)
	}

	idx := &Index{
		books: make([]Book, 0, len(books)),
		byID:  make(map[string]int, len(books)),
	}
	otEnd = strings.TrimSpace(otEnd)
	for i, b := range books {
		id := strings.TrimSpace(b.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: empty id at order %d", ErrInvalidTable, i+1)
		}
		if _, dup := idx.byID[id]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidTable, id)
		}
		idx.byID[id] = i
		idx.books = append(idx.books, Book{ID: id, Name: strings.TrimSpace(b.Name), Order: i + 1})
		if id == otEnd {
			idx.otEnd = i + 1
		}
	}
	if idx.otEnd == 0 || idx.otEnd == len(idx.books) {
		return nil, fmt.Errorf("%w: ot_end %q must name a book with a successor", ErrInvalidTable, otEnd)
	}
	for i := range idx.books {
		if idx.books[i].Order <= idx.otEnd {
			idx.books[i].Testament = OT
		} else {
			idx.books[i].Testament = NT
		}
	}

	seen := map[string]bool{}
	for _, raw := range deuterocanonical {
		id := strings.TrimSpace(raw)
		i, ok := idx.byID[id]
		if !ok || seen[id] {
			return nil, fmt.Errorf("%w: deuterocanonical id %q unknown or repeated", ErrInvalidTable, id)
		}
		seen[id] = true
		idx.books[i].Deuterocanonical = true
		idx.deutero = append(idx.deutero, id)
	}
	sort.Strings(idx.deutero)
	return idx, nil
}

// Books returns the books in canonical order. The slice is a copy.
func (x *Index) Books() []Book {
	out := make([]Book, len(x.books))
	copy(out, x.books)
	return out
}

func (x *Index) IDs() []string {
	out := make([]string, len(x.books))
	for i, b := range x.books {
		out[i] = b.ID
	}
	return out
}

func (x *Index) Len() int { return len(x.books) }

func (x *Index) Contains(id string) bool {
	_, ok := x.byID[id]
	return ok
}

// Order is the 1-based canonical rank of id.
func (x *Index) Order(id string) (int, bool) {
	i, ok := x.byID[id]
	if !ok {
		return 0, false
	}
	return i + 1, true
}

func (x *Index) Book(id string) (Book, bool) {
	i, ok := x.byID[id]
	if !ok {
		return Book{}, false
	}
	return x.books[i], true
}

func (x *Index) Testament(id string) (Testament, bool) {
	b, ok := x.Book(id)
	return b.Testament, ok
}

func (x *Index) IsDeuterocanonical(id string) bool {
	b, ok := x.Book(id)
	return ok && b.Deuterocanonical
}

// Name falls back to the id for unknown books.
func (x *Index) Name(id string) string {
	if b, ok := x.Book(id); ok && b.Name != "" {
		return b.Name
	}
	return id
}

// OTEnd is the id of the last OT book; NTStart the first NT book.
func (x *Index) OTEnd() string   { return x.books[x.otEnd-1].ID }
func (x *Index) NTStart() string { return x.books[x.otEnd].ID }

// DeuterocanonicalIDs is sorted lexically.
func (x *Index) DeuterocanonicalIDs() []string {
	out := make([]string, len(x.deutero))
	copy(out, x.deutero)
	return out
}

// IDsIn lists the ids of one testament in canonical order.
func (x *Index) IDsIn(t Testament) []string {
	var out []string
	for _, b := range x.books {
		if b.Testament == t {
			out = append(out, b.ID)
		}
	}
	return out
}
