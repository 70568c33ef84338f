package positions

import (
	"math/rand"
	"testing"

	"github.com/yungbote/logosgraph-export/internal/canon"
	"github.com/yungbote/logosgraph-export/internal/domain/scripture"
)

func abcIndex(t *testing.T) *canon.Index {
	t.Helper()
	idx, err := canon.New([]canon.Spec{{ID: "A"}, {ID: "B"}, {ID: "C"}}, "B", nil)
	if err != nil {
		t.Fatalf("canon.New: %v", err)
	}
	return idx
}

func TestCalculateBookPositionsEmptyMiddleBook(t *testing.T) {
	layout := CalculateBookPositions(abcIndex(t), map[string]int{"A": 2, "C": 3})

	want := []struct {
		id         string
		start, end int
	}{
		{"A", 0, 1},
		{"B", 2, 1},
		{"C", 2, 4},
	}
	for i, w := range want {
		b := layout.Books[i]
		if b.ID != w.id || b.StartPosition != w.start || b.EndPosition != w.end {
			t.Fatalf("book %d: want %s:[%d,%d] got %s:[%d,%d]", i, w.id, w.start, w.end, b.ID, b.StartPosition, b.EndPosition)
		}
	}
	if layout.Total != 5 {
		t.Fatalf("total: want=5 got=%d", layout.Total)
	}
	if b, _ := layout.Book("B"); !b.Empty() || b.Contains(2) {
		t.Fatalf("B must be an empty range, got %+v", b)
	}
	if b, ok := layout.BookAt(2); !ok || b.ID != "C" {
		t.Fatalf("BookAt(2): want C got %+v ok=%v", b, ok)
	}
	if _, ok := layout.BookAt(5); ok {
		t.Fatalf("BookAt(5): want out of range")
	}
}

func TestCalculateBookPositionsContiguity(t *testing.T) {
	idx := canon.Default()
	rng := rand.New(rand.NewSource(7))
	counts := map[string]int{"XYZ": 40}
	sum := 0
	for _, id := range idx.IDs() {
		n := rng.Intn(4) * rng.Intn(300)
		counts[id] = n
		sum += n
	}

	layout := CalculateBookPositions(idx, counts)
	if layout.Total != sum {
		t.Fatalf("total: want=%d got=%d", sum, layout.Total)
	}
	for i, b := range layout.Books {
		if b.StartPosition > b.EndPosition+1 {
			t.Fatalf("%s: start %d > end+1 %d", b.ID, b.StartPosition, b.EndPosition+1)
		}
		if i+1 < len(layout.Books) && b.EndPosition+1 != layout.Books[i+1].StartPosition {
			t.Fatalf("%s -> %s not contiguous", b.ID, layout.Books[i+1].ID)
		}
		if b.Order != i+1 {
			t.Fatalf("%s: order want=%d got=%d", b.ID, i+1, b.Order)
		}
	}
	last := layout.Books[len(layout.Books)-1]
	if sum > 0 && last.EndPosition+1 != sum {
		t.Fatalf("last end+1: want=%d got=%d", sum, last.EndPosition+1)
	}
	if len(layout.UnmappedBooks) != 1 || layout.UnmappedBooks[0] != "XYZ" {
		t.Fatalf("unmapped: got %v", layout.UnmappedBooks)
	}
}

func abcVerses() []scripture.Verse {
	return []scripture.Verse{
		{ID: "C-2-1", BookID: "C", Chapter: 2, Verse: 1},
		{ID: "A-1-2", BookID: "A", Chapter: 1, Verse: 2},
		{ID: "C-1-10", BookID: "C", Chapter: 1, Verse: 10},
		{ID: "Q-1-1", BookID: "Q", Chapter: 1, Verse: 1},
		{ID: "C-1-2", BookID: "C", Chapter: 1, Verse: 2},
		{ID: "A-1-1", BookID: "A", Chapter: 1, Verse: 1},
	}
}

func TestIndexVersesDenseAndOrdered(t *testing.T) {
	idx := abcIndex(t)
	layout := CalculateBookPositions(idx, map[string]int{"A": 2, "C": 3, "Q": 1})
	vi, report, err := IndexVerses(idx, layout, abcVerses())
	if err != nil {
		t.Fatalf("IndexVerses: %v", err)
	}

	want := map[string]int{"A-1-1": 0, "A-1-2": 1, "C-1-2": 2, "C-1-10": 3, "C-2-1": 4}
	for id, pos := range want {
		got, ok := vi.Position(id)
		if !ok || got != pos {
			t.Fatalf("Position(%s): want=%d got=%d ok=%v", id, pos, got, ok)
		}
	}
	if _, ok := vi.Position("Q-1-1"); ok {
		t.Fatalf("Q-1-1 must not be positioned")
	}
	if report.Indexed != 5 || report.Skipped != 1 || len(report.UnmappedBooks) != 1 || report.UnmappedBooks[0] != "Q" {
		t.Fatalf("report: %+v", report)
	}

	seen := map[int]bool{}
	for i := 0; i < vi.Len(); i++ {
		v, ok := vi.At(i)
		if !ok || v.Position != i || seen[v.Position] {
			t.Fatalf("At(%d): got %+v ok=%v", i, v, ok)
		}
		seen[v.Position] = true
	}
	if vi.Len() != layout.Total {
		t.Fatalf("len: want=%d got=%d", layout.Total, vi.Len())
	}
}

func TestIndexVersesBijectionOnShuffledInput(t *testing.T) {
	idx := canon.Default()
	var verses []scripture.Verse
	counts := map[string]int{}
	for _, id := range []string{"REV", "GEN", "TOB", "MAT"} {
		for ch := 1; ch <= 3; ch++ {
			for v := 1; v <= 4; v++ {
				verses = append(verses, scripture.Verse{ID: id + "-" + string(rune('0'+ch)) + "-" + string(rune('0'+v)), BookID: id, Chapter: ch, Verse: v})
				counts[id]++
			}
		}
	}
	rng := rand.New(rand.NewSource(11))
	rng.Shuffle(len(verses), func(i, j int) { verses[i], verses[j] = verses[j], verses[i] })

	layout := CalculateBookPositions(idx, counts)
	vi, _, err := IndexVerses(idx, layout, verses)
	if err != nil {
		t.Fatalf("IndexVerses: %v", err)
	}
	hit := make([]bool, layout.Total)
	for _, v := range verses {
		pos, ok := vi.Position(v.ID)
		if !ok || pos < 0 || pos >= layout.Total || hit[pos] {
			t.Fatalf("%s: bad or duplicate position %d", v.ID, pos)
		}
		hit[pos] = true
		b, _ := layout.BookAt(pos)
		if b.ID != v.BookID {
			t.Fatalf("%s: position %d falls in %s", v.ID, pos, b.ID)
		}
	}
	gen1, _ := vi.Position("GEN-1-1")
	rev1, _ := vi.Position("REV-1-1")
	tob1, _ := vi.Position("TOB-1-1")
	if !(gen1 < tob1 && tob1 < rev1) {
		t.Fatalf("canonical order violated: GEN=%d TOB=%d REV=%d", gen1, tob1, rev1)
	}
}

func TestIndexVersesInconsistentSnapshot(t *testing.T) {
	idx := abcIndex(t)
	cases := map[string]map[string]int{
		"undercounted": {"A": 1, "C": 3},
		"overcounted":  {"A": 2, "C": 4},
		"missing book": {"A": 2},
	}
	for name, counts := range cases {
		layout := CalculateBookPositions(idx, counts)
		_, _, err := IndexVerses(idx, layout, abcVerses())
		if !scripture.IsCode(err, scripture.CodeInconsistent) {
			t.Fatalf("%s: want inconsistent snapshot, got %v", name, err)
		}
	}
}

func TestIndexVersesDuplicateID(t *testing.T) {
	idx := abcIndex(t)
	verses := []scripture.Verse{
		{ID: "A-1-1", BookID: "A", Chapter: 1, Verse: 1},
		{ID: "A-1-1", BookID: "A", Chapter: 1, Verse: 2},
	}
	layout := CalculateBookPositions(idx, map[string]int{"A": 2})
	if _, _, err := IndexVerses(idx, layout, verses); !scripture.IsCode(err, scripture.CodeInconsistent) {
		t.Fatalf("want inconsistent snapshot, got %v", err)
	}
}
