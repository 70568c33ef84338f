package testutil

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/yungbote/logosgraph-export/internal/canon"
	"github.com/yungbote/logosgraph-export/internal/domain/scripture"
	"github.com/yungbote/logosgraph-export/internal/positions"
)

// ABC is a four book canon: A and B are OT, C and D are NT, B is deuterocanonical.
func ABC(tb testing.TB) *canon.Index {
	tb.Helper()
	idx, err := canon.New([]canon.Spec{
		{ID: "A", Name: "Alpha"},
		{ID: "B", Name: "Beta"},
		{ID: "C", Name: "Gamma"},
		{ID: "D", Name: "Delta"},
	}, "B", []string{"B"})
	if err != nil {
		tb.Fatalf("canon.New: %v", err)
	}
	return idx
}

// Verses builds verses from "BOOK-CH-V" ids; text is "text of <id>".
func Verses(tb testing.TB, ids ...string) []scripture.Verse {
	tb.Helper()
	out := make([]scripture.Verse, 0, len(ids))
	for _, id := range ids {
		parts := strings.Split(id, "-")
		if len(parts) != 3 {
			tb.Fatalf("verse id %q: want BOOK-CH-V", id)
		}
		ch, err1 := strconv.Atoi(parts[1])
		v, err2 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil {
			tb.Fatalf("verse id %q: bad chapter/verse", id)
		}
		out = append(out, scripture.Verse{ID: id, BookID: parts[0], Chapter: ch, Verse: v, Text: "text of " + id})
	}
	return out
}

func Counts(verses []scripture.Verse) map[string]int {
	out := map[string]int{}
	for _, v := range verses {
		out[v.BookID]++
	}
	return out
}

func BuildIndex(tb testing.TB, idx *canon.Index, verses []scripture.Verse) *positions.VerseIndex {
	tb.Helper()
	layout := positions.CalculateBookPositions(idx, Counts(verses))
	vi, _, err := positions.IndexVerses(idx, layout, verses)
	if err != nil {
		tb.Fatalf("IndexVerses: %v", err)
	}
	return vi
}

func Edge(from, to string, sources ...string) scripture.CrossReference {
	return scripture.CrossReference{FromVerseID: from, ToVerseID: to, Sources: sources, Votes: 1}
}

type GroupKey struct {
	Source string
	Group  string
}

// MemoryCorpus is an in-memory scripture.Corpus.
type MemoryCorpus struct {
	Snap   scripture.Snapshot
	Groups map[GroupKey][]scripture.PassageMember
	// SnapshotErr and PassageErr are returned verbatim when set.
	SnapshotErr error
	PassageErr  error

	mu            sync.Mutex
	passageCalls  map[GroupKey]int
	snapshotCalls int
	closed        bool
}

func (m *MemoryCorpus) Snapshot(ctx context.Context, sources []string) (*scripture.Snapshot, error) {
	m.mu.Lock()
	m.snapshotCalls++
	m.mu.Unlock()
	if m.SnapshotErr != nil {
		return nil, m.SnapshotErr
	}
	snap := m.Snap
	if len(sources) > 0 {
		keep := map[string]struct{}{}
		for _, s := range sources {
			keep[s] = struct{}{}
		}
		snap.Edges = nil
		for _, e := range m.Snap.Edges {
			if e.HasSource(keep) {
				snap.Edges = append(snap.Edges, e)
			}
		}
	}
	return &snap, nil
}

func (m *MemoryCorpus) PassageMembers(ctx context.Context, sourceVerseID, group string) ([]scripture.PassageMember, error) {
	key := GroupKey{Source: sourceVerseID, Group: group}
	m.mu.Lock()
	if m.passageCalls == nil {
		m.passageCalls = map[GroupKey]int{}
	}
	m.passageCalls[key]++
	m.mu.Unlock()
	if m.PassageErr != nil {
		return nil, m.PassageErr
	}
	members := m.Groups[key]
	return append([]scripture.PassageMember(nil), members...), nil
}

func (m *MemoryCorpus) Label() string { return "memory" }

func (m *MemoryCorpus) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func (m *MemoryCorpus) PassageCalls(source, group string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.passageCalls[GroupKey{Source: source, Group: group}]
}

func (m *MemoryCorpus) SnapshotCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotCalls
}

func (m *MemoryCorpus) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
