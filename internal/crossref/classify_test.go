package crossref

import (
	"math/rand"
	"testing"

	"github.com/yungbote/logosgraph-export/internal/canon"
	"github.com/yungbote/logosgraph-export/internal/domain/scripture"
	"github.com/yungbote/logosgraph-export/internal/testutil"
)

func TestClassifySourceFilter(t *testing.T) {
	idx := testutil.ABC(t)
	vi := testutil.BuildIndex(t, idx, testutil.Verses(t, "A-1-1", "B-1-1", "C-1-1", "C-1-2"))
	edges := []scripture.CrossReference{
		testutil.Edge("A-1-1", "C-1-2", "X"),
		testutil.Edge("A-1-1", "B-1-1", "Y"),
	}

	buckets, report := Classify(idx, vi, edges, Filter{Sources: []string{"X"}})
	if len(buckets.OTToNT) != 1 || buckets.OTToNT[0].ToID != "C-1-2" {
		t.Fatalf("OT->NT: got %+v", buckets.OTToNT)
	}
	if len(buckets.NTToOT) != 0 {
		t.Fatalf("NT->OT: want empty got %+v", buckets.NTToOT)
	}
	if report.FilteredOut != 1 || report.Total != 2 {
		t.Fatalf("report: %+v", report)
	}
	ref := buckets.OTToNT[0]
	if ref.FromPosition != 0 || ref.ToPosition != 3 || ref.FromBook != "A" || ref.ToBook != "C" {
		t.Fatalf("annotation: %+v", ref)
	}
	if ref.FromText != "text of A-1-1" || ref.ToText != "text of C-1-2" {
		t.Fatalf("texts: %+v", ref)
	}
}

func TestClassifyNoFilterKeepsAllSources(t *testing.T) {
	idx := testutil.ABC(t)
	vi := testutil.BuildIndex(t, idx, testutil.Verses(t, "A-1-1", "C-1-1"))
	edges := []scripture.CrossReference{
		testutil.Edge("A-1-1", "C-1-1", "X"),
		testutil.Edge("C-1-1", "A-1-1"),
	}
	buckets, report := Classify(idx, vi, edges, Filter{})
	if len(buckets.OTToNT) != 1 || len(buckets.NTToOT) != 1 || report.FilteredOut != 0 {
		t.Fatalf("buckets=%+v report=%+v", buckets, report)
	}
	if buckets.NTToOT[0].Sources == nil {
		t.Fatalf("sources must serialize as a list, not null")
	}
}

func TestClassifyDropsUnresolvedAndSameTestament(t *testing.T) {
	idx := testutil.ABC(t)
	vi := testutil.BuildIndex(t, idx, testutil.Verses(t, "A-1-1", "B-1-1", "C-1-1", "D-1-1"))
	edges := []scripture.CrossReference{
		testutil.Edge("A-1-1", "B-1-1"),
		testutil.Edge("C-1-1", "D-1-1"),
		testutil.Edge("A-1-1", "Z-9-9"),
		testutil.Edge("GONE", "C-1-1"),
		testutil.Edge("D-1-1", "B-1-1"),
	}
	buckets, report := Classify(idx, vi, edges, Filter{})
	if report.SameTestament != 2 || report.Unresolved != 2 {
		t.Fatalf("report: %+v", report)
	}
	if len(buckets.OTToNT) != 0 || len(buckets.NTToOT) != 1 || buckets.NTToOT[0].FromID != "D-1-1" {
		t.Fatalf("buckets: %+v", buckets)
	}
}

func TestClassifyBucketsPartitionCrossTestamentEdges(t *testing.T) {
	idx := canon.Default()
	ids := []string{"GEN-1-1", "GEN-1-2", "ISA-7-14", "WIS-2-12", "MAT-1-23", "JHN-1-1", "REV-22-21"}
	vi := testutil.BuildIndex(t, idx, testutil.Verses(t, ids...))
	all := append(ids, "XYZ-1-1")

	rng := rand.New(rand.NewSource(3))
	sources := []string{"Haydock", "TSK", "OpenBible"}
	var edges []scripture.CrossReference
	for i := 0; i < 400; i++ {
		e := testutil.Edge(all[rng.Intn(len(all))], all[rng.Intn(len(all))], sources[rng.Intn(len(sources))])
		e.PassageGroup = []string{"", "g1"}[rng.Intn(2)]
		edges = append(edges, e)
	}

	filter := Filter{Sources: []string{"Haydock", "TSK"}}
	buckets, report := Classify(idx, vi, edges, filter)

	expected := 0
	for _, e := range edges {
		if !e.HasSource(filter.set()) {
			continue
		}
		from, ok1 := vi.Lookup(e.FromVerseID)
		to, ok2 := vi.Lookup(e.ToVerseID)
		if !ok1 || !ok2 {
			continue
		}
		ft, _ := idx.Testament(from.BookID)
		tt, _ := idx.Testament(to.BookID)
		if ft != tt {
			expected++
		}
	}
	if got := len(buckets.OTToNT) + len(buckets.NTToOT); got != expected {
		t.Fatalf("union size: want=%d got=%d", expected, got)
	}
	if report.Total != report.FilteredOut+report.Unresolved+report.SameTestament+expected {
		t.Fatalf("report does not account for every edge: %+v expected=%d", report, expected)
	}
	for _, r := range buckets.OTToNT {
		if ft, _ := idx.Testament(r.FromBook); ft != canon.OT {
			t.Fatalf("OT->NT bucket holds %+v", r)
		}
		if tt, _ := idx.Testament(r.ToBook); tt != canon.NT {
			t.Fatalf("OT->NT bucket holds %+v", r)
		}
	}
	for _, r := range buckets.NTToOT {
		if ft, _ := idx.Testament(r.FromBook); ft != canon.NT {
			t.Fatalf("NT->OT bucket holds %+v", r)
		}
	}
	for i := 1; i < len(buckets.OTToNT); i++ {
		a, b := buckets.OTToNT[i-1], buckets.OTToNT[i]
		if a.FromPosition > b.FromPosition || (a.FromPosition == b.FromPosition && a.ToPosition > b.ToPosition) {
			t.Fatalf("bucket not ordered at %d: %+v then %+v", i, a, b)
		}
	}
}

func TestFilterLabel(t *testing.T) {
	if got := (Filter{}).Label(); got != "All Sources" {
		t.Fatalf("empty filter label: %q", got)
	}
	if got := (Filter{Sources: []string{"Haydock", "TSK"}}).Label(); got != "Haydock + TSK" {
		t.Fatalf("label: %q", got)
	}
	if OTToNT.Label() != "OT to NT" || NTToOT.Label() != "NT to OT" {
		t.Fatalf("direction labels: %q %q", OTToNT.Label(), NTToOT.Label())
	}
}
