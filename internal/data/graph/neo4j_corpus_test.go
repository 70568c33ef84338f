package graph

import (
	"context"
	"reflect"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/logosgraph-export/internal/domain/scripture"
	"github.com/yungbote/logosgraph-export/internal/platform/logger"
	"github.com/yungbote/logosgraph-export/internal/platform/neo4jdb"
)

func record(kv ...any) *neo4j.Record {
	rec := &neo4j.Record{}
	for i := 0; i+1 < len(kv); i += 2 {
		rec.Keys = append(rec.Keys, kv[i].(string))
		rec.Values = append(rec.Values, kv[i+1])
	}
	return rec
}

func TestRecordToVerse(t *testing.T) {
	v := recordToVerse(record("id", "GEN-1-1", "book", "GEN", "chapter", int64(1), "verse", int64(1), "text", "In the beginning"))
	want := scripture.Verse{ID: "GEN-1-1", BookID: "GEN", Chapter: 1, Verse: 1, Text: "In the beginning"}
	if v != want {
		t.Fatalf("verse: want=%+v got=%+v", want, v)
	}
}

func TestRecordToEdge(t *testing.T) {
	e := recordToEdge(record(
		"from_id", "ISA-7-14",
		"to_id", "MAT-1-23",
		"sources", []any{"Haydock", "TSK", 7},
		"votes", int64(42),
		"passage_group", nil,
	))
	if e.FromVerseID != "ISA-7-14" || e.ToVerseID != "MAT-1-23" || e.Votes != 42 || e.PassageGroup != "" {
		t.Fatalf("edge: %+v", e)
	}
	if !reflect.DeepEqual(e.Sources, []string{"Haydock", "TSK"}) {
		t.Fatalf("sources: %v", e.Sources)
	}
}

func TestRecordToEdgeMissingProperties(t *testing.T) {
	e := recordToEdge(record("from_id", "A", "to_id", "B", "passage_group", int64(3)))
	if e.Votes != 0 || e.Sources == nil || len(e.Sources) != 0 {
		t.Fatalf("edge: %+v", e)
	}
	if e.PassageGroup != "3" {
		t.Fatalf("numeric passage group: want %q got %q", "3", e.PassageGroup)
	}
}

func TestSnapshotWithoutDriverIsUnavailable(t *testing.T) {
	c := NewNeo4jCorpus(&neo4jdb.Client{}, logger.Nop())
	if _, err := c.Snapshot(context.Background(), nil); !scripture.IsCode(err, scripture.CodeUnavailable) {
		t.Fatalf("want unavailable, got %v", err)
	}
	if _, err := c.PassageMembers(context.Background(), "GEN-1-1", "g"); !scripture.IsCode(err, scripture.CodeUnavailable) {
		t.Fatalf("want unavailable, got %v", err)
	}
}
