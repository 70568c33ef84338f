package scripture

import (
	"context"
	"fmt"
	"strings"
)

type Verse struct {
	ID      string
	BookID  string
	Chapter int
	Verse   int
	Text    string
}

// CrossReference is a directed (from)-[CROSS_REFERENCES]->(to) edge.
// PassageGroup is empty when the edge is not part of a group.
type CrossReference struct {
	FromVerseID  string
	ToVerseID    string
	Sources      []string
	Votes        int
	PassageGroup string
}

func (e CrossReference) HasSource(set map[string]struct{}) bool {
	for _, s := range e.Sources {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}

type PassageMember struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Snapshot is one consistent read of the corpus. VerseCounts and Verses
// must come from the same logical read or positions lose density.
type Snapshot struct {
	VerseCounts map[string]int
	Verses      []Verse
	Edges       []CrossReference
}

type Corpus interface {
	// Snapshot reads counts, verses and edges in one read transaction.
	// A non-empty sources list narrows edges to those carrying any of them.
	Snapshot(ctx context.Context, sources []string) (*Snapshot, error)
	// PassageMembers lists the targets sourceVerseID references under group.
	PassageMembers(ctx context.Context, sourceVerseID, group string) ([]PassageMember, error)
	// Label names the store in dataset metadata.
	Label() string
	Close(ctx context.Context) error
}

// FormatReference turns "GEN-1-1" into "GEN 1:1"; other shapes pass through.
func FormatReference(verseID string) string {
	parts := strings.Split(verseID, "-")
	if len(parts) < 3 {
		return verseID
	}
	return fmt.Sprintf("%s %s:%s", parts[0], parts[1], parts[2])
}
