package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/logosgraph-export/internal/domain/scripture"
	"github.com/yungbote/logosgraph-export/internal/platform/logger"
	"github.com/yungbote/logosgraph-export/internal/platform/neo4jdb"
)

const (
	verseCountsQuery = `
MATCH (v:Verse)
RETURN v.book_id AS book, count(v) AS verse_count
`
	versesQuery = `
MATCH (v:Verse)
RETURN v.id AS id, v.book_id AS book, v.chapter AS chapter, v.verse AS verse, v.text AS text
ORDER BY v.book_id, v.chapter, v.verse
`
	crossReferencesQuery = `
MATCH (a:Verse)-[r:CROSS_REFERENCES]->(b:Verse)
WHERE $sources IS NULL OR any(s IN r.sources WHERE s IN $sources)
RETURN a.id AS from_id, b.id AS to_id, r.sources AS sources, r.votes AS votes, r.passage_group AS passage_group
`
	passageMembersQuery = `
MATCH (source:Verse {id: $source_id})-[r:CROSS_REFERENCES]->(target:Verse)
WHERE r.passage_group = $passage_group
RETURN target.id AS verse_id, target.text AS text
ORDER BY target.book_id, target.chapter, target.verse
`
)

// Neo4jCorpus reads the verse graph: (:Verse)-[:CROSS_REFERENCES]->(:Verse).
type Neo4jCorpus struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewNeo4jCorpus(client *neo4jdb.Client, log *logger.Logger) *Neo4jCorpus {
	return &Neo4jCorpus{client: client, log: log.With("corpus", "Neo4j")}
}

func (c *Neo4jCorpus) Label() string { return "LogosGraph Neo4j Database" }

func (c *Neo4jCorpus) Close(ctx context.Context) error { return c.client.Close(ctx) }

// Snapshot runs the count, verse and edge queries inside one read
// transaction so positions are computed against a single view.
func (c *Neo4jCorpus) Snapshot(ctx context.Context, sources []string) (*scripture.Snapshot, error) {
	if c.client == nil || c.client.Driver == nil {
		return nil, scripture.Unavailable("graph.snapshot", fmt.Errorf("neo4j client not initialized"))
	}
	session := c.client.ReadSession(ctx)
	defer session.Close(ctx)

	var sourceParam any
	if len(sources) > 0 {
		sourceParam = sources
	}

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		snap := &scripture.Snapshot{VerseCounts: map[string]int{}}

		res, err := tx.Run(ctx, verseCountsQuery, nil)
		if err != nil {
			return nil, fmt.Errorf("verse counts: %w", err)
		}
		for res.Next(ctx) {
			rec := res.Record()
			snap.VerseCounts[getString(rec, "book")] += getInt(rec, "verse_count")
		}
		if err := res.Err(); err != nil {
			return nil, fmt.Errorf("verse counts: %w", err)
		}

		res, err = tx.Run(ctx, versesQuery, nil)
		if err != nil {
			return nil, fmt.Errorf("verses: %w", err)
		}
		for res.Next(ctx) {
			snap.Verses = append(snap.Verses, recordToVerse(res.Record()))
		}
		if err := res.Err(); err != nil {
			return nil, fmt.Errorf("verses: %w", err)
		}

		res, err = tx.Run(ctx, crossReferencesQuery, map[string]any{"sources": sourceParam})
		if err != nil {
			return nil, fmt.Errorf("cross references: %w", err)
		}
		for res.Next(ctx) {
			snap.Edges = append(snap.Edges, recordToEdge(res.Record()))
		}
		if err := res.Err(); err != nil {
			return nil, fmt.Errorf("cross references: %w", err)
		}
		return snap, nil
	})
	if err != nil {
		return nil, scripture.Unavailable("graph.snapshot", err)
	}
	snap := out.(*scripture.Snapshot)
	c.log.Info("Read corpus snapshot",
		"books", len(snap.VerseCounts),
		"verses", len(snap.Verses),
		"edges", len(snap.Edges),
		"sources", strings.Join(sources, ","),
	)
	return snap, nil
}

func (c *Neo4jCorpus) PassageMembers(ctx context.Context, sourceVerseID, group string) ([]scripture.PassageMember, error) {
	if c.client == nil || c.client.Driver == nil {
		return nil, scripture.Unavailable("graph.passage_members", fmt.Errorf("neo4j client not initialized"))
	}
	session := c.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, passageMembersQuery, map[string]any{
			"source_id":     sourceVerseID,
			"passage_group": group,
		})
		if err != nil {
			return nil, err
		}
		var members []scripture.PassageMember
		for res.Next(ctx) {
			rec := res.Record()
			members = append(members, scripture.PassageMember{
				ID:   getString(rec, "verse_id"),
				Text: getString(rec, "text"),
			})
		}
		return members, res.Err()
	})
	if err != nil {
		return nil, scripture.Unavailable("graph.passage_members", err)
	}
	members, _ := out.([]scripture.PassageMember)
	return members, nil
}

func recordToVerse(rec *neo4j.Record) scripture.Verse {
	return scripture.Verse{
		ID:      getString(rec, "id"),
		BookID:  getString(rec, "book"),
		Chapter: getInt(rec, "chapter"),
		Verse:   getInt(rec, "verse"),
		Text:    getString(rec, "text"),
	}
}

func recordToEdge(rec *neo4j.Record) scripture.CrossReference {
	return scripture.CrossReference{
		FromVerseID:  getString(rec, "from_id"),
		ToVerseID:    getString(rec, "to_id"),
		Sources:      getStrings(rec, "sources"),
		Votes:        getInt(rec, "votes"),
		PassageGroup: getString(rec, "passage_group"),
	}
}

func getString(rec *neo4j.Record, key string) string {
	val, ok := rec.Get(key)
	if !ok || val == nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func getInt(rec *neo4j.Record, key string) int {
	val, ok := rec.Get(key)
	if !ok || val == nil {
		return 0
	}
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func getStrings(rec *neo4j.Record, key string) []string {
	val, ok := rec.Get(key)
	if !ok || val == nil {
		return []string{}
	}
	switch v := val.(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	default:
		return []string{}
	}
}
