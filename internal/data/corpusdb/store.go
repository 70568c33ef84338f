// Package corpusdb serves the corpus from relational tables (verses,
// cross_references), for exports run against a SQLite or Postgres copy of
// the graph instead of Neo4j.
package corpusdb

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/logosgraph-export/internal/domain/scripture"
	"github.com/yungbote/logosgraph-export/internal/platform/logger"
)

type Store struct {
	db    *gorm.DB
	log   *logger.Logger
	label string
}

func New(db *gorm.DB, log *logger.Logger, label string) *Store {
	if label == "" {
		label = "LogosGraph relational snapshot"
	}
	return &Store{db: db, log: log.With("corpus", "SQL"), label: label}
}

func (s *Store) Label() string { return s.label }

func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&VerseRow{}, &CrossReferenceRow{}); err != nil {
		return fmt.Errorf("corpusdb: migrate: %w", err)
	}
	return nil
}

// Import writes verses and edges in one transaction.
func (s *Store) Import(ctx context.Context, verses []scripture.Verse, edges []scripture.CrossReference) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(verses) > 0 {
			rows := make([]VerseRow, 0, len(verses))
			for _, v := range verses {
				rows = append(rows, VerseRow{ID: v.ID, BookID: v.BookID, Chapter: v.Chapter, Verse: v.Verse, Text: v.Text})
			}
			if err := tx.CreateInBatches(rows, 500).Error; err != nil {
				return fmt.Errorf("corpusdb: import verses: %w", err)
			}
		}
		if len(edges) > 0 {
			rows := make([]CrossReferenceRow, 0, len(edges))
			for _, e := range edges {
				row := CrossReferenceRow{
					FromVerseID: e.FromVerseID,
					ToVerseID:   e.ToVerseID,
					Sources:     append([]string{}, e.Sources...),
					Votes:       e.Votes,
				}
				if e.PassageGroup != "" {
					g := e.PassageGroup
					row.PassageGroup = &g
				}
				rows = append(rows, row)
			}
			if err := tx.CreateInBatches(rows, 500).Error; err != nil {
				return fmt.Errorf("corpusdb: import cross references: %w", err)
			}
		}
		return nil
	})
}

type bookCount struct {
	BookID string
	N      int
}

// Snapshot reads counts, verses and edges inside one transaction. Source
// filtering happens after the read since sources are stored as JSON.
func (s *Store) Snapshot(ctx context.Context, sources []string) (*scripture.Snapshot, error) {
	snap := &scripture.Snapshot{VerseCounts: map[string]int{}}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counts []bookCount
		if err := tx.Model(&VerseRow{}).Select("book_id, count(*) AS n").Group("book_id").Scan(&counts).Error; err != nil {
			return fmt.Errorf("verse counts: %w", err)
		}
		for _, c := range counts {
			snap.VerseCounts[c.BookID] = c.N
		}

		var verses []VerseRow
		if err := tx.Order("book_id, chapter, verse").Find(&verses).Error; err != nil {
			return fmt.Errorf("verses: %w", err)
		}
		snap.Verses = make([]scripture.Verse, 0, len(verses))
		for _, v := range verses {
			snap.Verses = append(snap.Verses, scripture.Verse{ID: v.ID, BookID: v.BookID, Chapter: v.Chapter, Verse: v.Verse, Text: v.Text})
		}

		var edges []CrossReferenceRow
		if err := tx.Order("id").Find(&edges).Error; err != nil {
			return fmt.Errorf("cross references: %w", err)
		}
		keep := map[string]struct{}{}
		for _, src := range sources {
			keep[src] = struct{}{}
		}
		for _, row := range edges {
			e := rowToEdge(row)
			if len(keep) > 0 && !e.HasSource(keep) {
				continue
			}
			snap.Edges = append(snap.Edges, e)
		}
		return nil
	})
	if err != nil {
		return nil, scripture.Unavailable("corpusdb.snapshot", err)
	}
	s.log.Info("Read corpus snapshot", "books", len(snap.VerseCounts), "verses", len(snap.Verses), "edges", len(snap.Edges))
	return snap, nil
}

type memberRow struct {
	ID   string
	Text string
}

func (s *Store) PassageMembers(ctx context.Context, sourceVerseID, group string) ([]scripture.PassageMember, error) {
	var rows []memberRow
	err := s.db.WithContext(ctx).
		Table("cross_references AS r").
		Select("v.id AS id, v.text AS text").
		Joins("JOIN verses AS v ON v.id = r.to_verse_id").
		Where("r.from_verse_id = ? AND r.passage_group = ?", sourceVerseID, group).
		Order("v.book_id, v.chapter, v.verse").
		Scan(&rows).Error
	if err != nil {
		return nil, scripture.Unavailable("corpusdb.passage_members", err)
	}
	out := make([]scripture.PassageMember, 0, len(rows))
	for _, r := range rows {
		out = append(out, scripture.PassageMember{ID: r.ID, Text: r.Text})
	}
	return out, nil
}

func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func rowToEdge(row CrossReferenceRow) scripture.CrossReference {
	e := scripture.CrossReference{
		FromVerseID: row.FromVerseID,
		ToVerseID:   row.ToVerseID,
		Sources:     append([]string{}, row.Sources...),
		Votes:       row.Votes,
	}
	if row.PassageGroup != nil {
		e.PassageGroup = *row.PassageGroup
	}
	return e
}
