package corpusdb

import "gorm.io/datatypes"

type VerseRow struct {
	ID      string `gorm:"column:id;primaryKey"`
	BookID  string `gorm:"column:book_id;index:idx_verses_order,priority:1;not null"`
	Chapter int    `gorm:"column:chapter;index:idx_verses_order,priority:2;not null"`
	Verse   int    `gorm:"column:verse;index:idx_verses_order,priority:3;not null"`
	Text    string `gorm:"column:text"`
}

func (VerseRow) TableName() string { return "verses" }

type CrossReferenceRow struct {
	ID           uint                        `gorm:"column:id;primaryKey;autoIncrement"`
	FromVerseID  string                      `gorm:"column:from_verse_id;index:idx_crossrefs_group,priority:1;not null"`
	ToVerseID    string                      `gorm:"column:to_verse_id;index;not null"`
	Sources      datatypes.JSONSlice[string] `gorm:"column:sources"`
	Votes        int                         `gorm:"column:votes"`
	PassageGroup *string                     `gorm:"column:passage_group;index:idx_crossrefs_group,priority:2"`
}

func (CrossReferenceRow) TableName() string { return "cross_references" }
