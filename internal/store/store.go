// Package store persists transcript history in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Transcript is one persisted utterance result.
type Transcript struct {
	bun.BaseModel `bun:"table:transcripts"`

	ID          int64     `bun:"id,pk,autoincrement"`
	UtteranceID string    `bun:"utterance_id,notnull"`
	GuildID     string    `bun:"guild_id,notnull"`
	ChannelID   string    `bun:"channel_id,notnull"`
	UserID      string    `bun:"user_id,notnull"`
	UserName    string    `bun:"user_name"`
	Language    string    `bun:"language"`
	Text        string    `bun:"text,notnull"`
	Translation string    `bun:"translation"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

// Store wraps the bun handle over the transcripts database.
type Store struct {
	sqldb *sql.DB
	db    *bun.DB
}

// Open opens (or creates) the SQLite database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open transcript store %q: %w", path, err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if _, err := db.NewCreateTable().Model((*Transcript)(nil)).IfNotExists().Exec(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("create transcripts table: %w", err)
	}

	return &Store{sqldb: sqldb, db: db}, nil
}

// Save inserts one transcript row.
func (s *Store) Save(ctx context.Context, t Transcript) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(&t).Exec(ctx); err != nil {
		return fmt.Errorf("insert transcript: %w", err)
	}
	return nil
}

// Recent returns up to limit transcripts for a guild, newest first.
func (s *Store) Recent(ctx context.Context, guildID string, limit int) ([]Transcript, error) {
	if limit <= 0 {
		limit = 10
	}

	transcripts := make([]Transcript, 0, limit)
	err := s.db.NewSelect().
		Model(&transcripts).
		Where("guild_id = ?", guildID).
		OrderExpr("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select recent transcripts: %w", err)
	}
	return transcripts, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.sqldb.Close()
}
