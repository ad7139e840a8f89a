// Package store persists imported novels and their chapters in SQLite.
//
// A novel's chapter set is only ever replaced as a whole, inside one
// transaction, so readers see either the previous import or the new one.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/manuscript/internal/doctree"
	"github.com/dgallion1/manuscript/internal/importer"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a novel or chapter does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS novels (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	source_filename TEXT NOT NULL DEFAULT '',
	source_format   TEXT NOT NULL DEFAULT '',
	content_hash    TEXT NOT NULL DEFAULT '',
	updated_at      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chapters (
	id         TEXT PRIMARY KEY,
	novel_id   TEXT NOT NULL REFERENCES novels(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	title      TEXT NOT NULL,
	body_text  TEXT NOT NULL,
	doc_json   TEXT NOT NULL,
	word_count INTEGER NOT NULL DEFAULT 0,
	UNIQUE (novel_id, position)
);
CREATE INDEX IF NOT EXISTS idx_novels_content_hash ON novels(content_hash);
`

// Store is a SQLite-backed novel repository.
type Store struct {
	db *sql.DB
}

// Novel is a stored novel's metadata.
type Novel struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	SourceFilename string    `json:"source_filename"`
	SourceFormat   string    `json:"source_format"`
	ContentHash    string    `json:"content_hash"`
	ChapterCount   int       `json:"chapter_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Chapter is a stored chapter. Doc is nil in listings.
type Chapter struct {
	ID        string        `json:"id"`
	NovelID   string        `json:"novel_id"`
	Position  int           `json:"position"`
	Title     string        `json:"title"`
	BodyText  string        `json:"body_text,omitempty"`
	Doc       *doctree.Node `json:"doc,omitempty"`
	WordCount int           `json:"word_count"`
}

// Source describes where an import came from.
type Source struct {
	Filename    string
	ContentHash string
}

// Open opens (and if needed creates) the database at path and applies the
// schema. ":memory:" is pinned to a single connection.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// IsBusy reports whether err is an SQLite BUSY/locked condition worth
// retrying.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// ReplaceNovel stores novel under novelID, replacing its title and its whole
// chapter set. Chapter ids are assigned here, in order.
func (s *Store) ReplaceNovel(ctx context.Context, novelID string, src Source, novel *importer.Novel) ([]Chapter, error) {
	if novel == nil || len(novel.Chapters) == 0 {
		return nil, fmt.Errorf("store: replace %s: novel has no chapters", novelID)
	}

	chapters := make([]Chapter, 0, len(novel.Chapters))
	docs := make([][]byte, 0, len(novel.Chapters))
	for i, ch := range novel.Chapters {
		docJSON, err := doctree.Marshal(ch.Doc)
		if err != nil {
			return nil, fmt.Errorf("store: chapter %d: %w", i, err)
		}
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("store: chapter id: %w", err)
		}
		chapters = append(chapters, Chapter{
			ID:        id.String(),
			NovelID:   novelID,
			Position:  i,
			Title:     ch.Title,
			BodyText:  ch.BodyText,
			Doc:       ch.Doc,
			WordCount: doctree.WordCount(ch.Doc),
		})
		docs = append(docs, docJSON)
	}

	err := s.runTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO novels (id, title, source_filename, source_format, content_hash, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				source_filename = excluded.source_filename,
				source_format = excluded.source_format,
				content_hash = excluded.content_hash,
				updated_at = excluded.updated_at`,
			novelID, novel.Title, src.Filename, novel.Format, src.ContentHash,
			time.Now().UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("upsert novel: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM chapters WHERE novel_id = ?`, novelID); err != nil {
			return fmt.Errorf("delete chapters: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chapters (id, novel_id, position, title, body_text, doc_json, word_count)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare chapter insert: %w", err)
		}
		defer stmt.Close()
		for i, ch := range chapters {
			if _, err := stmt.ExecContext(ctx, ch.ID, novelID, ch.Position, ch.Title, ch.BodyText, string(docs[i]), ch.WordCount); err != nil {
				return fmt.Errorf("insert chapter %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: replace %s: %w", novelID, err)
	}
	return chapters, nil
}

func (s *Store) runTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetNovel returns a novel's metadata and chapter count.
func (s *Store) GetNovel(ctx context.Context, id string) (*Novel, error) {
	var (
		n       Novel
		updated string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT n.id, n.title, n.source_filename, n.source_format, n.content_hash, n.updated_at,
			(SELECT COUNT(*) FROM chapters c WHERE c.novel_id = n.id)
		FROM novels n WHERE n.id = ?`, id).
		Scan(&n.ID, &n.Title, &n.SourceFilename, &n.SourceFormat, &n.ContentHash, &updated, &n.ChapterCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("novel %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get novel %s: %w", id, err)
	}
	n.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &n, nil
}

// ListChapters returns a novel's chapters in order, without documents.
func (s *Store) ListChapters(ctx context.Context, novelID string) ([]Chapter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, position, title, word_count
		FROM chapters WHERE novel_id = ? ORDER BY position`, novelID)
	if err != nil {
		return nil, fmt.Errorf("store: list chapters %s: %w", novelID, err)
	}
	defer rows.Close()

	var out []Chapter
	for rows.Next() {
		ch := Chapter{NovelID: novelID}
		if err := rows.Scan(&ch.ID, &ch.Position, &ch.Title, &ch.WordCount); err != nil {
			return nil, fmt.Errorf("store: scan chapter: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// LoadChapters returns a novel's chapters in order, documents included.
func (s *Store) LoadChapters(ctx context.Context, novelID string) ([]Chapter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, position, title, body_text, doc_json, word_count
		FROM chapters WHERE novel_id = ? ORDER BY position`, novelID)
	if err != nil {
		return nil, fmt.Errorf("store: load chapters %s: %w", novelID, err)
	}
	defer rows.Close()

	var out []Chapter
	for rows.Next() {
		ch, err := scanChapter(rows, novelID)
		if err != nil {
			return nil, err
		}
		out = append(out, *ch)
	}
	return out, rows.Err()
}

// GetChapter returns one chapter with its document.
func (s *Store) GetChapter(ctx context.Context, novelID, chapterID string) (*Chapter, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, position, title, body_text, doc_json, word_count
		FROM chapters WHERE novel_id = ? AND id = ?`, novelID, chapterID)
	ch, err := scanChapter(row, novelID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chapter %s: %w", chapterID, ErrNotFound)
	}
	return ch, err
}

// DeleteNovel removes a novel and its chapters.
func (s *Store) DeleteNovel(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM novels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete novel %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("novel %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChapter(sc scanner, novelID string) (*Chapter, error) {
	var (
		ch      = Chapter{NovelID: novelID}
		docJSON string
	)
	if err := sc.Scan(&ch.ID, &ch.Position, &ch.Title, &ch.BodyText, &docJSON, &ch.WordCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: scan chapter: %w", err)
	}
	doc, err := doctree.Unmarshal([]byte(docJSON))
	if err != nil {
		return nil, fmt.Errorf("store: chapter %s: %w", ch.ID, err)
	}
	ch.Doc = doc
	return &ch, nil
}
