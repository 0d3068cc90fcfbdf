package index

import (
	"database/sql"
	"fmt"
	"time"
)

// MediaRow is the flattened, searchable view of one record.
type MediaRow struct {
	Path    string
	Kind    string
	Caption string    // free text attached to the record
	Notes   string    // video annotation texts, joined
	Place   string    // displayed location
	TakenAt time.Time // effective instant; zero when unresolved
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Kind    string
	Snippet string
}

// UpsertMedia inserts or replaces a row and its FTS entry within a transaction.
func (db *DB) UpsertMedia(row MediaRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := upsertRow(tx, row); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertRow(tx *sql.Tx, row MediaRow) error {
	takenAt := sql.NullTime{Time: row.TakenAt, Valid: !row.TakenAt.IsZero()}
	_, err := tx.Exec(`
		INSERT INTO media (path, kind, caption, notes, place, taken_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			kind       = excluded.kind,
			caption    = excluded.caption,
			notes      = excluded.notes,
			place      = excluded.place,
			taken_at   = excluded.taken_at,
			updated_at = CURRENT_TIMESTAMP
	`, row.Path, row.Kind, row.Caption, row.Notes, row.Place, takenAt)
	if err != nil {
		return fmt.Errorf("index: upsert media: %w", err)
	}
	return ftsUpsert(tx, row)
}

// DeleteMedia removes a row and its FTS entry.
func (db *DB) DeleteMedia(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM media WHERE path = ?`, path)

	return tx.Commit()
}

// ReplaceAll swaps the whole index for the given rows in one
// transaction. Sessions call this when they open or rescan.
func (db *DB) ReplaceAll(rows []MediaRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM media`); err != nil {
		return fmt.Errorf("index: clear media: %w", err)
	}
	ftsClear(tx)
	for _, row := range rows {
		if err := upsertRow(tx, row); err != nil {
			return err
		}
	}
	return tx.Commit()
}
