//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search falls back to LIKE over the media table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ MediaRow) error {
	// Text already lives in the media table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

func ftsClear(_ *sql.Tx) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT path, kind, substr(trim(caption || ' ' || notes || ' ' || place), 1, 200)
		FROM media
		WHERE caption LIKE ? OR notes LIKE ? OR place LIKE ?
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Kind, &r.Snippet); err != nil {
			return nil, err
		}
		r.Snippet = strings.TrimSpace(r.Snippet)
		out = append(out, r)
	}
	return out, rows.Err()
}
