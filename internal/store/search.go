package store

import (
	"context"
	"strings"

	"github.com/rcliao/pawscribe/internal/model"
)

// SearchParams holds parameters for searching memory events.
type SearchParams struct {
	Query string
	Type  string
	Limit int
}

// SearchEvents finds events whose predicate, object or raw text contain every
// query word, best match first.
func (s *SQLiteStore) SearchEvents(ctx context.Context, p SearchParams) ([]model.MemoryEntry, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	match := ftsQuery(p.Query)
	if match == "" {
		return nil, nil
	}

	where := []string{"memory_events_fts MATCH ?"}
	args := []interface{}{match}
	if p.Type != "" {
		where = append(where, "e.type = ?")
		args = append(args, p.Type)
	}

	query := `SELECT e.id, e.type, e.predicate, e.object, e.raw_text, e.confidence, e.created_at
	          FROM memory_events_fts
	          JOIN memory_events e ON e.rowid = memory_events_fts.rowid
	          WHERE ` + strings.Join(where, " AND ") + `
	          ORDER BY bm25(memory_events_fts), e.id DESC
	          LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ftsQuery quotes every word so user input never reaches the FTS5 query
// syntax.
func ftsQuery(q string) string {
	var terms []string
	for _, f := range strings.Fields(q) {
		f = strings.ReplaceAll(f, `"`, `""`)
		terms = append(terms, `"`+f+`"`)
	}
	return strings.Join(terms, " ")
}
