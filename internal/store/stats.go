package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath      string      `json:"db_path"`
	DBSizeBytes int64       `json:"db_size_bytes"`
	Slots       int         `json:"slots"`
	Events      int         `json:"events"`
	EventTypes  []TypeStats `json:"event_types"`
}

// TypeStats holds per-type event counts.
type TypeStats struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM slots`).Scan(&st.Slots)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_events`).Scan(&st.Events)

	rows, err := s.db.QueryContext(ctx, `
		SELECT type, COUNT(*) AS cnt FROM memory_events
		GROUP BY type ORDER BY cnt DESC, type`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var ts TypeStats
		rows.Scan(&ts.Type, &ts.Count)
		st.EventTypes = append(st.EventTypes, ts)
	}

	return st, nil
}
