package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rcliao/pawscribe/internal/model"
)

func TestSearchEvents(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.AppendEvent(ctx, &model.MemoryEntry{Type: "event", Predicate: "cat", Object: "Tom", RawText: "I adopted a cat named Tom"})
	s.AppendEvent(ctx, &model.MemoryEntry{Type: "event", Predicate: "moved", Object: "Oslo", RawText: "We moved to Oslo"})
	s.AppendEvent(ctx, &model.MemoryEntry{Type: "fact", RawText: "My cat hates rain"})

	tests := []struct {
		name     string
		params   SearchParams
		expected int
	}{
		{"single word", SearchParams{Query: "cat"}, 2},
		{"object column", SearchParams{Query: "oslo"}, 1},
		{"all words required", SearchParams{Query: "cat rain"}, 1},
		{"type filter", SearchParams{Query: "cat", Type: "fact"}, 1},
		{"no match", SearchParams{Query: "zebra"}, 0},
		{"syntax is quoted", SearchParams{Query: `cat" OR "moved`}, 0},
		{"limit", SearchParams{Query: "cat", Limit: 1}, 1},
		{"empty query", SearchParams{Query: "  "}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := s.SearchEvents(ctx, tt.params)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(results) != tt.expected {
				t.Errorf("expected %d results, got %d", tt.expected, len(results))
			}
		})
	}
}

func TestSearchSkipsPrunedEvents(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.AppendEvent(ctx, &model.MemoryEntry{RawText: "ancient history"})
	for i := 0; i < MaxEvents; i++ {
		s.AppendEvent(ctx, &model.MemoryEntry{RawText: "filler"})
	}
	results, err := s.SearchEvents(ctx, SearchParams{Query: "ancient"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected pruned event to be gone from the index, got %d", len(results))
	}
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	s.SetSlot(ctx, "name", "Ann")
	s.AppendEvent(ctx, &model.MemoryEntry{Type: "event", RawText: "a"})
	s.AppendEvent(ctx, &model.MemoryEntry{Type: "event", RawText: "b"})
	s.AppendEvent(ctx, &model.MemoryEntry{Type: "fact", RawText: "c"})

	stats, err := s.Stats(ctx, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Slots != 1 {
		t.Fatalf("expected 1 slot, got %d", stats.Slots)
	}
	if stats.Events != 3 {
		t.Fatalf("expected 3 events, got %d", stats.Events)
	}
	if len(stats.EventTypes) != 2 || stats.EventTypes[0].Type != "event" {
		t.Fatalf("unexpected type stats: %+v", stats.EventTypes)
	}
	if stats.DBSizeBytes == 0 {
		t.Fatal("expected non-zero db size")
	}
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	s1, _ := NewSQLiteStore(filepath.Join(dir, "src.db"))
	defer s1.Close()
	ctx := context.Background()

	s1.SetSlot(ctx, "name", "Ann")
	s1.SetSlot(ctx, "pet", "cat")
	s1.AppendEvent(ctx, &model.MemoryEntry{Type: "event", Predicate: "cat", RawText: "I adopted a cat"})

	exported, err := s1.ExportAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(exported.Slots) != 2 || len(exported.Memories) != 1 {
		t.Fatalf("expected 2 slots and 1 memory, got %d and %d", len(exported.Slots), len(exported.Memories))
	}

	s2, _ := NewSQLiteStore(filepath.Join(dir, "dst.db"))
	defer s2.Close()

	n, err := s2.Import(ctx, exported)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("expected 3 imported, got %d", n)
	}

	// Importing again skips known events but rewrites slots.
	n, _ = s2.Import(ctx, exported)
	if n != 2 {
		t.Fatalf("expected 2 on re-import, got %d", n)
	}

	events, _ := s2.ListEvents(ctx, ListEventsParams{})
	if len(events) != 1 || events[0].ID != exported.Memories[0].ID {
		t.Fatalf("expected the exported event to keep its ID, got %+v", events)
	}
	v, _, _ := s2.GetSlot(ctx, "pet")
	if v != "cat" {
		t.Errorf("expected pet=cat, got %q", v)
	}
}

func TestImportRejectsUnknownType(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Import(context.Background(), &model.Export{
		Memories: []model.MemoryEntry{{Type: "bogus", RawText: "x"}},
	})
	if err == nil {
		t.Fatal("expected error for unknown memory type")
	}
}
