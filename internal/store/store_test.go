package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "knightfall-store-*")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	dbDir := filepath.Join(tmpDir, "db")
	s, err := openAt(dbDir)
	if err != nil {
		t.Fatalf("openAt: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDisabledStoreDoesNotRecord(t *testing.T) {
	s := newTestStore(t)

	if err := s.RecordSearch(SearchRecord{FEN: "startpos", Depth: 4, Nodes: 100}); err != nil {
		t.Fatalf("RecordSearch: %v", err)
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.SearchesPerformed != 0 {
		t.Errorf("expected no searches recorded while disabled, got %d", stats.SearchesPerformed)
	}
}

func TestRecordSearchAccumulatesStats(t *testing.T) {
	s := newTestStore(t)
	s.SetEnabled(true)

	records := []SearchRecord{
		{FEN: "pos1", BestMove: "e2e4", Depth: 5, Nodes: 1000, Timestamp: time.Now()},
		{FEN: "pos2", BestMove: "d2d4", Depth: 8, Nodes: 5000, Timestamp: time.Now()},
		{FEN: "pos3", BestMove: "g1f3", Depth: 3, Nodes: 200, Timestamp: time.Now()},
	}
	for _, r := range records {
		if err := s.RecordSearch(r); err != nil {
			t.Fatalf("RecordSearch: %v", err)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.SearchesPerformed != 3 {
		t.Errorf("expected 3 searches, got %d", stats.SearchesPerformed)
	}
	if stats.TotalNodes != 6200 {
		t.Errorf("expected total nodes 6200, got %d", stats.TotalNodes)
	}
	if stats.DeepestDepth != 8 {
		t.Errorf("expected deepest depth 8, got %d", stats.DeepestDepth)
	}
	if stats.LastPosition != "pos3" {
		t.Errorf("expected last position pos3, got %s", stats.LastPosition)
	}
}

func TestNilStoreIsNoOp(t *testing.T) {
	var s *Store
	if s.Enabled() {
		t.Error("nil store should never report enabled")
	}
	if err := s.RecordSearch(SearchRecord{}); err != nil {
		t.Errorf("nil store RecordSearch should be a no-op, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("nil store Close should be a no-op, got %v", err)
	}
}
