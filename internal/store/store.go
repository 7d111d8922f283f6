package store

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const keyStats = "engine_stats"
const keyRecordPrefix = "search/"

// SearchRecord is one completed go/bestmove cycle, kept purely as
// diagnostic history: nothing here is consulted as an opening book or
// tablebase during search.
type SearchRecord struct {
	FEN       string    `json:"fen"`
	BestMove  string    `json:"best_move"`
	Score     int       `json:"score"`
	Depth     int       `json:"depth"`
	Nodes     uint64    `json:"nodes"`
	Elapsed   time.Duration `json:"elapsed"`
	Timestamp time.Time `json:"timestamp"`
}

// EngineStats is a running aggregate over every recorded search.
type EngineStats struct {
	SearchesPerformed int    `json:"searches_performed"`
	TotalNodes        uint64 `json:"total_nodes"`
	DeepestDepth      int    `json:"deepest_depth"`
	LastPosition      string `json:"last_position"`
}

// Store wraps BadgerDB for persistent search telemetry. A nil *Store is
// valid and turns every method into a no-op, so callers that fail to open
// a database can keep running without telemetry.
type Store struct {
	db      *badger.DB
	counter uint64
	enabled bool
}

// Open creates or opens the telemetry database in the platform data
// directory. Recording starts disabled; call SetEnabled(true) or the UCI
// "setoption name Stats value on" command to turn it on.
func Open() (*Store, error) {
	dbDir, err := DatabaseDir()
	if err != nil {
		return nil, err
	}
	return openAt(dbDir)
}

func openAt(dbDir string) (*Store, error) {
	opts := badger.DefaultOptions(dbDir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SetEnabled turns telemetry recording on or off.
func (s *Store) SetEnabled(enabled bool) {
	if s == nil {
		return
	}
	s.enabled = enabled
}

// Enabled reports whether telemetry recording is currently on.
func (s *Store) Enabled() bool {
	return s != nil && s.enabled
}

// RecordSearch persists rec and folds it into the running EngineStats
// aggregate. A nil Store or a disabled Store is a silent no-op, and the
// call never blocks the search it describes: callers invoke this after
// bestmove has already been emitted.
func (s *Store) RecordSearch(rec SearchRecord) error {
	if !s.Enabled() {
		return nil
	}

	return s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		s.counter++
		key := make([]byte, len(keyRecordPrefix)+8)
		copy(key, keyRecordPrefix)
		binary.BigEndian.PutUint64(key[len(keyRecordPrefix):], s.counter)
		if err := txn.Set(key, data); err != nil {
			return err
		}

		stats, err := loadStats(txn)
		if err != nil {
			return err
		}
		stats.SearchesPerformed++
		stats.TotalNodes += rec.Nodes
		if rec.Depth > stats.DeepestDepth {
			stats.DeepestDepth = rec.Depth
		}
		stats.LastPosition = rec.FEN

		statsData, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		return txn.Set([]byte(keyStats), statsData)
	})
}

// LoadStats returns the current aggregate, or a zero value if nothing has
// been recorded yet.
func (s *Store) LoadStats() (EngineStats, error) {
	if s == nil || s.db == nil {
		return EngineStats{}, nil
	}
	var stats EngineStats
	err := s.db.View(func(txn *badger.Txn) error {
		loaded, err := loadStats(txn)
		if err != nil {
			return err
		}
		stats = loaded
		return nil
	})
	return stats, err
}

func loadStats(txn *badger.Txn) (EngineStats, error) {
	item, err := txn.Get([]byte(keyStats))
	if err == badger.ErrKeyNotFound {
		return EngineStats{}, nil
	}
	if err != nil {
		return EngineStats{}, err
	}
	var stats EngineStats
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &stats)
	})
	return stats, err
}
