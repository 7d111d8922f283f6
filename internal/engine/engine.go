// Package engine implements the transposition table and the
// iterative-deepening negamax search built on top of internal/board.
package engine

import (
	"sync/atomic"
	"time"

	"github.com/knightfall/engine/internal/board"
	"github.com/knightfall/engine/internal/eval"
)

// SearchInfo reports progress after each completed iterative-deepening
// depth, the shape a UCI "info" line is built from.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int
}

// SearchLimits specifies constraints on one search invocation. A zero
// Depth caps iterative deepening at depth 50; a zero Nodes or MoveTime
// imposes no limit.
type SearchLimits struct {
	Depth       int
	Nodes       uint64
	MoveTime    time.Duration
	Infinite    bool
	SearchMoves []board.Move // if non-empty, restrict the root to these moves
}

// Engine owns the transposition table and drives iterative deepening
// over a caller-supplied position.
type Engine struct {
	tt   *TranspositionTable
	stop atomic.Bool

	OnInfo func(SearchInfo)
}

// NewEngine creates an engine with a transposition table sized to
// ttSizeMB megabytes.
func NewEngine(ttSizeMB int) *Engine {
	return &Engine{tt: NewTranspositionTable(ttSizeMB)}
}

// SearchWithLimits finds the best move for pos, respecting limits, and
// reports progress through OnInfo after each completed depth.
func (e *Engine) SearchWithLimits(pos *board.Position, limits SearchLimits) board.Move {
	e.stop.Store(false)

	s := NewSearch(e.tt, &e.stop)
	s.Reset()
	if len(limits.SearchMoves) > 0 {
		s.SetExcludedMoves(complementOf(pos, limits.SearchMoves))
	}
	pos.EnterFastMode()
	defer pos.LeaveFastMode()

	startTime := time.Now()

	maxDepth := 50
	if limits.Depth > 0 {
		maxDepth = limits.Depth
		if maxDepth > MaxPly {
			maxDepth = MaxPly
		}
	}

	if limits.MoveTime > 0 {
		s.SetDeadline(startTime.Add(limits.MoveTime))
	}

	var bestMove board.Move
	var bestScore int

	for depth := 1; depth <= maxDepth; depth++ {
		if e.stop.Load() {
			break
		}
		if limits.Nodes > 0 && s.Nodes() >= limits.Nodes {
			break
		}

		move, score := s.SearchDepth(pos, depth, -Infinity, Infinity)

		// An iteration cut short by stop or deadline is discarded; only
		// depth 1 is kept regardless, so some move is always available.
		if depth > 1 && s.timeUp() {
			break
		}

		if move != board.NoMove {
			bestMove = move
			bestScore = score
		}

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    bestScore,
				Nodes:    s.Nodes(),
				Time:     time.Since(startTime),
				PV:       s.GetPV(),
				HashFull: e.tt.HashFull(),
			})
		}

		if bestScore > mateThreshold || bestScore < -mateThreshold {
			break
		}
		if e.stop.Load() {
			break
		}
	}

	return bestMove
}

// Stop requests cancellation of any in-progress search.
func (e *Engine) Stop() {
	e.stop.Store(true)
}

// Clear empties the transposition table for a new game.
func (e *Engine) Clear() {
	e.tt.Clear()
}

// Resize replaces the transposition table with one sized to sizeMB
// megabytes. The caller must ensure no search is running.
func (e *Engine) Resize(sizeMB int) {
	e.tt = NewTranspositionTable(sizeMB)
}

// HashFull returns the transposition table's occupancy in permille.
func (e *Engine) HashFull() int {
	return e.tt.HashFull()
}

// Perft counts leaf nodes at depth, for the UCI debug "perft" command.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}
	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		undo := pos.MakeMove(m)
		nodes += e.Perft(pos, depth-1)
		pos.UnmakeMove(m, undo)
	}
	return nodes
}

// Evaluate returns the static evaluation of pos from the side-to-move's
// perspective.
func (e *Engine) Evaluate(pos *board.Position) int {
	return eval.Evaluate(pos)
}

// ScoreToString renders a centipawn/mate score as readable text: "Mate in
// N", "Mated in N", or pawns with two decimals such as "-1.05".
func ScoreToString(score int) string {
	if score > mateThreshold {
		mateIn := (MateScore - score + 1) / 2
		return "Mate in " + itoa(mateIn)
	}
	if score < -mateThreshold {
		mateIn := (MateScore + score + 1) / 2
		return "Mated in " + itoa(mateIn)
	}

	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	pawns := score / 100
	centipawns := score % 100
	cp := itoa(centipawns)
	if centipawns < 10 {
		cp = "0" + cp
	}
	return sign + itoa(pawns) + "." + cp
}

// complementOf returns every legal move at pos not present in keep,
// letting a "restrict search to these moves" list (UCI's "searchmoves")
// be implemented on top of Search's root-exclusion mechanism.
func complementOf(pos *board.Position, keep []board.Move) []board.Move {
	legal := pos.GenerateLegalMoves()
	var excluded []board.Move
	for i := 0; i < legal.Len(); i++ {
		m := legal.Get(i)
		found := false
		for _, k := range keep {
			if k == m {
				found = true
				break
			}
		}
		if !found {
			excluded = append(excluded, m)
		}
	}
	return excluded
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + itoa(-n)
	}
	s := ""
	for n > 0 {
		s = string('0'+byte(n%10)) + s
		n /= 10
	}
	return s
}
