package engine

import (
	"sync/atomic"
	"time"

	"github.com/knightfall/engine/internal/board"
	"github.com/knightfall/engine/internal/eval"
)

// Search constants.
const (
	Infinity      = 30000
	MateScore     = 29000
	mateThreshold = MateScore - 1000
	MaxPly        = 128

	nodeCheckMask = 1023 // check deadline/stop every 1024 nodes
)

// PVTable stores the principal variation collected during the last search.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// GetLine returns the principal variation as a move slice.
func (pv *PVTable) GetLine() []board.Move {
	n := pv.length[0]
	line := make([]board.Move, n)
	copy(line, pv.moves[0][:n])
	return line
}

func (pv *PVTable) update(ply int, m board.Move) {
	pv.moves[ply][0] = m
	copy(pv.moves[ply][1:], pv.moves[ply+1][:pv.length[ply+1]])
	pv.length[ply] = pv.length[ply+1] + 1
}

func (pv *PVTable) clearPly(ply int) {
	pv.length[ply] = 0
}

// Search performs iterative-deepening negamax alpha-beta with quiescence
// over a single Position. It is the sole owner of that Position while
// running: the position, its history stack, and the transposition table
// belong to the search until it returns.
type Search struct {
	pos     *board.Position
	tt      *TranspositionTable
	orderer *MoveOrderer
	pv      PVTable

	nodes    uint64
	deadline time.Time
	hasDL    bool
	stop     *atomic.Bool

	rootExcluded []board.Move
}

// NewSearch creates a searcher over tt. The position is supplied per call
// to SearchDepth.
func NewSearch(tt *TranspositionTable, stop *atomic.Bool) *Search {
	return &Search{
		tt:      tt,
		orderer: NewMoveOrderer(),
		stop:    stop,
	}
}

// Reset clears killer moves and node count ahead of a new search.
func (s *Search) Reset() {
	s.orderer.Clear()
	s.nodes = 0
}

// Nodes returns the number of nodes visited by the last/ongoing search.
func (s *Search) Nodes() uint64 {
	return s.nodes
}

// GetPV returns the principal variation of the last completed depth.
func (s *Search) GetPV() []board.Move {
	return s.pv.GetLine()
}

// SetExcludedMoves excludes moves from root consideration.
func (s *Search) SetExcludedMoves(moves []board.Move) {
	s.rootExcluded = moves
}

func (s *Search) isExcluded(m board.Move) bool {
	for _, e := range s.rootExcluded {
		if e == m {
			return true
		}
	}
	return false
}

// SearchDepth runs one iterative-deepening iteration at the given depth
// with the given alpha-beta window, returning the best root move found
// and its score.
func (s *Search) SearchDepth(pos *board.Position, depth, alpha, beta int) (board.Move, int) {
	s.pos = pos
	s.pv.clearPly(0)

	moves := pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if pos.InCheck() {
			return board.NoMove, -MateScore
		}
		return board.NoMove, 0
	}

	ttMove := board.NoMove
	if entry, ok := s.tt.Probe(pos.Hash); ok {
		ttMove = entry.BestMove
	}
	scores := s.orderer.ScoreMoves(pos, moves, 0, ttMove)
	SortMoves(moves, scores)

	bestMove := board.NoMove
	bestScore := -Infinity
	origAlpha := alpha

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if s.isExcluded(m) {
			continue
		}

		undo := pos.MakeMove(m)
		score := -s.negamax(-beta, -alpha, depth-1, 1)
		pos.UnmakeMove(m, undo)

		if s.timeUp() {
			if bestMove == board.NoMove {
				bestMove = m
				bestScore = score
			}
			break
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
			s.pv.update(0, m)
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			if m.IsQuiet() {
				s.orderer.UpdateKillers(m, 0)
			}
			break
		}
	}

	flag := TTExact
	if bestScore <= origAlpha {
		flag = TTUpperBound
	} else if bestScore >= beta {
		flag = TTLowerBound
	}
	s.tt.Store(pos.Hash, depth, AdjustScoreToTT(bestScore, 0), flag, bestMove)

	return bestMove, bestScore
}

// negamax implements the core recursive search: node-count deadline
// check, TT probe, terminal (checkmate/stalemate) check, quiescence
// handoff at the horizon, draw check, move ordering, recursion, and TT
// store with mate-distance adjustment.
func (s *Search) negamax(alpha, beta, depth, ply int) int {
	s.nodes++
	if s.nodes&nodeCheckMask == 0 && s.timeUp() {
		return eval.Evaluate(s.pos)
	}

	s.pv.clearPly(ply)

	origAlpha := alpha

	ttEntry, ttHit := s.tt.Probe(s.pos.Hash)
	if ttHit && int(ttEntry.Depth) >= depth {
		score := AdjustScoreFromTT(int(ttEntry.Score), ply)
		switch ttEntry.Flag {
		case TTExact:
			return score
		case TTLowerBound:
			if score >= beta {
				return score
			}
		case TTUpperBound:
			if score <= alpha {
				return score
			}
		}
	}

	moves := s.pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if s.pos.InCheck() {
			return -MateScore + ply
		}
		return 0
	}

	if depth <= 0 {
		return s.quiescence(alpha, beta, ply)
	}

	if s.pos.HalfmoveClock() >= 100 || s.pos.IsInsufficientMaterial() || s.pos.IsRepetition() {
		return 0
	}

	ttMove := board.NoMove
	if ttHit {
		ttMove = ttEntry.BestMove
	}
	scores := s.orderer.ScoreMoves(s.pos, moves, ply, ttMove)
	SortMoves(moves, scores)

	best := -Infinity
	bestMove := board.NoMove

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)

		undo := s.pos.MakeMove(m)
		score := -s.negamax(-beta, -alpha, depth-1, ply+1)
		s.pos.UnmakeMove(m, undo)

		if score > best {
			best = score
			bestMove = m
			s.pv.update(ply, m)
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			if m.IsQuiet() {
				s.orderer.UpdateKillers(m, ply)
			}
			break
		}

		if s.timeUp() {
			break
		}
	}

	flag := TTExact
	if best <= origAlpha {
		flag = TTUpperBound
	} else if best >= beta {
		flag = TTLowerBound
	}
	s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(best, ply), flag, bestMove)

	return best
}

// quiescence implements the specified capture-only search: stand-pat with
// delta pruning, TT lookup at depth 0, capture generation and ordering,
// and the same bound-storing discipline as the main search.
func (s *Search) quiescence(alpha, beta, ply int) int {
	s.nodes++
	if s.nodes&nodeCheckMask == 0 && s.timeUp() {
		return eval.Evaluate(s.pos)
	}

	origAlpha := alpha

	ttEntry, ttHit := s.tt.Probe(s.pos.Hash)
	if ttHit {
		score := AdjustScoreFromTT(int(ttEntry.Score), ply)
		switch ttEntry.Flag {
		case TTExact:
			return score
		case TTLowerBound:
			if score >= beta {
				return score
			}
		case TTUpperBound:
			if score <= alpha {
				return score
			}
		}
	}

	standPat := eval.Evaluate(s.pos)
	if standPat+900 < alpha {
		return standPat
	}
	if standPat >= beta {
		s.tt.Store(s.pos.Hash, 0, AdjustScoreToTT(standPat, ply), TTLowerBound, board.NoMove)
		return standPat
	}
	if standPat > alpha {
		alpha = standPat
	}

	moves := s.pos.GenerateCaptures()
	if moves.Len() == 0 {
		s.tt.Store(s.pos.Hash, 0, AdjustScoreToTT(standPat, ply), TTExact, board.NoMove)
		return standPat
	}

	ttMove := board.NoMove
	if ttHit {
		ttMove = ttEntry.BestMove
	}
	scores := s.orderer.ScoreMoves(s.pos, moves, ply, ttMove)
	SortMoves(moves, scores)

	best := standPat
	bestMove := board.NoMove

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)

		undo := s.pos.MakeMove(m)
		score := -s.quiescence(-beta, -alpha, ply+1)
		s.pos.UnmakeMove(m, undo)

		if score > best {
			best = score
			bestMove = m
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			s.tt.Store(s.pos.Hash, 0, AdjustScoreToTT(score, ply), TTLowerBound, m)
			return score
		}

		if s.timeUp() {
			break
		}
	}

	flag := TTExact
	if best <= origAlpha {
		flag = TTUpperBound
	}
	s.tt.Store(s.pos.Hash, 0, AdjustScoreToTT(best, ply), flag, bestMove)

	return best
}

// SetDeadline sets the wall-clock deadline the search cooperatively
// respects. A zero time means no deadline.
func (s *Search) SetDeadline(d time.Time) {
	s.deadline = d
	s.hasDL = !d.IsZero()
}

func (s *Search) timeUp() bool {
	if s.stop != nil && s.stop.Load() {
		return true
	}
	if s.hasDL && time.Now().After(s.deadline) {
		return true
	}
	return false
}
