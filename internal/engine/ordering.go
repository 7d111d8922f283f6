package engine

import (
	"github.com/knightfall/engine/internal/board"
)

// Move ordering scores, exactly as specified: TT-best highest, then
// MVV-LVA captures, then killers, promotions, castles, and central
// destinations, with everything else falling through to zero.
const (
	ttMoveScore    = 10000
	captureBase    = 1000
	killerScore1   = 900
	killerScore2   = 899
	promotionBonus = 800
	castleBonus    = 700
	centralBonus   = 100
)

// MoveOrderer holds the per-search killer-move table. Move ordering here
// is deliberately shallow: no history heuristic, no counter-moves, no
// capture history — just TT move, MVV-LVA, killers, and a couple of flat
// positional bonuses.
type MoveOrderer struct {
	killers [MaxPly][2]board.Move
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killer moves for a new search.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
}

// ScoreMoves assigns an ordering score to each move in the list.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, ttMove board.Move) []int {
	scores := make([]int, moves.Len())
	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(pos, moves.Get(i), ply, ttMove)
	}
	return scores
}

// scoreMove implements the exact ordering formula: TT-best = 10000,
// captures = 1000 + (victim_material/100)*10 - attacker_material/100
// (MVV-LVA), killers at this ply = 900/899, promotion = 800, castle =
// 700, central destination = 100, else 0.
func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove board.Move) int {
	if m == ttMove {
		return ttMoveScore
	}

	if m.IsCapture() {
		victim := m.CapturedPieceKind()
		if m.Flag() == board.EnPassant {
			victim = board.Pawn
		}
		attacker := board.NoPieceType
		if p := pos.PieceAt(m.From()); p != board.NoPiece {
			attacker = p.Type()
		}
		victimValue := board.PieceValue[victim]
		attackerValue := board.PieceValue[attacker]
		return captureBase + (victimValue/100)*10 - attackerValue/100
	}

	if m.IsPromotion() {
		return promotionBonus
	}

	if m.IsCastle() {
		return castleBonus
	}

	if m == mo.killers[ply][0] {
		return killerScore1
	}
	if m == mo.killers[ply][1] {
		return killerScore2
	}

	if board.Center&board.SquareBB(m.To()) != 0 {
		return centralBonus
	}

	return 0
}

// SortMoves sorts moves by descending score using selection sort — the
// move lists here rarely exceed a few dozen entries, so the O(n^2)
// behaviour never shows up in profiles.
func SortMoves(moves *board.MoveList, scores []int) {
	n := moves.Len()
	for i := 0; i < n-1; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		if best != i {
			moves.Swap(i, best)
			scores[i], scores[best] = scores[best], scores[i]
		}
	}
}

// UpdateKillers records a quiet move that caused a beta cutoff at ply,
// shifting the previous slot-0 killer into slot-1 if it differs.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly {
		return
	}
	if mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}
