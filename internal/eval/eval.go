// Package eval implements the evaluator collaborator: a tapered
// material-plus-piece-square-table score in centipawns, from the
// side-to-move's perspective.
package eval

import (
	"github.com/knightfall/engine/internal/board"
)

// Piece values in centipawns, matching board.PieceValue.
var pieceValues = [6]int{100, 320, 330, 500, 900, 20000}

// gamePhaseWeight is the phase contribution per piece kind, used to blend
// midgame and endgame piece-square tables. Pawns and kings contribute
// nothing; a full board with all minors/majors present sums to 24.
var gamePhaseWeight = [6]int{0, 1, 1, 2, 4, 0}

const totalPhase = 24

// Piece-square tables, written as the board is seen from White's side
// with rank 8 in the first row (index 0 = a8, index 63 = h1). White's
// squares are mirrored vertically before lookup; Black's squares index
// the tables directly, which gives Black the mirror image. Grounded on
// the teacher's classical PST arrays, kept as-is: central-control pawn
// table, centralizing knight/bishop tables, 7th-rank/open-file rook
// table, mild central preference for the queen, and separate
// midgame/endgame king tables reflecting the king's shift from shelter to
// activity as material comes off.
var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingMidgamePST = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

var kingEndgamePST = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

var midgamePST = [6][64]int{pawnPST, knightPST, bishopPST, rookPST, queenPST, kingMidgamePST}

const tempoBonus = 10

// mirror flips a square index vertically (a1 <-> a8), mapping White's
// squares onto the rank-8-first table layout.
func mirror(sq board.Square) int {
	return int(sq) ^ 56
}

// Evaluate returns the static evaluation of pos in centipawns from the
// side-to-move's perspective: positive favours whoever is to move.
// Combines material, piece-square placement (tapered between the
// midgame table and a dedicated king endgame table by remaining
// non-pawn material), and a small tempo bonus for the side to move.
func Evaluate(pos *board.Position) int {
	var mgScore int
	phase := 0

	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		for pt := board.Pawn; pt <= board.King; pt++ {
			bb := pos.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				mgScore += sign * pieceValues[pt]

				idx := int(sq)
				if c == board.White {
					idx = mirror(sq)
				}
				mgScore += sign * midgamePST[pt][idx]

				phase += gamePhaseWeight[pt]
			}
		}
	}

	// Endgame king placement score, blended in as non-pawn material drains.
	var egKingScore, mgKingScore int
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		ksq := pos.KingSquare[c]
		idx := int(ksq)
		if c == board.White {
			idx = mirror(ksq)
		}
		egKingScore += sign * kingEndgamePST[idx]
		mgKingScore += sign * kingMidgamePST[idx]
	}
	// Replace the midgame king PST contribution with a phase-weighted mix
	// of midgame and endgame king tables.
	if phase > totalPhase {
		phase = totalPhase
	}
	kingBlend := ((totalPhase - phase) * (egKingScore - mgKingScore)) / totalPhase

	whiteScore := mgScore + kingBlend

	score := whiteScore
	if pos.SideToMove() == board.Black {
		score = -score
	}
	return score + tempoBonus
}
