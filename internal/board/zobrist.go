package board

// Zobrist hash keys for position hashing. Seeded with a fixed linear
// congruential generator so independent builds hash-agree; do not swap
// this for a different PRNG without also changing every stored hash's
// meaning.
var (
	zobristPiece      [12][64]uint64 // [pieceColourPair 0..11][Square]
	zobristSideToMove uint64
	zobristCastling   [16]uint64 // all 16 castling-right combinations
	zobristEnPassant  [8]uint64  // one per file
)

func init() {
	initZobrist()
}

// lcg is the specific generator the hash contract requires: seed' =
// seed*6364136223846793005 + 1442695040888963407 (mod 2^64).
type lcg struct {
	state uint64
}

func newLCG(seed uint64) *lcg {
	return &lcg{state: seed}
}

func (g *lcg) next() uint64 {
	g.state = g.state*6364136223846793005 + 1442695040888963407
	return g.state
}

// pieceColourIndex maps a (colour, piece kind) pair to the 0..11 draw
// index the key table is indexed by.
func pieceColourIndex(c Color, pt PieceType) int {
	return int(c)*6 + int(pt)
}

func initZobrist() {
	rng := newLCG(0x9E3779B97F4A7C15)

	// Draw order is contractual: 12*64 piece-square keys first, then
	// side-to-move, then 16 castling-combination keys, then 8
	// en-passant-file keys.
	for pc := 0; pc < 12; pc++ {
		for sq := A1; sq <= H8; sq++ {
			zobristPiece[pc][sq] = rng.next()
		}
	}

	zobristSideToMove = rng.next()

	for i := 0; i < 16; i++ {
		zobristCastling[i] = rng.next()
	}

	for file := 0; file < 8; file++ {
		zobristEnPassant[file] = rng.next()
	}
}

// ZobristPiece returns the Zobrist key for a piece of the given colour on
// a square.
func ZobristPiece(c Color, pt PieceType, sq Square) uint64 {
	return zobristPiece[pieceColourIndex(c, pt)][sq]
}

// ZobristEnPassant returns the Zobrist key for an en-passant file.
func ZobristEnPassant(file int) uint64 {
	return zobristEnPassant[file]
}

// ZobristCastling returns the Zobrist key for a castling-rights combination
// (bits: WK=1, WQ=2, BK=4, BQ=8).
func ZobristCastling(bits uint8) uint64 {
	return zobristCastling[bits&15]
}

// ZobristSideToMove returns the Zobrist key XORed in when it is Black to move.
func ZobristSideToMove() uint64 {
	return zobristSideToMove
}
