package board

import "fmt"

// MoveFlag classifies a move. Values above Capture that end in "Cap" are
// promotion-with-capture variants.
type MoveFlag uint8

const (
	Quiet MoveFlag = iota
	DoublePush
	KingCastle
	QueenCastle
	Capture
	EnPassant
	PromoN
	PromoB
	PromoR
	PromoQ
	PromoNCap
	PromoBCap
	PromoRCap
	PromoQCap
)

// Move encodes a chess move as a packed 32-bit word:
//
//	bits 0-5:   from square
//	bits 6-11:  to square
//	bits 12-15: flag
//	bits 16-19: captured piece kind (NoPieceType for non-captures)
//	bits 20-31: reserved
//
// The encoding is opaque; callers use the accessor functions below. This
// is deliberately a packed integer rather than a struct with methods
// hanging off pointers — the generator constructs millions of these per
// second and a value type keeps them stack-allocated and cheap to copy.
type Move uint32

// NoMove represents an absent or null move ("0000" in UCI).
const NoMove Move = 0

func packMove(from, to Square, flag MoveFlag, captured PieceType) Move {
	return Move(from) | Move(to)<<6 | Move(flag)<<12 | Move(captured)<<16
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Flag returns the move's flag.
func (m Move) Flag() MoveFlag {
	return MoveFlag((m >> 12) & 0xF)
}

// CapturedPieceKind returns the kind of piece captured by this move, or
// NoPieceType if the move is not a capture.
func (m Move) CapturedPieceKind() PieceType {
	return PieceType((m >> 16) & 0xF)
}

// IsCapture reports whether the move removes an enemy piece from the board.
func (m Move) IsCapture() bool {
	switch m.Flag() {
	case Capture, EnPassant, PromoNCap, PromoBCap, PromoRCap, PromoQCap:
		return true
	default:
		return false
	}
}

// IsPromotion reports whether the move promotes a pawn.
func (m Move) IsPromotion() bool {
	switch m.Flag() {
	case PromoN, PromoB, PromoR, PromoQ, PromoNCap, PromoBCap, PromoRCap, PromoQCap:
		return true
	default:
		return false
	}
}

// IsCastle reports whether the move is a king or queen side castle.
func (m Move) IsCastle() bool {
	f := m.Flag()
	return f == KingCastle || f == QueenCastle
}

// IsQuiet reports whether the move is neither a capture nor a promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// PromotionPiece returns the piece kind a promotion move produces. Only
// valid when IsPromotion() is true.
func (m Move) PromotionPiece() PieceType {
	switch m.Flag() {
	case PromoN, PromoNCap:
		return Knight
	case PromoB, PromoBCap:
		return Bishop
	case PromoR, PromoRCap:
		return Rook
	case PromoQ, PromoQCap:
		return Queen
	default:
		return NoPieceType
	}
}

var promoFlags = [4]MoveFlag{PromoN, PromoB, PromoR, PromoQ}
var promoCapFlags = [4]MoveFlag{PromoNCap, PromoBCap, PromoRCap, PromoQCap}

func promoIndex(pt PieceType) int {
	switch pt {
	case Knight:
		return 0
	case Bishop:
		return 1
	case Rook:
		return 2
	case Queen:
		return 3
	default:
		return -1
	}
}

// MakeMove builds a packed Move, inferring its flag from the move's
// shape. epSquare is the position's current en-passant target square
// (NoSquare if none); piece is the kind of piece standing on from;
// captured is the kind of piece standing on to (NoPieceType if empty);
// promotion is the promotion piece kind, or NoPieceType for a non-promotion.
func MakeMove(from, to, epSquare Square, piece, captured, promotion PieceType) Move {
	if promotion != NoPieceType {
		idx := promoIndex(promotion)
		if captured != NoPieceType {
			return packMove(from, to, promoCapFlags[idx], captured)
		}
		return packMove(from, to, promoFlags[idx], NoPieceType)
	}
	if piece == Pawn && to == epSquare && captured == NoPieceType {
		return packMove(from, to, EnPassant, Pawn)
	}
	if captured != NoPieceType {
		return packMove(from, to, Capture, captured)
	}
	if piece == Pawn {
		diff := int(to) - int(from)
		if diff == 16 || diff == -16 {
			return packMove(from, to, DoublePush, NoPieceType)
		}
	}
	if piece == King {
		diff := int(to) - int(from)
		if diff == 2 || diff == -2 {
			switch to {
			case G1, G8:
				return packMove(from, to, KingCastle, NoPieceType)
			case C1, C8:
				return packMove(from, to, QueenCastle, NoPieceType)
			}
		}
	}
	return packMove(from, to, Quiet, NoPieceType)
}

// String returns the long-algebraic UCI form of the move (e.g. "e2e4",
// "e7e8q"). "0000" for NoMove.
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		chars := "?nbrq"
		switch m.PromotionPiece() {
		case Knight:
			s += string(chars[1])
		case Bishop:
			s += string(chars[2])
		case Rook:
			s += string(chars[3])
		case Queen:
			s += string(chars[4])
		}
	}
	return s
}

// ParseMove parses a UCI long-algebraic move string against the given
// position, which supplies the piece/capture/en-passant context needed
// to infer the flag via MakeMove.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}
	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}
	var promotion PieceType = NoPieceType
	if len(s) >= 5 {
		switch s[4] {
		case 'n':
			promotion = Knight
		case 'b':
			promotion = Bishop
		case 'r':
			promotion = Rook
		case 'q':
			promotion = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
	}
	captured := NoPieceType
	if cp := pos.PieceAt(to); cp != NoPiece {
		captured = cp.Type()
	}
	return MakeMove(from, to, pos.EnPassantSquare(), piece.Type(), captured, promotion), nil
}

// maxMoves is the maximum legal move count from any reachable chess
// position (218), fixing the MoveList capacity.
const maxMoves = 218

// MoveList is a fixed-capacity, append-only sequence of moves populated
// by one generation call.
type MoveList struct {
	moves [maxMoves]Move
	n     int
}

// Add appends a move.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.n] = m
	ml.n++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.n
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set overwrites the move at index i, used by move ordering's in-place sort.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Swap exchanges the moves at indices i and j.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear empties the list without releasing its backing array.
func (ml *MoveList) Clear() {
	ml.n = 0
}

// Contains reports whether the list holds m.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.n; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the populated moves as a slice sharing the list's backing array.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.n]
}
