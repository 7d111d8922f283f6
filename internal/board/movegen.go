package board

// GenerateLegalMoves returns every legal move for the side to move.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := &MoveList{}
	p.generate(ml, false)
	return ml
}

// GenerateCaptures returns legal capture-only moves (captures, en-passant,
// and capture-promotions), the mode quiescence consumes.
func (p *Position) GenerateCaptures() *MoveList {
	ml := &MoveList{}
	p.generate(ml, true)
	return ml
}

// enemyAttackMap returns the union of every enemy attack, computed with
// the friendly king removed from the occupancy so that sliding attackers
// "see through" the king — otherwise a king move that merely steps back
// along the attacker's ray would be misjudged as legal.
func (p *Position) enemyAttackMap(us Color) Bitboard {
	them := us.Other()
	occNoKing := p.AllOccupied &^ p.Pieces[us][King]

	var attacks Bitboard
	pawns := p.Pieces[them][Pawn]
	for pawns != 0 {
		sq := pawns.PopLSB()
		attacks |= PawnAttacks(sq, them)
	}
	knights := p.Pieces[them][Knight]
	for knights != 0 {
		attacks |= KnightAttacks(knights.PopLSB())
	}
	bishops := p.Pieces[them][Bishop] | p.Pieces[them][Queen]
	for bishops != 0 {
		attacks |= BishopAttacks(bishops.PopLSB(), occNoKing)
	}
	rooks := p.Pieces[them][Rook] | p.Pieces[them][Queen]
	for rooks != 0 {
		attacks |= RookAttacks(rooks.PopLSB(), occNoKing)
	}
	attacks |= KingAttacks(p.Pieces[them][King].LSB())
	return attacks
}

// generate implements the piece-by-piece legal generation of SPEC_FULL.md
// 4.F: compute the enemy attack map, checkers, and pins once, then
// restrict every piece's destinations directly rather than generating
// pseudo-legal moves and filtering afterward.
func (p *Position) generate(ml *MoveList, capturesOnly bool) {
	us := p.SideToMove()
	them := us.Other()
	friendly := p.Occupied[us]
	enemies := p.Occupied[them]
	occupied := p.AllOccupied

	enemyAttacks := p.enemyAttackMap(us)
	checkers := p.Checkers
	pinned := p.ComputePinned()
	ksq := p.KingSquare[us]

	numCheckers := checkers.PopCount()

	// evasion is the set of squares a non-king move must land on. In
	// double check no non-king move is legal, so evasion is empty; in
	// single check it is the checker's square plus the ray between the
	// checker and the king (empty for a non-sliding checker); otherwise
	// every square is fair game.
	var evasion Bitboard = Universe
	var checkerSq Square = NoSquare
	if numCheckers == 1 {
		checkerSq = checkers.LSB()
		evasion = checkers | Between(checkerSq, ksq)
	} else if numCheckers >= 2 {
		evasion = Empty
	}

	if numCheckers < 2 {
		p.generatePawnMoves(ml, us, them, enemies, occupied, evasion, pinned, ksq, checkers, numCheckers, checkerSq, capturesOnly)
		p.generateJumpOrSlide(ml, Knight, us, friendly, evasion, pinned, ksq, capturesOnly, enemies, occupied)
		p.generateJumpOrSlide(ml, Bishop, us, friendly, evasion, pinned, ksq, capturesOnly, enemies, occupied)
		p.generateJumpOrSlide(ml, Rook, us, friendly, evasion, pinned, ksq, capturesOnly, enemies, occupied)
		p.generateJumpOrSlide(ml, Queen, us, friendly, evasion, pinned, ksq, capturesOnly, enemies, occupied)
	}

	// King moves are always considered, check or not.
	kingAttacks := KingAttacks(ksq) &^ friendly &^ enemyAttacks
	dests := kingAttacks
	if capturesOnly {
		dests &= enemies
	}
	for dests != 0 {
		to := dests.PopLSB()
		captured := NoPieceType
		if cp := p.PieceAt(to); cp != NoPiece {
			captured = cp.Type()
		}
		ml.Add(MakeMove(ksq, to, p.EnPassantSquare(), King, captured, NoPieceType))
	}

	if !capturesOnly && numCheckers == 0 {
		p.generateCastling(ml, us, them)
	}
}

// generateJumpOrSlide handles knight, bishop, rook, and queen moves —
// every non-pawn, non-king piece kind — restricted to evasion squares and,
// for pinned pieces, to the pin line through the king.
func (p *Position) generateJumpOrSlide(ml *MoveList, pt PieceType, us Color, friendly, evasion, pinned Bitboard, ksq Square, capturesOnly bool, enemies, occupied Bitboard) {
	pieces := p.Pieces[us][pt]
	for pieces != 0 {
		from := pieces.PopLSB()
		var attacks Bitboard
		switch pt {
		case Knight:
			attacks = KnightAttacks(from)
		case Bishop:
			attacks = BishopAttacks(from, occupied)
		case Rook:
			attacks = RookAttacks(from, occupied)
		case Queen:
			attacks = QueenAttacks(from, occupied)
		}
		attacks &^= friendly
		attacks &= evasion
		if pinned&SquareBB(from) != 0 {
			attacks &= Line(from, ksq)
		}
		if capturesOnly {
			attacks &= enemies
		}
		for attacks != 0 {
			to := attacks.PopLSB()
			captured := NoPieceType
			if cp := p.PieceAt(to); cp != NoPiece {
				captured = cp.Type()
			}
			ml.Add(MakeMove(from, to, NoSquare, pt, captured, NoPieceType))
		}
	}
}

func (p *Position) generatePawnMoves(ml *MoveList, us, them Color, enemies, occupied, evasion, pinned Bitboard, ksq Square, checkers Bitboard, numCheckers int, checkerSq Square, capturesOnly bool) {
	pawns := p.Pieces[us][Pawn]
	empty := ^occupied

	var pushDir int
	var promotionRank, startRank Bitboard
	if us == White {
		pushDir = 8
		promotionRank = Rank8
		startRank = Rank2
	} else {
		pushDir = -8
		promotionRank = Rank1
		startRank = Rank7
	}

	for pawns != 0 {
		from := pawns.PopLSB()
		fromBB := SquareBB(from)
		pin := pinned&fromBB != 0

		addPawnDest := func(to Square, captured PieceType) {
			if pin && Line(from, ksq)&SquareBB(to) == 0 {
				return
			}
			if promotionRank&SquareBB(to) != 0 {
				for _, promo := range [4]PieceType{Queen, Rook, Bishop, Knight} {
					ml.Add(MakeMove(from, to, NoSquare, Pawn, captured, promo))
				}
				return
			}
			ml.Add(MakeMove(from, to, NoSquare, Pawn, captured, NoPieceType))
		}

		if !capturesOnly {
			to := (PawnPushes(from, us) & empty).LSB()
			if to != NoSquare {
				if evasion&SquareBB(to) != 0 {
					addPawnDest(to, NoPieceType)
				}
				if fromBB&startRank != 0 {
					to2 := Square(int(from) + 2*pushDir)
					if empty&SquareBB(to2) != 0 && evasion&SquareBB(to2) != 0 {
						if !(pin && Line(from, ksq)&SquareBB(to2) == 0) {
							ml.Add(MakeMove(from, to2, NoSquare, Pawn, NoPieceType, NoPieceType))
						}
					}
				}
			}
		}

		capAttacks := PawnAttacks(from, us) & enemies & evasion
		for capAttacks != 0 {
			to := capAttacks.PopLSB()
			cp := p.PieceAt(to)
			addPawnDest(to, cp.Type())
		}

		// En passant: destination itself is rarely the checker square (the
		// checker is the pawn one rank behind), so it needs its own
		// evasion test before the mandated make-and-verify step below.
		ep := p.EnPassantSquare()
		if ep != NoSquare && PawnAttacks(from, us)&SquareBB(ep) != 0 {
			capturedSq := Square(int(ep) - pushDir)
			allowedUnderCheck := numCheckers == 0 || (numCheckers == 1 && checkerSq == capturedSq) || (numCheckers == 1 && evasion&SquareBB(ep) != 0)
			if allowedUnderCheck {
				m := MakeMove(from, ep, ep, Pawn, NoPieceType, NoPieceType)
				if p.isLegalEnPassant(m) {
					ml.Add(m)
				}
			}
		}
	}
}

// generateCastling adds castling moves when all four preconditions hold:
// the right is set, the squares between king and rook are empty, and the
// squares the king traverses (start, middle, destination) are unattacked.
// Not being in check is implied by the start square being unattacked.
func (p *Position) generateCastling(ml *MoveList, us, them Color) {
	cr := p.CastlingRights()
	if us == White {
		if cr&WhiteKingSideCastle != 0 && p.AllOccupied&(SquareBB(F1)|SquareBB(G1)) == 0 &&
			!p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(F1, them) && !p.IsSquareAttacked(G1, them) {
			ml.Add(MakeMove(E1, G1, NoSquare, King, NoPieceType, NoPieceType))
		}
		if cr&WhiteQueenSideCastle != 0 && p.AllOccupied&(SquareBB(B1)|SquareBB(C1)|SquareBB(D1)) == 0 &&
			!p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(D1, them) && !p.IsSquareAttacked(C1, them) {
			ml.Add(MakeMove(E1, C1, NoSquare, King, NoPieceType, NoPieceType))
		}
	} else {
		if cr&BlackKingSideCastle != 0 && p.AllOccupied&(SquareBB(F8)|SquareBB(G8)) == 0 &&
			!p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(F8, them) && !p.IsSquareAttacked(G8, them) {
			ml.Add(MakeMove(E8, G8, NoSquare, King, NoPieceType, NoPieceType))
		}
		if cr&BlackQueenSideCastle != 0 && p.AllOccupied&(SquareBB(B8)|SquareBB(C8)|SquareBB(D8)) == 0 &&
			!p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(D8, them) && !p.IsSquareAttacked(C8, them) {
			ml.Add(MakeMove(E8, C8, NoSquare, King, NoPieceType, NoPieceType))
		}
	}
}

// isLegalEnPassant applies the mandated make-and-verify step: an
// en-passant capture is legal only if, after actually making it, the
// mover's own king is not in check. This is the only sound way to catch
// the horizontal-pin-through-both-pawns case, where neither pawn is
// individually flagged as pinned before the capture removes both of them
// from the rank simultaneously.
func (p *Position) isLegalEnPassant(m Move) bool {
	us := p.SideToMove()
	undo := p.MakeMove(m)
	inCheck := p.IsSquareAttacked(p.KingSquare[us], us.Other())
	p.UnmakeMove(m, undo)
	return !inCheck
}

// HasLegalMoves reports whether the side to move has at least one legal move.
func (p *Position) HasLegalMoves() bool {
	return p.GenerateLegalMoves().Len() > 0
}

// IsCheckmate reports whether the side to move is in check with no legal moves.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports whether the side to move is not in check but has no legal moves.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsDraw reports whether the position is drawn by the fifty-move rule or
// insufficient material. Threefold repetition is checked separately by
// the caller, which has access to the surrounding game/search history.
func (p *Position) IsDraw() bool {
	if p.HalfmoveClock() >= 100 {
		return true
	}
	return p.IsInsufficientMaterial()
}

// IsRepetition reports whether the current position has occurred before
// in a way that counts toward threefold repetition. It walks the search
// stack most-recent-first, then the game history, stopping after
// halfmove_clock entries (an earlier position cannot repeat since a pawn
// move or capture resets the clock), and suppresses the duplicate entry
// shared between the two histories when both are populated.
func (p *Position) IsRepetition() bool {
	limit := p.HalfmoveClock()
	count := 0
	checked := 0

	walk := func(entries []undoRecord) bool {
		for i := len(entries) - 1; i >= 0; i-- {
			if checked >= limit {
				return false
			}
			checked++
			if entries[i].hash == p.Hash {
				count++
				if count >= 1 {
					return true
				}
			}
		}
		return false
	}

	if walk(p.fastStack[:p.fastDepth]) {
		return true
	}
	// Avoid re-checking the boundary entry shared by both histories.
	skip := 0
	if p.fastDepth > 0 && len(p.history) > 0 && p.fastStack[0].hash == p.history[len(p.history)-1].hash {
		skip = 1
	}
	hist := p.history
	if skip == 1 && len(hist) > 0 {
		hist = hist[:len(hist)-1]
	}
	return walk(hist)
}

// MakeMove applies m incrementally, following the ten-step order in
// SPEC_FULL.md 4.D: the hash is updated by XOR-delta at each step rather
// than recomputed from scratch, which is what keeps make/unmake cheap
// enough to call millions of times per search.
func (p *Position) MakeMove(m Move) undoRecord {
	from, to := m.From(), m.To()
	us := p.SideToMove()
	them := us.Other()

	movedPiece := p.PieceAt(from).Type()
	undo := undoRecord{info: p.info, hash: p.Hash, move: m, movedPiece: movedPiece}

	cr := p.CastlingRights()
	clock := p.HalfmoveClock()

	p.removePiece(from)
	p.Hash ^= ZobristPiece(us, movedPiece, from)

	if m.Flag() == EnPassant {
		capSq := Square(int(to) - pawnPushDir(us))
		p.removePiece(capSq)
		p.Hash ^= ZobristPiece(them, Pawn, capSq)
	} else if m.IsCapture() {
		capturedKind := m.CapturedPieceKind()
		p.removePiece(to)
		p.Hash ^= ZobristPiece(them, capturedKind, to)
		cr = clearCastlingOnRookCapture(cr, to)
	}

	oldEP := p.EnPassantSquare()
	if oldEP != NoSquare {
		p.Hash ^= ZobristEnPassant(oldEP.File())
	}
	newInfo := p.info.withNoEnPassant()

	finalPiece := movedPiece
	if m.IsPromotion() {
		finalPiece = m.PromotionPiece()
	}
	p.setPiece(NewPiece(finalPiece, us), to)
	p.Hash ^= ZobristPiece(us, finalPiece, to)

	if m.Flag() == DoublePush {
		newInfo = newInfo.withEnPassantFile(from.File())
		p.Hash ^= ZobristEnPassant(from.File())
	}

	if m.IsCastle() {
		var rookFrom, rookTo Square
		switch to {
		case G1:
			rookFrom, rookTo = H1, F1
		case C1:
			rookFrom, rookTo = A1, D1
		case G8:
			rookFrom, rookTo = H8, F8
		case C8:
			rookFrom, rookTo = A8, D8
		}
		p.movePiece(rookFrom, rookTo)
		p.Hash ^= ZobristPiece(us, Rook, rookFrom)
		p.Hash ^= ZobristPiece(us, Rook, rookTo)
	}

	if movedPiece == Pawn || m.IsCapture() {
		clock = 0
	} else {
		clock++
	}

	if movedPiece == King {
		if us == White {
			cr &^= WhiteKingSideCastle | WhiteQueenSideCastle
		} else {
			cr &^= BlackKingSideCastle | BlackQueenSideCastle
		}
	} else if movedPiece == Rook {
		cr = clearCastlingOnRookCapture(cr, from)
	}

	p.Hash ^= ZobristCastling(uint8(p.info.castling()))
	p.Hash ^= ZobristCastling(uint8(cr))

	newInfo = newInfo.withCastling(cr).withClock(clock).withSideFlipped()
	p.info = newInfo
	p.Hash ^= ZobristSideToMove()

	if us == Black {
		p.FullMoveNumber++
	}

	p.pushUndo(undo)
	p.UpdateCheckers()
	return undo
}

// UnmakeMove pops the undo record and reverses the piece transitions
// using the stored original piece kind and the move's captured-piece
// field — game-info and hash are restored verbatim rather than
// recomputed, which is what makes unmake exact by construction.
func (p *Position) UnmakeMove(m Move, undo undoRecord) {
	popped := p.popUndo()
	_ = popped

	us := p.info.sideToMove().Other() // side that made the move we're undoing
	them := us.Other()
	from, to := m.From(), m.To()

	if m.IsCastle() {
		var rookFrom, rookTo Square
		switch to {
		case G1:
			rookFrom, rookTo = H1, F1
		case C1:
			rookFrom, rookTo = A1, D1
		case G8:
			rookFrom, rookTo = H8, F8
		case C8:
			rookFrom, rookTo = A8, D8
		}
		p.movePiece(rookTo, rookFrom)
	}

	p.removePiece(to)
	p.setPiece(NewPiece(undo.movedPiece, us), from)

	if m.Flag() == EnPassant {
		capSq := Square(int(to) - pawnPushDir(us))
		p.setPiece(NewPiece(Pawn, them), capSq)
	} else if m.IsCapture() {
		p.setPiece(NewPiece(m.CapturedPieceKind(), them), to)
	}

	if us == Black {
		p.FullMoveNumber--
	}

	p.info = undo.info
	p.Hash = undo.hash
	p.UpdateCheckers()
}

func pawnPushDir(c Color) int {
	if c == White {
		return 8
	}
	return -8
}

// clearCastlingOnRookCapture drops the castling right anchored at sq if
// sq is one of the four rook home squares (a1,h1,a8,h8).
func clearCastlingOnRookCapture(cr CastlingRights, sq Square) CastlingRights {
	switch sq {
	case A1:
		return cr &^ WhiteQueenSideCastle
	case H1:
		return cr &^ WhiteKingSideCastle
	case A8:
		return cr &^ BlackQueenSideCastle
	case H8:
		return cr &^ BlackKingSideCastle
	default:
		return cr
	}
}
