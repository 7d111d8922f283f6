package board

import "testing"

func TestMakeUnmakeRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
		"rnbq1rk1/ppp1bppp/4pn2/3p4/2PP4/2N1PN2/PP3PPP/R1BQKB1R w KQ - 0 6",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	}

	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}

		before := pos.Copy()
		moves := pos.GenerateLegalMoves()
		for i := 0; i < moves.Len(); i++ {
			m := moves.Get(i)
			undo := pos.MakeMove(m)
			pos.UnmakeMove(m, undo)

			if pos.Hash != before.Hash {
				t.Errorf("%s: hash changed after make/unmake %s: got %016x, want %016x", fen, m, pos.Hash, before.Hash)
			}
			if pos.AllOccupied != before.AllOccupied {
				t.Errorf("%s: occupancy changed after make/unmake %s", fen, m)
			}
			for c := White; c <= Black; c++ {
				for pt := Pawn; pt <= King; pt++ {
					if pos.Pieces[c][pt] != before.Pieces[c][pt] {
						t.Errorf("%s: piece bitboard %v/%v changed after make/unmake %s", fen, c, pt, m)
					}
				}
			}
			if pos.info != before.info {
				t.Errorf("%s: game info changed after make/unmake %s", fen, m)
			}
		}
	}
}

func TestHashMatchesRecompute(t *testing.T) {
	pos, err := ParseFEN("r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	if err != nil {
		t.Fatal(err)
	}

	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len() && i < 10; i++ {
		m := moves.Get(i)
		undo := pos.MakeMove(m)

		recomputed := pos.ComputeHash()
		if pos.Hash != recomputed {
			t.Errorf("incremental hash %016x diverged from recomputed hash %016x after %s", pos.Hash, recomputed, m)
		}

		pos.UnmakeMove(m, undo)
	}
}

func TestPieceInvariantsAfterMoves(t *testing.T) {
	pos := NewPosition()
	moves := pos.GenerateLegalMoves()

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		undo := pos.MakeMove(m)

		if pos.Occupied[White]&pos.Occupied[Black] != 0 {
			t.Errorf("white/black occupancy overlap after %s", m)
		}
		if pos.Pieces[White][King].PopCount() != 1 || pos.Pieces[Black][King].PopCount() != 1 {
			t.Errorf("expected exactly one king per side after %s", m)
		}

		pos.UnmakeMove(m, undo)
	}
}

func TestCheckmateBackRank(t *testing.T) {
	pos, err := ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if !pos.IsCheckmate() {
		t.Error("expected checkmate")
	}
	if pos.IsStalemate() {
		t.Error("checkmate position should not also report stalemate")
	}
}

func TestStalemate(t *testing.T) {
	// Black king on a8, no legal moves, not in check.
	pos, err := ParseFEN("k7/8/1Q6/8/8/8/8/7K b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if !pos.IsStalemate() {
		t.Error("expected stalemate")
	}
	if pos.IsCheckmate() {
		t.Error("stalemate position should not also report checkmate")
	}
}

func TestEnPassantCapture(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/ppp1pppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 3")
	if err != nil {
		t.Fatal(err)
	}

	found := false
	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.Flag() == EnPassant {
			found = true
			undo := pos.MakeMove(m)
			if pos.PieceAt(E4) != NoPiece {
				t.Error("captured pawn should have been removed from e4")
			}
			pos.UnmakeMove(m, undo)
		}
	}
	if !found {
		t.Error("expected an en-passant capture to be available")
	}
}

func TestEnPassantIllegalWhenExposesKing(t *testing.T) {
	// White king on h5, black rook on a5, white pawn e5, black pawn just
	// played d7-d5 to sit beside it; black king on e1. Capturing en passant
	// would remove both pawns from the fifth rank and expose the king to
	// the rook.
	pos, err := ParseFEN("8/8/8/r2pP2K/8/8/8/4k3 w - d6 0 1")
	if err != nil {
		t.Fatal(err)
	}

	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		if moves.Get(i).Flag() == EnPassant {
			t.Error("en-passant capture should be illegal: it would expose the king to the rook on the fifth rank")
		}
	}
}

func TestCastlingRights(t *testing.T) {
	pos := NewPosition()

	kingsideCastle := Move(0)
	pos2, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	moves := pos2.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.Flag() == KingCastle {
			kingsideCastle = m
			break
		}
	}
	if kingsideCastle == 0 {
		t.Fatal("expected a kingside castle move to be available")
	}

	undo := pos2.MakeMove(kingsideCastle)
	if pos2.PieceAt(G1) == NoPiece || pos2.PieceAt(F1) == NoPiece {
		t.Error("castling should place king on g1 and rook on f1")
	}
	if pos2.CastlingRights()&WhiteKingSideCastle != 0 {
		t.Error("castling rights should be lost after castling")
	}
	pos2.UnmakeMove(kingsideCastle, undo)
	if pos2.CastlingRights()&WhiteKingSideCastle == 0 {
		t.Error("castling rights should be restored after unmake")
	}

	_ = pos
}

func TestPinnedPieceCannotMoveOffRay(t *testing.T) {
	// White king e1, white bishop e2 pinned by black rook on e8; black
	// king on h8.
	pos, err := ParseFEN("4r2k/8/8/8/8/8/4B3/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}

	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if pos.PieceAt(m.From()).Type() == Bishop && m.From() == E2 {
			t.Errorf("pinned bishop should have no legal moves off the e-file, got %s", m)
		}
	}
}
