package uci

import (
	"testing"
	"time"

	"github.com/knightfall/engine/internal/board"
	"github.com/knightfall/engine/internal/engine"
)

func TestParseGoOptionsBasic(t *testing.T) {
	opts := parseGoOptions([]string{"depth", "6", "nodes", "100000", "movetime", "5000"})
	if opts.Depth != 6 {
		t.Errorf("depth = %d, want 6", opts.Depth)
	}
	if opts.Nodes != 100000 {
		t.Errorf("nodes = %d, want 100000", opts.Nodes)
	}
	if opts.MoveTime != 5*time.Second {
		t.Errorf("movetime = %v, want 5s", opts.MoveTime)
	}
}

func TestParseGoOptionsSearchMovesStopsAtNextKeyword(t *testing.T) {
	opts := parseGoOptions([]string{"searchmoves", "e2e4", "d2d4", "depth", "4"})
	if len(opts.SearchMoves) != 2 || opts.SearchMoves[0] != "e2e4" || opts.SearchMoves[1] != "d2d4" {
		t.Errorf("searchmoves = %v, want [e2e4 d2d4]", opts.SearchMoves)
	}
	if opts.Depth != 4 {
		t.Errorf("depth = %d, want 4 (searchmoves must not swallow it)", opts.Depth)
	}
}

func TestParseGoOptionsTimeControl(t *testing.T) {
	opts := parseGoOptions([]string{"wtime", "60000", "btime", "60000", "winc", "1000", "binc", "1000", "movestogo", "20"})
	if opts.WTime != 60*time.Second || opts.BTime != 60*time.Second {
		t.Errorf("wtime/btime not parsed correctly: %v %v", opts.WTime, opts.BTime)
	}
	if opts.WInc != time.Second || opts.BInc != time.Second {
		t.Errorf("winc/binc not parsed correctly: %v %v", opts.WInc, opts.BInc)
	}
	if opts.MovesToGo != 20 {
		t.Errorf("movestogo = %d, want 20", opts.MovesToGo)
	}
}

func TestCalculateLimitsInfiniteOverridesTime(t *testing.T) {
	u := New(engine.NewEngine(4), nil)
	limits := u.calculateLimits(GoOptions{Infinite: true, WTime: 5 * time.Second})
	if !limits.Infinite {
		t.Error("expected Infinite limit to be set")
	}
	if limits.MoveTime != 0 {
		t.Errorf("expected no move time under infinite, got %v", limits.MoveTime)
	}
}

func TestCalculateLimitsMoveTimeOverridesClock(t *testing.T) {
	u := New(engine.NewEngine(4), nil)
	limits := u.calculateLimits(GoOptions{MoveTime: 250 * time.Millisecond, WTime: time.Minute})
	if limits.MoveTime != 250*time.Millisecond {
		t.Errorf("movetime = %v, want 250ms", limits.MoveTime)
	}
}

func TestCalculateLimitsBudgetFormula(t *testing.T) {
	u := New(engine.NewEngine(4), nil) // white to move on a fresh position
	limits := u.calculateLimits(GoOptions{WTime: 30 * time.Second, WInc: 500 * time.Millisecond, MovesToGo: 10})
	want := 30*time.Second/10 + 500*time.Millisecond - 50*time.Millisecond
	if limits.MoveTime != want {
		t.Errorf("budget = %v, want %v", limits.MoveTime, want)
	}
}

func TestCalculateLimitsMinimumFloor(t *testing.T) {
	u := New(engine.NewEngine(4), nil)
	limits := u.calculateLimits(GoOptions{WTime: time.Millisecond, MovesToGo: 30})
	if limits.MoveTime != 10*time.Millisecond {
		t.Errorf("expected budget floored at 10ms, got %v", limits.MoveTime)
	}
}

func TestIsLegal(t *testing.T) {
	pos := board.NewPosition()
	m, err := board.ParseMove("e2e4", pos)
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if !isLegal(pos, m) {
		t.Error("e2e4 should be legal from the starting position")
	}

	illegal, _ := board.ParseMove("e2e5", pos)
	if isLegal(pos, illegal) {
		t.Error("e2e5 should not be legal from the starting position")
	}
}

func TestScoreToUCI(t *testing.T) {
	if got := scoreToUCI(30); got != "cp 30" {
		t.Errorf("scoreToUCI(30) = %q, want %q", got, "cp 30")
	}
	if got := scoreToUCI(engine.MateScore - 3); got != "mate 2" {
		t.Errorf("scoreToUCI(mate in 2) = %q, want %q", got, "mate 2")
	}
	if got := scoreToUCI(-(engine.MateScore - 3)); got != "mate -2" {
		t.Errorf("scoreToUCI(mated in 2) = %q, want %q", got, "mate -2")
	}
}

func TestHandlePositionRollsBackOnIllegalMove(t *testing.T) {
	u := New(engine.NewEngine(4), nil)
	u.handlePosition([]string{"startpos", "moves", "e2e4", "e7e5", "e2e4"})

	// e2e4 played twice: the second is illegal (no pawn on e2 any more), so
	// the position should reflect only the first two moves.
	if u.position.SideToMove() != board.White {
		t.Errorf("expected white to move after two applied plies, got %v", u.position.SideToMove())
	}
	if len(u.positionHashes) != 3 {
		t.Errorf("expected 3 recorded hashes (start + 2 plies), got %d", len(u.positionHashes))
	}
}

func TestHandlePositionInvalidFEN(t *testing.T) {
	u := New(engine.NewEngine(4), nil)
	before := u.position
	u.handlePosition([]string{"fen", "not-a-fen"})
	if u.position != before {
		t.Error("invalid FEN should leave the previous position untouched")
	}
}
