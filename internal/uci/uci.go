// Package uci implements the Universal Chess Interface protocol: a
// command reader thread parses stdin and hands off to a search worker
// thread, the two coordinating through a couple of atomic scalars rather
// than shared locking.
package uci

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/knightfall/engine/internal/board"
	"github.com/knightfall/engine/internal/engine"
	"github.com/knightfall/engine/internal/store"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	store    *store.Store
	position *board.Position

	// Hashes of every position reached by the last "position ... moves
	// ..." command, start position included. Repetition detection during
	// search reads the position's own undo history, not this list.
	positionHashes []uint64

	// running is set while a search goroutine is active; stopRequested
	// records that the command reader asked it to return early (the worker
	// itself polls the engine's stop flag, raised alongside it through
	// Engine.Stop). Both are read/written from the command reader thread
	// and the search worker without any other locking.
	running       atomic.Bool
	stopRequested atomic.Bool
	searchDone    chan struct{}
}

// New creates a new UCI protocol handler. st may be nil, in which case
// telemetry recording is silently skipped.
func New(eng *engine.Engine, st *store.Store) *UCI {
	return &UCI{
		engine:   eng,
		store:    st,
		position: board.NewPosition(),
	}
}

// Run starts the UCI main loop, reading commands from stdin until EOF or
// "quit".
func (u *UCI) Run() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.stopAndJoin()
			fmt.Println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.stopAndJoin()
		case "setoption":
			u.handleSetOption(args)
		case "quit":
			u.handleQuit()
			return
		case "d":
			fmt.Println(u.position.String())
		case "perft":
			u.handlePerft(args)
		default:
			fmt.Printf("info string unknown command: %s\n", cmd)
		}
	}
}

// handleUCI responds to the "uci" command with engine identification and
// the options this engine actually understands.
func (u *UCI) handleUCI() {
	fmt.Println("id name Knightfall")
	fmt.Println("id author Knightfall")
	fmt.Println()
	fmt.Println("option name Hash type spin default 64 min 4 max 4096")
	fmt.Println("option name Stats type check default false")
	fmt.Println("uciok")
}

// handleNewGame resets the engine and position for a new game. Any
// running search is stopped and joined first, since it holds the
// position the reset is about to discard.
func (u *UCI) handleNewGame() {
	u.stopAndJoin()
	u.engine.Clear()
	u.position = board.NewPosition()
	u.positionHashes = []uint64{u.position.Hash}
}

// handlePosition parses and sets up a position.
//
//	position startpos
//	position startpos moves e2e4 e7e5
//	position fen <fen>
//	position fen <fen> moves e2e4
//
// An illegal move partway through the move list stops right there: the
// position ends up as of the last legal move applied, not the original
// position and not a fully-applied list. A malformed FEN leaves the
// previous position untouched entirely, since no new position could even
// be constructed.
func (u *UCI) handlePosition(args []string) {
	u.stopAndJoin()

	if len(args) == 0 {
		return
	}

	var newPos *board.Position
	var moveStart int

	switch args[0] {
	case "startpos":
		newPos = board.NewPosition()
		moveStart = 1
		for i, arg := range args {
			if arg == "moves" {
				moveStart = i + 1
				break
			}
		}
	case "fen":
		fenEnd := len(args)
		for i := 1; i < len(args); i++ {
			if args[i] == "moves" {
				fenEnd = i
				break
			}
		}
		fenStr := strings.Join(args[1:fenEnd], " ")
		pos, err := board.ParseFEN(fenStr)
		if err != nil {
			fmt.Printf("info string invalid fen: %v\n", err)
			return
		}
		if err := pos.Validate(); err != nil {
			fmt.Printf("info string invalid fen: %v\n", err)
			return
		}
		newPos = pos
		moveStart = fenEnd
		if moveStart < len(args) && args[moveStart] == "moves" {
			moveStart++
		}
	default:
		fmt.Printf("info string invalid position command: %s\n", strings.Join(args, " "))
		return
	}

	hashes := []uint64{newPos.Hash}

	for _, moveStr := range args[moveStart:] {
		m, err := board.ParseMove(moveStr, newPos)
		if err != nil || !isLegal(newPos, m) {
			fmt.Printf("info string illegal move %s, position rolled back to before it\n", moveStr)
			break
		}
		newPos.MakeMove(m)
		hashes = append(hashes, newPos.Hash)
	}

	u.position = newPos
	u.positionHashes = hashes
}

func isLegal(pos *board.Position, m board.Move) bool {
	if m == board.NoMove {
		return false
	}
	legal := pos.GenerateLegalMoves()
	for i := 0; i < legal.Len(); i++ {
		if legal.Get(i) == m {
			return true
		}
	}
	return false
}

// GoOptions holds parsed "go" command options. Unrecognised keywords are
// ignored rather than rejected.
type GoOptions struct {
	Depth       int
	Nodes       uint64
	MoveTime    time.Duration
	Infinite    bool
	Ponder      bool
	WTime       time.Duration
	BTime       time.Duration
	WInc        time.Duration
	BInc        time.Duration
	MovesToGo   int
	SearchMoves []string
}

// handleGo starts a search on a background goroutine and returns
// immediately; the command-reader loop keeps reading (so "stop" can be
// processed while the search runs).
func (u *UCI) handleGo(args []string) {
	u.stopAndJoin()

	opts := parseGoOptions(args)
	limits := u.calculateLimits(opts)

	pos := u.position.Copy()
	startFEN := pos.ToFEN()

	for _, s := range opts.SearchMoves {
		if m, err := board.ParseMove(s, pos); err == nil && isLegal(pos, m) {
			limits.SearchMoves = append(limits.SearchMoves, m)
		}
	}

	var lastInfo engine.SearchInfo
	u.engine.OnInfo = func(info engine.SearchInfo) {
		lastInfo = info
		u.sendInfo(info)
	}

	u.stopRequested.Store(false)
	u.running.Store(true)
	u.searchDone = make(chan struct{})

	go func() {
		defer close(u.searchDone)
		defer u.running.Store(false)

		start := time.Now()
		bestMove := u.engine.SearchWithLimits(pos, limits)
		elapsed := time.Since(start)

		if bestMove == board.NoMove {
			fmt.Println("bestmove 0000")
			return
		}
		fmt.Printf("bestmove %s\n", bestMove.String())

		if u.store != nil {
			err := u.store.RecordSearch(store.SearchRecord{
				FEN:       startFEN,
				BestMove:  bestMove.String(),
				Score:     lastInfo.Score,
				Depth:     lastInfo.Depth,
				Nodes:     lastInfo.Nodes,
				Elapsed:   elapsed,
				Timestamp: time.Now(),
			})
			if err != nil {
				fmt.Printf("info string telemetry not recorded: %v\n", err)
			}
		}
	}()
}

func parseGoOptions(args []string) GoOptions {
	var opts GoOptions

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "nodes":
			if i+1 < len(args) {
				n, _ := strconv.ParseUint(args[i+1], 10, 64)
				opts.Nodes = n
				i++
			}
		case "movetime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.MoveTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "infinite":
			opts.Infinite = true
		case "ponder":
			opts.Ponder = true
		case "wtime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.WTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "btime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.BTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "winc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.WInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "binc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.BInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "movestogo":
			if i+1 < len(args) {
				opts.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "searchmoves":
			for i+1 < len(args) {
				next := args[i+1]
				if isGoKeyword(next) {
					break
				}
				opts.SearchMoves = append(opts.SearchMoves, next)
				i++
			}
		}
	}

	return opts
}

func isGoKeyword(s string) bool {
	switch s {
	case "depth", "nodes", "movetime", "infinite", "ponder", "wtime", "btime",
		"winc", "binc", "movestogo", "searchmoves":
		return true
	}
	return false
}

// calculateLimits converts GoOptions into engine.SearchLimits. The
// move-time budget itself is computed by engine.TimeManager; "movetime"
// overrides everything, and "infinite"/"ponder" search until stopped.
func (u *UCI) calculateLimits(opts GoOptions) engine.SearchLimits {
	limits := engine.SearchLimits{Depth: opts.Depth, Nodes: opts.Nodes}

	if opts.MoveTime > 0 {
		limits.MoveTime = opts.MoveTime
		return limits
	}

	if opts.Infinite || opts.Ponder {
		limits.Infinite = true
		return limits
	}

	side := 0
	remaining := opts.WTime
	if u.position.SideToMove() == board.Black {
		side = 1
		remaining = opts.BTime
	}

	if remaining <= 0 {
		return limits
	}

	tm := engine.NewTimeManager()
	tm.Init(engine.UCILimits{
		Time:      [2]time.Duration{opts.WTime, opts.BTime},
		Inc:       [2]time.Duration{opts.WInc, opts.BInc},
		MovesToGo: opts.MovesToGo,
	}, side)
	limits.MoveTime = tm.Budget()
	return limits
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	var parts []string

	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))
	parts = append(parts, "score "+scoreToUCI(info.Score))
	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))

	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}
	if len(info.PV) > 0 {
		strs := make([]string, len(info.PV))
		for i, m := range info.PV {
			strs[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(strs, " "))
	}

	fmt.Printf("info %s\n", strings.Join(parts, " "))
}

func scoreToUCI(score int) string {
	if score > engine.MateScore-1000 {
		mateIn := (engine.MateScore - score + 1) / 2
		return fmt.Sprintf("mate %d", mateIn)
	}
	if score < -(engine.MateScore - 1000) {
		mateIn := -(engine.MateScore + score + 1) / 2
		return fmt.Sprintf("mate %d", mateIn)
	}
	return fmt.Sprintf("cp %d", score)
}

// stopAndJoin requests the running search stop and waits for its
// goroutine to exit before returning. It is a no-op if no search is
// running, and is called before every command that mutates engine or
// position state, guaranteeing the search never observes a torn position.
func (u *UCI) stopAndJoin() {
	if !u.running.Load() {
		return
	}
	u.stopRequested.Store(true)
	u.engine.Stop()
	<-u.searchDone
}

// handleQuit stops any running search and exits the process.
func (u *UCI) handleQuit() {
	u.stopAndJoin()
	if u.store != nil {
		u.store.Close()
	}
}

// handleSetOption processes "setoption name <name> value <value>".
func (u *UCI) handleSetOption(args []string) {
	var name, value string
	readingName, readingValue := false, false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName, readingValue = true, false
		case "value":
			readingName, readingValue = false, true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		u.stopAndJoin()
		mb, err := strconv.Atoi(value)
		if err != nil || mb < 1 {
			fmt.Printf("info string invalid hash size: %s\n", value)
			return
		}
		u.engine.Resize(mb)
	case "stats":
		if u.store != nil {
			u.store.SetEnabled(strings.EqualFold(value, "true") || strings.EqualFold(value, "on"))
		}
	default:
		// Unknown option name; UCI says unknown keywords are ignored.
	}
}

// handlePerft runs a perft node count from the current position, a
// UCI-level debug command layered over the core move generator/make-move
// machinery rather than a tested component in its own right.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil {
			depth = d
		}
	}

	start := time.Now()
	nodes := u.engine.Perft(u.position, depth)
	elapsed := time.Since(start)

	fmt.Printf("Nodes: %d\n", nodes)
	fmt.Printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		nps := float64(nodes) / elapsed.Seconds()
		fmt.Printf("NPS: %.0f\n", nps)
	}
}
