package engine

import (
	"time"
)

// UCILimits carries the time-control parameters parsed out of a UCI "go"
// command.
type UCILimits struct {
	Time      [2]time.Duration // wtime, btime
	Inc       [2]time.Duration // winc, binc
	MovesToGo int              // 0 means sudden death
	MoveTime  time.Duration    // fixed time per move, overrides everything else
	Depth     int              // maximum search depth, 0 means unlimited
	Nodes     uint64           // maximum node count, 0 means unlimited
	Infinite  bool
	Ponder    bool
}

// TimeManager turns a UCILimits into a single time budget for the side to
// move, per the exact formula: slice = remaining/max(1, movestogo or 30);
// budget = max(slice + increment - 50ms, 10ms).
type TimeManager struct {
	budget time.Duration
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init computes the time budget for this move. side selects Time[side]
// and Inc[side] (0 for White, 1 for Black).
func (tm *TimeManager) Init(limits UCILimits, side int) {
	if limits.MoveTime > 0 {
		tm.budget = limits.MoveTime
		return
	}

	if limits.Infinite || limits.Ponder {
		tm.budget = 365 * 24 * time.Hour
		return
	}

	remaining := limits.Time[side]
	if remaining == 0 {
		tm.budget = 365 * 24 * time.Hour
		return
	}

	movesToGo := limits.MovesToGo
	if movesToGo <= 0 {
		movesToGo = 30
	}

	slice := remaining / time.Duration(movesToGo)
	budget := slice + limits.Inc[side] - 50*time.Millisecond
	if budget < 10*time.Millisecond {
		budget = 10 * time.Millisecond
	}
	tm.budget = budget
}

// Budget returns the computed time budget for this move.
func (tm *TimeManager) Budget() time.Duration {
	return tm.budget
}
