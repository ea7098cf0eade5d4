package stats

import (
	"math"

	"elevatorsim/src/config"
	"elevatorsim/src/types"
)

// Aggregator maintains running sums over lifecycle events so every update
// and snapshot is O(1). It never recomputes from history.
type Aggregator struct {
	transported int
	elapsed     float64
	waitSum     float64
	waitCount   int
	maxWait     float64
	moves       int

	last types.SimulationStats
}

// New returns an empty aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// RecordBoard folds one boarding's wait duration into the running mean and
// max.
func (a *Aggregator) RecordBoard(waitDuration float64) {
	a.waitSum += waitDuration
	a.waitCount++
	a.maxWait = math.Max(a.maxWait, waitDuration)
}

// RecordTransport counts one passenger delivered to its destination.
func (a *Aggregator) RecordTransport() {
	a.transported++
}

// RecordMove counts one full floor traversal by any elevator.
func (a *Aggregator) RecordMove() {
	a.moves++
}

// AdvanceClock advances simulated elapsed time by dt seconds.
func (a *Aggregator) AdvanceClock(dt float64) {
	a.elapsed += dt
}

// Snapshot derives the current SimulationStats view.
func (a *Aggregator) Snapshot() types.SimulationStats {
	s := types.SimulationStats{
		TransportedCount:  a.transported,
		ElapsedTime:       a.elapsed,
		TransportedPerSec: float64(a.transported) / math.Max(a.elapsed, config.Epsilon),
		MaxWaitTime:       a.maxWait,
		MoveCount:         a.moves,
	}
	if a.waitCount > 0 {
		s.AvgWaitTime = a.waitSum / float64(a.waitCount)
	}
	return s
}

// SnapshotIfChanged returns the current stats and whether any visible field
// changed since the previous call. AdvanceClock moves ElapsedTime every
// step, so while the clock runs this reports a change per step.
func (a *Aggregator) SnapshotIfChanged() (types.SimulationStats, bool) {
	s := a.Snapshot()
	if s == a.last {
		return s, false
	}
	a.last = s
	return s, true
}
