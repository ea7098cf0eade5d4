// Challenge end conditions as pure predicates over aggregate stats.
package challenge

import (
	"fmt"

	"elevatorsim/src/config"
	"elevatorsim/src/types"
)

// WithinTime succeeds once target passengers are transported inside the time
// limit, and fails once the limit passes with the target unmet. Both
// thresholds are compared against the same stats snapshot, so crossing the
// count threshold still re-checks time at that instant.
func WithinTime(target int, limit float64) types.Condition {
	return types.Condition{
		Description: fmt.Sprintf("Transport %d people in %.0f seconds or less", target, limit),
		Evaluate: func(s types.SimulationStats) types.Outcome {
			if s.ElapsedTime >= limit || s.TransportedCount >= target {
				if s.TransportedCount >= target && s.ElapsedTime <= limit {
					return types.Success
				}
				return types.Failure
			}
			return types.Pending
		},
	}
}

// MaxWaitTime succeeds once target passengers are transported before any
// passenger has waited longer than bound seconds.
func MaxWaitTime(target int, bound float64) types.Condition {
	return types.Condition{
		Description: fmt.Sprintf("Transport %d people without anyone waiting more than %.0f seconds", target, bound),
		Evaluate: func(s types.SimulationStats) types.Outcome {
			if s.MaxWaitTime >= bound || s.TransportedCount >= target {
				if s.TransportedCount >= target && s.MaxWaitTime <= bound {
					return types.Success
				}
				return types.Failure
			}
			return types.Pending
		},
	}
}

// WithinTimeAndMaxWait combines the time limit and wait bound: pending until
// the target, the limit or the bound is crossed, then success only if the
// target is met with both bounds respected.
func WithinTimeAndMaxWait(target int, limit, bound float64) types.Condition {
	return types.Condition{
		Description: fmt.Sprintf("Transport %d people in %.0f seconds with max waiting time below %.0f seconds", target, limit, bound),
		Evaluate: func(s types.SimulationStats) types.Outcome {
			if s.ElapsedTime >= limit || s.MaxWaitTime >= bound || s.TransportedCount >= target {
				if s.TransportedCount >= target && s.ElapsedTime <= limit && s.MaxWaitTime <= bound {
					return types.Success
				}
				return types.Failure
			}
			return types.Pending
		},
	}
}

// WithinMoves succeeds once target passengers are transported using at most
// moveLimit elevator moves.
func WithinMoves(target, moveLimit int) types.Condition {
	return types.Condition{
		Description: fmt.Sprintf("Transport %d people using %d elevator moves or less", target, moveLimit),
		Evaluate: func(s types.SimulationStats) types.Outcome {
			if s.MoveCount >= moveLimit || s.TransportedCount >= target {
				if s.TransportedCount >= target && s.MoveCount <= moveLimit {
					return types.Success
				}
				return types.Failure
			}
			return types.Pending
		},
	}
}

// Perpetual never ends. Used for open-ended demonstrations.
func Perpetual() types.Condition {
	return types.Condition{
		Description: "Perpetual demo",
		Evaluate: func(types.SimulationStats) types.Outcome {
			return types.Pending
		},
	}
}

// Build resolves a challenge spec from configuration into a condition.
func Build(spec config.ChallengeSpec) (types.Condition, error) {
	switch spec.Kind {
	case "within-time":
		return WithinTime(spec.Target, spec.TimeLimit), nil
	case "max-wait-time":
		return MaxWaitTime(spec.Target, spec.MaxWait), nil
	case "within-time-and-max-wait":
		return WithinTimeAndMaxWait(spec.Target, spec.TimeLimit, spec.MaxWait), nil
	case "within-moves":
		return WithinMoves(spec.Target, spec.MoveLimit), nil
	case "perpetual", "":
		return Perpetual(), nil
	}
	return types.Condition{}, fmt.Errorf("unknown challenge kind %q", spec.Kind)
}
