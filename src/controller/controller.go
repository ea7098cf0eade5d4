// Built-in control programs and the transports that attach external ones.
package controller

import (
	"context"
	"fmt"

	"elevatorsim/src/types"
)

// Func adapts a plain function to the engine's ControlProgram contract.
type Func func(ctx context.Context, elevators []*types.ElevatorView, floors []*types.FloorView) error

func (f Func) Invoke(ctx context.Context, elevators []*types.ElevatorView, floors []*types.FloorView) error {
	return f(ctx, elevators, floors)
}

// Idle never issues a command. Useful as a failure baseline.
func Idle() Func {
	return func(context.Context, []*types.ElevatorView, []*types.FloorView) error {
		return nil
	}
}

// Simple sends idle elevators to their first pressed floor, or failing that
// to the first other floor with a lit request button. Commanding an idle car
// to its own floor is a no-op, so the scan skips it; riders there board when
// the car next stops by.
func Simple() Func {
	return func(_ context.Context, elevators []*types.ElevatorView, floors []*types.FloorView) error {
		for _, e := range elevators {
			if e.DestinationFloor != types.NoDestination {
				continue
			}
			if len(e.PressedFloorButtons) > 0 {
				e.GoToFloor(e.PressedFloorButtons[0])
				continue
			}
			for _, f := range floors {
				if f.Level != e.CurrentFloor && (f.Buttons.Up || f.Buttons.Down) {
					e.GoToFloor(f.Level)
					break
				}
			}
		}
		return nil
	}
}

// NearestCall scores candidate floors instead of taking the first lit one:
// pressed in-car buttons win by distance, then hall calls by proximity with
// a bonus for calls matching the current travel direction and a penalty for
// nearly full cars. Empty cars drift between thirds of the building while
// idle so they spread out.
type NearestCall struct {
	tickCount int
}

func (c *NearestCall) Invoke(_ context.Context, elevators []*types.ElevatorView, floors []*types.FloorView) error {
	for _, e := range elevators {
		target := c.bestTarget(e, floors)
		if target != e.CurrentFloor {
			e.GoToFloor(target)
		}
	}
	c.tickCount++
	return nil
}

func (c *NearestCall) bestTarget(e *types.ElevatorView, floors []*types.FloorView) int {
	if len(e.PressedFloorButtons) > 0 {
		best := e.PressedFloorButtons[0]
		bestDist := distance(e.CurrentFloor, best)
		for _, f := range e.PressedFloorButtons[1:] {
			if d := distance(e.CurrentFloor, f); d < bestDist {
				bestDist = d
				best = f
			}
		}
		return best
	}

	best := e.CurrentFloor
	bestScore := -1.0
	for _, f := range floors {
		if f.Level == e.CurrentFloor || (!f.Buttons.Up && !f.Buttons.Down) {
			continue
		}
		score := 1.0 / float64(distance(e.CurrentFloor, f.Level)+1)
		if e.DestinationFloor != types.NoDestination {
			movingUp := e.DestinationFloor > e.CurrentFloor
			if (movingUp && f.Buttons.Up) || (!movingUp && f.Buttons.Down) {
				score *= 2
			}
		}
		if e.PercentFull > 0.8 {
			score *= 0.3
		}
		if score > bestScore {
			bestScore = score
			best = f.Level
		}
	}
	if bestScore < 0 {
		return c.strategicPosition(e, len(floors))
	}
	return best
}

// strategicPosition parks an empty car in a rotating third of the building.
func (c *NearestCall) strategicPosition(e *types.ElevatorView, floorCount int) int {
	if e.PercentFull >= 0.1 {
		return e.CurrentFloor
	}
	const cycle = 100
	phase := (c.tickCount + e.Index*25) % cycle
	switch {
	case phase < cycle/3:
		return max(floorCount/3, 1)
	case phase < 2*cycle/3:
		return floorCount / 2
	default:
		return min(2*floorCount/3, floorCount-1)
	}
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// Builtin resolves a built-in control program by name.
func Builtin(name string) (Func, error) {
	switch name {
	case "idle":
		return Idle(), nil
	case "simple":
		return Simple(), nil
	case "nearest":
		nc := &NearestCall{}
		return nc.Invoke, nil
	}
	return nil, fmt.Errorf("unknown built-in controller %q", name)
}
