package engine

import (
	"context"
	"log/slog"

	"github.com/tiendc/go-deepcopy"

	"elevatorsim/src/building"
	"elevatorsim/src/challenge"
	"elevatorsim/src/config"
	"elevatorsim/src/passenger"
	"elevatorsim/src/stats"
	"elevatorsim/src/types"
)

// ControlProgram is the contract the external, sandboxed user program
// satisfies. It is invoked exactly once per frame with read-only views and
// records goToFloor commands on them.
type ControlProgram interface {
	Invoke(ctx context.Context, elevators []*types.ElevatorView, floors []*types.FloorView) error
}

// Listener receives engine notifications. Listeners run synchronously on the
// engine's thread of control and must not call back into the engine.
type Listener func(types.Event)

// Engine is the composition root owning all simulation state. All calls
// must come from a single goroutine; the scheduler provides that.
type Engine struct {
	registry   *building.Registry
	elevators  []*building.Elevator
	passengers *passenger.Manager
	stats      *stats.Aggregator
	condition  types.Condition

	listeners []Listener
	outcome   types.Outcome
	ended     bool
}

// Initialize validates the configuration and builds an engine. A validation
// error is fatal: no engine is created.
func Initialize(cfg config.Config, seed uint64) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	condition, err := challenge.Build(cfg.Challenge)
	if err != nil {
		return nil, err
	}

	registry := building.NewRegistry(cfg.FloorCount)
	elevators := make([]*building.Elevator, cfg.ElevatorCount)
	for i := range elevators {
		elevators[i] = building.NewElevator(i, cfg.ElevatorCapacities[i], cfg.FloorCount, cfg.SpeedFloorsPerSec)
	}

	slog.Debug("Engine initialized",
		"floors", cfg.FloorCount,
		"elevators", cfg.ElevatorCount,
		"spawnRate", cfg.SpawnRate,
		"challenge", condition.Description)

	return &Engine{
		registry:   registry,
		elevators:  elevators,
		passengers: passenger.NewManager(registry, cfg.ElevatorCount, cfg.SpawnRate, seed),
		stats:      stats.New(),
		condition:  condition,
	}, nil
}

// Subscribe registers a notification listener.
func (e *Engine) Subscribe(l Listener) {
	e.listeners = append(e.listeners, l)
}

func (e *Engine) publish(ev types.Event) {
	for _, l := range e.listeners {
		l(ev)
	}
}

// CallControlProgram hands fresh read-only views to the control program and
// applies the commands it recorded. The call is strictly serialized with
// physics stepping: it returns before any tick of the same frame runs.
func (e *Engine) CallControlProgram(ctx context.Context, prog ControlProgram) error {
	elevViews := make([]*types.ElevatorView, len(e.elevators))
	for i, el := range e.elevators {
		elevViews[i] = &types.ElevatorView{
			Index:               el.Index,
			CurrentFloor:        el.CurrentFloor(),
			DestinationFloor:    el.DestinationFloor(),
			PressedFloorButtons: el.PressedButtons(),
			PercentFull:         el.PercentFull(),
		}
	}
	floorViews := make([]*types.FloorView, e.registry.FloorCount())
	for _, f := range e.registry.Floors() {
		floorViews[f.Level] = &types.FloorView{
			Level:   f.Level,
			Buttons: types.FloorButtons{Up: f.Up, Down: f.Down},
		}
	}

	if err := prog.Invoke(ctx, elevViews, floorViews); err != nil {
		return err
	}

	for _, v := range elevViews {
		for _, cmd := range v.Commands() {
			e.CommandDestination(cmd.Elevator, cmd.Floor)
		}
	}
	return nil
}

// CommandDestination points an elevator at a floor. Unknown elevator
// indices are ignored with a warning.
func (e *Engine) CommandDestination(elevator, floor int) {
	if elevator < 0 || elevator >= len(e.elevators) {
		slog.Warn("Command for unknown elevator", "elevator", elevator, "floor", floor)
		return
	}
	e.elevators[elevator].SetDestination(floor)
}

// Step advances physics by one tick of dt simulated seconds: spawn roll,
// elevator motion, arrival processing, stats clock, challenge re-evaluation.
// It returns the challenge outcome at the end of the tick.
func (e *Engine) Step(dt float64) types.Outcome {
	if e.ended {
		return e.outcome
	}

	now := e.stats.Snapshot().ElapsedTime
	if p := e.passengers.SpawnTick(dt, now); p != nil {
		e.publish(types.PassengerSpawnedEvent{Passenger: p.Info()})
	}

	for _, el := range e.elevators {
		before := el.MoveCount()
		arrived := el.Advance(dt)
		for range el.MoveCount() - before {
			e.stats.RecordMove()
		}
		if arrived {
			floor := el.CurrentFloor()
			_, exited := e.passengers.OnElevatorArrived(el, floor, now+dt, e.stats)
			if len(exited) > 0 {
				infos := make([]types.PassengerInfo, len(exited))
				for i, p := range exited {
					infos[i] = p.Info()
				}
				e.publish(types.PassengersExitedEvent{Passengers: infos})
			}
		}
	}

	e.stats.AdvanceClock(dt)
	if snap, changed := e.stats.SnapshotIfChanged(); changed {
		e.publish(types.StatsChangedEvent{Stats: snap})
		e.outcome = e.condition.Evaluate(snap)
	}

	if e.outcome != types.Pending && !e.ended {
		e.ended = true
		slog.Info("Challenge ended", "outcome", e.outcome, "stats", e.stats.Snapshot())
		e.publish(types.ChallengeEndedEvent{Succeeded: e.outcome == types.Success})
	}
	return e.outcome
}

// PublishState emits a state_changed notification carrying a detached
// snapshot covering dt seconds of simulated time.
func (e *Engine) PublishState(dt float64) {
	e.publish(types.StateChangedEvent{Snapshot: e.Snapshot(), Dt: dt})
}

// ReportControlError surfaces a control-program failure to the host. The
// run keeps its accumulated state so it can resume once the program is
// fixed.
func (e *Engine) ReportControlError(err error) {
	slog.Error("Control program failed", "err", err)
	e.publish(types.ControlProgramErrorEvent{Err: err})
}

// Snapshot returns a detached deep copy of the visible simulation state.
// Callers may retain or mutate it freely.
func (e *Engine) Snapshot() *types.Snapshot {
	snap := types.Snapshot{
		Elevators: make([]types.ElevatorSnapshot, len(e.elevators)),
		Floors:    make([]types.FloorSnapshot, e.registry.FloorCount()),
	}
	for i, el := range e.elevators {
		snap.Elevators[i] = types.ElevatorSnapshot{
			Index:               el.Index,
			Position:            el.Position(),
			CurrentFloor:        el.CurrentFloor(),
			DestinationFloor:    el.DestinationFloor(),
			PressedFloorButtons: el.PressedButtons(),
			Capacity:            el.Capacity(),
			Occupants:           el.Occupants(),
			MoveCount:           el.MoveCount(),
		}
	}
	for _, f := range e.registry.Floors() {
		snap.Floors[f.Level] = types.FloorSnapshot{
			Level:   f.Level,
			Buttons: types.FloorButtons{Up: f.Up, Down: f.Down},
		}
	}

	// snap still aliases the live occupant slices here; the deep copy is
	// what detaches the snapshot from engine state.
	out := new(types.Snapshot)
	if err := deepcopy.Copy(out, &snap); err != nil {
		panic(err)
	}
	return out
}

// Stats returns the current aggregate view.
func (e *Engine) Stats() types.SimulationStats {
	return e.stats.Snapshot()
}

// Outcome returns the most recent challenge evaluation.
func (e *Engine) Outcome() types.Outcome {
	return e.outcome
}

// Ended reports whether the challenge has left Pending.
func (e *Engine) Ended() bool {
	return e.ended
}
