package types

import "fmt"

// PassengerState tracks a passenger through its lifecycle. Transitions are
// strictly forward; see Transition.
type PassengerState int

const (
	Waiting PassengerState = iota
	Boarding
	Riding
	Exiting
	Done
)

func (s PassengerState) String() string {
	switch s {
	case Waiting:
		return "Waiting"
	case Boarding:
		return "Boarding"
	case Riding:
		return "Riding"
	case Exiting:
		return "Exiting"
	case Done:
		return "Done"
	}
	return "Unknown"
}

// Transition validates a passenger state change. Only forward moves through
// Waiting -> Boarding -> Riding -> Exiting -> Done are allowed.
func Transition(from, to PassengerState) (PassengerState, error) {
	if to != from+1 {
		return from, fmt.Errorf("invalid passenger transition %v -> %v", from, to)
	}
	return to, nil
}

// Outcome is the tri-state result of evaluating a challenge condition.
type Outcome int

const (
	Pending Outcome = iota
	Success
	Failure
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "Pending"
	case Success:
		return "Success"
	case Failure:
		return "Failure"
	}
	return "Unknown"
}

// Direction of requested travel from a floor.
type Direction int

const (
	DirDown Direction = -1
	DirNone Direction = 0
	DirUp   Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "Up"
	case DirDown:
		return "Down"
	case DirNone:
		return "None"
	}
	return "Unknown"
}

// SimulationStats is the derived aggregate view of a run. All counters are
// monotonically non-decreasing within one run.
type SimulationStats struct {
	TransportedCount  int
	ElapsedTime       float64
	TransportedPerSec float64
	AvgWaitTime       float64
	MaxWaitTime       float64
	MoveCount         int
}

// Condition pairs a description with a pure success/failure predicate over
// aggregate stats.
type Condition struct {
	Description string
	Evaluate    func(SimulationStats) Outcome
}

// NoDestination marks an elevator without a commanded destination floor.
const NoDestination = -1

// Command is a goToFloor request recorded by a control program for one
// elevator.
type Command struct {
	Elevator int
	Floor    int
}

// ElevatorView is the read-only elevator snapshot handed to a control
// program. GoToFloor records a command; it does not act on the engine
// directly.
type ElevatorView struct {
	Index               int
	CurrentFloor        int
	DestinationFloor    int // NoDestination if idle
	PressedFloorButtons []int
	PercentFull         float64

	commands []Command
}

// GoToFloor records a destination command for this elevator. Commands are
// applied by the engine after the control program returns.
func (v *ElevatorView) GoToFloor(floor int) {
	v.commands = append(v.commands, Command{Elevator: v.Index, Floor: floor})
}

// Commands returns the commands recorded so far, in issue order.
func (v *ElevatorView) Commands() []Command {
	return v.commands
}

// FloorButtons holds the up/down request state of one floor.
type FloorButtons struct {
	Up   bool
	Down bool
}

// FloorView is the read-only floor snapshot handed to a control program.
type FloorView struct {
	Level   int
	Buttons FloorButtons
}

// ElevatorSnapshot mirrors one elevator for the presentation layer.
type ElevatorSnapshot struct {
	Index               int
	Position            float64
	CurrentFloor        int
	DestinationFloor    int
	PressedFloorButtons []int
	Capacity            int
	Occupants           []int
	MoveCount           int
}

// FloorSnapshot mirrors one floor for the presentation layer.
type FloorSnapshot struct {
	Level   int
	Buttons FloorButtons
}

// Snapshot is a full copy of the visible simulation state.
type Snapshot struct {
	Elevators []ElevatorSnapshot
	Floors    []FloorSnapshot
}

// PassengerInfo mirrors one passenger for notifications.
type PassengerInfo struct {
	ID               int
	OriginFloor      int
	DestinationFloor int
	State            PassengerState
	SpawnTime        float64
	BoardTime        float64
	WaitDuration     float64
}

// Event is the marker for all notifications emitted by the engine. The host
// subscribes to these instead of reading engine state directly.
type Event interface{ isEvent() }

// StateChangedEvent carries a fresh snapshot after each frame's physics.
type StateChangedEvent struct {
	Snapshot *Snapshot
	Dt       float64
}

func (StateChangedEvent) isEvent() {}

// PassengerSpawnedEvent fires when a new passenger starts waiting.
type PassengerSpawnedEvent struct {
	Passenger PassengerInfo
}

func (PassengerSpawnedEvent) isEvent() {}

// PassengersExitedEvent fires for every batch of passengers reaching their
// destination at one arrival.
type PassengersExitedEvent struct {
	Passengers []PassengerInfo
}

func (PassengersExitedEvent) isEvent() {}

// StatsChangedEvent fires only when a visible stats field changed value.
type StatsChangedEvent struct {
	Stats SimulationStats
}

func (StatsChangedEvent) isEvent() {}

// ChallengeEndedEvent fires once, when the condition leaves Pending.
type ChallengeEndedEvent struct {
	Succeeded bool
}

func (ChallengeEndedEvent) isEvent() {}

// ControlProgramErrorEvent fires when the control program fails; the
// scheduler pauses the run and the host decides how to recover.
type ControlProgramErrorEvent struct {
	Err error
}

func (ControlProgramErrorEvent) isEvent() {}
