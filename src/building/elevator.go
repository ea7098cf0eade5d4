package building

import (
	"log/slog"
	"math"
	"slices"

	"elevatorsim/src/types"
)

// Elevator is the motion controller for one car. Position is continuous in
// [0, floorCount-1]; the destination queue is a single slot the control
// program overwrites at will.
type Elevator struct {
	Index             int
	SpeedFloorsPerSec float64

	position     float64
	currentFloor int
	destination  int
	capacity     int
	occupants    []int
	pressed      map[int]bool
	moveCount    int
	floorCount   int
}

// NewElevator creates an idle elevator resting at floor 0.
func NewElevator(index, capacity, floorCount int, speed float64) *Elevator {
	return &Elevator{
		Index:             index,
		SpeedFloorsPerSec: speed,
		destination:       types.NoDestination,
		capacity:          capacity,
		pressed:           make(map[int]bool),
		floorCount:        floorCount,
	}
}

// SetDestination points the elevator at a floor, overwriting any prior
// destination. Out-of-range floors are ignored, as is re-targeting the
// current floor while idle.
func (e *Elevator) SetDestination(floor int) {
	if floor < 0 || floor >= e.floorCount {
		slog.Warn("Ignoring destination outside building", "elevator", e.Index, "floor", floor)
		return
	}
	if floor == e.currentFloor && e.destination == types.NoDestination && e.atRest() {
		return
	}
	e.destination = floor
}

// Advance moves the elevator toward its destination for dt seconds. It
// returns true when the elevator reaches its destination floor this step;
// the caller then processes boarding and alighting.
func (e *Elevator) Advance(dt float64) bool {
	if e.destination == types.NoDestination {
		return false
	}
	target := float64(e.destination)
	step := e.SpeedFloorsPerSec * dt
	if e.position < target {
		e.position = math.Min(e.position+step, target)
	} else {
		e.position = math.Max(e.position-step, target)
	}
	e.clampPosition()

	// A full floor boundary crossing bumps the move counter, regardless of
	// travel direction.
	newFloor := int(math.Round(e.position))
	if newFloor != e.currentFloor {
		e.moveCount += abs(newFloor - e.currentFloor)
		e.currentFloor = newFloor
	}

	if e.position == target {
		e.destination = types.NoDestination
		delete(e.pressed, e.currentFloor)
		return true
	}
	return false
}

// clampPosition self-heals a position outside the building, e.g. after a
// pathological dt.
func (e *Elevator) clampPosition() {
	top := float64(e.floorCount - 1)
	if e.position < 0 || e.position > top {
		clamped := math.Min(math.Max(e.position, 0), top)
		slog.Warn("Elevator position outside building, clamping",
			"elevator", e.Index, "position", e.position, "clamped", clamped)
		e.position = clamped
	}
}

func (e *Elevator) atRest() bool {
	return e.position == float64(e.currentFloor)
}

// Board adds a passenger to an occupant slot. Boarding is refused when the
// car is full; the passenger keeps waiting.
func (e *Elevator) Board(passengerID int) bool {
	if len(e.occupants) >= e.capacity {
		return false
	}
	e.occupants = append(e.occupants, passengerID)
	return true
}

// Unboard vacates a passenger's occupant slot.
func (e *Elevator) Unboard(passengerID int) {
	for i, id := range e.occupants {
		if id == passengerID {
			e.occupants = append(e.occupants[:i], e.occupants[i+1:]...)
			return
		}
	}
}

// PressButton registers a rider's destination request inside the car.
func (e *Elevator) PressButton(floor int) {
	if floor < 0 || floor >= e.floorCount {
		return
	}
	e.pressed[floor] = true
}

// PressedButtons returns the requested floors in ascending order.
func (e *Elevator) PressedButtons() []int {
	floors := make([]int, 0, len(e.pressed))
	for f := range e.pressed {
		floors = append(floors, f)
	}
	slices.Sort(floors)
	return floors
}

// PercentFull is the occupant to capacity ratio.
func (e *Elevator) PercentFull() float64 {
	return float64(len(e.occupants)) / float64(e.capacity)
}

func (e *Elevator) Position() float64 { return e.position }
func (e *Elevator) CurrentFloor() int { return e.currentFloor }
func (e *Elevator) DestinationFloor() int { return e.destination }
func (e *Elevator) Capacity() int { return e.capacity }
func (e *Elevator) OccupantCount() int { return len(e.occupants) }
func (e *Elevator) MoveCount() int { return e.moveCount }

// Occupants returns the occupant list without copying. Callers that retain
// it past the current frame must detach it themselves.
func (e *Elevator) Occupants() []int { return e.occupants }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
