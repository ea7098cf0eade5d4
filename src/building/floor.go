package building

import "elevatorsim/src/types"

// Floor holds the request button state of one level.
type Floor struct {
	Level int
	Up    bool
	Down  bool
}

// Registry owns the building's floors, indexed 0..floorCount-1. It is a
// plain state holder; the passenger manager and motion controller drive it.
type Registry struct {
	floors []*Floor
}

// NewRegistry creates floorCount contiguous floors with all buttons clear.
func NewRegistry(floorCount int) *Registry {
	floors := make([]*Floor, floorCount)
	for i := range floors {
		floors[i] = &Floor{Level: i}
	}
	return &Registry{floors: floors}
}

// FloorCount returns the number of floors.
func (r *Registry) FloorCount() int {
	return len(r.floors)
}

// SetButton sets or clears one direction's request button on a floor.
// Out-of-range floors and DirNone are ignored.
func (r *Registry) SetButton(floor int, dir types.Direction, value bool) {
	if floor < 0 || floor >= len(r.floors) {
		return
	}
	switch dir {
	case types.DirUp:
		r.floors[floor].Up = value
	case types.DirDown:
		r.floors[floor].Down = value
	}
}

// Buttons returns the request button state of a floor.
func (r *Registry) Buttons(floor int) types.FloorButtons {
	if floor < 0 || floor >= len(r.floors) {
		return types.FloorButtons{}
	}
	return types.FloorButtons{Up: r.floors[floor].Up, Down: r.floors[floor].Down}
}

// Floors exposes the underlying floor slice for snapshotting.
func (r *Registry) Floors() []*Floor {
	return r.floors
}
