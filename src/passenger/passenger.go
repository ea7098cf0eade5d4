package passenger

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"elevatorsim/src/building"
	"elevatorsim/src/types"
)

// Passenger is one rider moving through the Waiting -> Boarding -> Riding ->
// Exiting -> Done lifecycle.
type Passenger struct {
	ID               int
	OriginFloor      int
	DestinationFloor int
	State            types.PassengerState
	SpawnTime        float64
	BoardTime        float64
	WaitDuration     float64
}

// Direction returns the travel direction the passenger needs.
func (p *Passenger) Direction() types.Direction {
	if p.DestinationFloor > p.OriginFloor {
		return types.DirUp
	}
	return types.DirDown
}

// Info copies the passenger into its notification form.
func (p *Passenger) Info() types.PassengerInfo {
	return types.PassengerInfo{
		ID:               p.ID,
		OriginFloor:      p.OriginFloor,
		DestinationFloor: p.DestinationFloor,
		State:            p.State,
		SpawnTime:        p.SpawnTime,
		BoardTime:        p.BoardTime,
		WaitDuration:     p.WaitDuration,
	}
}

// Recorder receives lifecycle measurements as they happen.
type Recorder interface {
	RecordBoard(waitDuration float64)
	RecordTransport()
}

// Manager spawns passengers and moves them through their lifecycle. It owns
// the waiting queues per floor and the rider lists per elevator; the floor
// registry and elevators are injected, never captured globally.
type Manager struct {
	registry  *building.Registry
	rng       *rand.Rand
	spawnRate float64

	nextID  int
	waiting [][]*Passenger // per floor, in spawn order
	riding  [][]*Passenger // per elevator
}

// NewManager creates a lifecycle manager for the given building. The PCG
// seed makes spawn sequences reproducible.
func NewManager(registry *building.Registry, elevatorCount int, spawnRate float64, seed uint64) *Manager {
	return &Manager{
		registry:  registry,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		spawnRate: spawnRate,
		waiting:   make([][]*Passenger, registry.FloorCount()),
		riding:    make([][]*Passenger, elevatorCount),
	}
}

// SpawnTick performs one probabilistic spawn roll with expected spawn count
// spawnRate*dt. A spawned passenger starts Waiting on a uniformly random
// origin floor with a distinct random destination, and presses the floor
// button for its direction.
func (m *Manager) SpawnTick(dt, now float64) *Passenger {
	if m.rng.Float64() >= m.spawnRate*dt {
		return nil
	}
	floorCount := m.registry.FloorCount()
	origin := m.rng.IntN(floorCount)
	dest := m.rng.IntN(floorCount - 1)
	if dest >= origin {
		dest++
	}

	p := &Passenger{
		ID:               m.nextID,
		OriginFloor:      origin,
		DestinationFloor: dest,
		State:            types.Waiting,
		SpawnTime:        now,
	}
	m.nextID++
	m.waiting[origin] = append(m.waiting[origin], p)
	m.registry.SetButton(origin, p.Direction(), true)
	slog.Debug("Passenger spawned", "id", p.ID, "origin", origin, "destination", dest)
	return p
}

// Add creates a Waiting passenger with a fixed origin and destination,
// bypassing the spawn roll. Scripted scenarios and tests use it; the normal
// path is SpawnTick.
func (m *Manager) Add(origin, dest int, now float64) (*Passenger, error) {
	floorCount := m.registry.FloorCount()
	if origin < 0 || origin >= floorCount || dest < 0 || dest >= floorCount {
		return nil, fmt.Errorf("passenger floors out of range: %d -> %d", origin, dest)
	}
	if origin == dest {
		return nil, fmt.Errorf("passenger origin equals destination: %d", origin)
	}
	p := &Passenger{
		ID:               m.nextID,
		OriginFloor:      origin,
		DestinationFloor: dest,
		State:            types.Waiting,
		SpawnTime:        now,
	}
	m.nextID++
	m.waiting[origin] = append(m.waiting[origin], p)
	m.registry.SetButton(origin, p.Direction(), true)
	return p, nil
}

// OnElevatorArrived processes one elevator stop: riders destined for this
// floor exit first, then waiting passengers board in spawn order until
// capacity runs out. Returns the passengers that boarded and those that
// exited.
func (m *Manager) OnElevatorArrived(elev *building.Elevator, floor int, now float64, rec Recorder) (boarded, exited []*Passenger) {
	remaining := m.riding[elev.Index][:0]
	for _, p := range m.riding[elev.Index] {
		if p.DestinationFloor != floor {
			remaining = append(remaining, p)
			continue
		}
		m.mustTransition(p, types.Exiting)
		m.mustTransition(p, types.Done)
		elev.Unboard(p.ID)
		rec.RecordTransport()
		exited = append(exited, p)
	}
	m.riding[elev.Index] = remaining

	left := m.waiting[floor][:0]
	for _, p := range m.waiting[floor] {
		if !elev.Board(p.ID) {
			// Car is full; the passenger keeps waiting and the floor button
			// for its direction stays set.
			left = append(left, p)
			continue
		}
		m.mustTransition(p, types.Boarding)
		m.mustTransition(p, types.Riding)
		p.BoardTime = now
		p.WaitDuration = now - p.SpawnTime
		rec.RecordBoard(p.WaitDuration)
		elev.PressButton(p.DestinationFloor)
		m.riding[elev.Index] = append(m.riding[elev.Index], p)
		boarded = append(boarded, p)
	}
	m.waiting[floor] = left

	m.refreshButtons(floor)
	if len(boarded) > 0 || len(exited) > 0 {
		slog.Debug("Elevator serviced floor",
			"elevator", elev.Index, "floor", floor,
			"boarded", len(boarded), "exited", len(exited))
	}
	return boarded, exited
}

// refreshButtons recomputes a floor's request buttons from the passengers
// still waiting there. A direction clears only when nobody waiting needs it,
// since a full car may leave passengers behind.
func (m *Manager) refreshButtons(floor int) {
	var up, down bool
	for _, p := range m.waiting[floor] {
		switch p.Direction() {
		case types.DirUp:
			up = true
		case types.DirDown:
			down = true
		}
	}
	m.registry.SetButton(floor, types.DirUp, up)
	m.registry.SetButton(floor, types.DirDown, down)
}

func (m *Manager) mustTransition(p *Passenger, to types.PassengerState) {
	next, err := types.Transition(p.State, to)
	if err != nil {
		// Transitions are driven only from this package; a rejection here is
		// a bug, not a recoverable condition.
		panic(err)
	}
	p.State = next
}

// WaitingAt returns the passengers waiting on a floor, in spawn order.
func (m *Manager) WaitingAt(floor int) []*Passenger {
	return m.waiting[floor]
}

// RidingIn returns the passengers riding in an elevator.
func (m *Manager) RidingIn(elevator int) []*Passenger {
	return m.riding[elevator]
}
