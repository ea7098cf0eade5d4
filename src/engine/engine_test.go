package engine

import (
	"context"
	"testing"

	"elevatorsim/src/config"
	"elevatorsim/src/controller"
	"elevatorsim/src/types"
)

func scenarioConfig() config.Config {
	return config.Config{
		FloorCount:        3,
		ElevatorCount:     1,
		SpawnRate:         120, // spawnRate*DtMax >= 1, so every tick spawns
		SpeedFloorsPerSec: 2,
		Challenge:         config.ChallengeSpec{Kind: "within-time", Target: 2, TimeLimit: 60},
	}
}

// run emulates the scheduler: one control-program call, then one tick, per
// frame, until the challenge ends or the tick budget runs out.
func run(t *testing.T, eng *Engine, prog ControlProgram, maxTicks int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < maxTicks; i++ {
		if err := eng.CallControlProgram(ctx, prog); err != nil {
			t.Fatalf("control program failed: %v", err)
		}
		if eng.Step(config.DtMax) != types.Pending {
			return
		}
	}
	t.Fatalf("challenge still pending after %d ticks", maxTicks)
}

func TestWithinTimeSuccessScenario(t *testing.T) {
	eng, err := Initialize(scenarioConfig(), 11)
	if err != nil {
		t.Fatal(err)
	}
	run(t, eng, controller.Simple(), 8000)

	if eng.Outcome() != types.Success {
		t.Fatalf("outcome = %v, expected Success", eng.Outcome())
	}
	s := eng.Stats()
	if s.TransportedCount < 2 {
		t.Errorf("TransportedCount = %d, expected at least 2", s.TransportedCount)
	}
	if s.ElapsedTime >= 60 {
		t.Errorf("ElapsedTime = %f, expected under the 60s limit", s.ElapsedTime)
	}
}

func TestWithinTimeFailureScenario(t *testing.T) {
	eng, err := Initialize(scenarioConfig(), 11)
	if err != nil {
		t.Fatal(err)
	}
	run(t, eng, controller.Idle(), 8000)

	if eng.Outcome() != types.Failure {
		t.Fatalf("outcome = %v, expected Failure", eng.Outcome())
	}
	s := eng.Stats()
	if s.TransportedCount >= 2 {
		t.Errorf("TransportedCount = %d with an idle controller", s.TransportedCount)
	}
	if s.ElapsedTime < 60 {
		t.Errorf("ElapsedTime = %f, expected the full 60s", s.ElapsedTime)
	}
}

func TestInvariantsHoldThroughoutRun(t *testing.T) {
	cfg := scenarioConfig()
	eng, err := Initialize(cfg, 23)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	prog := controller.Simple()
	prev := eng.Stats()
	for i := 0; i < 2000 && !eng.Ended(); i++ {
		if err := eng.CallControlProgram(ctx, prog); err != nil {
			t.Fatal(err)
		}
		eng.Step(config.DtMax)

		snap := eng.Snapshot()
		for _, el := range snap.Elevators {
			if el.Position < 0 || el.Position > float64(cfg.FloorCount-1) {
				t.Fatalf("tick %d: position %f outside building", i, el.Position)
			}
			if len(el.Occupants) > el.Capacity {
				t.Fatalf("tick %d: %d occupants over capacity %d", i, len(el.Occupants), el.Capacity)
			}
		}
		s := eng.Stats()
		if s.TransportedCount < prev.TransportedCount ||
			s.MoveCount < prev.MoveCount ||
			s.ElapsedTime < prev.ElapsedTime {
			t.Fatalf("tick %d: stats went backward: %+v -> %+v", i, prev, s)
		}
		prev = s
	}
}

func TestInitializeRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*config.Config)
	}{
		{"one floor", func(c *config.Config) { c.FloorCount = 1 }},
		{"no elevators", func(c *config.Config) { c.ElevatorCount = 0 }},
		{"zero spawn rate", func(c *config.Config) { c.SpawnRate = 0 }},
		{"negative speed", func(c *config.Config) { c.SpeedFloorsPerSec = -1 }},
		{"zero capacity", func(c *config.Config) { c.ElevatorCapacities = []int{0} }},
		{"capacity length mismatch", func(c *config.Config) { c.ElevatorCapacities = []int{4, 4} }},
		{"unknown challenge", func(c *config.Config) { c.Challenge.Kind = "speedrun" }},
	}
	for _, tc := range cases {
		cfg := scenarioConfig()
		tc.mut(&cfg)
		if _, err := Initialize(cfg, 1); err == nil {
			t.Errorf("%s: config accepted", tc.name)
		}
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	eng, err := Initialize(scenarioConfig(), 3)
	if err != nil {
		t.Fatal(err)
	}
	eng.CommandDestination(0, 2)
	eng.Step(config.DtMax)

	snap := eng.Snapshot()
	snap.Elevators[0].Position = -99
	snap.Floors[0].Buttons.Up = true

	fresh := eng.Snapshot()
	if fresh.Elevators[0].Position == -99 {
		t.Error("mutating a snapshot leaked into the engine")
	}
	if fresh.Floors[0].Buttons.Up {
		t.Error("mutating a snapshot's floor leaked into the engine")
	}
}

func TestSnapshotOccupantsAreDetached(t *testing.T) {
	eng, err := Initialize(scenarioConfig(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.passengers.Add(1, 2, 0); err != nil {
		t.Fatal(err)
	}
	eng.CommandDestination(0, 1)
	for i := 0; i < 60 && eng.elevators[0].OccupantCount() == 0; i++ {
		eng.Step(config.DtMax)
	}
	if eng.elevators[0].OccupantCount() == 0 {
		t.Fatal("no passenger boarded within 60 ticks")
	}

	snap := eng.Snapshot()
	snap.Elevators[0].Occupants[0] = -1
	if eng.elevators[0].Occupants()[0] == -1 {
		t.Error("mutating a snapshot's occupants leaked into the engine")
	}
}

func TestCommandsApplyAfterInvoke(t *testing.T) {
	eng, err := Initialize(scenarioConfig(), 3)
	if err != nil {
		t.Fatal(err)
	}
	prog := controller.Func(func(_ context.Context, elevators []*types.ElevatorView, _ []*types.FloorView) error {
		elevators[0].GoToFloor(2)
		return nil
	})
	if err := eng.CallControlProgram(context.Background(), prog); err != nil {
		t.Fatal(err)
	}
	snap := eng.Snapshot()
	if snap.Elevators[0].DestinationFloor != 2 {
		t.Errorf("destination = %d, expected 2", snap.Elevators[0].DestinationFloor)
	}
}

func TestEventsFire(t *testing.T) {
	eng, err := Initialize(scenarioConfig(), 5)
	if err != nil {
		t.Fatal(err)
	}
	var spawned, exited, statsChanged, ended int
	eng.Subscribe(func(ev types.Event) {
		switch ev := ev.(type) {
		case types.PassengerSpawnedEvent:
			spawned++
		case types.PassengersExitedEvent:
			exited += len(ev.Passengers)
		case types.StatsChangedEvent:
			statsChanged++
		case types.ChallengeEndedEvent:
			ended++
		}
	})

	run(t, eng, controller.Simple(), 8000)

	if spawned == 0 {
		t.Error("no passenger_spawned notifications")
	}
	if exited < 2 {
		t.Errorf("passengers_exited covered %d passengers, expected at least the 2 transported", exited)
	}
	if statsChanged == 0 {
		t.Error("no stats_changed notifications")
	}
	if ended != 1 {
		t.Errorf("challenge_ended fired %d times, expected exactly once", ended)
	}
}
