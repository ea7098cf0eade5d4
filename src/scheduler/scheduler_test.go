package scheduler

import (
	"context"
	"errors"
	"testing"

	"elevatorsim/src/config"
	"elevatorsim/src/controller"
	"elevatorsim/src/engine"
	"elevatorsim/src/types"
)

func newEngine(t *testing.T, spec config.ChallengeSpec) *engine.Engine {
	t.Helper()
	eng, err := engine.Initialize(config.Config{
		FloorCount:        3,
		ElevatorCount:     1,
		SpawnRate:         0.001, // quiet building; these tests drive state directly
		SpeedFloorsPerSec: 2,
		Challenge:         spec,
	}, 1)
	if err != nil {
		t.Fatal(err)
	}
	return eng
}

func perpetual() config.ChallengeSpec {
	return config.ChallengeSpec{Kind: "perpetual"}
}

func TestFirstFrameOnlyRecordsTimestamp(t *testing.T) {
	eng := newEngine(t, perpetual())
	invocations := 0
	prog := controller.Func(func(context.Context, []*types.ElevatorView, []*types.FloorView) error {
		invocations++
		return nil
	})
	s := New(eng, prog)

	ctx := context.Background()
	if got := s.Frame(ctx, 0); got != Running {
		t.Errorf("state after first frame = %v, expected Running", got)
	}
	if invocations != 0 {
		t.Errorf("control program invoked on the first frame")
	}
	if eng.Stats().ElapsedTime != 0 {
		t.Errorf("physics ran on the first frame")
	}

	for i := 1; i <= 5; i++ {
		s.Frame(ctx, float64(i)*16)
	}
	if invocations != 5 {
		t.Errorf("invocations = %d, expected exactly one per frame", invocations)
	}
}

func TestFrameAdvancesScaledTime(t *testing.T) {
	eng := newEngine(t, perpetual())
	s := New(eng, controller.Idle())
	ctx := context.Background()

	s.Frame(ctx, 0)
	s.Frame(ctx, 16)
	got := eng.Stats().ElapsedTime
	if got <= 0.0159 || got >= 0.0161 {
		t.Errorf("elapsed = %f, expected about 0.016", got)
	}
}

func TestCatchupBurstIsCapped(t *testing.T) {
	eng := newEngine(t, perpetual())
	s := New(eng, controller.Idle())
	ctx := context.Background()

	s.Frame(ctx, 0)
	s.Frame(ctx, 10_000) // a 10s stall must not replay 10s of physics
	limit := config.DtMax*config.MaxFrameCatchup + 1e-9
	if got := eng.Stats().ElapsedTime; got > limit {
		t.Errorf("elapsed = %f after stall, expected at most %f", got, limit)
	}
}

func TestTimeScale(t *testing.T) {
	eng := newEngine(t, perpetual())
	s := New(eng, controller.Idle())
	s.SetTimeScale(2)
	ctx := context.Background()

	s.Frame(ctx, 0)
	s.Frame(ctx, 10)
	got := eng.Stats().ElapsedTime
	if got <= 0.0199 || got >= 0.0201 {
		t.Errorf("elapsed = %f at scale 2, expected about 0.020", got)
	}

	s.SetTimeScale(0)
	if s.TimeScale() != 2 {
		t.Errorf("non-positive time scale accepted")
	}
}

func TestPauseSkipsPhysicsButTracksClock(t *testing.T) {
	eng := newEngine(t, perpetual())
	s := New(eng, controller.Idle())
	ctx := context.Background()

	s.Frame(ctx, 0)
	s.Frame(ctx, 16)
	elapsed := eng.Stats().ElapsedTime

	s.Pause()
	s.Frame(ctx, 5000)
	if eng.Stats().ElapsedTime != elapsed {
		t.Errorf("physics advanced while paused")
	}

	// The paused interval was consumed, so resuming advances only by the
	// new frame's own delta.
	s.Resume()
	s.Frame(ctx, 5016)
	got := eng.Stats().ElapsedTime - elapsed
	if got <= 0.0159 || got >= 0.0161 {
		t.Errorf("advance after resume = %f, expected about 0.016", got)
	}
}

func TestControlProgramErrorPausesRun(t *testing.T) {
	eng := newEngine(t, perpetual())
	boom := errors.New("stack overflow in user code")
	invocations := 0
	prog := controller.Func(func(context.Context, []*types.ElevatorView, []*types.FloorView) error {
		invocations++
		if invocations == 5 {
			return boom
		}
		return nil
	})
	s := New(eng, prog)

	var reported error
	eng.Subscribe(func(ev types.Event) {
		if e, ok := ev.(types.ControlProgramErrorEvent); ok {
			reported = e.Err
		}
	})

	ctx := context.Background()
	s.Frame(ctx, 0)
	var before types.SimulationStats
	for i := 1; ; i++ {
		state := s.Frame(ctx, float64(i)*16)
		if invocations == 4 {
			before = eng.Stats()
		}
		if state == Paused {
			break
		}
		if i > 10 {
			t.Fatal("scheduler never paused")
		}
	}

	if invocations != 5 {
		t.Errorf("invocations = %d, expected the run to pause on the 5th", invocations)
	}
	if !errors.Is(reported, boom) {
		t.Errorf("reported error = %v, expected the control program's error", reported)
	}
	// The failing frame's physics is skipped entirely.
	if eng.Stats() != before {
		t.Errorf("stats moved on the failing frame: %+v -> %+v", before, eng.Stats())
	}

	// State survives; the host can resume after fixing the program.
	s.Resume()
	if got := s.Frame(ctx, 200); got != Running {
		t.Errorf("state after resume = %v, expected Running", got)
	}
}

func TestChallengeEndStopsScheduler(t *testing.T) {
	// Target zero succeeds on the first evaluation.
	eng := newEngine(t, config.ChallengeSpec{Kind: "within-time", Target: 0, TimeLimit: 60})
	s := New(eng, controller.Idle())
	ctx := context.Background()

	s.Frame(ctx, 0)
	if got := s.Frame(ctx, 16); got != Ended {
		t.Fatalf("state = %v, expected Ended", got)
	}
	if s.Outcome() != types.Success {
		t.Errorf("outcome = %v, expected Success", s.Outcome())
	}

	// Further frames are inert.
	elapsed := eng.Stats().ElapsedTime
	s.Frame(ctx, 32)
	if eng.Stats().ElapsedTime != elapsed {
		t.Errorf("physics ran after the challenge ended")
	}
}

func TestStopHonoredAtFrameBoundary(t *testing.T) {
	eng := newEngine(t, perpetual())
	invocations := 0
	prog := controller.Func(func(context.Context, []*types.ElevatorView, []*types.FloorView) error {
		invocations++
		return nil
	})
	s := New(eng, prog)
	ctx := context.Background()

	s.Frame(ctx, 0)
	s.Frame(ctx, 16)
	s.Stop()
	if got := s.Frame(ctx, 32); got != Ended {
		t.Errorf("state = %v, expected Ended after stop", got)
	}
	if invocations != 1 {
		t.Errorf("control program invoked after stop")
	}
}

func TestStateChangedCarriesSnapshot(t *testing.T) {
	eng := newEngine(t, perpetual())
	s := New(eng, controller.Idle())

	var snaps []*types.Snapshot
	eng.Subscribe(func(ev types.Event) {
		if e, ok := ev.(types.StateChangedEvent); ok {
			snaps = append(snaps, e.Snapshot)
		}
	})

	ctx := context.Background()
	s.Frame(ctx, 0)
	s.Frame(ctx, 16)
	s.Frame(ctx, 32)
	if len(snaps) != 2 {
		t.Fatalf("state_changed fired %d times, expected once per physics frame", len(snaps))
	}
	if len(snaps[0].Elevators) != 1 || len(snaps[0].Floors) != 3 {
		t.Errorf("snapshot shape = %d elevators, %d floors", len(snaps[0].Elevators), len(snaps[0].Floors))
	}
}
