// Frame loop driving the simulation engine from host-supplied timestamps,
// so that hosts without an animation-frame primitive (headless tests,
// servers) can drive it with a synthetic clock.
package scheduler

import (
	"context"
	"log/slog"

	"elevatorsim/src/config"
	"elevatorsim/src/engine"
	"elevatorsim/src/types"
)

// State of the frame loop.
type State int

const (
	Idle State = iota
	Running
	Paused
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	case Ended:
		return "Ended"
	}
	return "Unknown"
}

// Scheduler owns the frame clock, the pause flag and the time scale, and
// coordinates the one control-program invocation per frame with fixed-step
// physics. All calls must come from one goroutine.
type Scheduler struct {
	engine  *engine.Engine
	program engine.ControlProgram

	state     State
	lastT     float64
	started   bool
	timeScale float64
	stopReq   bool
}

// New wires a scheduler to an engine and a control program.
func New(eng *engine.Engine, program engine.ControlProgram) *Scheduler {
	return &Scheduler{
		engine:    eng,
		program:   program,
		timeScale: config.DefaultTimeScale,
	}
}

// Frame runs one host frame at wall-clock timestamp t in milliseconds.
// Timestamps must be monotonically increasing. The first frame only records
// its timestamp. Returns the scheduler state after the frame.
func (s *Scheduler) Frame(ctx context.Context, t float64) State {
	if s.stopReq {
		// Cooperative cancellation, honored at the frame boundary only.
		s.state = Ended
		return s.state
	}
	if s.state == Idle {
		s.state = Running
	}

	if !s.started {
		s.started = true
		s.lastT = t
		return s.state
	}
	dt := t - s.lastT
	s.lastT = t

	if s.state != Running {
		return s.state
	}

	// Cap the catch-up burst after a stalled host clock.
	scaledDt := dt * 0.001 * s.timeScale
	maxDt := config.DtMax * config.MaxFrameCatchup * s.timeScale
	if scaledDt > maxDt {
		scaledDt = maxDt
	}

	if err := s.engine.CallControlProgram(ctx, s.program); err != nil {
		// Skip this frame's physics entirely; the host may fix the program
		// and resume with all accumulated state intact.
		s.state = Paused
		s.engine.ReportControlError(err)
		return s.state
	}

	for remaining := scaledDt; remaining > 0 && !s.engine.Ended(); remaining -= config.DtMax {
		step := config.DtMax
		if remaining < step {
			step = remaining
		}
		s.engine.Step(step)
	}
	s.engine.PublishState(scaledDt)

	if s.engine.Ended() {
		s.state = Ended
		slog.Info("Run ended", "outcome", s.engine.Outcome())
	}
	return s.state
}

// Pause suspends physics. Frames keep recording timestamps so resuming does
// not replay the paused interval.
func (s *Scheduler) Pause() {
	if s.state == Running {
		s.state = Paused
	}
}

// Resume continues a paused run.
func (s *Scheduler) Resume() {
	if s.state == Paused {
		s.state = Running
	}
}

// TogglePause flips between Running and Paused.
func (s *Scheduler) TogglePause() {
	switch s.state {
	case Running:
		s.state = Paused
	case Paused:
		s.state = Running
	}
}

// SetTimeScale changes the wall-clock multiplier. Takes effect on the next
// frame without resetting accumulated state.
func (s *Scheduler) SetTimeScale(scale float64) {
	if scale <= 0 {
		slog.Warn("Ignoring non-positive time scale", "scale", scale)
		return
	}
	s.timeScale = scale
}

// TimeScale returns the current wall-clock multiplier.
func (s *Scheduler) TimeScale() float64 {
	return s.timeScale
}

// Stop requests cancellation; it is honored at the top of the next frame,
// never mid-step.
func (s *Scheduler) Stop() {
	s.stopReq = true
}

// State returns the current frame-loop state.
func (s *Scheduler) State() State {
	return s.state
}

// Outcome reports the engine's challenge outcome.
func (s *Scheduler) Outcome() types.Outcome {
	return s.engine.Outcome()
}
