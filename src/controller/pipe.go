package controller

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"elevatorsim/src/types"
)

// Pipe attaches an external control program running as a subprocess that
// speaks the wire protocol on stdin/stdout. One state frame goes out and
// one command frame comes back per invocation, strictly serialized.
type Pipe struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	wr     *bufio.Writer
	stdout *bufio.Reader
}

// StartPipe launches the program and connects its pipes. The child's stderr
// passes through so its own diagnostics stay visible.
func StartPipe(path string, args ...string) (*Pipe, error) {
	cmd := exec.Command(path, args...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting control program %s: %w", path, err)
	}
	slog.Info("Control program started", "path", path, "pid", cmd.Process.Pid)
	return &Pipe{cmd: cmd, stdin: stdin, wr: bufio.NewWriter(stdin), stdout: bufio.NewReader(stdout)}, nil
}

// Invoke sends the current state to the child and applies the commands it
// returns. A context cancellation or deadline kills the child, since a
// half-written frame leaves the stream unusable.
func (p *Pipe) Invoke(ctx context.Context, elevators []*types.ElevatorView, floors []*types.FloorView) error {
	done := make(chan error, 1)
	var commands []types.Command

	go func() {
		if err := EncodeState(p.wr, elevators, floors); err != nil {
			done <- fmt.Errorf("writing state frame: %w", err)
			return
		}
		if err := p.wr.Flush(); err != nil {
			done <- fmt.Errorf("writing state frame: %w", err)
			return
		}
		cmds, err := DecodeCommands(p.stdout)
		if err != nil {
			done <- fmt.Errorf("reading command frame: %w", err)
			return
		}
		commands = cmds
		done <- nil
	}()

	select {
	case <-ctx.Done():
		p.kill()
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return err
		}
	}

	byElevator := make(map[int]*types.ElevatorView, len(elevators))
	for _, e := range elevators {
		byElevator[e.Index] = e
	}
	for _, cmd := range commands {
		if e, ok := byElevator[cmd.Elevator]; ok {
			e.GoToFloor(cmd.Floor)
		} else {
			slog.Warn("Control program commanded unknown elevator", "elevator", cmd.Elevator)
		}
	}
	return nil
}

// Close shuts the child down by closing its stdin, the same end-of-input
// signal the protocol's run loop exits on, then waits for it.
func (p *Pipe) Close() error {
	p.stdin.Close()
	return p.cmd.Wait()
}

func (p *Pipe) kill() {
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	p.cmd.Wait()
}

// Serve runs the control-program side of the wire protocol: decode a state
// frame, let tick record commands on the views, reply with a command frame.
// It returns when the simulator closes the stream. Go control programs call
// this from main with os.Stdin and os.Stdout.
func Serve(r io.Reader, w io.Writer, tick func(elevators []*types.ElevatorView, floors []*types.FloorView)) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	for {
		elevators, floors, err := DecodeState(br)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		tick(elevators, floors)

		var commands []types.Command
		for _, e := range elevators {
			commands = append(commands, e.Commands()...)
		}
		if err := EncodeCommands(bw, commands); err != nil {
			return err
		}
		if err := bw.Flush(); err != nil {
			return err
		}
	}
}
