package controller

import (
	"encoding/binary"
	"fmt"
	"io"

	"elevatorsim/src/types"
)

// Wire protocol between the simulator and an external control program, all
// little-endian. One exchange per frame:
//
//	state frame:   u32 elevatorCount, u32 floorCount,
//	               per elevator: i32 currentFloor, i32 destination (-1 none),
//	                             f32 percentFull, u32 buttonCount, i32 buttons...
//	               per floor:    i32 level, u8 up, u8 down
//	command frame: u32 count, per command: u32 elevatorID, i32 targetFloor
//
// maxWireCount bounds decoded counts so a corrupt stream cannot force huge
// allocations.
const maxWireCount = 1 << 16

// EncodeState writes one state frame.
func EncodeState(w io.Writer, elevators []*types.ElevatorView, floors []*types.FloorView) error {
	if err := writeU32(w, uint32(len(elevators))); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(floors))); err != nil {
		return err
	}
	for _, e := range elevators {
		if err := writeI32(w, int32(e.CurrentFloor)); err != nil {
			return err
		}
		if err := writeI32(w, int32(e.DestinationFloor)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, float32(e.PercentFull)); err != nil {
			return err
		}
		if err := writeU32(w, uint32(len(e.PressedFloorButtons))); err != nil {
			return err
		}
		for _, b := range e.PressedFloorButtons {
			if err := writeI32(w, int32(b)); err != nil {
				return err
			}
		}
	}
	for _, f := range floors {
		if err := writeI32(w, int32(f.Level)); err != nil {
			return err
		}
		if err := writeBool(w, f.Buttons.Up); err != nil {
			return err
		}
		if err := writeBool(w, f.Buttons.Down); err != nil {
			return err
		}
	}
	return nil
}

// DecodeState reads one state frame, the inverse of EncodeState. Control
// programs written in Go use it through Serve.
func DecodeState(r io.Reader) ([]*types.ElevatorView, []*types.FloorView, error) {
	elevCount, err := readU32(r)
	if err != nil {
		return nil, nil, err
	}
	floorCount, err := readU32(r)
	if err != nil {
		return nil, nil, err
	}
	if elevCount > maxWireCount || floorCount > maxWireCount {
		return nil, nil, fmt.Errorf("implausible state frame: %d elevators, %d floors", elevCount, floorCount)
	}

	elevators := make([]*types.ElevatorView, elevCount)
	for i := range elevators {
		current, err := readI32(r)
		if err != nil {
			return nil, nil, err
		}
		dest, err := readI32(r)
		if err != nil {
			return nil, nil, err
		}
		var full float32
		if err := binary.Read(r, binary.LittleEndian, &full); err != nil {
			return nil, nil, err
		}
		buttonCount, err := readU32(r)
		if err != nil {
			return nil, nil, err
		}
		if buttonCount > maxWireCount {
			return nil, nil, fmt.Errorf("implausible button count %d", buttonCount)
		}
		buttons := make([]int, buttonCount)
		for j := range buttons {
			b, err := readI32(r)
			if err != nil {
				return nil, nil, err
			}
			buttons[j] = int(b)
		}
		elevators[i] = &types.ElevatorView{
			Index:               i,
			CurrentFloor:        int(current),
			DestinationFloor:    int(dest),
			PressedFloorButtons: buttons,
			PercentFull:         float64(full),
		}
	}

	floors := make([]*types.FloorView, floorCount)
	for i := range floors {
		level, err := readI32(r)
		if err != nil {
			return nil, nil, err
		}
		up, err := readBool(r)
		if err != nil {
			return nil, nil, err
		}
		down, err := readBool(r)
		if err != nil {
			return nil, nil, err
		}
		floors[i] = &types.FloorView{
			Level:   int(level),
			Buttons: types.FloorButtons{Up: up, Down: down},
		}
	}
	return elevators, floors, nil
}

// EncodeCommands writes one command frame.
func EncodeCommands(w io.Writer, commands []types.Command) error {
	if err := writeU32(w, uint32(len(commands))); err != nil {
		return err
	}
	for _, cmd := range commands {
		if err := writeU32(w, uint32(cmd.Elevator)); err != nil {
			return err
		}
		if err := writeI32(w, int32(cmd.Floor)); err != nil {
			return err
		}
	}
	return nil
}

// DecodeCommands reads one command frame.
func DecodeCommands(r io.Reader) ([]types.Command, error) {
	count, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if count > maxWireCount {
		return nil, fmt.Errorf("implausible command count %d", count)
	}
	commands := make([]types.Command, count)
	for i := range commands {
		elevator, err := readU32(r)
		if err != nil {
			return nil, err
		}
		floor, err := readI32(r)
		if err != nil {
			return nil, err
		}
		commands[i] = types.Command{Elevator: int(elevator), Floor: int(floor)}
	}
	return commands, nil
}

func writeU32(w io.Writer, v uint32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func writeI32(w io.Writer, v int32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func writeBool(w io.Writer, v bool) error {
	b := byte(0)
	if v {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readI32(r io.Reader) (int32, error) {
	var v int32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readBool(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, err
	}
	return b[0] != 0, nil
}
