package building

import (
	"testing"

	"elevatorsim/src/types"
)

func TestRegistryButtons(t *testing.T) {
	r := NewRegistry(4)
	if r.FloorCount() != 4 {
		t.Fatalf("FloorCount = %d, expected 4", r.FloorCount())
	}

	r.SetButton(1, types.DirUp, true)
	r.SetButton(1, types.DirDown, true)
	if b := r.Buttons(1); !b.Up || !b.Down {
		t.Errorf("Buttons(1) = %+v, expected both set", b)
	}

	r.SetButton(1, types.DirUp, false)
	if b := r.Buttons(1); b.Up {
		t.Errorf("up button still set after clearing")
	}
	if b := r.Buttons(1); !b.Down {
		t.Errorf("down button cleared by clearing up")
	}

	// Out-of-range floors are ignored, not grown.
	r.SetButton(9, types.DirUp, true)
	if b := r.Buttons(9); b.Up || b.Down {
		t.Errorf("Buttons(9) = %+v, expected zero value", b)
	}
}
