package vm

import (
	"github.com/zurustar/outerworld/pkg/input"
	"github.com/zurustar/outerworld/pkg/resource"
)

// SetInput mirrors a key state snapshot into the input registers. The last
// typed character is only reported on the password entry part.
func (m *Machine) SetInput(st input.State) {
	r := &m.regs
	if m.part == resource.PartPasswordInput {
		r[RegLastKeyChar] = int16(keyChar(st.LastChar))
	}

	r[RegHeroPosLeftRight] = direction(st.Left, st.Right)
	r[RegHeroPosUpDown] = direction(st.Up, st.Down)
	r[RegHeroPosJumpDown] = direction(st.Up, st.Down)

	var mask int16
	if st.Right {
		mask |= 1
	}
	if st.Left {
		mask |= 2
	}
	if st.Down {
		mask |= 4
	}
	if st.Up {
		mask |= 8
	}
	r[RegHeroPosMask] = mask

	var action int16
	if st.Action {
		action = 1
	}
	r[RegHeroAction] = action
	r[RegHeroActionPosMask] = mask | action<<7
}

// direction is -1 when the up/left key is held, 1 for down/right, else 0.
func direction(neg, pos bool) int16 {
	switch {
	case neg:
		return -1
	case pos:
		return 1
	default:
		return 0
	}
}

// keyChar upper-cases letters and keeps backspace; anything else is 0.
func keyChar(c byte) byte {
	switch {
	case c == input.Backspace:
		return c
	case c >= 'a' && c <= 'z':
		return c &^ 0x20
	default:
		return 0
	}
}
