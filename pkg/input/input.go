// Package input provides the per-frame key state sampled by the engine.
package input

// State is a snapshot of the player's controls for one frame.
type State struct {
	Up, Down, Left, Right bool
	Action                bool
	Pause                 bool
	Back                  bool
	// Code asks for the password screen.
	Code bool
	// LastChar is the last character typed since the previous snapshot:
	// a lowercase letter, 0x08 for backspace, or 0.
	LastChar byte
}

// Backspace is the LastChar value of the backspace key.
const Backspace = 0x08

// Source produces one State per frame.
type Source interface {
	Poll() State
}

// Static replays a fixed sequence of states, then repeats the last one.
// An empty Static always reports no input.
type Static struct {
	states []State
	next   int
}

// NewStatic creates a Static source over states.
func NewStatic(states ...State) *Static {
	return &Static{states: states}
}

// Poll returns the next scripted state.
func (s *Static) Poll() State {
	if len(s.states) == 0 {
		return State{}
	}
	st := s.states[min(s.next, len(s.states)-1)]
	if s.next < len(s.states) {
		s.next++
	}
	return st
}

// Remaining reports how many scripted states have not been returned yet.
func (s *Static) Remaining() int {
	return len(s.states) - s.next
}
