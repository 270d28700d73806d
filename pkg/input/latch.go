package input

// Latch collects the samples taken between two frames.
//
// A key seen pressed in any sample since the last Poll is reported by that
// Poll, so a press shorter than a frame is not lost. After Poll, held keys
// carry over from the latest sample; Pause, Back, Code and LastChar are
// cleared until they are seen again.
type Latch struct {
	acc  State
	last State
}

// Sample merges one snapshot into the pending state.
func (l *Latch) Sample(st State) {
	l.last = st
	l.acc.Up = l.acc.Up || st.Up
	l.acc.Down = l.acc.Down || st.Down
	l.acc.Left = l.acc.Left || st.Left
	l.acc.Right = l.acc.Right || st.Right
	l.acc.Action = l.acc.Action || st.Action
	l.acc.Pause = l.acc.Pause || st.Pause
	l.acc.Back = l.acc.Back || st.Back
	l.acc.Code = l.acc.Code || st.Code
	if st.LastChar != 0 {
		l.acc.LastChar = st.LastChar
	}
}

// Poll returns the merged state and starts a new frame.
func (l *Latch) Poll() State {
	st := l.acc
	l.acc = State{
		Up:     l.last.Up,
		Down:   l.last.Down,
		Left:   l.last.Left,
		Right:  l.last.Right,
		Action: l.last.Action,
	}
	return st
}
