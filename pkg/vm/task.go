package vm

import "fmt"

// NumTasks is the number of task slots.
const NumTasks = 64

// MaxCallDepth is the capacity of each task's call stack.
const MaxCallDepth = 64

// TaskState is the state a task runs with during a frame.
type TaskState int

const (
	Killed TaskState = iota
	Running
	Paused
)

func (s TaskState) String() string {
	switch s {
	case Killed:
		return "Killed"
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	default:
		return fmt.Sprintf("TaskState(%d)", int(s))
	}
}

// Pending is a state change requested during a frame. It takes effect at
// the next ApplyPending.
type Pending int

const (
	NoChange Pending = iota
	SetRunning
	SetPaused
	SetKilled
)

func (p Pending) String() string {
	switch p {
	case NoChange:
		return "NoChange"
	case SetRunning:
		return "SetRunning"
	case SetPaused:
		return "SetPaused"
	case SetKilled:
		return "SetKilled"
	default:
		return fmt.Sprintf("Pending(%d)", int(p))
	}
}

// jump slot values besides a program counter.
const (
	jumpNone = -1
	jumpKill = -2
)

// Task is one cooperative thread of bytecode.
//
// The overlay has two independent slots. The run slot records pause and
// resume requests; the paused flag outlives kills. The jump slot records a
// kill or a new entry point, and the later of the two requests wins.
type Task struct {
	ID     int
	PC     int
	State  TaskState
	paused bool
	stack  []int

	run  Pending
	jump int
}

func (t *Task) reset() {
	t.PC = 0
	t.State = Killed
	t.paused = false
	t.stack = t.stack[:0]
	t.run = NoChange
	t.jump = jumpNone
}

// Depth returns the number of return addresses on the call stack.
func (t *Task) Depth() int {
	return len(t.stack)
}

// Pending returns the overlay as a single request. A kill dominates.
// The second result is the requested entry point, if any.
func (t *Task) Pending() (Pending, int, bool) {
	switch {
	case t.jump == jumpKill:
		return SetKilled, 0, false
	case t.jump >= 0:
		if t.run == SetPaused {
			return SetPaused, t.jump, true
		}
		return SetRunning, t.jump, true
	default:
		return t.run, 0, false
	}
}

func (t *Task) requestRun(p Pending) {
	t.run = p
}

func (t *Task) requestKill() {
	t.jump = jumpKill
}

func (t *Task) requestJump(pc int) {
	t.jump = pc
}

// apply folds the overlay into the task and clears it.
func (t *Task) apply() {
	switch t.run {
	case SetPaused:
		t.paused = true
	case SetRunning:
		t.paused = false
	}

	switch {
	case t.jump == jumpKill:
		t.State = Killed
		t.stack = t.stack[:0]
	case t.jump >= 0:
		t.PC = t.jump
		t.stack = t.stack[:0]
		t.State = Running
	}

	if t.State != Killed {
		if t.paused {
			t.State = Paused
		} else {
			t.State = Running
		}
	}

	t.run = NoChange
	t.jump = jumpNone
}

func (t *Task) push(pc int) bool {
	if len(t.stack) >= MaxCallDepth {
		return false
	}
	t.stack = append(t.stack, pc)
	return true
}

func (t *Task) pop() (int, bool) {
	n := len(t.stack)
	if n == 0 {
		return 0, false
	}
	pc := t.stack[n-1]
	t.stack = t.stack[:n-1]
	return pc, true
}
