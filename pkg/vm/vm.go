// Package vm implements the bytecode interpreter and its task table.
//
// Up to NumTasks cooperative tasks share one register bank and one bytecode
// buffer. A task runs until it yields; task state changes requested during
// a frame are kept in a per-task overlay and applied by ApplyPending at the
// frame boundary. Drawing, resource and audio opcodes are forwarded to the
// Video, Resources and Audio collaborators.
package vm

import (
	"log/slog"
	"math/rand/v2"

	"github.com/zurustar/outerworld/pkg/audio"
	"github.com/zurustar/outerworld/pkg/graphics"
	"github.com/zurustar/outerworld/pkg/resource"
)

// MaxSliceSteps bounds the instructions one slice may execute without yielding.
const MaxSliceSteps = 1 << 20

// Video receives the drawing opcodes. *graphics.Renderer implements it.
type Video interface {
	SelectPage(p byte)
	FillPage(p, c byte)
	CopyPage(src, dst byte, vscroll int16)
	Flip(p byte) graphics.Frame
	SelectPalette(num byte)
	LoadPalette(num byte)
	InvalidatePalette()
	DrawShape(bank graphics.Bank, offset uint16, x, y int16, zoom uint16) error
	DrawString(id, col, y uint16, c byte)
	DrawBitmap(data []byte) error
}

// Resources serves on-demand resource loads. *resource.Store implements it.
type Resources interface {
	Load(id int) ([]byte, error)
	Descriptor(id int) (resource.Descriptor, bool)
	Invalidate()
}

// Machine is the virtual machine state: registers, tasks and the current
// bytecode buffer.
type Machine struct {
	regs  Registers
	tasks [NumTasks]Task
	code  []byte

	// current is the id of the task being interpreted, or -1.
	current int
	part    resource.Part
	// screen is the last screen number seen by a taken jump on RegScreenNum.
	screen    int16
	hasScreen bool

	nextPart resource.Part
	display  bool
	slices   [NumTasks]int

	video Video
	res   Resources
	audio audio.Sink

	rng          *rand.Rand
	bypass       bool
	paletteFixup bool
	gunFix       bool

	log *slog.Logger
}

// Option is a functional option for configuring the Machine.
type Option func(*Machine)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Machine) {
		m.log = log
	}
}

// WithVideo sets the drawing collaborator.
func WithVideo(v Video) Option {
	return func(m *Machine) {
		m.video = v
	}
}

// WithResources sets the resource collaborator.
func WithResources(r Resources) Option {
	return func(m *Machine) {
		m.res = r
	}
}

// WithAudio sets the audio sink.
func WithAudio(a audio.Sink) Option {
	return func(m *Machine) {
		m.audio = a
	}
}

// WithSeed makes the random register and the rand opcode deterministic.
func WithSeed(seed uint64) Option {
	return func(m *Machine) {
		m.rng = rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	}
}

// WithProtectionBypass enables skipping the code wheel check of
// resource.PartProtection. Enabled by default.
func WithProtectionBypass(enabled bool) Option {
	return func(m *Machine) {
		m.bypass = enabled
	}
}

// WithPaletteFixups enables the per-part palette corrections. Enabled by default.
func WithPaletteFixups(enabled bool) Option {
	return func(m *Machine) {
		m.paletteFixup = enabled
	}
}

// WithLoopingGunFix enables stopping the gun sound that never stops looping
// in resource.PartLuxe. Enabled by default.
func WithLoopingGunFix(enabled bool) Option {
	return func(m *Machine) {
		m.gunFix = enabled
	}
}

// New creates a Machine. Collaborators that are not set are replaced with
// no-op implementations.
func New(opts ...Option) *Machine {
	m := &Machine{
		current:      -1,
		bypass:       true,
		paletteFixup: true,
		gunFix:       true,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if m.video == nil {
		m.video = nopVideo{}
	}
	if m.res == nil {
		m.res = nopResources{}
	}
	if m.audio == nil {
		m.audio = audio.Nop{}
	}

	m.regs[RegRandomSeed] = int16(m.rng.Uint32())
	for _, p := range presets {
		m.regs[p.reg] = p.value
	}
	for i := range m.tasks {
		m.tasks[i].ID = i
		m.tasks[i].reset()
	}
	return m
}

// Reset installs a new bytecode buffer. Every task is killed except task 0,
// which runs from offset 0. Registers are kept.
func (m *Machine) Reset(code []byte) {
	m.code = code
	for i := range m.tasks {
		m.tasks[i].reset()
	}
	m.tasks[0].State = Running
	m.slices = [NumTasks]int{}
	m.hasScreen = false
	m.current = -1
}

// Restart enters a part: it stops the audio, resets the tasks over code
// and applies the part entry register writes. A non-negative pos is
// stored in register 0 as the start position within the part.
func (m *Machine) Restart(part resource.Part, code []byte, pos int) {
	m.audio.StopAll()

	m.regs[regPartEntry] = 20
	if part == resource.PartProtection {
		m.regs[regCodeWheel] = 0x81
	}

	m.part = part
	m.Reset(code)

	if pos >= 0 {
		m.regs[0] = int16(pos)
	}
	if m.paletteFixup && part == resource.PartPasswordInput {
		m.video.LoadPalette(5)
	}
	m.log.Debug("Restarted tasks", "part", part, "pos", pos, "size", len(code))
}

// Part returns the part whose bytecode is running.
func (m *Machine) Part() resource.Part {
	return m.part
}

// Reg returns a register value.
func (m *Machine) Reg(i uint8) int16 {
	return m.regs[i]
}

// SetReg sets a register value.
func (m *Machine) SetReg(i uint8, v int16) {
	m.regs[i] = v
}

// Registers returns a copy of the register bank.
func (m *Machine) Registers() Registers {
	return m.regs
}

// Task returns a copy of a task slot.
func (m *Machine) Task(id int) Task {
	t := m.tasks[id]
	t.stack = append([]int(nil), t.stack...)
	return t
}

// Current returns the id of the task being interpreted, or -1 between slices.
func (m *Machine) Current() int {
	return m.current
}

// SliceCount returns how many slices a task has run since the last Reset.
func (m *Machine) SliceCount(id int) int {
	return m.slices[id]
}

// ApplyPending applies every task overlay. It must run after all tasks
// have had their slice for the frame.
func (m *Machine) ApplyPending() {
	for i := range m.tasks {
		m.tasks[i].apply()
	}
}

// RequestedPart returns and clears a part change requested by bytecode.
func (m *Machine) RequestedPart() (resource.Part, bool) {
	p := m.nextPart
	m.nextPart = 0
	return p, p != 0
}

// RequestPart asks for a part change at the next frame boundary, as
// update-resources does. Invalid parts are ignored.
func (m *Machine) RequestPart(p resource.Part) {
	if p.Valid() {
		m.nextPart = p
	}
}

// TakeDisplay reports and clears whether an update-display ran since the
// last call.
func (m *Machine) TakeDisplay() bool {
	d := m.display
	m.display = false
	return d
}

// Tick advances the elapsed-time register by one frame.
func (m *Machine) Tick() {
	m.regs[RegElapsed]++
}

// SyncMusic stores a music synchronisation mark for the bytecode to poll.
func (m *Machine) SyncMusic(v uint16) {
	m.regs[RegMusicSync] = int16(v)
}

type nopVideo struct{}

func (nopVideo) SelectPage(byte)                                             {}
func (nopVideo) FillPage(byte, byte)                                         {}
func (nopVideo) CopyPage(byte, byte, int16)                                  {}
func (nopVideo) Flip(byte) graphics.Frame                                    { return graphics.Frame{} }
func (nopVideo) SelectPalette(byte)                                          {}
func (nopVideo) LoadPalette(byte)                                            {}
func (nopVideo) InvalidatePalette()                                          {}
func (nopVideo) DrawShape(graphics.Bank, uint16, int16, int16, uint16) error { return nil }
func (nopVideo) DrawString(uint16, uint16, uint16, byte)                     {}
func (nopVideo) DrawBitmap([]byte) error                                     { return nil }

type nopResources struct{}

func (nopResources) Load(id int) ([]byte, error) {
	return nil, &resource.Error{Kind: resource.KindUnknownID, ID: id}
}
func (nopResources) Descriptor(int) (resource.Descriptor, bool) { return resource.Descriptor{}, false }
func (nopResources) Invalidate()                                {}
