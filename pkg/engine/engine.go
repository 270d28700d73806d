// Package engine drives the virtual machine one frame at a time.
//
// A tick runs every task once in ascending order, applies the task state
// changes requested during the frame, samples input into the mirror
// registers and hands a newly displayed frame to the Presenter. Part
// changes requested by bytecode are applied at the start of the next tick.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/zurustar/outerworld/pkg/audio"
	"github.com/zurustar/outerworld/pkg/graphics"
	"github.com/zurustar/outerworld/pkg/input"
	"github.com/zurustar/outerworld/pkg/resource"
	"github.com/zurustar/outerworld/pkg/vm"
)

// SliceDuration is the length of one pause slice of RegPauseSlices.
const SliceDuration = 20 * time.Millisecond

var (
	// ErrTerminated is returned when the engine is terminated.
	ErrTerminated = errors.New("engine terminated")
	// ErrNotStarted is returned by Tick before Start succeeded.
	ErrNotStarted = errors.New("engine not started")
)

// Presenter receives every frame made visible by update-display.
type Presenter interface {
	Present(frame *graphics.Frame) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(frame *graphics.Frame) error

// Present calls f(frame).
func (f PresenterFunc) Present(frame *graphics.Frame) error {
	return f(frame)
}

type discardPresenter struct{}

func (discardPresenter) Present(*graphics.Frame) error { return nil }

// Config holds the run parameters of an engine.
type Config struct {
	// DataDir is the directory the store was opened from. Informational.
	DataDir string
	// StartPart is the part entered by Start.
	StartPart resource.Part
	// Language selects the string table (BCP 47 tag, "en" or "fr").
	Language string
	// Fast disables frame pacing.
	Fast bool
	// EGAPalette selects the EGA half of each palette entry.
	EGAPalette bool
	// StartPos is written to register 0 on Start when non-negative.
	StartPos int
}

// DefaultConfig returns the configuration of a normal game start.
func DefaultConfig() Config {
	return Config{
		StartPart: resource.PartIntro,
		Language:  "en",
		StartPos:  -1,
	}
}

// Engine owns the renderer and the machine and runs them against a store.
type Engine struct {
	cfg   Config
	store *resource.Store

	renderer  *graphics.Renderer
	machine   *vm.Machine
	audio     audio.Sink
	input     input.Source
	presenter Presenter

	vmOpts []vm.Option
	log    *slog.Logger

	started     bool
	paused      bool
	terminated  atomic.Bool
	ticks       int
	frames      int
	lastDisplay time.Time
	displayed   bool
}

// Option is a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine and the components it creates.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithAudio sets the audio sink.
func WithAudio(a audio.Sink) Option {
	return func(e *Engine) {
		e.audio = a
	}
}

// WithInput sets the input source sampled once per tick.
func WithInput(src input.Source) Option {
	return func(e *Engine) {
		e.input = src
	}
}

// WithPresenter sets the presentation sink.
func WithPresenter(p Presenter) Option {
	return func(e *Engine) {
		e.presenter = p
	}
}

// WithSeed makes the machine's random numbers deterministic.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.vmOpts = append(e.vmOpts, vm.WithSeed(seed))
	}
}

// WithMachineOptions passes extra options to vm.New.
func WithMachineOptions(opts ...vm.Option) Option {
	return func(e *Engine) {
		e.vmOpts = append(e.vmOpts, opts...)
	}
}

// New creates an engine over store. The part is not entered until Start.
func New(cfg Config, store *resource.Store, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg,
		store:     store,
		audio:     audio.Nop{},
		input:     input.NewStatic(),
		presenter: discardPresenter{},
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.renderer = graphics.New(
		graphics.WithLogger(e.log),
		graphics.WithEGAPalette(cfg.EGAPalette),
		graphics.WithStrings(graphics.SelectStrings(cfg.Language)),
	)
	vmOpts := []vm.Option{
		vm.WithLogger(e.log),
		vm.WithVideo(e.renderer),
		vm.WithResources(store),
		vm.WithAudio(e.audio),
	}
	e.machine = vm.New(append(vmOpts, e.vmOpts...)...)
	return e
}

// Start enters the configured start part. A failure is fatal.
func (e *Engine) Start() error {
	if err := e.enterPart(e.cfg.StartPart, e.cfg.StartPos); err != nil {
		return err
	}
	e.started = true
	e.lastDisplay = time.Now()
	e.log.Info("Engine started", "part", e.cfg.StartPart, "pos", e.cfg.StartPos, "fast", e.cfg.Fast)
	return nil
}

func (e *Engine) enterPart(part resource.Part, pos int) error {
	seg, err := e.store.EnterPart(part)
	if err != nil {
		return fmt.Errorf("enter part %d: %w", part, err)
	}
	e.renderer.SetSegments(seg.Palette, seg.Polygon1, seg.Polygon2)
	e.machine.Restart(part, seg.Bytecode, pos)
	return nil
}

// Tick runs one frame. While paused it only watches for the pause key.
// The presenter only receives a frame on ticks that updated the display;
// other ticks present nothing.
// It returns the first fatal interpreter error, a part change failure, a
// presenter error, ErrTerminated after Terminate, or the context error.
func (e *Engine) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.terminated.Load() {
		return ErrTerminated
	}
	if !e.started {
		return ErrNotStarted
	}

	if e.paused {
		e.displayed = false
		if e.input.Poll().Pause {
			e.paused = false
			e.log.Info("Resumed")
		}
		return nil
	}

	if part, ok := e.machine.RequestedPart(); ok {
		if err := e.enterPart(part, -1); err != nil {
			e.Terminate()
			return err
		}
	}

	for id := range vm.NumTasks {
		if err := e.machine.RunSlice(id); err != nil {
			e.log.Error("Interpreter stopped", "error", err)
			return err
		}
	}
	e.machine.ApplyPending()
	e.handleInput(e.input.Poll())
	e.machine.Tick()
	e.ticks++

	e.displayed = e.machine.TakeDisplay()
	if !e.displayed {
		return nil
	}
	e.frames++
	frame, ok := e.renderer.Present()
	if !ok {
		return nil
	}
	if err := e.presenter.Present(&frame); err != nil {
		return fmt.Errorf("present frame %d: %w", e.frames, err)
	}
	return nil
}

// handleInput mirrors st into the machine and applies the host keys.
func (e *Engine) handleInput(st input.State) {
	e.machine.SetInput(st)
	switch {
	case st.Back:
		e.Terminate()
	case st.Pause:
		e.paused = true
		e.log.Info("Paused")
	case st.Code:
		switch e.machine.Part() {
		case resource.PartProtection, resource.PartPassword, resource.PartPasswordInput:
		default:
			e.machine.RequestPart(resource.PartPassword)
		}
	}
}

// FrameDelay returns how long a displayed frame stays on screen:
// RegPauseSlices slices of 20ms, or zero in fast mode.
func (e *Engine) FrameDelay() time.Duration {
	if e.cfg.Fast {
		return 0
	}
	n := e.machine.Reg(vm.RegPauseSlices)
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * SliceDuration
}

// Run ticks the engine until frames ticks have run (0 means no limit), the
// context ends or the engine is terminated. Ticks that display a frame are
// followed by FrameDelay minus the time spent since the previous display.
// Context expiry and termination end the loop without an error.
func (e *Engine) Run(ctx context.Context, frames int) error {
	if !e.started {
		if err := e.Start(); err != nil {
			return err
		}
	}
	for n := 0; frames <= 0 || n < frames; n++ {
		err := e.Tick(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrTerminated), ctx.Err() != nil:
			e.log.Info("Engine stopped", "ticks", e.ticks, "frames", e.frames)
			return nil
		default:
			return err
		}
		if !e.displayed {
			continue
		}
		wait := e.FrameDelay() - time.Since(e.lastDisplay)
		if err := sleep(ctx, wait); err != nil {
			e.log.Info("Engine stopped", "ticks", e.ticks, "frames", e.frames)
			return nil
		}
		e.lastDisplay = time.Now()
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Terminate makes the following ticks return ErrTerminated.
func (e *Engine) Terminate() {
	if !e.terminated.Swap(true) {
		e.audio.StopAll()
		e.log.Info("Engine termination requested")
	}
}

// IsTerminated returns whether the engine has been terminated.
func (e *Engine) IsTerminated() bool {
	return e.terminated.Load()
}

// Paused reports whether the pause key stopped the machine.
func (e *Engine) Paused() bool {
	return e.paused
}

// Displayed reports whether the last tick ran an update-display.
func (e *Engine) Displayed() bool {
	return e.displayed
}

// TickCount returns the number of completed ticks.
func (e *Engine) TickCount() int {
	return e.ticks
}

// FrameCount returns the number of ticks that displayed a frame.
func (e *Engine) FrameCount() int {
	return e.frames
}

// SliceCount returns how many slices a task has run in the current part.
func (e *Engine) SliceCount(task int) int {
	return e.machine.SliceCount(task)
}

// Machine returns the virtual machine.
func (e *Engine) Machine() *vm.Machine {
	return e.machine
}

// Renderer returns the renderer.
func (e *Engine) Renderer() *graphics.Renderer {
	return e.renderer
}

// Store returns the resource store.
func (e *Engine) Store() *resource.Store {
	return e.store
}

// Config returns the configuration the engine was created with.
func (e *Engine) Config() Config {
	return e.cfg
}
