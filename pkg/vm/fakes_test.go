package vm

import (
	"fmt"

	"github.com/zurustar/outerworld/pkg/graphics"
	"github.com/zurustar/outerworld/pkg/logger"
	"github.com/zurustar/outerworld/pkg/resource"
)

// fakeVideo records every call as a string.
type fakeVideo struct {
	calls    []string
	shapeErr error
}

func (v *fakeVideo) record(format string, args ...any) {
	v.calls = append(v.calls, fmt.Sprintf(format, args...))
}

func (v *fakeVideo) SelectPage(p byte)                     { v.record("select %d", p) }
func (v *fakeVideo) FillPage(p, c byte)                    { v.record("fill %d %d", p, c) }
func (v *fakeVideo) CopyPage(src, dst byte, vscroll int16) { v.record("copy %d %d %d", src, dst, vscroll) }
func (v *fakeVideo) Flip(p byte) graphics.Frame            { v.record("flip %d", p); return graphics.Frame{} }
func (v *fakeVideo) SelectPalette(num byte)                { v.record("palette %d", num) }
func (v *fakeVideo) LoadPalette(num byte)                  { v.record("load palette %d", num) }
func (v *fakeVideo) InvalidatePalette()                    { v.record("invalidate palette") }
func (v *fakeVideo) DrawShape(bank graphics.Bank, offset uint16, x, y int16, zoom uint16) error {
	v.record("shape %d 0x%04X %d %d %d", bank, offset, x, y, zoom)
	return v.shapeErr
}
func (v *fakeVideo) DrawString(id, col, y uint16, c byte) { v.record("string 0x%X %d %d %d", id, col, y, c) }
func (v *fakeVideo) DrawBitmap(data []byte) error         { v.record("bitmap %d", len(data)); return nil }

// fakeResources serves payloads from a map.
type fakeResources struct {
	data        map[int][]byte
	types       map[int]resource.Type
	invalidated int
}

func (r *fakeResources) Load(id int) ([]byte, error) {
	d, ok := r.data[id]
	if !ok {
		return nil, &resource.Error{Kind: resource.KindUnknownID, ID: id}
	}
	return d, nil
}

func (r *fakeResources) Descriptor(id int) (resource.Descriptor, bool) {
	if _, ok := r.data[id]; !ok {
		return resource.Descriptor{}, false
	}
	return resource.Descriptor{ID: id, Type: r.types[id]}, true
}

func (r *fakeResources) Invalidate() { r.invalidated++ }

func newTestMachine(opts ...Option) *Machine {
	return New(append([]Option{WithLogger(logger.Discard()), WithSeed(1)}, opts...)...)
}

// runFrame runs every task once and applies the overlays.
func runFrame(m *Machine) error {
	for id := 0; id < NumTasks; id++ {
		if err := m.RunSlice(id); err != nil {
			return err
		}
	}
	m.ApplyPending()
	return nil
}

// Bytecode builders.

func prog(parts ...[]byte) []byte {
	var code []byte
	for _, p := range parts {
		code = append(code, p...)
	}
	return code
}

func movi(r uint8, v int16) []byte   { return []byte{0x00, r, byte(uint16(v) >> 8), byte(v)} }
func mov(d, s uint8) []byte          { return []byte{0x01, d, s} }
func add(d, s uint8) []byte          { return []byte{0x02, d, s} }
func addi(r uint8, v int16) []byte   { return []byte{0x03, r, byte(uint16(v) >> 8), byte(v)} }
func call(t uint16) []byte           { return []byte{0x04, byte(t >> 8), byte(t)} }
func ret() []byte                    { return []byte{0x05} }
func yield() []byte                  { return []byte{0x06} }
func jmp(t uint16) []byte            { return []byte{0x07, byte(t >> 8), byte(t)} }
func task(id uint8, t uint16) []byte { return []byte{0x08, id, byte(t >> 8), byte(t)} }
func bif(r uint8, t uint16) []byte   { return []byte{0x09, r, byte(t >> 8), byte(t)} }
func xtask(first, last, action uint8) []byte {
	return []byte{0x0C, first, last, action}
}
func halt() []byte          { return []byte{0x11} }
func sub(d, s uint8) []byte { return []byte{0x13, d, s} }
