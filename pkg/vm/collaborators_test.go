package vm

import (
	"errors"
	"reflect"
	"testing"

	"github.com/zurustar/outerworld/pkg/audio"
	"github.com/zurustar/outerworld/pkg/input"
	"github.com/zurustar/outerworld/pkg/resource"
)

func TestDrawOpcodes(t *testing.T) {
	video := &fakeVideo{}
	m := newTestMachine(WithVideo(video))
	m.SetReg(RegScrollY, -3)
	m.SetReg(1, 100)
	m.SetReg(2, 50)
	m.SetReg(3, 0x80)
	m.Reset([]byte{
		0x0D, 0x01,                         // fb_sel 1
		0x0E, 0xFE, 0x04,                   // fb_fill front, 4
		0x0F, 0x81, 0x02,                   // fb_copy scrolled
		0x0B, 0x03, 0x00,                   // gpal 3
		0x12, 0x01, 0x90, 0x02, 0x10, 0x0F, // gstr
		0x80, 0x10, 0x20, 0x30,             // bg
		0x55, 0x00, 0x08, 0x01, 0x02, 0x03, // spr reg x, y, zoom
		0x6B, 0x00, 0x08, 0x20, 0x30,       // spr secondary
		0x06,
	})
	if err := m.RunSlice(0); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"select 1",
		"fill 254 4",
		"copy 129 2 -3",
		"palette 3",
		"string 0x190 2 16 15",
		"shape 1 0x0020 32 48 64",
		"shape 1 0x0010 100 50 128",
		"shape 2 0x0010 32 48 64",
	}
	if !reflect.DeepEqual(video.calls, want) {
		t.Errorf("calls =\n%v\nwant\n%v", video.calls, want)
	}
}

func TestDrawErrorsAreSkipped(t *testing.T) {
	video := &fakeVideo{shapeErr: errors.New("bad shape")}
	m := newTestMachine(WithVideo(video))
	m.Reset([]byte{0x80, 0x10, 0x20, 0x30, 0x00, 0x01, 0x00, 0x07, 0x06})
	if err := m.RunSlice(0); err != nil {
		t.Fatalf("render failure should not stop the task: %v", err)
	}
	if m.Reg(1) != 7 {
		t.Error("task should continue after a failed draw")
	}
}

func TestPlaySound(t *testing.T) {
	sink := audio.NewRecorder()
	res := &fakeResources{data: map[int][]byte{0x5B: {0, 1, 0, 0, 0, 0, 0, 0, 1, 2}}}
	m := newTestMachine(WithAudio(sink), WithResources(res))
	m.Reset([]byte{
		0x18, 0x00, 0x5B, 0x02, 0x7F, 0x06, // channel 6 & 3 = 2, volume clamped
		0x18, 0x00, 0x5B, 0x02, 0x00, 0x01, // volume 0 stops channel 1
		0x18, 0x00, 0x99, 0x02, 0x10, 0x00, // missing resource is skipped
		0x18, 0x00, 0x5B, 0x50, 0x10, 0x00, // frequency index out of range
		0x06,
	})
	if err := m.RunSlice(0); err != nil {
		t.Fatal(err)
	}
	cmds := sink.Commands()
	if len(cmds) != 2 {
		t.Fatalf("commands = %v", cmds)
	}
	ps, ok := cmds[0].(audio.PlaySound)
	if !ok || ps.Channel != 2 || ps.Volume != audio.MaxVolume || ps.Frequency != audio.FrequencyTable[2] || ps.ID != 0x5B {
		t.Errorf("command 0 = %v", cmds[0])
	}
	if cmds[1] != (audio.StopSound{Channel: 1}) {
		t.Errorf("command 1 = %v", cmds[1])
	}
}

func TestPlayMusic(t *testing.T) {
	sink := audio.NewRecorder()
	res := &fakeResources{data: map[int][]byte{0x07: {1, 2, 3}}}
	m := newTestMachine(WithAudio(sink), WithResources(res))
	m.Reset([]byte{
		0x1A, 0x00, 0x07, 0x00, 0x10, 0x02,
		0x1A, 0x00, 0x00, 0x00, 0x20, 0x00,
		0x1A, 0x00, 0x08, 0x00, 0x20, 0x00,
		0x06,
	})
	if err := m.RunSlice(0); err != nil {
		t.Fatal(err)
	}
	cmds := sink.Commands()
	if len(cmds) != 2 {
		t.Fatalf("commands = %v", cmds)
	}
	first := cmds[0].(audio.PlayMusic)
	if first.ID != 7 || first.Tempo != 0x10 || first.Position != 2 || len(first.Data) != 3 {
		t.Errorf("command 0 = %v", first)
	}
	if second := cmds[1].(audio.PlayMusic); second.ID != 0 || second.Tempo != 0x20 || second.Data != nil {
		t.Errorf("command 1 = %v", second)
	}
}

func TestUpdateResources(t *testing.T) {
	t.Run("zero drops transient state", func(t *testing.T) {
		video := &fakeVideo{}
		sink := audio.NewRecorder()
		res := &fakeResources{}
		m := newTestMachine(WithVideo(video), WithAudio(sink), WithResources(res))
		m.Reset([]byte{0x19, 0x00, 0x00, 0x06})
		if err := m.RunSlice(0); err != nil {
			t.Fatal(err)
		}
		if res.invalidated != 1 {
			t.Error("resources not invalidated")
		}
		if len(video.calls) != 1 || video.calls[0] != "invalidate palette" {
			t.Errorf("video calls = %v", video.calls)
		}
		if cmds := sink.Commands(); len(cmds) != 1 || cmds[0] != (audio.StopAll{}) {
			t.Errorf("audio commands = %v", cmds)
		}
	})

	t.Run("part request", func(t *testing.T) {
		m := newTestMachine()
		m.Reset([]byte{0x19, 0x3E, 0x82, 0x06})
		if _, ok := m.RequestedPart(); ok {
			t.Fatal("no part requested yet")
		}
		if err := m.RunSlice(0); err != nil {
			t.Fatal(err)
		}
		p, ok := m.RequestedPart()
		if !ok || p != resource.PartWater {
			t.Errorf("RequestedPart() = %d, %v", p, ok)
		}
		if _, ok := m.RequestedPart(); ok {
			t.Error("RequestedPart should clear the request")
		}
	})

	t.Run("unknown part is ignored", func(t *testing.T) {
		m := newTestMachine()
		m.Reset([]byte{0x19, 0x3E, 0x8F, 0x06})
		if err := m.RunSlice(0); err != nil {
			t.Fatal(err)
		}
		if _, ok := m.RequestedPart(); ok {
			t.Error("part 16015 should not be requested")
		}
	})

	t.Run("bitmap is drawn", func(t *testing.T) {
		video := &fakeVideo{}
		res := &fakeResources{
			data:  map[int][]byte{0x12: make([]byte, 32000), 0x13: {1}},
			types: map[int]resource.Type{0x12: resource.Bitmap, 0x13: resource.Sound},
		}
		m := newTestMachine(WithVideo(video), WithResources(res))
		m.Reset([]byte{0x19, 0x00, 0x12, 0x19, 0x00, 0x13, 0x19, 0x00, 0x44, 0x06})
		if err := m.RunSlice(0); err != nil {
			t.Fatal(err)
		}
		if len(video.calls) != 1 || video.calls[0] != "bitmap 32000" {
			t.Errorf("video calls = %v", video.calls)
		}
	})
}

func TestQuirks(t *testing.T) {
	t.Run("code wheel bypass", func(t *testing.T) {
		m := newTestMachine()
		code := []byte{0x0A, 0x80, 0x29, 0x10, 0x00, 0x07, 0x06, 0x00, 0x05, 0x00, 0x01, 0x06}
		m.Restart(resource.PartProtection, code, -1)
		m.SetReg(0x29, 1)
		m.SetReg(0x10, 2)
		for i := uint8(0); i < 4; i++ {
			m.SetReg(0x1E+i, int16(10+i))
		}
		if err := m.RunSlice(0); err != nil {
			t.Fatal(err)
		}
		if m.Reg(5) != 1 {
			t.Error("comparison should be forced true")
		}
		for i := uint8(0); i < 4; i++ {
			if m.Reg(0x29+i) != int16(10+i) {
				t.Errorf("reg 0x%02X = %d", 0x29+i, m.Reg(0x29+i))
			}
		}
		if m.Reg(0x32) != 6 || m.Reg(0x64) != 20 {
			t.Errorf("counters = %d %d", m.Reg(0x32), m.Reg(0x64))
		}
	})

	t.Run("bypass disabled", func(t *testing.T) {
		m := newTestMachine(WithProtectionBypass(false))
		code := []byte{0x0A, 0x80, 0x29, 0x10, 0x00, 0x07, 0x06, 0x00, 0x05, 0x00, 0x01, 0x06}
		m.Restart(resource.PartProtection, code, -1)
		m.SetReg(0x29, 1)
		if err := m.RunSlice(0); err != nil {
			t.Fatal(err)
		}
		if m.Reg(5) != 0 {
			t.Error("comparison should not be forced")
		}
	})

	t.Run("screen palette fixup", func(t *testing.T) {
		video := &fakeVideo{}
		m := newTestMachine(WithVideo(video))
		// beq @67, 0x47 twice: the fixup runs once per screen change
		code := []byte{
			0x0A, 0x00, 0x67, 0x47, 0x00, 0x06,
			0x0A, 0x00, 0x67, 0x47, 0x00, 0x0C,
			0x06,
		}
		m.Restart(resource.PartCity, code, -1)
		m.SetReg(RegScreenNum, 0x47)
		if err := m.RunSlice(0); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(video.calls, []string{"load palette 8"}) {
			t.Errorf("calls = %v", video.calls)
		}
	})

	t.Run("intro palette skip", func(t *testing.T) {
		video := &fakeVideo{}
		m := newTestMachine(WithVideo(video))
		code := []byte{0x0B, 0x0A, 0x00, 0x0B, 0x10, 0x00, 0x0B, 0x02, 0x00, 0x06}
		m.Restart(resource.PartIntro, code, -1)
		if err := m.RunSlice(0); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(video.calls, []string{"palette 2"}) {
			t.Errorf("calls = %v", video.calls)
		}
	})

	t.Run("looping gun sound", func(t *testing.T) {
		sink := audio.NewRecorder()
		res := &fakeResources{data: map[int][]byte{0x5B: make([]byte, 8)}}
		m := newTestMachine(WithAudio(sink), WithResources(res))
		code := make([]byte, gunLoopPC+5)
		code[0] = 0x07
		code[1] = byte(gunLoopPC >> 8)
		code[2] = byte(gunLoopPC & 0xFF)
		copy(code[gunLoopPC:], addi(6, -50))
		code[gunLoopPC+4] = 0x06
		m.Restart(resource.PartLuxe, code, -1)
		sink.Reset()
		if err := m.RunSlice(0); err != nil {
			t.Fatal(err)
		}
		cmds := sink.Commands()
		if len(cmds) != 1 {
			t.Fatalf("commands = %v", cmds)
		}
		if ps := cmds[0].(audio.PlaySound); ps.ID != 0x5B || ps.Channel != 1 || ps.Volume != audio.MaxVolume {
			t.Errorf("command = %v", ps)
		}
		if m.Reg(6) != -50 {
			t.Errorf("reg 6 = %d", m.Reg(6))
		}
	})
}

func TestSetInput(t *testing.T) {
	tests := []struct {
		name  string
		st    input.State
		lr    int16
		ud    int16
		mask  int16
		amask int16
	}{
		{"idle", input.State{}, 0, 0, 0, 0},
		{"right", input.State{Right: true}, 1, 0, 1, 1},
		{"left wins over right", input.State{Left: true, Right: true}, -1, 0, 3, 3},
		{"down", input.State{Down: true}, 0, 1, 4, 4},
		{"up and action", input.State{Up: true, Action: true}, 0, -1, 8, 0x88},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine()
			m.SetInput(tt.st)
			if m.Reg(RegHeroPosLeftRight) != tt.lr || m.Reg(RegHeroPosUpDown) != tt.ud ||
				m.Reg(RegHeroPosJumpDown) != tt.ud {
				t.Errorf("directions = %d %d %d", m.Reg(RegHeroPosLeftRight), m.Reg(RegHeroPosUpDown), m.Reg(RegHeroPosJumpDown))
			}
			if m.Reg(RegHeroPosMask) != tt.mask || m.Reg(RegHeroActionPosMask) != tt.amask {
				t.Errorf("masks = 0x%X 0x%X", m.Reg(RegHeroPosMask), m.Reg(RegHeroActionPosMask))
			}
		})
	}
}

func TestSetInput_LastChar(t *testing.T) {
	m := newTestMachine()
	m.SetInput(input.State{LastChar: 'q'})
	if m.Reg(RegLastKeyChar) != 0 {
		t.Error("last char is only reported on the password part")
	}

	m.Restart(resource.PartPasswordInput, []byte{0x06}, -1)
	for _, tt := range []struct {
		in   byte
		want int16
	}{
		{'q', 'Q'},
		{input.Backspace, 0x08},
		{'1', 0},
		{0, 0},
	} {
		m.SetInput(input.State{LastChar: tt.in})
		if got := m.Reg(RegLastKeyChar); got != tt.want {
			t.Errorf("char %q -> %d, want %d", tt.in, got, tt.want)
		}
	}
}
