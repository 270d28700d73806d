package vm

import (
	"errors"

	"github.com/zurustar/outerworld/pkg/audio"
	"github.com/zurustar/outerworld/pkg/graphics"
	"github.com/zurustar/outerworld/pkg/opcode"
	"github.com/zurustar/outerworld/pkg/resource"
)

// RunSlice interprets task id until it yields or kills itself. Tasks that
// are not Running are skipped. The returned error is an *InterpreterError.
func (m *Machine) RunSlice(id int) error {
	t := &m.tasks[id]
	if t.State != Running {
		return nil
	}

	m.current = id
	defer func() { m.current = -1 }()
	m.slices[id]++

	for steps := 0; ; steps++ {
		if steps >= MaxSliceSteps {
			return newError(KindRunaway, id, t.PC, ErrRunaway)
		}
		pc := t.PC
		in, next, err := opcode.Decode(m.code, pc)
		if err != nil {
			return newError(decodeKind(err), id, pc, err)
		}
		t.PC = next
		yield, err := m.exec(t, pc, in)
		if err != nil {
			return err
		}
		if yield {
			return nil
		}
	}
}

func decodeKind(err error) ErrorKind {
	switch {
	case errors.Is(err, opcode.ErrUnknownOpcode):
		return KindUnknownOpcode
	case errors.Is(err, opcode.ErrTruncated):
		return KindOutOfBoundsJump
	default:
		return KindInvalidOperand
	}
}

// jump validates a jump target against the current bytecode buffer.
func (m *Machine) jump(t *Task, pc int, target uint16) error {
	if int(target) >= len(m.code) {
		return newError(KindOutOfBoundsJump, t.ID, pc, ErrOutOfBoundsJump)
	}
	t.PC = int(target)
	return nil
}

func (m *Machine) operand(o opcode.Operand) int16 {
	if o.Kind == opcode.Reg {
		return m.regs[uint8(o.Value)]
	}
	return o.Value
}

// exec runs one decoded instruction at pc. It reports whether the task's
// slice ends.
func (m *Machine) exec(t *Task, pc int, in opcode.Instruction) (bool, error) {
	r := &m.regs
	switch in := in.(type) {
	case opcode.MovConst:
		r[in.Dst] = in.Value
	case opcode.Mov:
		r[in.Dst] = r[in.Src]
	case opcode.Add:
		r[in.Dst] += r[in.Src]
	case opcode.AddConst:
		m.loopingGun(pc)
		r[in.Dst] += in.Value
	case opcode.Sub:
		r[in.Dst] -= r[in.Src]
	case opcode.And:
		r[in.Dst] &= in.Value
	case opcode.Or:
		r[in.Dst] |= in.Value
	case opcode.Shl:
		r[in.Dst] <<= uint16(in.Value)
	case opcode.Shr:
		r[in.Dst] = int16(uint16(r[in.Dst]) >> in.Value)
	case opcode.Rand:
		r[in.Dst] = int16(m.rng.Uint32())

	case opcode.Call:
		if !t.push(t.PC) {
			return false, newError(KindStackOverflow, t.ID, pc, ErrStackOverflow)
		}
		return false, m.jump(t, pc, in.Target)
	case opcode.Ret:
		ret, ok := t.pop()
		if !ok {
			return false, newError(KindStackUnderflow, t.ID, pc, ErrStackUnderflow)
		}
		t.PC = ret
	case opcode.Jmp:
		return false, m.jump(t, pc, in.Target)
	case opcode.JmpIfVar:
		r[in.Var]--
		if r[in.Var] != 0 {
			return false, m.jump(t, pc, in.Target)
		}
	case opcode.CondJmp:
		return false, m.condJmp(t, pc, in)

	case opcode.Yield:
		return true, nil
	case opcode.KillTask:
		// an entry point installed for this task during the frame survives
		if _, _, ok := t.Pending(); !ok {
			t.requestKill()
		}
		return true, nil
	case opcode.InstallTask:
		if int(in.Target) >= len(m.code) {
			return false, newError(KindOutOfBoundsJump, t.ID, pc, ErrOutOfBoundsJump)
		}
		m.tasks[in.Task].requestJump(int(in.Target))
	case opcode.ChangeTasks:
		m.changeTasks(in)

	case opcode.SelectPalette:
		if m.paletteFixup && m.part == resource.PartIntro && (in.Num == 10 || in.Num == 16) {
			m.log.Debug("Skipped palette change", "num", in.Num, "part", m.part)
			break
		}
		m.video.SelectPalette(in.Num)
	case opcode.SelectPage:
		m.video.SelectPage(in.Page)
	case opcode.FillPage:
		m.video.FillPage(in.Page, in.Color)
	case opcode.CopyPage:
		m.video.CopyPage(in.Src, in.Dst, r[RegScrollY])
	case opcode.UpdateDisplay:
		m.video.Flip(in.Page)
		m.display = true
		r[RegElapsed] = 0
	case opcode.DrawString:
		m.video.DrawString(in.ID, uint16(in.Col), uint16(in.Row), in.Color)
	case opcode.DrawBackground:
		m.drawShape(t, pc, graphics.Bank1, in.Offset, in.X, in.Y, graphics.DefaultZoom)
	case opcode.DrawSprite:
		bank := graphics.Bank1
		if in.Secondary {
			bank = graphics.Bank2
		}
		zoom := uint16(m.operand(in.Zoom))
		m.drawShape(t, pc, bank, in.Offset, m.operand(in.X), m.operand(in.Y), zoom)

	case opcode.PlaySound:
		m.playSound(in.Resource, in.Freq, in.Volume, in.Channel)
	case opcode.PlayMusic:
		m.playMusic(in)
	case opcode.UpdateResources:
		m.updateResources(in.ID)
	}
	return false, nil
}

func (m *Machine) condJmp(t *Task, pc int, in opcode.CondJmp) error {
	v := m.regs[in.Var]
	taken := in.Cond.Eval(v, m.operand(in.Arg))
	if m.bypassCodeWheel(in) {
		taken = true
	}
	if !taken {
		return nil
	}
	if err := m.jump(t, pc, in.Target); err != nil {
		return err
	}
	if in.Var == RegScreenNum && (!m.hasScreen || m.screen != v) {
		m.screen, m.hasScreen = v, true
		m.fixupScreenPalette(v)
	}
	return nil
}

func (m *Machine) changeTasks(in opcode.ChangeTasks) {
	if in.First > in.Last {
		m.log.Error("Invalid task range", "first", in.First, "last", in.Last)
		return
	}
	for id := int(in.First); id <= int(in.Last); id++ {
		t := &m.tasks[id]
		switch in.Action {
		case opcode.ActionKill:
			t.requestKill()
		case opcode.ActionPause:
			t.requestRun(SetPaused)
		default:
			t.requestRun(SetRunning)
		}
	}
}

// drawShape forwards a polygon draw. Malformed shape data skips the draw.
func (m *Machine) drawShape(t *Task, pc int, bank graphics.Bank, offset uint16, x, y int16, zoom uint16) {
	if err := m.video.DrawShape(bank, offset, x, y, zoom); err != nil {
		m.log.Warn("Draw skipped", "task", t.ID, "pc", pc, "error", err)
	}
}

func (m *Machine) playSound(id uint16, freq, volume, channel uint8) {
	ch := int(channel & 3)
	if volume == 0 {
		m.audio.StopSound(ch)
		return
	}
	hz, ok := audio.Frequency(freq)
	if !ok {
		m.log.Warn("Sound frequency out of range", "id", id, "freq", freq)
		return
	}
	data, err := m.res.Load(int(id))
	if err != nil {
		m.log.Warn("Sound skipped", "id", id, "error", err)
		return
	}
	m.audio.PlaySound(audio.PlaySound{
		ID:        id,
		Data:      data,
		Frequency: hz,
		Volume:    int(min(volume, audio.MaxVolume)),
		Channel:   ch,
	})
}

func (m *Machine) playMusic(in opcode.PlayMusic) {
	cmd := audio.PlayMusic{ID: in.Resource, Tempo: in.Delay, Position: in.Position}
	if in.Resource != 0 {
		data, err := m.res.Load(int(in.Resource))
		if err != nil {
			m.log.Warn("Music skipped", "id", in.Resource, "error", err)
			return
		}
		cmd.Data = data
	}
	m.audio.PlayMusic(cmd)
}

func (m *Machine) updateResources(id uint16) {
	switch {
	case id == 0:
		m.audio.StopAll()
		m.res.Invalidate()
		m.video.InvalidatePalette()
	case id >= uint16(resource.FirstPart):
		part := resource.Part(id)
		if !part.Valid() {
			m.log.Warn("Unknown part requested", "part", id)
			return
		}
		m.nextPart = part
	default:
		data, err := m.res.Load(int(id))
		if err != nil {
			m.log.Warn("Resource load failed", "id", id, "error", err)
			return
		}
		if d, ok := m.res.Descriptor(int(id)); ok && d.Type == resource.Bitmap {
			if err := m.video.DrawBitmap(data); err != nil {
				m.log.Warn("Bitmap skipped", "id", id, "error", err)
			}
		}
	}
}
