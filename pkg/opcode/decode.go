package opcode

import (
	"errors"
	"fmt"

	"github.com/zurustar/outerworld/pkg/graphics"
)

// Decode errors.
var (
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrTruncated     = errors.New("truncated instruction")
	ErrBadPage       = errors.New("invalid page operand")
	ErrBadTask       = errors.New("invalid task operand")
	ErrBadCondition  = errors.New("invalid jump condition")
)

// DecodeError reports the program counter and opcode byte of an
// instruction that could not be decoded.
type DecodeError struct {
	PC     int
	Opcode byte
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode 0x%04X (opcode 0x%02X): %v", e.PC, e.Opcode, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// decoder reads operands sequentially. The first out-of-range read sets
// err and every later read returns zero.
type decoder struct {
	code []byte
	pc   int
	err  error
}

func (d *decoder) u8() uint8 {
	if d.err != nil {
		return 0
	}
	if d.pc >= len(d.code) {
		d.err = ErrTruncated
		return 0
	}
	b := d.code[d.pc]
	d.pc++
	return b
}

func (d *decoder) u16() uint16 {
	hi := d.u8()
	lo := d.u8()
	return uint16(hi)<<8 | uint16(lo)
}

func (d *decoder) i16() int16 { return int16(d.u16()) }

func (d *decoder) page() byte {
	p := d.u8()
	if d.err == nil && !graphics.ValidPage(p) {
		d.err = ErrBadPage
	}
	return p
}

// Decode decodes the instruction at pc and returns it together with the
// program counter of the following instruction.
func Decode(code []byte, pc int) (Instruction, int, error) {
	if pc < 0 || pc >= len(code) {
		return nil, pc, &DecodeError{PC: pc, Err: ErrTruncated}
	}
	d := &decoder{code: code, pc: pc}
	op := d.u8()
	in := d.decode(op)
	if d.err != nil {
		return nil, pc, &DecodeError{PC: pc, Opcode: op, Err: d.err}
	}
	return in, d.pc, nil
}

func (d *decoder) decode(op byte) Instruction {
	if op&DrawBackgroundMask != 0 {
		return d.background(op)
	}
	if op&DrawSpriteMask != 0 {
		return d.sprite(op)
	}

	switch Op(op) {
	case OpMovConst:
		return MovConst{Dst: d.u8(), Value: d.i16()}
	case OpMov:
		return Mov{Dst: d.u8(), Src: d.u8()}
	case OpAdd:
		return Add{Dst: d.u8(), Src: d.u8()}
	case OpAddConst:
		return AddConst{Dst: d.u8(), Value: d.i16()}
	case OpCall:
		return Call{Target: d.u16()}
	case OpRet:
		return Ret{}
	case OpYield:
		return Yield{}
	case OpJmp:
		return Jmp{Target: d.u16()}
	case OpInstallTask:
		in := InstallTask{Task: d.u8(), Target: d.u16()}
		if d.err == nil && in.Task >= MaxTasks {
			d.err = ErrBadTask
		}
		return in
	case OpJmpIfVar:
		return JmpIfVar{Var: d.u8(), Target: d.u16()}
	case OpCondJmp:
		return d.condJmp()
	case OpSelectPalette:
		in := SelectPalette{Num: d.u8()}
		d.u8()
		return in
	case OpChangeTasks:
		first := d.u8()
		last := d.u8() & (MaxTasks - 1)
		action := ActionPause
		switch d.u8() {
		case 0:
			action = ActionResume
		case 2:
			action = ActionKill
		}
		if d.err == nil && first >= MaxTasks {
			d.err = ErrBadTask
		}
		return ChangeTasks{First: first, Last: last, Action: action}
	case OpSelectPage:
		return SelectPage{Page: d.page()}
	case OpFillPage:
		return FillPage{Page: d.page(), Color: d.u8()}
	case OpCopyPage:
		src := d.u8()
		if d.err == nil && !graphics.ValidCopySource(src) {
			d.err = ErrBadPage
		}
		return CopyPage{Src: src, Dst: d.page()}
	case OpUpdateDisplay:
		return UpdateDisplay{Page: d.page()}
	case OpKillTask:
		return KillTask{}
	case OpDrawString:
		return DrawString{ID: d.u16(), Col: d.u8(), Row: d.u8(), Color: d.u8()}
	case OpSub:
		return Sub{Dst: d.u8(), Src: d.u8()}
	case OpAnd:
		return And{Dst: d.u8(), Value: d.i16()}
	case OpOr:
		return Or{Dst: d.u8(), Value: d.i16()}
	case OpShl:
		return Shl{Dst: d.u8(), Value: d.i16()}
	case OpShr:
		return Shr{Dst: d.u8(), Value: d.u16()}
	case OpPlaySound:
		return PlaySound{Resource: d.u16(), Freq: d.u8(), Volume: d.u8(), Channel: d.u8()}
	case OpUpdateResources:
		return UpdateResources{ID: d.u16()}
	case OpPlayMusic:
		return PlayMusic{Resource: d.u16(), Delay: d.u16(), Position: d.u8()}
	case OpRand:
		return Rand{Dst: d.u8()}
	}
	d.err = ErrUnknownOpcode
	return nil
}

// condJmp decodes the sub-opcode form: bit 7 selects a register argument,
// bit 6 a 16-bit constant, otherwise an unsigned byte. Bits 0-2 hold the
// comparison.
func (d *decoder) condJmp() Instruction {
	sub := d.u8()
	in := CondJmp{Cond: Cond(sub & 7), Var: d.u8()}
	switch {
	case sub&0x80 != 0:
		in.Arg = RegOperand(d.u8())
	case sub&0x40 != 0:
		in.Arg = ImmOperand(d.i16())
	default:
		in.Arg = ImmOperand(int16(d.u8()))
	}
	in.Target = d.u16()
	if d.err == nil && in.Cond > Le {
		d.err = ErrBadCondition
	}
	return in
}

// background decodes the compact form: the low 7 bits of the opcode and
// one more byte give the shape offset in words, followed by byte x and y.
// A y below the screen bottom moves the shape right by the excess.
func (d *decoder) background(op byte) Instruction {
	offset := (uint16(op)<<8 | uint16(d.u8())) << 1
	x := int16(d.u8())
	y := int16(d.u8())
	if h := y - (graphics.Height - 1); h > 0 {
		y = graphics.Height - 1
		x += h
	}
	return DrawBackground{Offset: offset, X: x, Y: y}
}

// sprite decodes the general form. Opcode bits 5-4 select the x encoding,
// bits 3-2 the y encoding and bits 1-0 the zoom encoding or the secondary
// segment.
func (d *decoder) sprite(op byte) Instruction {
	in := DrawSprite{Offset: d.u16() << 1}

	x := d.u8()
	switch {
	case op&0x20 != 0:
		in.X = ImmOperand(int16(x) | int16(op&0x10)<<4)
	case op&0x10 != 0:
		in.X = RegOperand(x)
	default:
		in.X = ImmOperand(int16(uint16(x)<<8 | uint16(d.u8())))
	}

	y := d.u8()
	switch {
	case op&0x08 != 0:
		in.Y = ImmOperand(int16(y))
	case op&0x04 != 0:
		in.Y = RegOperand(y)
	default:
		in.Y = ImmOperand(int16(uint16(y)<<8 | uint16(d.u8())))
	}

	in.Zoom = ImmOperand(graphics.DefaultZoom)
	switch op & 0x03 {
	case 0x01:
		in.Zoom = RegOperand(d.u8())
	case 0x02:
		in.Zoom = ImmOperand(int16(d.u8()))
	case 0x03:
		in.Secondary = true
	}
	return in
}

// Disassemble renders code as one line per instruction. Undecodable bytes
// are printed as data and skipped.
func Disassemble(code []byte) []string {
	var lines []string
	for pc := 0; pc < len(code); {
		in, next, err := Decode(code, pc)
		if err != nil {
			lines = append(lines, fmt.Sprintf("%04X: db 0x%02X", pc, code[pc]))
			pc++
			continue
		}
		lines = append(lines, fmt.Sprintf("%04X: %s", pc, in))
		pc = next
	}
	return lines
}
