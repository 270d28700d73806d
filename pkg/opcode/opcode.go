// Package opcode defines the bytecode instruction set of the virtual machine.
// Decode turns the byte stream at a program counter into one Instruction
// variant; the VM dispatches on the variant with a single type switch.
package opcode

import "fmt"

// Op is an opcode byte.
type Op byte

// Opcode bytes. Bytes with bit 7 or bit 6 set are polygon draws and are
// not listed here.
const (
	OpMovConst        Op = 0x00
	OpMov             Op = 0x01
	OpAdd             Op = 0x02
	OpAddConst        Op = 0x03
	OpCall            Op = 0x04
	OpRet             Op = 0x05
	OpYield           Op = 0x06
	OpJmp             Op = 0x07
	OpInstallTask     Op = 0x08
	OpJmpIfVar        Op = 0x09
	OpCondJmp         Op = 0x0A
	OpSelectPalette   Op = 0x0B
	OpChangeTasks     Op = 0x0C
	OpSelectPage      Op = 0x0D
	OpFillPage        Op = 0x0E
	OpCopyPage        Op = 0x0F
	OpUpdateDisplay   Op = 0x10
	OpKillTask        Op = 0x11
	OpDrawString      Op = 0x12
	OpSub             Op = 0x13
	OpAnd             Op = 0x14
	OpOr              Op = 0x15
	OpShl             Op = 0x16
	OpShr             Op = 0x17
	OpPlaySound       Op = 0x18
	OpUpdateResources Op = 0x19
	OpPlayMusic       Op = 0x1A
	// OpRand writes the next value of the machine's PRNG to a register.
	OpRand Op = 0x1B
)

// Draw opcode masks.
const (
	DrawBackgroundMask = 0x80
	DrawSpriteMask     = 0x40
)

// MaxTasks is the number of task slots addressable by task operands.
const MaxTasks = 64

// OperandKind tells whether an Operand is a constant or a register index.
type OperandKind int

const (
	Imm OperandKind = iota
	Reg
)

// Operand is a register-or-constant field.
type Operand struct {
	Kind  OperandKind
	Value int16
}

// ImmOperand returns a constant operand.
func ImmOperand(v int16) Operand { return Operand{Kind: Imm, Value: v} }

// RegOperand returns a register operand.
func RegOperand(r uint8) Operand { return Operand{Kind: Reg, Value: int16(r)} }

func (o Operand) String() string {
	if o.Kind == Reg {
		return fmt.Sprintf("@%02X", uint8(o.Value))
	}
	return fmt.Sprintf("%d", o.Value)
}

// Cond is the comparison of a conditional jump.
type Cond uint8

const (
	Eq Cond = iota
	Ne
	Gt
	Ge
	Lt
	Le
)

var condNames = [...]string{"eq", "ne", "gt", "ge", "lt", "le"}

func (c Cond) String() string {
	if int(c) < len(condNames) {
		return condNames[c]
	}
	return fmt.Sprintf("cond(%d)", uint8(c))
}

// Eval applies the comparison to a and b.
func (c Cond) Eval(a, b int16) bool {
	switch c {
	case Eq:
		return a == b
	case Ne:
		return a != b
	case Gt:
		return a > b
	case Ge:
		return a >= b
	case Lt:
		return a < b
	case Le:
		return a <= b
	default:
		return false
	}
}

// TaskAction is the state change requested by ChangeTasks.
type TaskAction uint8

const (
	ActionResume TaskAction = iota
	ActionPause
	ActionKill
)

func (a TaskAction) String() string {
	switch a {
	case ActionResume:
		return "resume"
	case ActionPause:
		return "pause"
	default:
		return "kill"
	}
}
