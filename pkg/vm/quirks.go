package vm

import (
	"github.com/zurustar/outerworld/pkg/opcode"
	"github.com/zurustar/outerworld/pkg/resource"
)

// Bytecode defects of the shipped data are patched here.

// gunLoopPC is the add-constant after which the gun sound keeps looping.
const gunLoopPC = 0x6D47

// loopingGun plays the "stop" sound that task 0x27 forgets before
// leaving the gun loop. Other parts of the script do the same.
func (m *Machine) loopingGun(pc int) {
	if !m.gunFix || m.part != resource.PartLuxe || pc != gunLoopPC {
		return
	}
	m.log.Debug("Stopping looping gun sound", "pc", pc)
	m.playSound(0x5B, 1, 64, 1)
}

// bypassCodeWheel reports whether a conditional jump is the code wheel
// comparison and, if so, stores the expected symbols so the check passes.
func (m *Machine) bypassCodeWheel(in opcode.CondJmp) bool {
	if !m.bypass || m.part != resource.PartProtection ||
		in.Var != regCodeSymbols || in.Arg.Kind != opcode.Reg {
		return false
	}
	m.log.Info("Bypassing code wheel check")
	for i := range 4 {
		m.regs[regCodeSymbols+i] = m.regs[regWheelSymbols+i]
	}
	m.regs[regCodeAttempts] = 6
	m.regs[regCodeCountdown] = 20
	return true
}

// fixupScreenPalette loads the palette some screens forget to select.
func (m *Machine) fixupScreenPalette(screen int16) {
	if !m.paletteFixup {
		return
	}
	var pal byte
	switch {
	case m.part == resource.PartCity && screen == 0x47:
		pal = 8
	case m.part == resource.PartLuxe && screen == 0x4A:
		pal = 1
	default:
		return
	}
	m.log.Debug("Palette fixup", "part", m.part, "screen", screen, "palette", pal)
	m.video.LoadPalette(pal)
}
