package vm

// NumRegisters is the size of the register bank.
const NumRegisters = 256

// Registers is the register bank shared by every task.
type Registers [NumRegisters]int16

// Reserved register indices.
const (
	RegRandomSeed        = 0x3C
	RegScreenNum         = 0x67
	RegLastKeyChar       = 0xDA
	RegHeroPosUpDown     = 0xE5
	RegMusicSync         = 0xF4
	RegElapsed           = 0xF7
	RegScrollY           = 0xF9
	RegHeroAction        = 0xFA
	RegHeroPosJumpDown   = 0xFB
	RegHeroPosLeftRight  = 0xFC
	RegHeroPosMask       = 0xFD
	RegHeroActionPosMask = 0xFE
	RegPauseSlices       = 0xFF
)

// Registers written on part entry.
const (
	regPartEntry = 0xE4
	regCodeWheel = 0x54
)

// Registers touched when the code wheel check is bypassed.
const (
	regCodeSymbols   = 0x29
	regWheelSymbols  = 0x1E
	regCodeAttempts  = 0x32
	regCodeCountdown = 0x64
)

// presets are written when the machine is created. They make the code
// wheel check believe it has already been passed.
var presets = [...]struct {
	reg   int
	value int16
}{
	{0xBC, 0x10},
	{0xC6, 0x80},
	{0xF2, 4000},
	{0xDC, 33},
}
