package opcode

import "fmt"

// Instruction is one decoded bytecode instruction. The set of implementations
// is closed: every type in this file, and nothing else.
type Instruction interface {
	Op() Op
	String() string
	instruction()
}

type (
	// MovConst sets Dst to a constant.
	MovConst struct {
		Dst   uint8
		Value int16
	}
	// Mov copies register Src to Dst.
	Mov struct{ Dst, Src uint8 }
	// Add adds register Src to Dst.
	Add struct{ Dst, Src uint8 }
	// AddConst adds a constant to Dst.
	AddConst struct {
		Dst   uint8
		Value int16
	}
	// Call pushes the return address and jumps.
	Call struct{ Target uint16 }
	// Ret pops the return address.
	Ret struct{}
	// Yield ends the task's slice for this frame.
	Yield struct{}
	// Jmp jumps unconditionally.
	Jmp struct{ Target uint16 }
	// InstallTask schedules Task to start at Target from the next frame.
	InstallTask struct {
		Task   uint8
		Target uint16
	}
	// JmpIfVar decrements Var and jumps when the result is not zero.
	JmpIfVar struct {
		Var    uint8
		Target uint16
	}
	// CondJmp jumps when Cond holds between register Var and Arg.
	CondJmp struct {
		Cond   Cond
		Var    uint8
		Arg    Operand
		Target uint16
	}
	// SelectPalette requests a palette for the next display update.
	SelectPalette struct{ Num uint8 }
	// ChangeTasks requests a state change for tasks First..Last.
	ChangeTasks struct {
		First, Last uint8
		Action      TaskAction
	}
	// SelectPage chooses the drawing page.
	SelectPage struct{ Page byte }
	// FillPage fills a page with one color.
	FillPage struct{ Page, Color byte }
	// CopyPage copies Src to Dst, scrolled by the scroll register when
	// Src has bit 7 set.
	CopyPage struct{ Src, Dst byte }
	// UpdateDisplay flips Page to the display.
	UpdateDisplay struct{ Page byte }
	// KillTask stops the current task.
	KillTask struct{}
	// DrawString draws string ID at text column Col and pixel row Row.
	DrawString struct {
		ID              uint16
		Col, Row, Color uint8
	}
	// Sub subtracts register Src from Dst.
	Sub struct{ Dst, Src uint8 }
	// And masks Dst with a constant.
	And struct {
		Dst   uint8
		Value int16
	}
	// Or sets bits of Dst.
	Or struct {
		Dst   uint8
		Value int16
	}
	// Shl shifts Dst left.
	Shl struct {
		Dst   uint8
		Value int16
	}
	// Shr shifts Dst right, filling with zeros.
	Shr struct {
		Dst   uint8
		Value uint16
	}
	// PlaySound plays a sample; volume 0 stops the channel.
	PlaySound struct {
		Resource              uint16
		Freq, Volume, Channel uint8
	}
	// UpdateResources loads a resource, switches part (ID >= 16000) or,
	// with ID 0, drops transient resources.
	UpdateResources struct{ ID uint16 }
	// PlayMusic starts a module at Position, or only changes the tempo
	// when Resource is 0.
	PlayMusic struct {
		Resource, Delay uint16
		Position        uint8
	}
	// Rand writes a pseudo-random value to Dst.
	Rand struct{ Dst uint8 }
	// DrawBackground draws a shape of the primary segment at unit zoom.
	DrawBackground struct {
		Offset uint16
		X, Y   int16
	}
	// DrawSprite draws a shape with register-or-constant position and zoom.
	DrawSprite struct {
		Offset uint16
		X, Y   Operand
		Zoom   Operand

		// Secondary selects the secondary polygon segment.
		Secondary bool
	}
)

func (MovConst) Op() Op        { return OpMovConst }
func (Mov) Op() Op             { return OpMov }
func (Add) Op() Op             { return OpAdd }
func (AddConst) Op() Op        { return OpAddConst }
func (Call) Op() Op            { return OpCall }
func (Ret) Op() Op             { return OpRet }
func (Yield) Op() Op           { return OpYield }
func (Jmp) Op() Op             { return OpJmp }
func (InstallTask) Op() Op     { return OpInstallTask }
func (JmpIfVar) Op() Op        { return OpJmpIfVar }
func (CondJmp) Op() Op         { return OpCondJmp }
func (SelectPalette) Op() Op   { return OpSelectPalette }
func (ChangeTasks) Op() Op     { return OpChangeTasks }
func (SelectPage) Op() Op      { return OpSelectPage }
func (FillPage) Op() Op        { return OpFillPage }
func (CopyPage) Op() Op        { return OpCopyPage }
func (UpdateDisplay) Op() Op   { return OpUpdateDisplay }
func (KillTask) Op() Op        { return OpKillTask }
func (DrawString) Op() Op      { return OpDrawString }
func (Sub) Op() Op             { return OpSub }
func (And) Op() Op             { return OpAnd }
func (Or) Op() Op              { return OpOr }
func (Shl) Op() Op             { return OpShl }
func (Shr) Op() Op             { return OpShr }
func (PlaySound) Op() Op       { return OpPlaySound }
func (UpdateResources) Op() Op { return OpUpdateResources }
func (PlayMusic) Op() Op       { return OpPlayMusic }
func (Rand) Op() Op            { return OpRand }
func (DrawBackground) Op() Op  { return DrawBackgroundMask }
func (DrawSprite) Op() Op      { return DrawSpriteMask }

func (MovConst) instruction()        {}
func (Mov) instruction()             {}
func (Add) instruction()             {}
func (AddConst) instruction()        {}
func (Call) instruction()            {}
func (Ret) instruction()             {}
func (Yield) instruction()           {}
func (Jmp) instruction()             {}
func (InstallTask) instruction()     {}
func (JmpIfVar) instruction()        {}
func (CondJmp) instruction()         {}
func (SelectPalette) instruction()   {}
func (ChangeTasks) instruction()     {}
func (SelectPage) instruction()      {}
func (FillPage) instruction()        {}
func (CopyPage) instruction()        {}
func (UpdateDisplay) instruction()   {}
func (KillTask) instruction()        {}
func (DrawString) instruction()      {}
func (Sub) instruction()             {}
func (And) instruction()             {}
func (Or) instruction()              {}
func (Shl) instruction()             {}
func (Shr) instruction()             {}
func (PlaySound) instruction()       {}
func (UpdateResources) instruction() {}
func (PlayMusic) instruction()       {}
func (Rand) instruction()            {}
func (DrawBackground) instruction()  {}
func (DrawSprite) instruction()      {}

func (i MovConst) String() string    { return fmt.Sprintf("movi @%02X, %d", i.Dst, i.Value) }
func (i Mov) String() string         { return fmt.Sprintf("mov @%02X, @%02X", i.Dst, i.Src) }
func (i Add) String() string         { return fmt.Sprintf("add @%02X, @%02X", i.Dst, i.Src) }
func (i AddConst) String() string    { return fmt.Sprintf("addi @%02X, %d", i.Dst, i.Value) }
func (i Call) String() string        { return fmt.Sprintf("call 0x%04X", i.Target) }
func (Ret) String() string           { return "ret" }
func (Yield) String() string         { return "yield" }
func (i Jmp) String() string         { return fmt.Sprintf("jmp 0x%04X", i.Target) }
func (i InstallTask) String() string { return fmt.Sprintf("task %%%d, 0x%04X", i.Task, i.Target) }
func (i JmpIfVar) String() string    { return fmt.Sprintf("bif @%02X, 0x%04X", i.Var, i.Target) }
func (i CondJmp) String() string {
	return fmt.Sprintf("b%s @%02X, %s, 0x%04X", i.Cond, i.Var, i.Arg, i.Target)
}
func (i SelectPalette) String() string { return fmt.Sprintf("gpal %d", i.Num) }
func (i ChangeTasks) String() string {
	return fmt.Sprintf("xtask %%%d..%%%d, %s", i.First, i.Last, i.Action)
}
func (i SelectPage) String() string    { return fmt.Sprintf("fb_sel 0x%02X", i.Page) }
func (i FillPage) String() string      { return fmt.Sprintf("fb_fill 0x%02X, %d", i.Page, i.Color) }
func (i CopyPage) String() string      { return fmt.Sprintf("fb_copy 0x%02X, 0x%02X", i.Src, i.Dst) }
func (i UpdateDisplay) String() string { return fmt.Sprintf("swap 0x%02X", i.Page) }
func (KillTask) String() string        { return "halt" }
func (i DrawString) String() string {
	return fmt.Sprintf("gstr 0x%03X, %d, %d, %d", i.ID, i.Col, i.Row, i.Color)
}
func (i Sub) String() string { return fmt.Sprintf("sub @%02X, @%02X", i.Dst, i.Src) }
func (i And) String() string { return fmt.Sprintf("andi @%02X, 0x%04X", i.Dst, uint16(i.Value)) }
func (i Or) String() string  { return fmt.Sprintf("ori @%02X, 0x%04X", i.Dst, uint16(i.Value)) }
func (i Shl) String() string { return fmt.Sprintf("shli @%02X, %d", i.Dst, i.Value) }
func (i Shr) String() string { return fmt.Sprintf("shri @%02X, %d", i.Dst, i.Value) }
func (i PlaySound) String() string {
	return fmt.Sprintf("snd 0x%02X, %d, %d, %d", i.Resource, i.Freq, i.Volume, i.Channel)
}
func (i UpdateResources) String() string { return fmt.Sprintf("res %d", i.ID) }
func (i PlayMusic) String() string {
	return fmt.Sprintf("music 0x%02X, %d, %d", i.Resource, i.Delay, i.Position)
}
func (i Rand) String() string { return fmt.Sprintf("rand @%02X", i.Dst) }
func (i DrawBackground) String() string {
	return fmt.Sprintf("bg 0x%04X, %d, %d", i.Offset, i.X, i.Y)
}
func (i DrawSprite) String() string {
	seg := 1
	if i.Secondary {
		seg = 2
	}
	return fmt.Sprintf("spr%d 0x%04X, %s, %s, %s", seg, i.Offset, i.X, i.Y, i.Zoom)
}
