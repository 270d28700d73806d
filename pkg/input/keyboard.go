package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Keyboard reads the controls from Ebitengine's keyboard state.
// Update must be called from every Ebitengine Update, including those that
// do not run an engine tick; Poll returns what was latched since the last
// Poll.
type Keyboard struct {
	Latch
	chars []rune
}

// NewKeyboard creates a Keyboard source.
func NewKeyboard() *Keyboard {
	return &Keyboard{}
}

// Update samples the current key state into the latch.
func (k *Keyboard) Update() {
	st := State{
		Up:     ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		Down:   ebiten.IsKeyPressed(ebiten.KeyArrowDown),
		Left:   ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		Right:  ebiten.IsKeyPressed(ebiten.KeyArrowRight),
		Action: ebiten.IsKeyPressed(ebiten.KeySpace) || ebiten.IsKeyPressed(ebiten.KeyEnter),
		Pause:  inpututil.IsKeyJustPressed(ebiten.KeyP),
		Back:   inpututil.IsKeyJustPressed(ebiten.KeyEscape),
		Code:   inpututil.IsKeyJustPressed(ebiten.KeyC),
	}

	k.chars = ebiten.AppendInputChars(k.chars[:0])
	st.LastChar = lastChar(k.chars)
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		st.LastChar = Backspace
	}
	k.Sample(st)
}

// lastChar returns the last letter in chars, lowercased, or 0.
func lastChar(chars []rune) byte {
	for i := len(chars) - 1; i >= 0; i-- {
		c := chars[i]
		switch {
		case c >= 'a' && c <= 'z':
			return byte(c)
		case c >= 'A' && c <= 'Z':
			return byte(c - 'A' + 'a')
		}
	}
	return 0
}
