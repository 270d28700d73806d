package graphics

import (
	"golang.org/x/text/language"
)

// StringTable は文字列 ID から表示文字列を引く
type StringTable interface {
	Lookup(id uint16) (string, bool)
}

// stringMap は組み込みの文字列テーブル
type stringMap map[uint16]string

func (m stringMap) Lookup(id uint16) (string, bool) {
	s, ok := m[id]
	return s, ok
}

// fallbackTable は primary に無い ID を secondary から引く
type fallbackTable struct {
	primary, secondary StringTable
}

func (f fallbackTable) Lookup(id uint16) (string, bool) {
	if s, ok := f.primary.Lookup(id); ok {
		return s, true
	}
	return f.secondary.Lookup(id)
}

// 組み込みテーブル（フランス語に無い ID は英語で表示する）
var (
	English StringTable = englishStrings
	French  StringTable = fallbackTable{primary: frenchStrings, secondary: englishStrings}
)

var supportedLanguages = []language.Tag{
	language.English,
	language.French,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// SelectStrings は言語タグ（"en", "fr-CA" など）に最も近い組み込みテーブルを返す
// 解釈できないタグや未対応の言語は英語になる
func SelectStrings(tag string) StringTable {
	t, err := language.Parse(tag)
	if err != nil {
		return English
	}
	_, idx, conf := languageMatcher.Match(t)
	if conf == language.No {
		return English
	}
	switch supportedLanguages[idx] {
	case language.French:
		return French
	default:
		return English
	}
}

const (
	glyphSize  = 8
	firstGlyph = 0x20
)

// DrawString は文字列 id を桁 col、行 y（ピクセル）から描く
// '\n' は開始桁に戻り 8 ピクセル下へ進む
func (r *Renderer) DrawString(id uint16, col, y uint16, c byte) {
	s, ok := r.strings.Lookup(id)
	if !ok {
		r.log.Warn("Unknown string", "id", id)
		return
	}

	x := int(col)
	row := int(y)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '\n' {
			x = int(col)
			row += glyphSize
			continue
		}
		r.drawChar(x*glyphSize, row, ch, c)
		x++
	}
}

func (r *Renderer) drawChar(x, y int, ch byte, c byte) {
	if x > Width-glyphSize || y > Height-glyphSize {
		return
	}
	if ch < firstGlyph || int(ch-firstGlyph) >= len(glyphs)/glyphSize {
		return
	}
	glyph := glyphs[int(ch-firstGlyph)*glyphSize:]
	page := &r.pages[r.draw]
	for j := 0; j < glyphSize; j++ {
		line := glyph[j]
		for i := 0; i < glyphSize; i++ {
			// 下位ビットが左端
			if line&(1<<i) != 0 {
				page[(y+j)*Width+x+i] = c
			}
		}
	}
}
