package graphics

import "encoding/binary"

// Color は 8 ビット RGB の色
type Color struct {
	R, G, B uint8
}

// Palette は 16 色のパレット
type Palette [16]Color

const (
	paletteCount = 32
	paletteBytes = 16 * 2
	// EGA パレットは VGA パレット 32 個の後ろに格納されている
	egaOffset = paletteCount * paletteBytes
)

// egaColors は標準 EGA 16 色
var egaColors = Palette{
	{0x00, 0x00, 0x00},
	{0x00, 0x00, 0xAA},
	{0x00, 0xAA, 0x00},
	{0x00, 0xAA, 0xAA},
	{0xAA, 0x00, 0x00},
	{0xAA, 0x00, 0xAA},
	{0xAA, 0x55, 0x00},
	{0xAA, 0xAA, 0xAA},
	{0x55, 0x55, 0x55},
	{0x55, 0x55, 0xFF},
	{0x55, 0xFF, 0x55},
	{0x55, 0xFF, 0xFF},
	{0xFF, 0x55, 0x55},
	{0xFF, 0x55, 0xFF},
	{0xFF, 0xFF, 0x55},
	{0xFF, 0xFF, 0xFF},
}

// DecodeVGAPalette はパレットセグメントから num 番の VGA パレットを読む
// 各色はビッグエンディアン u16 の 0RGB 4 ビット成分
func DecodeVGAPalette(seg []byte, num int) (Palette, bool) {
	var pal Palette
	begin := num * paletteBytes
	if num < 0 || num >= paletteCount || begin+paletteBytes > len(seg) {
		return pal, false
	}
	for i := range pal {
		c := binary.BigEndian.Uint16(seg[begin+i*2:])
		pal[i] = Color{
			R: expand4(c >> 8),
			G: expand4(c >> 4),
			B: expand4(c),
		}
	}
	return pal, true
}

// DecodeEGAPalette は num 番の EGA パレットを読む
// 各色の上位 4 ビットが EGA 16 色のインデックス
func DecodeEGAPalette(seg []byte, num int) (Palette, bool) {
	var pal Palette
	begin := egaOffset + num*paletteBytes
	if num < 0 || num >= paletteCount || begin+paletteBytes > len(seg) {
		return pal, false
	}
	for i := range pal {
		c := binary.BigEndian.Uint16(seg[begin+i*2:])
		pal[i] = egaColors[(c>>12)&0x0F]
	}
	return pal, true
}

func expand4(v uint16) uint8 {
	c := uint8(v & 0x0F)
	return c | c<<4
}

// SelectPalette は次の Flip で適用するパレット番号を予約する
// ページに書かれたピクセルはパレット非依存で、色は表示時に決まる
func (r *Renderer) SelectPalette(num byte) {
	if int(num) >= paletteCount {
		r.log.Debug("Palette number out of range", "num", num)
		return
	}
	r.pendingPal = int(num)
}

// LoadPalette は予約を経由せずに num 番のパレットを即座に適用する
// パート固有の色補正で使う
func (r *Renderer) LoadPalette(num byte) {
	if int(num) >= paletteCount {
		r.log.Debug("Palette number out of range", "num", num)
		return
	}
	r.applyPalette(int(num))
}

// InvalidatePalette は適用済み番号を忘れ、次の適用で必ず読み直させる
func (r *Renderer) InvalidatePalette() {
	r.paletteNum = -1
}

// Palette は現在表示に使われているパレットを返す
func (r *Renderer) Palette() Palette {
	return r.palette
}

// PaletteNum は適用済みのパレット番号を返す（未適用なら -1）
func (r *Renderer) PaletteNum() int {
	return r.paletteNum
}

func (r *Renderer) applyPalette(num int) {
	if num == r.paletteNum {
		return
	}
	var (
		pal Palette
		ok  bool
	)
	if r.ega {
		pal, ok = DecodeEGAPalette(r.paletteSeg, num)
	} else {
		pal, ok = DecodeVGAPalette(r.paletteSeg, num)
	}
	if !ok {
		r.log.Warn("Palette segment too short", "num", num, "size", len(r.paletteSeg), "ega", r.ega)
		return
	}
	r.palette = pal
	r.paletteNum = num
}
