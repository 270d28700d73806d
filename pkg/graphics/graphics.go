// Package graphics は 4 枚のパレット化フレームバッファとポリゴン描画を提供する
package graphics

import (
	"image"
	"image/color"
	"log/slog"
)

const (
	Width     = 320
	Height    = 200
	PageCount = 4
	PageSize  = Width * Height
)

// 論理ページ番号の別名
const (
	PageFront byte = 0xFE
	PageBack  byte = 0xFF
)

// ValidPage はバイトがページ指定として受け付けられるかを返す
func ValidPage(b byte) bool {
	return b < PageCount || b == PageFront || b == PageBack
}

// ValidCopySource は copy-page の転送元バイトが受け付けられるかを返す
// bit7 が立っている場合は下位 2 ビットでページを選ぶのでどの値でもよい
func ValidCopySource(b byte) bool {
	if b >= PageFront || b&0x80 != 0 {
		return true
	}
	return ValidPage(b & 0xBF)
}

// Bank はポリゴンデータのセグメント
type Bank int

const (
	// Bank1 はパートの主ポリゴンセグメント
	Bank1 Bank = iota + 1
	// Bank2 は補助ポリゴンセグメント（パートによっては存在しない）
	Bank2
)

// Frame は表示シンクへ渡す 1 フレーム分のスナップショット
type Frame struct {
	Pixels  [PageSize]byte
	Palette Palette
	// Page は表示されたページ番号 (0..3)
	Page int
}

// Paletted は Frame を image.Paletted に変換する
func (f *Frame) Paletted() *image.Paletted {
	pal := make(color.Palette, len(f.Palette))
	for i, c := range f.Palette {
		pal[i] = color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}
	}
	img := image.NewPaletted(image.Rect(0, 0, Width, Height), pal)
	for i, p := range f.Pixels {
		img.Pix[i] = p & 0x0F
	}
	return img
}

// RGBA は Frame を RGBA バイト列に展開する (len(dst) >= PageSize*4)
func (f *Frame) RGBA(dst []byte) {
	for i, p := range f.Pixels {
		c := f.Palette[p&0x0F]
		dst[i*4] = c.R
		dst[i*4+1] = c.G
		dst[i*4+2] = c.B
		dst[i*4+3] = 0xFF
	}
}

// Renderer はページ、パレット、ポリゴンセグメントを所有する
type Renderer struct {
	pages [PageCount][PageSize]byte

	// 描画先、表示中、裏ページの実ページ番号
	draw, front, back int

	paletteSeg []byte
	polySeg    [2][]byte

	palette    Palette
	paletteNum int
	pendingPal int
	ega        bool

	frame     Frame
	presented bool

	strings StringTable
	log     *slog.Logger
}

// Option は Renderer のオプションを設定する関数型
type Option func(*Renderer)

// WithLogger はロガーを設定する
func WithLogger(log *slog.Logger) Option {
	return func(r *Renderer) {
		r.log = log
	}
}

// WithEGAPalette は VGA パレットの代わりに EGA パレットを使う
func WithEGAPalette(ega bool) Option {
	return func(r *Renderer) {
		r.ega = ega
	}
}

// WithStrings は文字列テーブルを設定する
func WithStrings(t StringTable) Option {
	return func(r *Renderer) {
		r.strings = t
	}
}

// New は新しい Renderer を作成する
func New(opts ...Option) *Renderer {
	r := &Renderer{
		draw:       2,
		front:      2,
		back:       1,
		paletteNum: -1,
		pendingPal: -1,
		strings:    English,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetSegments はパート開始時にパレットとポリゴンのセグメントを差し替える
func (r *Renderer) SetSegments(palette, poly1, poly2 []byte) {
	r.paletteSeg = palette
	r.polySeg[0] = poly1
	r.polySeg[1] = poly2
	// 同じ番号でも新しいセグメントから読み直す
	r.paletteNum = -1
}

// translate は論理ページ番号を実ページ番号に変換する
func (r *Renderer) translate(p byte) int {
	switch {
	case p < PageCount:
		return int(p)
	case p == PageFront:
		return r.front
	case p == PageBack:
		return r.back
	default:
		r.log.Warn("Invalid page index", "page", p)
		return 0
	}
}

// SelectPage は描画先ページを選択する
func (r *Renderer) SelectPage(p byte) {
	r.draw = r.translate(p)
}

// FillPage はページ全体を 1 色で塗りつぶす
func (r *Renderer) FillPage(p byte, c byte) {
	page := &r.pages[r.translate(p)]
	for i := range page {
		page[i] = c
	}
}

// CopyPage はページを複製する
// src が 0xFE/0xFF か bit7 が立っていない場合は単純コピー（bit6 は無視）、
// bit7 が立っている場合は src&3 のページを vscroll 行ずらしてコピーする
func (r *Renderer) CopyPage(src, dst byte, vscroll int16) {
	d := r.translate(dst)
	switch {
	case src >= PageFront:
		r.copyPage(r.translate(src), d, 0)
	case src&0x80 == 0:
		r.copyPage(r.translate(src&0xBF), d, 0)
	default:
		s := r.translate(src & 3)
		if s != d && vscroll >= -199 && vscroll <= 199 {
			r.copyPage(s, d, int(vscroll))
		}
	}
}

func (r *Renderer) copyPage(src, dst, vscroll int) {
	if src == dst {
		return
	}
	s, d := r.pages[src][:], r.pages[dst][:]
	switch {
	case vscroll < 0:
		copy(d, s[-vscroll*Width:])
	case vscroll > 0:
		copy(d[vscroll*Width:], s[:(Height-vscroll)*Width])
	default:
		copy(d, s)
	}
}

// Flip は表示ページを切り替え、保留中のパレットを適用してフレームを確定する
// 0xFE は表示ページを維持、0xFF は表示と裏を入れ替え、それ以外はそのページを表示する
func (r *Renderer) Flip(p byte) Frame {
	switch p {
	case PageFront:
	case PageBack:
		r.front, r.back = r.back, r.front
	default:
		r.front = r.translate(p)
	}

	if r.pendingPal >= 0 {
		r.applyPalette(r.pendingPal)
		r.pendingPal = -1
	}

	r.frame.Pixels = r.pages[r.front]
	r.frame.Palette = r.palette
	r.frame.Page = r.front
	r.presented = true
	return r.frame
}

// Present はまだ表示シンクへ渡していない最新のフレームを返す
func (r *Renderer) Present() (Frame, bool) {
	if !r.presented {
		return Frame{}, false
	}
	r.presented = false
	return r.frame, true
}

// Page は実ページのピクセル列を返す（テスト・デバッグ用）
func (r *Renderer) Page(i int) []byte {
	return r.pages[i][:]
}

// PixelAt は実ページ上の 1 ピクセルを返す
func (r *Renderer) PixelAt(page, x, y int) byte {
	return r.pages[page][y*Width+x]
}

// DrawPage は現在の描画先の実ページ番号を返す
func (r *Renderer) DrawPage() int {
	return r.draw
}

// FrontPage は表示中の実ページ番号を返す
func (r *Renderer) FrontPage() int {
	return r.front
}

// BackPage は裏ページの実ページ番号を返す
func (r *Renderer) BackPage() int {
	return r.back
}
