package graphics

import (
	"encoding/binary"
	"testing"

	"github.com/zurustar/outerworld/pkg/logger"
)

func newTestRenderer(opts ...Option) *Renderer {
	return New(append([]Option{WithLogger(logger.Discard())}, opts...)...)
}

// testPalettes は色 i に (i, i, i) の 4 ビット成分を持つパレットを num 個作る
func testPalettes(num int) []byte {
	seg := make([]byte, egaOffset*2)
	for p := 0; p < num; p++ {
		for i := 0; i < 16; i++ {
			v := uint16((i+p)&0x0F) * 0x111
			binary.BigEndian.PutUint16(seg[p*paletteBytes+i*2:], v)
			binary.BigEndian.PutUint16(seg[egaOffset+p*paletteBytes+i*2:], uint16(i)<<12)
		}
	}
	return seg
}

func TestNew_InitialPages(t *testing.T) {
	r := newTestRenderer()
	if r.DrawPage() != 2 || r.FrontPage() != 2 || r.BackPage() != 1 {
		t.Errorf("unexpected initial pages: draw=%d front=%d back=%d", r.DrawPage(), r.FrontPage(), r.BackPage())
	}
	if _, ok := r.Present(); ok {
		t.Error("nothing has been flipped yet")
	}
}

func TestValidPage(t *testing.T) {
	tests := []struct {
		b    byte
		want bool
	}{
		{0, true}, {3, true}, {4, false}, {0x40, false}, {0xFD, false}, {PageFront, true}, {PageBack, true},
	}
	for _, tt := range tests {
		if got := ValidPage(tt.b); got != tt.want {
			t.Errorf("ValidPage(0x%02X) = %v, want %v", tt.b, got, tt.want)
		}
	}

	sources := []struct {
		b    byte
		want bool
	}{
		{0x01, true}, {0x41, true}, {0x44, false}, {0x83, true}, {0xC7, true}, {0x10, false},
	}
	for _, tt := range sources {
		if got := ValidCopySource(tt.b); got != tt.want {
			t.Errorf("ValidCopySource(0x%02X) = %v, want %v", tt.b, got, tt.want)
		}
	}
}

func TestSelectAndFillPage(t *testing.T) {
	r := newTestRenderer()

	r.FillPage(0, 3)
	r.FillPage(PageBack, 5)
	r.FillPage(PageFront, 7)

	if r.PixelAt(0, 0, 0) != 3 || r.PixelAt(0, 319, 199) != 3 {
		t.Error("page 0 not filled")
	}
	if r.PixelAt(1, 10, 10) != 5 {
		t.Error("back page (1) not filled")
	}
	if r.PixelAt(2, 10, 10) != 7 {
		t.Error("front page (2) not filled")
	}

	r.SelectPage(PageBack)
	if r.DrawPage() != 1 {
		t.Errorf("SelectPage(back) = %d", r.DrawPage())
	}
	r.SelectPage(3)
	if r.DrawPage() != 3 {
		t.Errorf("SelectPage(3) = %d", r.DrawPage())
	}
}

func TestCopyPage(t *testing.T) {
	setup := func() *Renderer {
		r := newTestRenderer()
		page := r.Page(0)
		for y := 0; y < Height; y++ {
			for x := 0; x < Width; x++ {
				page[y*Width+x] = byte(y % 16)
			}
		}
		r.FillPage(3, 0x0F)
		return r
	}

	t.Run("plain copy", func(t *testing.T) {
		r := setup()
		r.CopyPage(0, 3, 0)
		for _, y := range []int{0, 17, 199} {
			if got := r.PixelAt(3, 5, y); got != byte(y%16) {
				t.Errorf("row %d = %d", y, got)
			}
		}
	})

	t.Run("bit 6 masked", func(t *testing.T) {
		r := setup()
		r.CopyPage(0x40, 3, 50)
		if got := r.PixelAt(3, 0, 17); got != 17%16 {
			t.Errorf("expected unscrolled copy, row 17 = %d", got)
		}
	})

	t.Run("scroll down", func(t *testing.T) {
		r := setup()
		r.CopyPage(0x80, 3, 10)
		if got := r.PixelAt(3, 0, 5); got != 0x0F {
			t.Errorf("rows above the scroll must be untouched, got %d", got)
		}
		if got := r.PixelAt(3, 0, 10); got != 0 {
			t.Errorf("row 10 should hold source row 0, got %d", got)
		}
		if got := r.PixelAt(3, 0, 199); got != byte(189%16) {
			t.Errorf("row 199 should hold source row 189, got %d", got)
		}
	})

	t.Run("scroll up", func(t *testing.T) {
		r := setup()
		r.CopyPage(0x80, 3, -20)
		if got := r.PixelAt(3, 0, 0); got != byte(20%16) {
			t.Errorf("row 0 should hold source row 20, got %d", got)
		}
		if got := r.PixelAt(3, 0, 185); got != 0x0F {
			t.Errorf("rows below the scroll must be untouched, got %d", got)
		}
	})

	t.Run("scroll out of range", func(t *testing.T) {
		r := setup()
		r.CopyPage(0x80, 3, 200)
		if got := r.PixelAt(3, 0, 100); got != 0x0F {
			t.Errorf("copy should be skipped, got %d", got)
		}
	})

	t.Run("same page", func(t *testing.T) {
		r := setup()
		r.CopyPage(0x83, 3, 10)
		if got := r.PixelAt(3, 0, 100); got != 0x0F {
			t.Errorf("copy onto itself should be skipped, got %d", got)
		}
	})
}

func TestFlip(t *testing.T) {
	tests := []struct {
		name      string
		page      byte
		wantFront int
		wantBack  int
	}{
		{"keep front", PageFront, 2, 1},
		{"swap", PageBack, 1, 2},
		{"explicit page", 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRenderer()
			r.FillPage(byte(tt.wantFront), 9)
			f := r.Flip(tt.page)
			if r.FrontPage() != tt.wantFront || r.BackPage() != tt.wantBack {
				t.Errorf("front=%d back=%d, want %d %d", r.FrontPage(), r.BackPage(), tt.wantFront, tt.wantBack)
			}
			if f.Page != tt.wantFront || f.Pixels[0] != 9 {
				t.Errorf("frame page=%d pixel=%d", f.Page, f.Pixels[0])
			}
		})
	}
}

func TestPresent(t *testing.T) {
	r := newTestRenderer()
	r.FillPage(PageFront, 4)
	r.Flip(PageFront)

	f, ok := r.Present()
	if !ok || f.Pixels[100] != 4 {
		t.Fatalf("Present = %v, %v", f.Pixels[100], ok)
	}
	if _, ok := r.Present(); ok {
		t.Error("frame must be handed out once")
	}

	// 表示後の描画はスナップショットに影響しない
	r.FillPage(PageFront, 6)
	if f.Pixels[100] != 4 {
		t.Error("frame snapshot changed after drawing")
	}
}

func TestSelectPalette_AppliedAtFlip(t *testing.T) {
	r := newTestRenderer()
	r.SetSegments(testPalettes(32), nil, nil)

	r.SelectPalette(1)
	if r.PaletteNum() != -1 {
		t.Fatal("palette must not change before flip")
	}
	r.FillPage(PageFront, 2)

	f := r.Flip(PageFront)
	if r.PaletteNum() != 1 {
		t.Fatalf("PaletteNum = %d after flip", r.PaletteNum())
	}
	// パレット 1 の色 2 は成分 3
	if want := (Color{0x33, 0x33, 0x33}); f.Palette[2] != want {
		t.Errorf("palette[2] = %v, want %v", f.Palette[2], want)
	}
	// ページのピクセル値はパレットに依存しない
	if f.Pixels[0] != 2 {
		t.Errorf("pixel index = %d", f.Pixels[0])
	}

	r.SelectPalette(40)
	r.Flip(PageFront)
	if r.PaletteNum() != 1 {
		t.Errorf("out of range palette should be ignored, got %d", r.PaletteNum())
	}

	r.SetSegments(nil, nil, nil)
	r.SelectPalette(2)
	r.Flip(PageFront)
	if r.PaletteNum() != -1 {
		t.Errorf("palette from an empty segment should not apply, got %d", r.PaletteNum())
	}
}

func TestFrame_Conversions(t *testing.T) {
	r := newTestRenderer()
	r.SetSegments(testPalettes(1), nil, nil)
	r.SelectPalette(0)
	r.FillPage(PageFront, 0x0F)
	f := r.Flip(PageFront)

	img := f.Paletted()
	if img.Bounds().Dx() != Width || img.Bounds().Dy() != Height {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if img.ColorIndexAt(10, 10) != 0x0F {
		t.Errorf("index = %d", img.ColorIndexAt(10, 10))
	}

	buf := make([]byte, PageSize*4)
	f.RGBA(buf)
	if buf[0] != 0xFF || buf[3] != 0xFF {
		t.Errorf("rgba = %v", buf[:4])
	}
}
