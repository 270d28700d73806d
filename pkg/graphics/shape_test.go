package graphics

import (
	"bytes"
	"errors"
	"testing"
)

func polyBytes(c byte, w, h int, pts ...Point) []byte {
	b := []byte{0xC0 | c, byte(w), byte(h), byte(len(pts))}
	for _, p := range pts {
		b = append(b, byte(p.X), byte(p.Y))
	}
	return b
}

func rectBytes(c byte, w, h int) []byte {
	return polyBytes(c, w, h, Point{w, 0}, Point{w, h}, Point{0, h}, Point{0, 0})
}

// groupBytes は子を 1 つ持つグループを作る。子は offset 8 に置く
func groupBytes(header byte, dx, dy, cx, cy int, color int) []byte {
	b := []byte{header, byte(dx), byte(dy), 0}
	if color >= 0 {
		b = append(b, 0x80, 0x04+2, byte(cx), byte(cy), byte(color), 0)
		// 子の offset は 12 になる
		return append(b, 0, 0)
	}
	return append(b, 0x00, 0x04, byte(cx), byte(cy))
}

func TestDrawShape_Polygon(t *testing.T) {
	tests := []struct {
		name string
		zoom uint16
		want int
	}{
		{"unit zoom", DefaultZoom, 11 * 4},
		{"double zoom", DefaultZoom * 2, 21 * 8},
		{"half zoom", DefaultZoom / 2, 6 * 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRenderer()
			r.SetSegments(nil, rectBytes(5, 10, 4), nil)
			r.SelectPage(0)
			if err := r.DrawShape(Bank1, 0, 100, 50, tt.zoom); err != nil {
				t.Fatalf("DrawShape failed: %v", err)
			}
			if n := countPixels(r.Page(0), 5); n != tt.want {
				t.Errorf("filled %d pixels, want %d", n, tt.want)
			}
		})
	}
}

func TestDrawShape_Group(t *testing.T) {
	seg := append(groupBytes(0x02, 10, 5, 12, 7, -1), rectBytes(5, 10, 4)...)
	r := newTestRenderer()
	r.SetSegments(nil, nil, seg)
	r.SelectPage(0)
	if err := r.DrawShape(Bank2, 0, 100, 50, DefaultZoom); err != nil {
		t.Fatalf("DrawShape failed: %v", err)
	}

	want := newTestRenderer()
	want.SelectPage(0)
	want.DrawPolygon(rect(10, 4, 5), 102, 52)

	if !bytes.Equal(r.Page(0), want.Page(0)) {
		t.Error("group child should be drawn at the group origin plus its offset")
	}
}

func TestDrawShape_GroupColor(t *testing.T) {
	seg := append(groupBytes(0x02, 0, 0, 50, 50, 9), rectBytes(5, 4, 4)...)
	r := newTestRenderer()
	r.SetSegments(nil, seg, nil)
	r.SelectPage(0)
	if err := r.DrawShape(Bank1, 0, 0, 0, DefaultZoom); err != nil {
		t.Fatalf("DrawShape failed: %v", err)
	}
	if r.PixelAt(0, 50, 50) != 9 {
		t.Errorf("group color should override polygon color, got %d", r.PixelAt(0, 50, 50))
	}
}

func TestDrawShape_MirroredGroup(t *testing.T) {
	child := polyBytes(3, 12, 8, Point{4, 0}, Point{12, 8}, Point{0, 8}, Point{0, 0})

	plain := newTestRenderer()
	plain.SetSegments(nil, append(groupBytes(0x02, 0, 0, 20, 10, -1), child...), nil)
	plain.SelectPage(0)
	if err := plain.DrawShape(Bank1, 0, 150, 100, DefaultZoom); err != nil {
		t.Fatal(err)
	}

	mirrored := newTestRenderer()
	mirrored.SetSegments(nil, append(groupBytes(0x03, 0, 0, 20, 10, -1), child...), nil)
	mirrored.SelectPage(0)
	if err := mirrored.DrawShape(Bank1, 0, 150, 100, DefaultZoom); err != nil {
		t.Fatal(err)
	}

	a, b := plain.Page(0), mirrored.Page(0)
	if countPixels(a, 3) == 0 || countPixels(a, 3) != countPixels(b, 3) {
		t.Fatalf("pixel counts differ: %d vs %d", countPixels(a, 3), countPixels(b, 3))
	}
	for row := 0; row < Height; row++ {
		for q := 0; q < Width; q++ {
			p := 300 - q
			if p < 0 || p >= Width {
				continue
			}
			if b[row*Width+q] != a[row*Width+p] {
				t.Fatalf("row %d: mirrored[%d] != plain[%d]", row, q, p)
			}
		}
	}
}

func TestDrawShape_Errors(t *testing.T) {
	selfRef := []byte{0x02, 0, 0, 0, 0x00, 0x00, 0, 0}

	// 各グループの 2 つの子が同じ次のグループを指す。入れ子は浅いが 2^30 個の葉に展開される
	var shared []byte
	for i := 0; i < MaxShapeDepth-2; i++ {
		next := (i + 1) * 12 / 2
		shared = append(shared, 0x02, 0, 0, 1,
			byte(next>>8), byte(next), 0, 0,
			byte(next>>8), byte(next), 0, 0)
	}
	shared = append(shared, rectBytes(6, 2, 2)...)

	tests := []struct {
		name   string
		seg    []byte
		offset uint16
		want   error
	}{
		{"self referencing group", selfRef, 0, ErrRecursionLimit},
		{"shared children", shared, 0, ErrRecursionLimit},
		{"truncated polygon", []byte{0xC0, 10}, 0, ErrTruncatedShape},
		{"truncated vertices", []byte{0xC0, 10, 10, 4, 1, 2}, 0, ErrTruncatedShape},
		{"bad header", []byte{0x05}, 0, ErrBadShape},
		{"odd vertex count", polyBytes(1, 4, 4, Point{1, 1}, Point{2, 2}, Point{3, 3}), 0, ErrBadShape},
		{"offset past end", rectBytes(1, 4, 4), 100, ErrTruncatedShape},
		{"child past end", []byte{0x02, 0, 0, 0, 0x10, 0x00, 0, 0}, 0, ErrTruncatedShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRenderer()
			r.SetSegments(nil, tt.seg, nil)
			err := r.DrawShape(Bank1, tt.offset, 100, 100, DefaultZoom)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var rerr *RenderError
			if !errors.As(err, &rerr) || rerr.Offset != int(tt.offset) {
				t.Errorf("expected RenderError at offset %d, got %v", tt.offset, err)
			}
		})
	}

	r := newTestRenderer()
	if err := r.DrawShape(Bank2, 0, 0, 0, DefaultZoom); !errors.Is(err, ErrBadShape) {
		t.Errorf("missing bank: expected ErrBadShape, got %v", err)
	}
}

func TestDrawShape_NestedWithinLimit(t *testing.T) {
	// 8 バイトごとにグループを連ね、最後にポリゴンを置く
	var seg []byte
	const depth = MaxShapeDepth - 1
	for i := 0; i < depth; i++ {
		next := (i + 1) * 8 / 2
		seg = append(seg, 0x02, 0, 0, 0, byte(next>>8), byte(next), 0, 0)
	}
	seg = append(seg, rectBytes(6, 2, 2)...)

	r := newTestRenderer()
	r.SetSegments(nil, seg, nil)
	r.SelectPage(0)
	if err := r.DrawShape(Bank1, 0, 10, 10, DefaultZoom); err != nil {
		t.Fatalf("DrawShape failed: %v", err)
	}
	if r.PixelAt(0, 10, 10) != 6 {
		t.Error("innermost polygon not drawn")
	}
}
