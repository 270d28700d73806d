package graphics

import "fmt"

// MaxShapeDepth はグループの入れ子の上限
const MaxShapeDepth = 32

// MaxShapeNodes は 1 回の DrawShape で辿る図形の総数の上限
// 子を共有するグループは入れ子が浅くても指数的に展開されうる
const MaxShapeNodes = 4096

// DefaultZoom は等倍の拡大率 (64 = 1.0)
const DefaultZoom = 0x40

// 図形ヘッダ
const (
	shapePolygon       = 0xC0
	shapeGroup         = 2
	shapeMirroredGroup = 3
)

// shapeReader はセグメント内のオフセットから図形データを読む
type shapeReader struct {
	seg   []byte
	pos   int
	err   error
	nodes *int // DrawShape 全体で残っている図形数
}

func (sr *shapeReader) u8() int {
	if sr.err != nil {
		return 0
	}
	if sr.pos < 0 || sr.pos >= len(sr.seg) {
		sr.err = ErrTruncatedShape
		return 0
	}
	b := sr.seg[sr.pos]
	sr.pos++
	return int(b)
}

func (sr *shapeReader) u16() int {
	hi := sr.u8()
	return hi<<8 | sr.u8()
}

func (sr *shapeReader) dim(zoom int) int {
	return sr.u8() * zoom / 64
}

// DrawShape はセグメントの offset にある図形を (x, y) に拡大率 zoom で描く
// 図形はポリゴンか、子図形への相対参照を並べたグループのどちらか
func (r *Renderer) DrawShape(bank Bank, offset uint16, x, y int16, zoom uint16) error {
	seg := r.segment(bank)
	if seg == nil {
		return &RenderError{Op: "draw shape", Offset: int(offset), Err: fmt.Errorf("%w: bank %d not loaded", ErrBadShape, bank)}
	}
	nodes := MaxShapeNodes
	sr := &shapeReader{seg: seg, pos: int(offset), nodes: &nodes}
	if err := r.drawShape(sr, int(x), int(y), int(zoom), 0xFF, 0, nil); err != nil {
		return &RenderError{Op: "draw shape", Offset: int(offset), Err: err}
	}
	return nil
}

func (r *Renderer) segment(bank Bank) []byte {
	switch bank {
	case Bank1:
		return r.polySeg[0]
	case Bank2:
		return r.polySeg[1]
	default:
		return nil
	}
}

func (r *Renderer) drawShape(sr *shapeReader, x, y, zoom int, c byte, depth int, axes []int) error {
	if *sr.nodes <= 0 {
		return fmt.Errorf("%w: more than %d shapes", ErrRecursionLimit, MaxShapeNodes)
	}
	*sr.nodes--

	start := sr.pos
	h := sr.u8()
	if sr.err != nil {
		return sr.err
	}

	if h >= shapePolygon {
		if c&0x80 != 0 {
			c = byte(h & 0x3F)
		}
		poly, err := readPolygon(sr, zoom, c)
		if err != nil {
			return err
		}
		r.fillPolygon(poly, x, y, axes)
		return nil
	}

	switch h & 0x3F {
	case shapeGroup:
		return r.drawGroup(sr, x, y, zoom, depth, axes)
	case shapeMirroredGroup:
		return r.drawGroup(sr, x, y, zoom, depth, append(axes[:len(axes):len(axes)], x))
	default:
		return fmt.Errorf("%w: header 0x%02X at 0x%04X", ErrBadShape, h, start)
	}
}

func readPolygon(sr *shapeReader, zoom int, c byte) (Polygon, error) {
	poly := Polygon{Color: c}
	poly.Width = sr.dim(zoom)
	poly.Height = sr.dim(zoom)
	n := sr.u8()
	if sr.err != nil {
		return poly, sr.err
	}
	if n&1 != 0 || n > MaxVertices {
		return poly, fmt.Errorf("%w: %d vertices", ErrBadShape, n)
	}
	poly.Points = make([]Point, n)
	for i := range poly.Points {
		poly.Points[i].X = sr.dim(zoom)
		poly.Points[i].Y = sr.dim(zoom)
	}
	return poly, sr.err
}

// drawGroup は子図形を順に描く。子のオフセットは 2 バイト単位で、
// bit15 が立っている場合は色指定の 2 バイトが続く
func (r *Renderer) drawGroup(sr *shapeReader, x, y, zoom, depth int, axes []int) error {
	if depth >= MaxShapeDepth {
		return ErrRecursionLimit
	}
	x -= sr.dim(zoom)
	y -= sr.dim(zoom)
	n := sr.u8()
	if sr.err != nil {
		return sr.err
	}

	for k := 0; k <= n; k++ {
		off := sr.u16()
		cx := x + sr.dim(zoom)
		cy := y + sr.dim(zoom)
		c := byte(0xFF)
		if off&0x8000 != 0 {
			c = byte(sr.u8() & 0x7F)
			sr.u8()
		}
		if sr.err != nil {
			return sr.err
		}

		child := &shapeReader{seg: sr.seg, pos: (off << 1) & 0xFFFF, nodes: sr.nodes}
		if err := r.drawShape(child, cx, cy, zoom, c, depth+1, axes); err != nil {
			return err
		}
	}
	return nil
}
