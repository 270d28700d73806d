package graphics

// 特殊な塗りつぶしモード
const (
	// ColorBlend は既存ピクセルに 8 を OR する半透明表現
	ColorBlend byte = 0x10
	// ColorCopy はページ 0 の同じ位置のピクセルを写す
	ColorCopy byte = 0x11
)

// MaxVertices は 1 ポリゴンの頂点数の上限
const MaxVertices = 70

// Point はバウンディングボックス左上からの相対座標
type Point struct {
	X, Y int
}

// Polygon は拡大率適用済みの凸ポリゴン
// 頂点は右辺を上から下へ、続いて左辺を下から上へ並ぶ
type Polygon struct {
	Width, Height int
	Points        []Point
	Color         byte
	// Mirrored は中心 x を軸に左右反転して描く
	Mirrored bool
}

// DrawPolygon は (x, y) を中心にポリゴンを描画先ページへ描く
func (r *Renderer) DrawPolygon(poly Polygon, x, y int16) {
	var axes []int
	if poly.Mirrored {
		axes = []int{int(x)}
	}
	r.fillPolygon(poly, int(x), int(y), axes)
}

func (r *Renderer) fillPolygon(poly Polygon, x, y int, axes []int) {
	x1 := x - poly.Width/2
	x2 := x + poly.Width/2
	y1 := y - poly.Height/2
	y2 := y + poly.Height/2
	if len(axes) == 0 && (x1 >= Width || x2 < 0) || y1 >= Height || y2 < 0 {
		return
	}

	if len(poly.Points) == 4 && poly.Width == 0 && poly.Height <= 1 {
		r.drawPoint(x, y, poly.Color, axes)
		return
	}
	if len(poly.Points) <= 2 {
		return
	}

	vs := make([]Point, len(poly.Points))
	for i, p := range poly.Points {
		vs[i] = Point{X: x1 + p.X, Y: y1 + p.Y}
	}
	r.rasterize(vs, poly.Color, axes)
}

// fixed は 16.16 固定小数点の x 座標
type fixed uint32

func toFixed(x int) fixed {
	return fixed(uint32(x) << 16)
}

func (f fixed) int() int {
	return int(int16(f >> 16))
}

// edgeStep は辺 v1→v2 の 1 行あたりの x 増分と行数を返す
func edgeStep(v1, v2 Point) (fixed, int) {
	dy := uint16(int16(v2.Y - v1.Y))
	delta := int32(dy)
	if delta == 0 {
		delta = 1
	}
	step := (int32(v2.X-v1.X) << 16) / delta
	return fixed(uint32(step)), int(dy)
}

// rasterize は頂点列の両端から内側へ辺をたどり、行ごとに左右の辺の間を塗る
func (r *Renderer) rasterize(vs []Point, c byte, axes []int) {
	i, j := 0, len(vs)-1
	cpt2 := toFixed(vs[i].X)
	cpt1 := toFixed(vs[j].X)
	row := min(vs[i].Y, vs[j].Y)
	i++
	j--

	for count := len(vs); count > 2; count -= 2 {
		step1, _ := edgeStep(vs[j+1], vs[j])
		step2, h := edgeStep(vs[i-1], vs[i])
		i++
		j--

		cpt1 = cpt1&0xFFFF0000 | 0x7FFF
		cpt2 = cpt2&0xFFFF0000 | 0x8000

		if h == 0 {
			cpt1 += step1
			cpt2 += step2
			continue
		}
		for ; h > 0; h-- {
			if row >= 0 {
				r.span(row, cpt1.int(), cpt2.int(), c, axes)
			}
			cpt1 += step1
			cpt2 += step2
			row++
			if row >= Height {
				return
			}
		}
	}
}

// mirror は区間 [lo, hi] を各軸について内側から順に反転する
func mirror(lo, hi int, axes []int) (int, int) {
	for k := len(axes) - 1; k >= 0; k-- {
		a := axes[k]
		lo, hi = 2*a-hi, 2*a-lo
	}
	return lo, hi
}

// span は 1 行分の水平線を塗りつぶしモードに従って描く（クリップは無言）
func (r *Renderer) span(row, xa, xb int, c byte, axes []int) {
	// 左右の辺が入れ替わった行も並べ替える前に判定する
	xa, xb = mirror(xa, xb, axes)
	if xa >= Width || xb < 0 {
		return
	}
	xa = max(xa, 0)
	xb = min(xb, Width-1)
	lo, hi := min(xa, xb), max(xa, xb)

	line := r.pages[r.draw][row*Width+lo : row*Width+hi+1]
	switch c {
	case ColorBlend:
		for k := range line {
			line[k] |= 8
		}
	case ColorCopy:
		if r.draw != 0 {
			copy(line, r.pages[0][row*Width+lo:row*Width+hi+1])
		}
	default:
		for k := range line {
			line[k] = c
		}
	}
}

func (r *Renderer) drawPoint(x, y int, c byte, axes []int) {
	x, _ = mirror(x, x, axes)
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	off := y*Width + x
	page := &r.pages[r.draw]
	switch c {
	case ColorBlend:
		page[off] |= 8
	case ColorCopy:
		page[off] = r.pages[0][off]
	default:
		page[off] = c
	}
}
