package graphics

import "fmt"

const (
	planeSize  = Width * Height / 8
	BitmapSize = planeSize * 4
)

// DrawBitmap は 4 プレーンのビットマップをページ 0 に展開する
// プレーン 3 が最上位ビット、プレーン 0 が最下位ビット
func (r *Renderer) DrawBitmap(data []byte) error {
	if len(data) < BitmapSize {
		return &RenderError{Op: "draw bitmap", Offset: 0, Err: fmt.Errorf("%w: %d bytes, want %d", ErrBadBitmap, len(data), BitmapSize)}
	}

	page := &r.pages[0]
	di := 0
	for n := 0; n < planeSize; n++ {
		p := [4]byte{
			data[planeSize*3+n],
			data[planeSize*2+n],
			data[planeSize*1+n],
			data[n],
		}
		// 1 バイトのプレーン群から 8 ピクセルを取り出す
		for k := 0; k < 4; k++ {
			var acc byte
			for i := 0; i < 8; i++ {
				acc = acc<<1 | p[i&3]>>7
				p[i&3] <<= 1
			}
			page[di] = acc >> 4
			page[di+1] = acc & 0x0F
			di += 2
		}
	}
	return nil
}
