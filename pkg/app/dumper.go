package app

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"

	"github.com/zurustar/outerworld/pkg/graphics"
)

// frameDumper は表示されたフレームを連番の BMP ファイルとして書き出す表示シンク
type frameDumper struct {
	dir   string
	count int
}

// newFrameDumper 出力先ディレクトリを作成して frameDumper を返す
func newFrameDumper(dir string) (*frameDumper, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create frame directory: %w", err)
	}
	return &frameDumper{dir: dir}, nil
}

// Present フレームを frame_NNNNN.bmp として保存
func (d *frameDumper) Present(frame *graphics.Frame) error {
	name := filepath.Join(d.dir, fmt.Sprintf("frame_%05d.bmp", d.count))
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := bmp.Encode(f, frame.Paletted()); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	d.count++
	return nil
}

// Count 書き出したフレーム数を返す
func (d *frameDumper) Count() int {
	return d.count
}
