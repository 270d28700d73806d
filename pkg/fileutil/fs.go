package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrOutOfRange は読み出し範囲がファイルの終端を越えた場合のエラー
var ErrOutOfRange = errors.New("range exceeds file size")

// FileSystem はデータディレクトリへの読み出し専用アクセス
// 名前の大文字小文字は区別しない
type FileSystem interface {
	// ReadFile はファイル全体を読み込む
	ReadFile(name string) ([]byte, error)
	// ReadRange はファイルの offset から size バイトを読み込む
	ReadRange(name string, offset int64, size int) ([]byte, error)
	// BasePath はベースパスを返す
	BasePath() string
}

// RealFS はディスク上のディレクトリを読む
type RealFS struct {
	basePath string
}

// NewRealFS は basePath を起点とする FileSystem を作成する
func NewRealFS(basePath string) *RealFS {
	return &RealFS{basePath: basePath}
}

func (r *RealFS) ReadFile(name string) ([]byte, error) {
	p, err := r.findFile(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (r *RealFS) ReadRange(name string, offset int64, size int) ([]byte, error) {
	p, err := r.findFile(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readRange(f, name, offset, size)
}

func (r *RealFS) BasePath() string {
	return r.basePath
}

func (r *RealFS) findFile(name string) (string, error) {
	// 先頭の "/" や "\" を除去
	p := strings.TrimLeft(name, "/\\")
	if r.basePath != "" {
		p = filepath.Join(r.basePath, p)
	}
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return FindFileCaseInsensitive(filepath.Dir(p), filepath.Base(p))
}

// EmbedFS は任意の fs.FS（embed.FS や fstest.MapFS）を読む
type EmbedFS struct {
	fsys     fs.FS
	basePath string
}

// NewEmbedFS は fsys の basePath 以下を起点とする FileSystem を作成する
func NewEmbedFS(fsys fs.FS, basePath string) *EmbedFS {
	return &EmbedFS{fsys: fsys, basePath: basePath}
}

func (e *EmbedFS) ReadFile(name string) ([]byte, error) {
	p, err := e.findFile(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(e.fsys, p)
}

func (e *EmbedFS) ReadRange(name string, offset int64, size int) ([]byte, error) {
	p, err := e.findFile(name)
	if err != nil {
		return nil, err
	}
	f, err := e.fsys.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readRange(f, name, offset, size)
}

func (e *EmbedFS) BasePath() string {
	return e.basePath
}

func (e *EmbedFS) findFile(name string) (string, error) {
	// fs.FS では "/" を使用
	p := strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/")
	if e.basePath != "" {
		p = path.Join(e.basePath, p)
	} else {
		p = path.Clean(p)
	}
	if f, err := e.fsys.Open(p); err == nil {
		f.Close()
		return p, nil
	}
	return FindFileCaseInsensitiveFS(e.fsys, path.Dir(p), path.Base(p))
}

// readRange は開いたファイルから範囲を読む
// io.ReaderAt を持たないファイルは先頭から読み飛ばす
func readRange(f fs.File, name string, offset int64, size int) ([]byte, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if offset < 0 || size < 0 || offset+int64(size) > info.Size() {
		return nil, fmt.Errorf("%s: %d+%d of %d bytes: %w", name, offset, size, info.Size(), ErrOutOfRange)
	}

	buf := make([]byte, size)
	if ra, ok := f.(io.ReaderAt); ok {
		// 終端まで読んだ場合は n == size でも io.EOF が返りうる
		if n, err := ra.ReadAt(buf, offset); n < size {
			return nil, err
		}
		return buf, nil
	}
	if _, err := io.CopyN(io.Discard, f, offset); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
