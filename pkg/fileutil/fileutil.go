// Package fileutil はゲームデータのディレクトリを大文字小文字を区別せずに読む
//
// データファイルは DOS や Amiga のディスクからコピーされるため、同じファイルが
// "BANK01"、"bank01"、"Bank01" のいずれの名前でも存在しうる。
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// matchEntry は entries の中から name と大文字小文字を無視して一致するファイル名を返す
func matchEntry(entries []fs.DirEntry, name string) (string, bool) {
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(entry.Name(), name) {
			return entry.Name(), true
		}
	}
	return "", false
}

func notFound(dir, filename string) error {
	return fmt.Errorf("file not found: %s (searched in %s): %w", filename, dir, fs.ErrNotExist)
}

// FindFileCaseInsensitive はディスク上の dir から filename を探してパスを返す
//
//	path, err := FindFileCaseInsensitive("/path/to/data", "MEMLIST.BIN")
//	// "memlist.bin" や "Memlist.bin" も見つかる
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	name, ok := matchEntry(entries, filename)
	if !ok {
		return "", notFound(dir, filename)
	}
	return filepath.Join(dir, name), nil
}

// FindFileCaseInsensitiveFS は fs.FS 版の FindFileCaseInsensitive
// 返すパスの区切りは "/"
func FindFileCaseInsensitiveFS(fsys fs.FS, dir, filename string) (string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	name, ok := matchEntry(entries, filename)
	if !ok {
		return "", notFound(dir, filename)
	}
	// path.Join(".", name) は "name" になるので fs.ValidPath を満たす
	return path.Join(dir, name), nil
}
