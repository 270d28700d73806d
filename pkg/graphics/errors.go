package graphics

import (
	"errors"
	"fmt"
)

var (
	// ErrRecursionLimit はグループの入れ子が MaxShapeDepth を超えた場合のエラー
	ErrRecursionLimit = errors.New("shape recursion limit exceeded")

	// ErrTruncatedShape は図形データがセグメントの終端を越えた場合のエラー
	ErrTruncatedShape = errors.New("truncated shape data")

	// ErrBadShape は図形ヘッダや頂点数が不正な場合のエラー
	ErrBadShape = errors.New("bad shape data")

	// ErrBadBitmap はビットマップのサイズが不足している場合のエラー
	ErrBadBitmap = errors.New("bad bitmap data")
)

// RenderError は描画データの解釈に失敗した位置を保持する
type RenderError struct {
	Op     string
	Offset int
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s at 0x%04X: %v", e.Op, e.Offset, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
