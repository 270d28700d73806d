package resource

import (
	"bytes"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestUnpack_Scripts(t *testing.T) {
	tests := []struct {
		name   string
		packed []byte
		want   string
	}{
		{
			name:   "literal only",
			packed: packLiterals([]byte("hello")),
			want:   "hello",
		},
		{
			name:   "long literal run",
			packed: packLiterals([]byte("0123456789abcdefghij")),
			want:   "0123456789abcdefghij",
		},
		{
			name:   "copy4 repeats a pair",
			packed: new(bitWriter).literal('B', 'A').copy4(2).pack(6),
			want:   "ABABAB",
		},
		{
			name:   "copy3 run of one byte",
			packed: new(bitWriter).literal('y', 'x').copy3(1).pack(5),
			want:   "xxxxy",
		},
		{
			name:   "copy2 then literal",
			packed: new(bitWriter).literal('d', 'c').copy2(2).literal('z').pack(5),
			want:   "zcdcd",
		},
		{
			name:   "copyN long repeat",
			packed: new(bitWriter).literal('c', 'b', 'a').copyN(9, 3).pack(12),
			want:   "abcabcabcabc",
		},
		{
			name:   "copy clamped to remaining size",
			packed: new(bitWriter).literal('q').copyN(10, 1).pack(4),
			want:   "qqqq",
		},
		{
			name:   "empty",
			packed: new(bitWriter).pack(0),
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unpack(tt.packed, len(tt.want))
			if err != nil {
				t.Fatalf("Unpack failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Unpack = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnpack_Errors(t *testing.T) {
	valid := packLiterals([]byte("abcdefghijklmnop"))

	badCRC := bytes.Clone(valid)
	badCRC[len(badCRC)-5] ^= 0x01

	tests := []struct {
		name   string
		packed []byte
		size   int
	}{
		{"empty buffer", nil, 0},
		{"trailer only partly present", valid[len(valid)-8:], 16},
		{"unaligned", valid[1:], 16},
		{"first word dropped", valid[4:], 16},
		{"size mismatch", valid, 17},
		{"checksum", badCRC, 16},
		{"reference beyond output", new(bitWriter).copy2(8).pack(4), 4},
		{"huge declared size", new(bitWriter).pack(MaxResourceSize + 1), MaxResourceSize + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unpack(tt.packed, tt.size)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrDecompressionFailed) {
				t.Errorf("expected ErrDecompressionFailed, got %v", err)
			}
		})
	}
}

// 任意のバイト列はリテラル圧縮から元通りに復元される
func TestProperty_UnpackRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("literal streams round trip", prop.ForAll(
		func(data []uint8) bool {
			got, err := Unpack(packLiterals(data), len(data))
			return err == nil && bytes.Equal(got, data)
		},
		gen.SliceOf(gen.UInt8()),
	))

	// 末尾を欠いた入力は必ずエラーになり、パニックしない
	properties.Property("truncated streams fail", prop.ForAll(
		func(data []uint8, cut int) bool {
			packed := packLiterals(data)
			cut = cut % (len(packed)/4 - 1)
			_, err := Unpack(packed[4*(cut+1):], len(data))
			return errors.Is(err, ErrDecompressionFailed)
		},
		gen.SliceOfN(12, gen.UInt8()),
		gen.IntRange(0, 100),
	))

	properties.Property("arbitrary input never panics", prop.ForAll(
		func(data []uint8, size int) bool {
			out, err := Unpack(data, size)
			return err != nil || len(out) == size
		},
		gen.SliceOf(gen.UInt8()),
		gen.IntRange(0, 64),
	))

	properties.TestingRun(t)
}
