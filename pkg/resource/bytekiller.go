package resource

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	errUnderflow    = errors.New("read before start of packed data")
	errBadReference = errors.New("back-reference outside output")
	errSizeMismatch = errors.New("declared size mismatch")
	errChecksum     = errors.New("checksum mismatch")
)

// MaxResourceSize bounds the unpacked size of a single resource.
const MaxResourceSize = 1 << 20

// unpacker decodes a bytekiller stream. The stream is consumed backward in
// big-endian 32-bit words and the output is produced from its last byte down.
type unpacker struct {
	src  []byte
	pos  int
	out  []byte
	dst  int
	left int
	crc  uint32
	bits uint32
	err  error
}

// Unpack decompresses a bytekiller-packed buffer whose trailer declares
// unpackedSize bytes of output.
//
// The trailer is three words at the end of the buffer: the first bit word, the
// checksum and the unpacked size. Malformed input yields an error wrapping
// ErrDecompressionFailed; Unpack never reads outside packed.
func Unpack(packed []byte, unpackedSize int) ([]byte, error) {
	u := &unpacker{src: packed, pos: len(packed) &^ 3}
	if len(packed)%4 != 0 {
		return nil, fmt.Errorf("%w: length %d is not word aligned", ErrDecompressionFailed, len(packed))
	}

	size := int(u.word())
	u.crc = u.word()
	u.bits = u.word()
	u.crc ^= u.bits
	if u.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressionFailed, u.err)
	}
	if size > MaxResourceSize {
		return nil, fmt.Errorf("%w: declared size %d too large", ErrDecompressionFailed, size)
	}
	if size != unpackedSize {
		return nil, fmt.Errorf("%w: %v (stream %d, index %d)", ErrDecompressionFailed, errSizeMismatch, size, unpackedSize)
	}

	u.out = make([]byte, size)
	u.dst = size - 1
	u.left = size
	for u.left > 0 && u.err == nil {
		u.command()
	}
	if u.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressionFailed, u.err)
	}
	if u.crc != 0 {
		return nil, fmt.Errorf("%w: %v (0x%08X)", ErrDecompressionFailed, errChecksum, u.crc)
	}
	return u.out, nil
}

func (u *unpacker) command() {
	if u.bit() == 0 {
		if u.bit() == 0 {
			u.literal(u.read(3) + 1)
		} else {
			u.copy(u.read(8), 2)
		}
		return
	}
	switch u.read(2) {
	case 3:
		u.literal(u.read(8) + 9)
	case 2:
		n := u.read(8) + 1
		u.copy(u.read(12), n)
	case 1:
		u.copy(u.read(10), 4)
	default:
		u.copy(u.read(9), 3)
	}
}

func (u *unpacker) word() uint32 {
	if u.pos < 4 {
		u.err = errUnderflow
		return 0
	}
	u.pos -= 4
	return binary.BigEndian.Uint32(u.src[u.pos:])
}

// bit returns the next bit. A word is exhausted when only its marker bit is
// left, at which point the next word is loaded with a fresh marker on top.
func (u *unpacker) bit() int {
	carry := u.bits & 1
	u.bits >>= 1
	if u.bits == 0 {
		w := u.word()
		if u.err != nil {
			return 0
		}
		u.crc ^= w
		carry = w & 1
		u.bits = 0x80000000 | w>>1
	}
	return int(carry)
}

// read returns an n-bit field, most significant bit first.
func (u *unpacker) read(n int) int {
	v := 0
	for i := 0; i < n; i++ {
		v = v<<1 | u.bit()
	}
	return v
}

func (u *unpacker) literal(n int) {
	n = min(n, u.left)
	u.left -= n
	for ; n > 0 && u.err == nil; n-- {
		u.out[u.dst] = byte(u.read(8))
		u.dst--
	}
}

func (u *unpacker) copy(offset, n int) {
	n = min(n, u.left)
	u.left -= n
	for ; n > 0; n-- {
		src := u.dst + offset
		if src >= len(u.out) {
			u.err = errBadReference
			return
		}
		u.out[u.dst] = u.out[src]
		u.dst--
	}
}
