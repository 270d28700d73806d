package resource

import "encoding/binary"

// bitWriter は bytekiller ストリームをテスト用に組み立てる
type bitWriter struct {
	bits []uint32
}

// put は n ビットのフィールドを MSB から書き込む
func (w *bitWriter) put(v, n int) *bitWriter {
	for i := n - 1; i >= 0; i-- {
		w.bits = append(w.bits, uint32(v>>i)&1)
	}
	return w
}

// literal は出力の末尾側から順にリテラルを並べる (b[0] が最後のバイトになる)
func (w *bitWriter) literal(b ...byte) *bitWriter {
	for len(b) > 0 {
		n := len(b)
		switch {
		case n >= 9:
			n = min(n, 264)
			w.put(0b111, 3).put(n-9, 8)
		default:
			n = min(n, 8)
			w.put(0b00, 2).put(n-1, 3)
		}
		for _, c := range b[:n] {
			w.put(int(c), 8)
		}
		b = b[n:]
	}
	return w
}

func (w *bitWriter) copy2(offset int) *bitWriter {
	return w.put(0b01, 2).put(offset, 8)
}

func (w *bitWriter) copy3(offset int) *bitWriter {
	return w.put(0b100, 3).put(offset, 9)
}

func (w *bitWriter) copy4(offset int) *bitWriter {
	return w.put(0b101, 3).put(offset, 10)
}

func (w *bitWriter) copyN(n, offset int) *bitWriter {
	return w.put(0b110, 3).put(n-1, 8).put(offset, 12)
}

// pack は書き込んだビット列を単語に詰め、末尾にトレーラを付ける
func (w *bitWriter) pack(size int) []byte {
	var words []uint32
	for i := 0; i < len(w.bits); i += 32 {
		var word uint32
		for j := 0; j < 32 && i+j < len(w.bits); j++ {
			word |= w.bits[i+j] << j
		}
		words = append(words, word)
	}

	// 先頭のビット単語は番兵ビットのみ
	const first = 1
	crc := uint32(first)
	for _, word := range words {
		crc ^= word
	}

	buf := make([]byte, 0, 4*len(words)+12)
	for i := len(words) - 1; i >= 0; i-- {
		buf = binary.BigEndian.AppendUint32(buf, words[i])
	}
	buf = binary.BigEndian.AppendUint32(buf, first)
	buf = binary.BigEndian.AppendUint32(buf, crc)
	buf = binary.BigEndian.AppendUint32(buf, uint32(size))
	return buf
}

// packLiterals は data をリテラルだけで圧縮する
func packLiterals(data []byte) []byte {
	rev := make([]byte, len(data))
	for i, c := range data {
		rev[len(data)-1-i] = c
	}
	return new(bitWriter).literal(rev...).pack(len(data))
}
