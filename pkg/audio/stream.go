package audio

import (
	"encoding/binary"
	"io"
	"sync"
)

const (
	fracBits = 16
	// bytesPerFrame is one 16-bit little-endian stereo frame.
	bytesPerFrame = 4
)

// sampleStream resamples an 8-bit mono sample to SampleRate 16-bit stereo.
// It implements io.Reader for audio.Context.NewPlayer and returns io.EOF
// once a non-looping sample has played out.
type sampleStream struct {
	sample Sample
	inc    uint64
	pos    uint64
	done   bool
	mu     sync.Mutex
}

func newSampleStream(s Sample, frequency int) *sampleStream {
	return &sampleStream{
		sample: s,
		inc:    uint64(frequency) << fracBits / SampleRate,
	}
}

func (s *sampleStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return 0, io.EOF
	}

	n := 0
	for ; n+bytesPerFrame <= len(p); n += bytesPerFrame {
		idx, ok := s.index()
		if !ok {
			s.done = true
			break
		}
		v := uint16(int16(s.sample.PCM[idx]) << 8)
		binary.LittleEndian.PutUint16(p[n:], v)
		binary.LittleEndian.PutUint16(p[n+2:], v)
		s.pos += s.inc
	}
	if s.done && n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// index maps the current position to a PCM index, wrapping into the loop
// section when the sample repeats.
func (s *sampleStream) index() (int, bool) {
	i := int(s.pos >> fracBits)
	if i < s.sample.Length {
		return i, true
	}
	if !s.sample.Looping() {
		return 0, false
	}
	loopStart := s.sample.Length
	i = loopStart + (i-loopStart)%s.sample.LoopLength
	return i, true
}

// stop makes every later Read report io.EOF.
func (s *sampleStream) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
}
