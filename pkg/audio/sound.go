package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrInvalidSound is returned when a sound resource is too short for its header.
var ErrInvalidSound = errors.New("invalid sound resource")

const soundHeaderSize = 8

// Sample is a decoded sound resource.
// The first Length samples play once; when LoopLength is non-zero the
// following LoopLength samples then repeat until the channel is stopped.
type Sample struct {
	PCM        []int8
	Length     int
	LoopLength int
}

// Looping reports whether the sample repeats.
func (s Sample) Looping() bool {
	return s.LoopLength > 0
}

// ParseSound decodes a sound resource: a big-endian length and loop length
// in 16-bit words, 4 unused bytes, then signed 8-bit PCM. Lengths that run
// past the data are clamped.
func ParseSound(data []byte) (Sample, error) {
	if len(data) < soundHeaderSize {
		return Sample{}, fmt.Errorf("%w: %d bytes", ErrInvalidSound, len(data))
	}
	length := int(binary.BigEndian.Uint16(data)) * 2
	loop := int(binary.BigEndian.Uint16(data[2:])) * 2

	body := data[soundHeaderSize:]
	pcm := make([]int8, len(body))
	for i, b := range body {
		pcm[i] = int8(b)
	}

	length = min(length, len(pcm))
	loop = min(loop, len(pcm)-length)
	return Sample{PCM: pcm, Length: length, LoopLength: loop}, nil
}
