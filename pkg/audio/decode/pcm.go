// ABOUTME: PCM audio decoder
// ABOUTME: Decodes 16-bit little-endian PCM into float buffers
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cognira/velmora-go/pkg/audio"
)

// ErrMisaligned is returned when the payload is not a whole number of frames.
var ErrMisaligned = errors.New("pcm payload is not frame aligned")

// PCMDecoder decodes PCM audio
type PCMDecoder struct {
	format audio.Format
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (*PCMDecoder, error) {
	if format.Codec != audio.CodecPCM {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}

	if format.Channels < 1 {
		return nil, fmt.Errorf("invalid channel count: %d", format.Channels)
	}

	return &PCMDecoder{
		format: format,
	}, nil
}

// Decode converts PCM bytes to a buffer of byteLength/2/channels frames
func (d *PCMDecoder) Decode(data []byte) (audio.Buffer, error) {
	frameSize := 2 * d.format.Channels
	if len(data)%frameSize != 0 {
		return audio.Buffer{}, fmt.Errorf("%w: %d bytes, frame size %d", ErrMisaligned, len(data), frameSize)
	}

	frames := len(data) / frameSize
	samples := make([]float32, frames*d.format.Channels)
	for i := range samples {
		samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}

	return audio.Buffer{Samples: samples, Format: d.format}, nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
