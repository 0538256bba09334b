// ABOUTME: PCM audio encoder
// ABOUTME: Encodes float samples to 16-bit little-endian PCM frames
package encode

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/cognira/velmora-go/pkg/audio"
)

// Frame is one chunk of encoded audio ready to send upstream.
// Data marshals to JSON as a base64 string.
type Frame struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mimeType"`
}

// Base64 returns the payload in its wire encoding.
func (f Frame) Base64() string {
	return base64.StdEncoding.EncodeToString(f.Data)
}

// PCMEncoder encodes PCM audio
type PCMEncoder struct {
	format audio.Format
}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (*PCMEncoder, error) {
	if format.Codec != audio.CodecPCM {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}

	if format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}

	if format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", format.SampleRate)
	}

	return &PCMEncoder{
		format: format,
	}, nil
}

// Encode converts float samples to 16-bit little-endian PCM bytes
func (e *PCMEncoder) Encode(samples []float32) ([]byte, error) {
	output := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(audio.SampleToInt16(sample)))
	}
	return output, nil
}

// Frame encodes samples and labels them with the encoder's MIME type.
func (e *PCMEncoder) Frame(samples []float32) Frame {
	data, _ := e.Encode(samples)
	return Frame{Data: data, MIMEType: e.format.MIMEType()}
}

// Format returns the format the encoder produces
func (e *PCMEncoder) Format() audio.Format {
	return e.format
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
