// ABOUTME: Audio type definitions
// ABOUTME: Defines PCM formats, float buffers and the fixed live sample rates
package audio

import "fmt"

const (
	// InputSampleRate is the rate microphone audio is sent upstream at.
	InputSampleRate = 16000
	// OutputSampleRate is the rate model speech arrives at.
	OutputSampleRate = 24000

	// PCM16Scale maps [-1, 1) floats onto the signed 16-bit range.
	PCM16Scale = 32768

	CodecPCM = "pcm"
)

// Format describes an audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// InputFormat is the upstream microphone format: 16 kHz mono 16-bit PCM.
func InputFormat() Format {
	return Format{Codec: CodecPCM, SampleRate: InputSampleRate, Channels: 1, BitDepth: 16}
}

// OutputFormat is the downstream speech format: 24 kHz mono 16-bit PCM.
func OutputFormat() Format {
	return Format{Codec: CodecPCM, SampleRate: OutputSampleRate, Channels: 1, BitDepth: 16}
}

// MIMEType returns the content type used on the wire, e.g. "audio/pcm;rate=16000".
func (f Format) MIMEType() string {
	return fmt.Sprintf("audio/%s;rate=%d", f.Codec, f.SampleRate)
}

// Buffer holds interleaved float samples in [-1, 1)
type Buffer struct {
	Samples []float32
	Format  Format
}

// Frames returns the number of sample frames (samples per channel).
func (b Buffer) Frames() int {
	if b.Format.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// Duration returns the playback length in seconds.
func (b Buffer) Duration() float64 {
	if b.Format.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.Format.SampleRate)
}

// SampleToInt16 scales a float sample by 32768 and truncates toward zero.
// Out-of-range input wraps the way a typed-array store does; there is no clamping or dithering.
func SampleToInt16(sample float32) int16 {
	return int16(int32(sample * PCM16Scale))
}

// SampleFromInt16 converts a 16-bit sample to a float in [-1, 1)
func SampleFromInt16(sample int16) float32 {
	return float32(sample) / PCM16Scale
}
