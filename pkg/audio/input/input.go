// ABOUTME: Capture device interface and chunking pipeline
// ABOUTME: Turns device-rate float audio into fixed-size chunks at the upload rate
package input

import (
	"github.com/cognira/velmora-go/pkg/audio"
	"github.com/cognira/velmora-go/pkg/audio/resample"
)

// ChunkFrames is the number of frames delivered per chunk.
const ChunkFrames = 4096

// Config describes how a capture device is opened
type Config struct {
	// SampleRate is the rate chunks are delivered at
	SampleRate int
	// DeviceRate is the rate the hardware is opened at; zero means SampleRate
	DeviceRate  int
	Channels    int
	ChunkFrames int
}

// DefaultConfig returns 16 kHz mono capture in 4096-frame chunks
func DefaultConfig() Config {
	return Config{
		SampleRate:  audio.InputSampleRate,
		Channels:    1,
		ChunkFrames: ChunkFrames,
	}
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = audio.InputSampleRate
	}
	if c.DeviceRate <= 0 {
		c.DeviceRate = c.SampleRate
	}
	if c.Channels <= 0 {
		c.Channels = 1
	}
	if c.ChunkFrames <= 0 {
		c.ChunkFrames = ChunkFrames
	}
	return c
}

// Device is an acquired capture device. Audio flows only after Start.
type Device interface {
	// Start begins delivering chunks to onChunk, which runs on the audio thread
	Start(onChunk func(audio.Buffer)) error

	// Close stops capture and releases the device
	Close() error
}

// Chunker accumulates captured samples and emits fixed-size chunks
type Chunker struct {
	format      audio.Format
	chunkFrames int
	resampler   *resample.Resampler
	scratch     []float32
	pending     []float32
	onChunk     func(audio.Buffer)
}

// NewChunker creates a chunker for the given config
func NewChunker(cfg Config, onChunk func(audio.Buffer)) *Chunker {
	cfg = cfg.withDefaults()

	c := &Chunker{
		format: audio.Format{
			Codec:      audio.CodecPCM,
			SampleRate: cfg.SampleRate,
			Channels:   cfg.Channels,
			BitDepth:   16,
		},
		chunkFrames: cfg.ChunkFrames,
		onChunk:     onChunk,
	}
	if cfg.DeviceRate != cfg.SampleRate {
		c.resampler = resample.New(cfg.DeviceRate, cfg.SampleRate, cfg.Channels)
	}
	return c
}

// Write adds interleaved samples at the device rate
func (c *Chunker) Write(samples []float32) {
	if c.resampler != nil {
		need := c.resampler.MaxOutputSamples(len(samples))
		if cap(c.scratch) < need {
			c.scratch = make([]float32, need)
		}
		n := c.resampler.Resample(samples, c.scratch[:need])
		samples = c.scratch[:n]
	}

	c.pending = append(c.pending, samples...)

	chunkSamples := c.chunkFrames * c.format.Channels
	for len(c.pending) >= chunkSamples {
		chunk := make([]float32, chunkSamples)
		copy(chunk, c.pending[:chunkSamples])
		c.pending = c.pending[chunkSamples:]
		if c.onChunk != nil {
			c.onChunk(audio.Buffer{Samples: chunk, Format: c.format})
		}
	}

	if len(c.pending) == 0 {
		c.pending = c.pending[:0:0]
	}
}

// Pending returns the number of buffered samples not yet emitted
func (c *Chunker) Pending() int {
	return len(c.pending)
}
