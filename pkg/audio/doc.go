// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides the PCM types shared by capture, playback and the wire codecs.
//
// This package defines core types used throughout velmora:
//   - Format: Describes an audio stream format (codec, sample rate, channels, bit depth)
//   - Buffer: Interleaved float32 samples with their format
//
// Live sessions use two fixed formats. Microphone audio goes upstream as
// 16 kHz mono 16-bit PCM (InputFormat) and model speech comes back as
// 24 kHz mono 16-bit PCM (OutputFormat).
//
// Example:
//
//	buf := audio.Buffer{Samples: samples, Format: audio.OutputFormat()}
//	fmt.Println(buf.Frames(), buf.Duration())
//
//	// float -> int16 uses x*32768 with truncation
//	s16 := audio.SampleToInt16(0.5)
package audio
