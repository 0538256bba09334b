// ABOUTME: Audio input package for microphone capture
// ABOUTME: Provides the Device interface, the chunker and the malgo implementation
// Package input captures microphone audio in fixed-size chunks.
//
// Opening a device acquires it; Start wires the processing pipeline and
// begins delivering chunks of ChunkFrames mono frames at the configured
// rate. When the hardware cannot run at 16 kHz, set DeviceRate and the
// Chunker resamples before chunking.
//
// Example:
//
//	dev, err := input.OpenMalgo(input.DefaultConfig(), logger)
//	err = dev.Start(func(chunk audio.Buffer) { ... })
//	defer dev.Close()
package input
