// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts audio between different sample rates
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation on float32 samples and keeps state across
// calls, so a stream can be resampled chunk by chunk.
//
// Example:
//
//	r := resample.New(48000, 16000, 1)
//	out := make([]float32, r.MaxOutputSamples(len(in)))
//	n := r.Resample(in, out)
package resample
