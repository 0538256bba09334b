// ABOUTME: Audio encoder package for encoding captured audio for upload
// ABOUTME: Provides Encoder interface and the 16-bit PCM implementation
// Package encode provides upstream audio encoders.
//
// Supports: PCM 16-bit little-endian
//
// Encoders accept float32 samples in [-1, 1). Each sample is scaled by 32768
// and truncated; nothing is clamped or dithered.
//
// Example:
//
//	encoder, err := encode.NewPCM(audio.InputFormat())
//	frame := encoder.Frame(chunk.Samples)
//	// frame.MIMEType == "audio/pcm;rate=16000"
package encode
