// ABOUTME: Audio decoder package for received model speech
// ABOUTME: Provides Decoder interface and the 16-bit PCM implementation
// Package decode turns received PCM payloads into playable buffers.
//
// Supports: PCM 16-bit little-endian, any channel count
//
// Samples are converted with int16/32768. A payload of n bytes carries
// n/2/channels frames; payloads that are not frame aligned are rejected.
//
// Example:
//
//	decoder, err := decode.NewPCM(audio.OutputFormat())
//	buf, err := decoder.Decode(pcm)
package decode
