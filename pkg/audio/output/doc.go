// ABOUTME: Audio output package for scheduled playback
// ABOUTME: Provides the Context/Source interfaces, a software mixer and the oto device
// Package output provides clocked audio playback.
//
// A Context is an open playback stream whose CurrentTime advances as audio
// is rendered. Decoded buffers become Sources that are scheduled at an
// absolute context time, so consecutive chunks can be queued back to back
// without gaps or overlaps.
//
// Mixer implements Context in software and is an io.Reader of 16-bit PCM,
// which OtoDevice feeds to the system output.
//
// Example:
//
//	dev, err := output.NewOtoDevice(24000, 1, logger)
//	ctx, err := dev.Open()
//	src := ctx.NewSource(buf)
//	src.OnEnded(func() { ... })
//	src.Start(ctx.CurrentTime())
package output
