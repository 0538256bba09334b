// ABOUTME: Audio output interface definition
// ABOUTME: Playback contexts expose a device clock and schedulable sources
package output

import "github.com/cognira/velmora-go/pkg/audio"

// Context is an open playback stream with its own clock.
type Context interface {
	// CurrentTime returns seconds of audio rendered since the context opened
	CurrentTime() float64

	// NewSource wraps a decoded buffer in an unscheduled source
	NewSource(buf audio.Buffer) Source

	// SetVolume sets the playback volume (0-100)
	SetVolume(volume int, muted bool)

	// Close stops every source and releases the stream
	Close() error
}

// Source is one buffer scheduled on a Context.
type Source interface {
	// Start schedules playback at the given context time. Times in the past start immediately.
	Start(at float64)

	// Stop silences the source. The ended callback is not invoked.
	Stop()

	// Duration returns the buffer length in seconds
	Duration() float64

	// OnEnded registers a callback run once when playback reaches the end of the buffer
	OnEnded(fn func())
}
