// ABOUTME: Error values and user-facing messages for live sessions
// ABOUTME: Callers match failures with errors.Is
package live

import "errors"

var (
	// ErrDeviceUnavailable means a capture or playback device could not be acquired
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrTransport means the remote session failed to open or broke
	ErrTransport = errors.New("live transport error")

	// ErrAlreadyStarted is returned by Start while a session is connecting or connected
	ErrAlreadyStarted = errors.New("live session already started")

	// ErrClosed is returned after Close
	ErrClosed = errors.New("live session closed")
)

// Messages shown to the user. Details go to the log only.
const (
	MsgDeviceUnavailable = "Could not access microphone. Please grant permission and try again."
	MsgConnectionError   = "A connection error occurred."
)
