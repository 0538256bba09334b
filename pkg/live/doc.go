// ABOUTME: Live voice session package
// ABOUTME: Streams microphone audio to a realtime model and plays its speech back
// Package live manages a full-duplex voice conversation with a realtime model.
//
// A Session moves through idle -> connecting -> connected and back to idle.
// error is a transient status published while a failed session is torn down.
//
// While connected, microphone chunks are encoded as 16-bit PCM and sent
// without waiting for acknowledgement. Each inbound server message is
// applied as one update on the session goroutine:
//   - audio is decoded and scheduled right after the audio already queued
//   - an interruption stops every scheduled source
//   - input and output transcription fragments are accumulated
//   - turn completion commits the accumulated text as a TranscriptTurn
//
// The transport, microphone and speaker are injected, so the same session
// runs against the genai SDK, a raw websocket client or test fakes.
//
// Example:
//
//	s, err := live.NewSession(live.Config{
//	    Transport:   transport,
//	    OpenCapture: func() (input.Device, error) { return input.OpenMalgo(input.DefaultConfig(), logger) },
//	    OpenOutput:  device.Open,
//	    Volume:      100,
//	    Logger:      logger,
//	    OnStateChange: func(st live.State) {
//	        fmt.Println(st.Status, st.Speaking)
//	    },
//	})
//	err = s.Start(ctx)
//	defer s.Close()
package live
