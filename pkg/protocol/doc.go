// ABOUTME: Live API wire protocol package
// ABOUTME: Defines protocol messages and the websocket transport
// Package protocol implements the Gemini Live BidiGenerateContent protocol
// over a plain websocket.
//
// The client sends a setup message, waits for setupComplete and then
// streams realtimeInput audio frames. Server content (model audio,
// interruptions, transcriptions, turn completion) is converted to
// live.InboundEvent and delivered through live.Callbacks. Servers may send
// JSON in either text or binary frames.
//
// Transport implements live.Transport, so it can replace the genai SDK
// transport without changes to the session.
//
// Example:
//
//	tr := protocol.NewTransport(protocol.Config{APIKey: key, Model: model, Voice: "Zephyr"})
//	conn, err := tr.Connect(ctx, live.DefaultSystemPrompt, callbacks)
//	err = conn.SendRealtimeInput(frame)
package protocol
