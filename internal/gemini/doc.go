// ABOUTME: Gemini adapters package
// ABOUTME: Connects pkg/chat and pkg/live to the genai SDK
// Package gemini implements the model collaborators on top of
// google.golang.org/genai.
//
// Client answers chat turns, summarizes history for compaction and proposes
// draft suggestions through Models.GenerateContent. Client.Live returns a
// live.Transport that opens Live API sessions with audio output and input
// and output transcription enabled.
//
// API failures are returned as chat.ResponseError values whose message is
// safe to show in the conversation.
package gemini
