// ABOUTME: Chat conversation package
// ABOUTME: Multi-turn conversations with rolling context compaction
// Package chat keeps multi-turn text conversations and bounds the context
// sent to the model.
//
// Every conversation starts with a welcome message. Once a conversation
// holds Policy.Threshold messages, the next turn first summarizes the
// oldest Policy.Window messages after the welcome into a single model
// message and keeps the rest verbatim:
//
//	[welcome, summary, recent...]
//
// The compacted list replaces the stored history, so summaries are never
// expanded again. A later round summarizes the earlier summary together
// with the messages that follow it.
//
// The model is reached through the Responder, Summarizer and Suggester
// interfaces. internal/gemini implements them with the genai SDK.
package chat
