// ABOUTME: Configuration package
// ABOUTME: Loads and validates settings shared by both binaries
// Package config loads settings from, in increasing precedence, built-in
// defaults, an optional TOML file, a .env file in the working directory,
// environment variables and command-line flags.
//
// Example velmora.toml:
//
//	api_key = "..."
//	transport = "genai"
//	request_timeout = "90s"
//
//	[compaction]
//	threshold = 12
//	window = 8
//
//	[history]
//	save = true
//	path = "/home/me/.config/velmora/history.json"
package config
