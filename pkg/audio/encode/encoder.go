// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for upstream audio encoders
package encode

// Encoder encodes float samples to wire bytes
type Encoder interface {
	// Encode converts samples to encoded audio data
	Encode(samples []float32) ([]byte, error)

	// Close releases encoder resources
	Close() error
}
