// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for downstream audio decoders
package decode

import "github.com/cognira/velmora-go/pkg/audio"

// Decoder decodes received audio into playable float buffers
type Decoder interface {
	// Decode converts encoded audio data to a buffer
	Decode(data []byte) (audio.Buffer, error)

	// Close releases decoder resources
	Close() error
}
