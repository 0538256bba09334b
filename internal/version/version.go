// ABOUTME: Product and version identifiers
// ABOUTME: Reported in logs and in the websocket User-Agent
package version

// Set with -ldflags "-X github.com/cognira/velmora-go/internal/version.Version=..."
var Version = "0.1.0"

const (
	Product      = "Velmora"
	Manufacturer = "Cognira"
)

// UserAgent identifies this client to remote services
func UserAgent() string {
	return Product + "/" + Version
}
