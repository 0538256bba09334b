// ABOUTME: Session status, transcript turns and published snapshots
// ABOUTME: Snapshots are immutable copies handed to observers
package live

// Status is the connection state of a session
type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusConnected  Status = "connected"
	StatusError      Status = "error"
)

// Active reports whether the status holds resources
func (s Status) Active() bool {
	return s == StatusConnecting || s == StatusConnected
}

// TranscriptTurn is one completed exchange
type TranscriptTurn struct {
	ID    string
	User  string
	Model string
}

// Stats counts session activity
type Stats struct {
	FramesSent      int64
	SendFailures    int64
	ChunksScheduled int64
	DecodeFailures  int64
	Interruptions   int64
}

// State is a snapshot of the session
type State struct {
	Status      Status
	Speaking    bool
	Error       string
	Transcript  []TranscriptTurn
	UserInput   string
	ModelOutput string
	Stats       Stats
}
