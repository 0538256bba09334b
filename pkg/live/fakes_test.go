// ABOUTME: Test doubles for the transport and audio devices
// ABOUTME: Scripted connections, capture devices and output contexts
package live

import (
	"context"
	"errors"
	"sync"

	"github.com/cognira/velmora-go/pkg/audio"
	"github.com/cognira/velmora-go/pkg/audio/encode"
	"github.com/cognira/velmora-go/pkg/audio/input"
	"github.com/cognira/velmora-go/pkg/audio/output"
)

type fakeOutput struct {
	mu      sync.Mutex
	now     float64
	sources []*fakeSource
	closed  bool
	volume  int
	muted   bool
}

func (o *fakeOutput) CurrentTime() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.now
}

func (o *fakeOutput) setTime(t float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.now = t
}

func (o *fakeOutput) NewSource(buf audio.Buffer) output.Source {
	o.mu.Lock()
	defer o.mu.Unlock()
	src := &fakeSource{duration: buf.Duration()}
	o.sources = append(o.sources, src)
	return src
}

func (o *fakeOutput) SetVolume(volume int, muted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.volume, o.muted = volume, muted
}

func (o *fakeOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

func (o *fakeOutput) isClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

func (o *fakeOutput) all() []*fakeSource {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*fakeSource(nil), o.sources...)
}

type fakeSource struct {
	mu       sync.Mutex
	duration float64
	startAt  float64
	started  bool
	stopped  bool
	onEnded  func()
}

func (s *fakeSource) Start(at float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startAt, s.started = at, true
}

func (s *fakeSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func (s *fakeSource) Duration() float64 { return s.duration }

func (s *fakeSource) OnEnded(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnded = fn
}

func (s *fakeSource) end() {
	s.mu.Lock()
	fn := s.onEnded
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *fakeSource) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

type fakeCapture struct {
	mu       sync.Mutex
	onChunk  func(audio.Buffer)
	closes   int
	startErr error
}

func (c *fakeCapture) Start(onChunk func(audio.Buffer)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return c.startErr
	}
	c.onChunk = onChunk
	return nil
}

func (c *fakeCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

func (c *fakeCapture) started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.onChunk != nil
}

func (c *fakeCapture) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

func (c *fakeCapture) emit(chunk audio.Buffer) {
	c.mu.Lock()
	fn := c.onChunk
	c.mu.Unlock()
	fn(chunk)
}

type fakeConn struct {
	mu      sync.Mutex
	frames  []encode.Frame
	sendErr error
	closes  int
}

func (c *fakeConn) SendRealtimeInput(frame encode.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.frames = append(c.frames, frame)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

func (c *fakeConn) sent() []encode.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]encode.Frame(nil), c.frames...)
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

type fakeTransport struct {
	mu       sync.Mutex
	conn     *fakeConn
	err      error
	autoOpen bool
	block    chan struct{}
	deaf     bool // blocked Connect ignores cancellation
	prompts  []string
	cb       Callbacks
}

func (t *fakeTransport) Connect(ctx context.Context, systemPrompt string, cb Callbacks) (Conn, error) {
	if t.block != nil && t.deaf {
		<-t.block
	} else if t.block != nil {
		select {
		case <-t.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	t.mu.Lock()
	t.prompts = append(t.prompts, systemPrompt)
	t.cb = cb
	conn, err, autoOpen := t.conn, t.err, t.autoOpen
	t.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if autoOpen {
		cb.OnOpen()
	}
	return conn, nil
}

func (t *fakeTransport) callbacks() Callbacks {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cb
}

var errNoMic = errors.New("no microphone")

type rig struct {
	transport  *fakeTransport
	conn       *fakeConn
	capture    *fakeCapture
	out        *fakeOutput
	captureErr error
	outputErr  error

	mu     sync.Mutex
	states []State
	errs   []error
}

func newRig() *rig {
	conn := &fakeConn{}
	return &rig{
		transport: &fakeTransport{conn: conn, autoOpen: true},
		conn:      conn,
		capture:   &fakeCapture{},
		out:       &fakeOutput{},
	}
}

func (r *rig) config() Config {
	return Config{
		Transport: r.transport,
		OpenCapture: func() (input.Device, error) {
			if r.captureErr != nil {
				return nil, r.captureErr
			}
			return r.capture, nil
		},
		OpenOutput: func() (output.Context, error) {
			if r.outputErr != nil {
				return nil, r.outputErr
			}
			return r.out, nil
		},
		Volume: 100,
		OnStateChange: func(st State) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.states = append(r.states, st)
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
	}
}

func (r *rig) statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Status
	for _, st := range r.states {
		if len(out) == 0 || out[len(out)-1] != st.Status {
			out = append(out, st.Status)
		}
	}
	return out
}

func (r *rig) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// pcm returns silent 24 kHz mono PCM of the given duration in frames
func pcm(frames int) []byte {
	return make([]byte, frames*2)
}
