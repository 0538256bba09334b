// ABOUTME: Live voice session lifecycle and event reconciliation
// ABOUTME: One goroutine owns all state; callbacks are posted to it as events
package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cognira/velmora-go/pkg/audio"
	"github.com/cognira/velmora-go/pkg/audio/decode"
	"github.com/cognira/velmora-go/pkg/audio/encode"
	"github.com/cognira/velmora-go/pkg/audio/input"
	"github.com/cognira/velmora-go/pkg/audio/output"
)

// Config holds session configuration
type Config struct {
	// Transport opens the remote session
	Transport Transport

	// OpenCapture acquires the microphone
	OpenCapture func() (input.Device, error)

	// OpenOutput opens a 24 kHz mono playback context
	OpenOutput func() (output.Context, error)

	// SystemPrompt defaults to DefaultSystemPrompt
	SystemPrompt string

	// Volume is the initial playback volume (0-100); zero is silent
	Volume int

	Logger *zap.Logger

	// OnStateChange is called with a snapshot after every change. It runs on
	// the session goroutine and must not call back into the Session.
	OnStateChange func(State)

	// OnError is called when a session fails
	OnError func(error)
}

// Session runs live voice conversations. Each Start builds a fresh pipeline
// (capture device, playback context, connection) that is torn down by Stop,
// a transport error or a remote close.
type Session struct {
	cfg    Config
	logger *zap.Logger

	inbox chan event
	quit  chan struct{}
	done  chan struct{}

	closeOnce sync.Once

	lastMu sync.Mutex
	last   State

	framesSent   atomic.Int64
	sendFailures atomic.Int64

	// owned by run
	status     Status
	errText    string
	transcript transcript
	pipe       *pipeline
	gen        uint64
	volume     int
	muted      bool
	stats      Stats
}

// pipeline holds the resources of one started session
type pipeline struct {
	gen      uint64
	capture  input.Device
	out      output.Context
	playback *playback
	encoder  *encode.PCMEncoder
	conn     Conn
	opened   bool
	wired    bool
	cancel   context.CancelFunc
}

type eventKind int

const (
	evStart eventKind = iota
	evStop
	evConnected
	evOpen
	evMessage
	evError
	evClose
	evEnded
	evVolume
	evSnapshot
)

type event struct {
	kind   eventKind
	gen    uint64
	ctx    context.Context
	msg    InboundEvent
	err    error
	conn   Conn
	owned  chan struct{}
	src    output.Source
	volume int
	muted  bool
	reply  chan error
	state  chan State
}

// NewSession creates an idle session
func NewSession(cfg Config) (*Session, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if cfg.OpenCapture == nil {
		return nil, fmt.Errorf("capture opener is required")
	}
	if cfg.OpenOutput == nil {
		return nil, fmt.Errorf("output opener is required")
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Session{
		cfg:    cfg,
		logger: cfg.Logger,
		inbox:  make(chan event, 64),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		status: StatusIdle,
		volume: cfg.Volume,
		last:   State{Status: StatusIdle},
	}

	go s.run()
	return s, nil
}

// Start acquires the audio devices and opens the remote session. Device
// failures are returned wrapped in ErrDeviceUnavailable; connection failures
// arrive later through the state and OnError.
func (s *Session) Start(ctx context.Context) error {
	return s.request(event{kind: evStart, ctx: ctx})
}

// Stop closes the remote session and releases every resource. It is safe to
// call at any time and more than once.
func (s *Session) Stop() error {
	if err := s.request(event{kind: evStop}); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	return nil
}

// Toggle stops an active session or starts an idle one
func (s *Session) Toggle(ctx context.Context) error {
	if s.Snapshot().Status.Active() {
		return s.Stop()
	}
	return s.Start(ctx)
}

// SetVolume sets playback volume (0-100) for this and later sessions
func (s *Session) SetVolume(volume int, muted bool) error {
	return s.request(event{kind: evVolume, volume: volume, muted: muted})
}

// Snapshot returns the current state. Events posted before the call are
// reflected in the result.
func (s *Session) Snapshot() State {
	reply := make(chan State, 1)
	if !s.post(event{kind: evSnapshot, state: reply}) {
		return s.lastState()
	}
	select {
	case st := <-reply:
		return st
	case <-s.done:
		return s.lastState()
	}
}

// Close stops the session and its goroutine
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.Stop()
		close(s.quit)
		<-s.done
	})
	return err
}

func (s *Session) request(ev event) error {
	ev.reply = make(chan error, 1)
	if !s.post(ev) {
		return ErrClosed
	}
	select {
	case err := <-ev.reply:
		return err
	case <-s.done:
		return ErrClosed
	}
}

func (s *Session) post(ev event) bool {
	select {
	case s.inbox <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) run() {
	defer close(s.done)

	for {
		select {
		case ev := <-s.inbox:
			s.handle(ev)
		case <-s.quit:
			if s.pipe != nil {
				s.teardown()
			}
			return
		}
	}
}

func (s *Session) handle(ev event) {
	switch ev.kind {
	case evStart:
		ev.reply <- s.handleStart(ev.ctx)
	case evStop:
		s.handleStop()
		ev.reply <- nil
	case evConnected:
		s.handleConnected(ev)
	case evOpen:
		s.handleOpen(ev.gen)
	case evMessage:
		s.handleMessage(ev.gen, ev.msg)
	case evError:
		s.handleError(ev.gen, ev.err)
	case evClose:
		s.handleClose(ev.gen)
	case evEnded:
		s.handleEnded(ev.gen, ev.src)
	case evVolume:
		s.volume, s.muted = ev.volume, ev.muted
		if s.pipe != nil {
			s.pipe.out.SetVolume(s.volume, s.muted)
		}
		ev.reply <- nil
	case evSnapshot:
		ev.state <- s.snapshot()
	}
}

func (s *Session) handleStart(ctx context.Context) error {
	if s.pipe != nil {
		return ErrAlreadyStarted
	}
	if ctx == nil {
		ctx = context.Background()
	}

	decoder, err := decode.NewPCM(audio.OutputFormat())
	if err != nil {
		return err
	}
	encoder, err := encode.NewPCM(audio.InputFormat())
	if err != nil {
		return err
	}

	s.gen++
	gen := s.gen
	s.errText = ""
	s.transcript.reset()
	s.stats = Stats{}
	s.framesSent.Store(0)
	s.sendFailures.Store(0)
	s.setStatus(StatusConnecting)

	capture, err := s.cfg.OpenCapture()
	if err != nil {
		return s.failStart(fmt.Errorf("%w: capture: %v", ErrDeviceUnavailable, err))
	}

	out, err := s.cfg.OpenOutput()
	if err != nil {
		if cerr := capture.Close(); cerr != nil {
			s.logger.Warn("failed to release capture device", zap.Error(cerr))
		}
		return s.failStart(fmt.Errorf("%w: playback: %v", ErrDeviceUnavailable, err))
	}
	out.SetVolume(s.volume, s.muted)

	connCtx, cancel := context.WithCancel(ctx)
	s.pipe = &pipeline{
		gen:      gen,
		capture:  capture,
		out:      out,
		playback: newPlayback(out, decoder),
		encoder:  encoder,
		cancel:   cancel,
	}

	s.logger.Info("starting live session", zap.Uint64("session", gen))

	go s.connect(connCtx, gen)

	return nil
}

// connect dials the transport and hands the connection to the dispatcher.
// A connection the dispatcher never took is closed here.
func (s *Session) connect(ctx context.Context, gen uint64) {
	conn, err := s.cfg.Transport.Connect(ctx, s.cfg.SystemPrompt, s.callbacks(gen))
	owned := make(chan struct{}, 1)
	if s.post(event{kind: evConnected, gen: gen, conn: conn, err: err, owned: owned}) {
		select {
		case <-owned:
			return
		case <-s.done:
		}
	}

	// done is closed after the last event is handled, so an empty owned
	// channel here means the event was dropped
	select {
	case <-owned:
		return
	default:
	}
	if conn != nil {
		s.logger.Debug("closing connection opened after session close", zap.Uint64("session", gen))
		if cerr := conn.Close(); cerr != nil {
			s.logger.Debug("failed to close late connection", zap.Error(cerr))
		}
	}
}

// failStart reports a device failure; the caller has already released what it acquired
func (s *Session) failStart(err error) error {
	s.logger.Error("failed to start live session", zap.Error(err))
	s.errText = MsgDeviceUnavailable
	s.setStatus(StatusError)
	s.setStatus(StatusIdle)
	s.notifyError(err)
	return err
}

func (s *Session) callbacks(gen uint64) Callbacks {
	return Callbacks{
		OnOpen: func() {
			s.post(event{kind: evOpen, gen: gen})
		},
		OnMessage: func(msg InboundEvent) {
			s.post(event{kind: evMessage, gen: gen, msg: msg})
		},
		OnError: func(err error) {
			s.post(event{kind: evError, gen: gen, err: err})
		},
		OnClose: func() {
			s.post(event{kind: evClose, gen: gen})
		},
	}
}

func (s *Session) current(gen uint64) bool {
	return s.pipe != nil && s.pipe.gen == gen
}

func (s *Session) handleConnected(ev event) {
	if ev.owned != nil {
		ev.owned <- struct{}{}
	}
	if !s.current(ev.gen) {
		// stopped while connecting
		if ev.conn != nil {
			if err := ev.conn.Close(); err != nil {
				s.logger.Debug("failed to close stale connection", zap.Error(err))
			}
		}
		return
	}

	if ev.err != nil {
		s.handleError(ev.gen, ev.err)
		return
	}

	s.pipe.conn = ev.conn
	if s.pipe.opened {
		s.wireCapture()
	}
}

func (s *Session) handleOpen(gen uint64) {
	if !s.current(gen) || s.pipe.opened {
		return
	}

	s.pipe.opened = true
	s.logger.Info("live session opened", zap.Uint64("session", gen))
	s.setStatus(StatusConnected)

	if s.pipe.conn != nil {
		s.wireCapture()
	}
}

// wireCapture starts streaming microphone chunks. Sends are fire-and-forget.
func (s *Session) wireCapture() {
	p := s.pipe
	if p.wired {
		return
	}
	p.wired = true

	conn, encoder, gen := p.conn, p.encoder, p.gen
	err := p.capture.Start(func(chunk audio.Buffer) {
		if err := conn.SendRealtimeInput(encoder.Frame(chunk.Samples)); err != nil {
			s.sendFailures.Add(1)
			s.logger.Debug("failed to send audio frame", zap.Uint64("session", gen), zap.Error(err))
			return
		}
		s.framesSent.Add(1)
	})
	if err != nil {
		s.handleError(gen, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err))
	}
}

// handleMessage applies one inbound event as a single update: audio, interruption, user text, model text, turn completion.
func (s *Session) handleMessage(gen uint64, msg InboundEvent) {
	if !s.current(gen) {
		return
	}
	p := s.pipe

	if len(msg.Audio) > 0 {
		startAt, err := p.playback.enqueue(msg.Audio, func(src output.Source) {
			// runs on the audio thread; hand off so the device is never blocked
			go s.post(event{kind: evEnded, gen: gen, src: src})
		})
		if err != nil {
			s.stats.DecodeFailures++
			s.logger.Warn("dropping undecodable audio", zap.Int("bytes", len(msg.Audio)), zap.Error(err))
		} else {
			s.stats.ChunksScheduled++
			s.logger.Debug("scheduled audio", zap.Float64("start_at", startAt), zap.Int("bytes", len(msg.Audio)))
		}
	}

	if msg.Interrupted {
		p.playback.interrupt()
		s.stats.Interruptions++
		s.logger.Debug("playback interrupted")
	}

	if s.transcript.apply(msg) {
		s.logger.Debug("turn complete", zap.Int("turns", len(s.transcript.turns)))
	}

	s.publish()
}

func (s *Session) handleEnded(gen uint64, src output.Source) {
	if !s.current(gen) {
		return
	}
	if s.pipe.playback.ended(src) {
		s.publish()
	}
}

func (s *Session) handleError(gen uint64, err error) {
	if !s.current(gen) {
		return
	}

	if !errors.Is(err, ErrTransport) && !errors.Is(err, ErrDeviceUnavailable) {
		err = fmt.Errorf("%w: %v", ErrTransport, err)
	}
	s.logger.Error("live session error", zap.Uint64("session", gen), zap.Error(err))

	s.errText = MsgConnectionError
	if errors.Is(err, ErrDeviceUnavailable) {
		s.errText = MsgDeviceUnavailable
	}
	s.setStatus(StatusError)
	s.teardown()
	s.setStatus(StatusIdle)
	s.notifyError(err)
}

func (s *Session) handleClose(gen uint64) {
	if !s.current(gen) {
		return
	}
	s.logger.Info("live session closed by remote", zap.Uint64("session", gen))
	s.teardown()
	s.setStatus(StatusIdle)
}

func (s *Session) handleStop() {
	if s.pipe == nil {
		if s.status != StatusIdle {
			s.setStatus(StatusIdle)
		}
		return
	}
	s.logger.Info("stopping live session", zap.Uint64("session", s.pipe.gen))
	s.teardown()
	s.setStatus(StatusIdle)
}

// teardown closes the connection first, then releases capture, sources and output
func (s *Session) teardown() {
	p := s.pipe
	s.pipe = nil

	if p.cancel != nil {
		p.cancel()
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			s.logger.Debug("failed to close connection", zap.Error(err))
		}
	}
	if err := p.capture.Close(); err != nil {
		s.logger.Warn("failed to release capture device", zap.Error(err))
	}
	p.playback.interrupt()
	if err := p.out.Close(); err != nil {
		s.logger.Warn("failed to close playback context", zap.Error(err))
	}

	s.stats.FramesSent = s.framesSent.Load()
	s.stats.SendFailures = s.sendFailures.Load()
}

func (s *Session) setStatus(status Status) {
	if s.status != status {
		s.logger.Debug("status changed", zap.String("from", string(s.status)), zap.String("to", string(status)))
	}
	s.status = status
	s.publish()
}

func (s *Session) snapshot() State {
	st := State{
		Status:      s.status,
		Error:       s.errText,
		Transcript:  s.transcript.history(),
		UserInput:   s.transcript.user.String(),
		ModelOutput: s.transcript.model.String(),
		Stats:       s.stats,
	}
	if s.pipe != nil {
		st.Speaking = s.pipe.playback.speaking()
		st.Stats.FramesSent = s.framesSent.Load()
		st.Stats.SendFailures = s.sendFailures.Load()
	}
	return st
}

func (s *Session) publish() {
	st := s.snapshot()

	s.lastMu.Lock()
	s.last = st
	s.lastMu.Unlock()

	if s.cfg.OnStateChange != nil {
		s.cfg.OnStateChange(st)
	}
}

func (s *Session) lastState() State {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	return s.last
}

func (s *Session) notifyError(err error) {
	if s.cfg.OnError != nil {
		s.cfg.OnError(err)
	}
}
