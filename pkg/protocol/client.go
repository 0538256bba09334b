// ABOUTME: WebSocket client for the Live API
// ABOUTME: Handles connection, setup handshake, audio upload and message routing
package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cognira/velmora-go/internal/version"
	"github.com/cognira/velmora-go/pkg/audio/encode"
	"github.com/cognira/velmora-go/pkg/live"
)

const (
	// DefaultEndpoint is the Gemini Live websocket endpoint
	DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	defaultHandshakeTimeout = 10 * time.Second
	writeTimeout            = 5 * time.Second
)

// ErrNotConnected is returned when sending on a closed client
var ErrNotConnected = errors.New("not connected")

// Config holds client configuration
type Config struct {
	Endpoint         string
	APIKey           string
	Model            string
	Voice            string
	HandshakeTimeout time.Duration
	Logger           *zap.Logger
}

// Transport dials a new Client for every live session
type Transport struct {
	config Config
}

// NewTransport creates a websocket transport
func NewTransport(config Config) *Transport {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.HandshakeTimeout == 0 {
		config.HandshakeTimeout = defaultHandshakeTimeout
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Transport{config: config}
}

// Connect dials the endpoint and completes the setup handshake
func (t *Transport) Connect(ctx context.Context, systemPrompt string, cb live.Callbacks) (live.Conn, error) {
	c := newClient(t.config, cb)
	if err := c.connect(ctx, systemPrompt); err != nil {
		return nil, err
	}
	return c, nil
}

// Client is one open Live API websocket
type Client struct {
	config Config
	cb     live.Callbacks
	logger *zap.Logger
	conn   *websocket.Conn

	mu        sync.RWMutex
	connected bool
	closing   bool

	// gorilla allows one concurrent writer
	writeMu sync.Mutex
}

func newClient(config Config, cb live.Callbacks) *Client {
	return &Client{
		config: config,
		cb:     cb,
		logger: config.Logger,
	}
}

func (c *Client) connect(ctx context.Context, systemPrompt string) error {
	u, err := url.Parse(c.config.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if c.config.APIKey != "" {
		q := u.Query()
		q.Set("key", c.config.APIKey)
		u.RawQuery = q.Encode()
	}

	c.logger.Info("connecting to live endpoint",
		zap.String("host", u.Host),
		zap.String("model", c.config.Model))

	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(systemPrompt); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake sends setup and waits for setupComplete
func (c *Client) handshake(systemPrompt string) error {
	setup := NewSetup(c.config.Model, c.config.Voice, systemPrompt)
	if err := c.writeJSON(ClientMessage{Setup: setup}); err != nil {
		return fmt.Errorf("failed to send setup: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(c.config.HandshakeTimeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read setupComplete: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse setup response: %w", err)
	}
	if msg.SetupComplete == nil {
		return fmt.Errorf("expected setupComplete, got %s", truncate(data, 120))
	}

	c.logger.Info("live setup complete")
	return nil
}

// SendRealtimeInput sends one audio frame
func (c *Client) SendRealtimeInput(frame encode.Frame) error {
	return c.writeJSON(ClientMessage{
		RealtimeInput: &RealtimeInput{
			Audio: &Blob{MIMEType: frame.MIMEType, Data: frame.Data},
		},
	})
}

func (c *Client) writeJSON(msg ClientMessage) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages until the socket closes
func (c *Client) readMessages() {
	if c.cb.OnOpen != nil {
		c.cb.OnOpen()
	}

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			c.logger.Debug("ignoring websocket message", zap.Int("type", messageType))
			continue
		}

		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("failed to parse server message", zap.Error(err), zap.ByteString("data", truncate(data, 120)))
		return
	}

	if msg.GoAway != nil {
		c.logger.Warn("server is going away", zap.String("time_left", msg.GoAway.TimeLeft))
	}

	if msg.ServerContent != nil && c.cb.OnMessage != nil {
		ev := msg.ServerContent.Event()
		if !ev.Empty() {
			c.cb.OnMessage(ev)
		}
	}
}

func (c *Client) handleReadError(err error) {
	c.mu.Lock()
	closing := c.closing
	c.connected = false
	c.mu.Unlock()

	if closing || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Info("live connection closed", zap.Error(err))
		if c.cb.OnClose != nil {
			c.cb.OnClose()
		}
		return
	}

	c.logger.Error("live connection read error", zap.Error(err))
	if c.cb.OnError != nil {
		c.cb.OnError(err)
	}
}

// Close sends a close frame and closes the socket. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closing || c.conn == nil {
		c.mu.Unlock()
		return nil
	}
	c.closing = true
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		c.logger.Debug("failed to send close frame", zap.Error(err))
	}
	c.writeMu.Unlock()

	return conn.Close()
}

func truncate(data []byte, n int) []byte {
	if len(data) <= n {
		return data
	}
	return data[:n]
}
