// ABOUTME: live.Transport implemented with the genai Live API
// ABOUTME: Runs a receive loop per session and maps server content to events
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/cognira/velmora-go/pkg/audio/encode"
	"github.com/cognira/velmora-go/pkg/live"
)

// LiveTransport opens realtime voice sessions
type LiveTransport struct {
	client *genai.Client
	model  string
	voice  string
	logger *zap.Logger
}

// Live returns a transport for live.Session
func (c *Client) Live() *LiveTransport {
	return &LiveTransport{
		client: c.client,
		model:  c.config.LiveModel,
		voice:  c.config.Voice,
		logger: c.logger.Named("live"),
	}
}

// Connect opens a session with audio responses and both transcriptions
func (t *LiveTransport) Connect(ctx context.Context, systemPrompt string, cb live.Callbacks) (live.Conn, error) {
	t.logger.Info("connecting live session", zap.String("model", t.model), zap.String("voice", t.voice))

	session, err := t.client.Live.Connect(ctx, t.model, liveConfig(t.voice, systemPrompt))
	if err != nil {
		return nil, fmt.Errorf("live connect: %w", err)
	}

	c := &liveConn{session: session, cb: cb, logger: t.logger}
	go c.receive()
	return c, nil
}

func liveConfig(voice, systemPrompt string) *genai.LiveConnectConfig {
	return &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
		SystemInstruction:        genai.NewContentFromText(systemPrompt, genai.RoleUser),
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
	}
}

type liveConn struct {
	session *genai.Session
	cb      live.Callbacks
	logger  *zap.Logger

	// the SDK session allows one concurrent sender
	sendMu sync.Mutex

	opened  sync.Once
	closing atomic.Bool
}

func (c *liveConn) SendRealtimeInput(frame encode.Frame) error {
	if c.closing.Load() {
		return net.ErrClosed
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{Data: frame.Data, MIMEType: frame.MIMEType},
	})
}

func (c *liveConn) Close() error {
	if c.closing.Swap(true) {
		return nil
	}
	return c.session.Close()
}

func (c *liveConn) open() {
	c.opened.Do(func() {
		if c.cb.OnOpen != nil {
			c.cb.OnOpen()
		}
	})
}

func (c *liveConn) receive() {
	for {
		msg, err := c.session.Receive()
		if err != nil {
			c.finish(err)
			return
		}

		if msg.SetupComplete != nil {
			c.open()
		}
		if msg.GoAway != nil {
			c.logger.Warn("server is going away", zap.Any("time_left", msg.GoAway.TimeLeft))
		}
		if msg.ServerContent == nil {
			continue
		}

		c.open()
		ev := contentEvent(msg.ServerContent)
		if !ev.Empty() && c.cb.OnMessage != nil {
			c.cb.OnMessage(ev)
		}
	}
}

func (c *liveConn) finish(err error) {
	if c.closing.Load() || isNormalClose(err) {
		c.logger.Info("live session closed", zap.Error(err))
		if c.cb.OnClose != nil {
			c.cb.OnClose()
		}
		return
	}

	c.logger.Error("live session receive failed", zap.Error(err))
	if c.cb.OnError != nil {
		c.cb.OnError(err)
	}
}

func isNormalClose(err error) bool {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway
	}
	return false
}

// contentEvent maps server content to an inbound event. Only the first
// part's inline data carries audio.
func contentEvent(sc *genai.LiveServerContent) live.InboundEvent {
	ev := live.InboundEvent{
		Interrupted:  sc.Interrupted,
		TurnComplete: sc.TurnComplete,
	}
	if sc.ModelTurn != nil && len(sc.ModelTurn.Parts) > 0 {
		if p := sc.ModelTurn.Parts[0]; p != nil && p.InlineData != nil {
			ev.Audio = p.InlineData.Data
		}
	}
	if sc.InputTranscription != nil {
		ev.UserText = sc.InputTranscription.Text
	}
	if sc.OutputTranscription != nil {
		ev.ModelText = sc.OutputTranscription.Text
	}
	return ev
}
