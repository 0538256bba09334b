// ABOUTME: Tests for the live room orchestrator
// ABOUTME: Drives a session through TUI controls with fake devices and transport
package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cognira/velmora-go/internal/ui"
	"github.com/cognira/velmora-go/pkg/audio"
	"github.com/cognira/velmora-go/pkg/audio/encode"
	"github.com/cognira/velmora-go/pkg/audio/input"
	"github.com/cognira/velmora-go/pkg/audio/output"
	"github.com/cognira/velmora-go/pkg/live"
)

type nopCapture struct{}

func (nopCapture) Start(func(audio.Buffer)) error { return nil }
func (nopCapture) Close() error                   { return nil }

type nopConn struct{}

func (nopConn) SendRealtimeInput(encode.Frame) error { return nil }
func (nopConn) Close() error                         { return nil }

type openTransport struct {
	mu sync.Mutex
	cb live.Callbacks
}

func (t *openTransport) Connect(_ context.Context, _ string, cb live.Callbacks) (live.Conn, error) {
	t.mu.Lock()
	t.cb = cb
	t.mu.Unlock()
	go cb.OnOpen()
	return nopConn{}, nil
}

func (t *openTransport) send(ev live.InboundEvent) {
	t.mu.Lock()
	cb := t.cb
	t.mu.Unlock()
	cb.OnMessage(ev)
}

type msgLog struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (l *msgLog) add(m tea.Msg) {
	l.mu.Lock()
	l.msgs = append(l.msgs, m)
	l.mu.Unlock()
}

func (l *msgLog) lastStatus() live.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.msgs) - 1; i >= 0; i-- {
		if sm, ok := l.msgs[i].(ui.StateMsg); ok {
			return sm.State.Status
		}
	}
	return ""
}

func sessionConfig(tr live.Transport) live.Config {
	return live.Config{
		Transport:   tr,
		OpenCapture: func() (input.Device, error) { return nopCapture{}, nil },
		OpenOutput: func() (output.Context, error) {
			return output.NewMixer(audio.OutputSampleRate, 1), nil
		},
	}
}

func TestRoomToggleFromControls(t *testing.T) {
	tr := &openTransport{}
	msgs := &msgLog{}
	room, err := New(Config{Session: sessionConfig(tr)}, msgs.add)
	require.NoError(t, err)
	defer room.Close()

	ctrl := ui.NewControls()
	done := make(chan error, 1)
	go func() { done <- room.Run(context.Background(), ctrl) }()

	ctrl.Toggle <- ui.ToggleMsg{}
	require.Eventually(t, func() bool { return msgs.lastStatus() == live.StatusConnected }, 2*time.Second, 5*time.Millisecond)

	ctrl.Changes <- ui.VolumeChangeMsg{Volume: 40, Muted: true}

	ctrl.Toggle <- ui.ToggleMsg{}
	require.Eventually(t, func() bool { return msgs.lastStatus() == live.StatusIdle }, 2*time.Second, 5*time.Millisecond)

	ctrl.Quit <- ui.QuitMsg{}
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after quit")
	}
}

func TestRoomAutoStartAndContextCancel(t *testing.T) {
	tr := &openTransport{}
	msgs := &msgLog{}
	room, err := New(Config{Session: sessionConfig(tr), AutoStart: true}, msgs.add)
	require.NoError(t, err)
	defer room.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- room.Run(ctx, nil) }()

	require.Eventually(t, func() bool { return msgs.lastStatus() == live.StatusConnected }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRoomLogsCommittedTurns(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	tr := &openTransport{}

	var chained []live.State
	var mu sync.Mutex
	sc := sessionConfig(tr)
	sc.OnStateChange = func(st live.State) {
		mu.Lock()
		chained = append(chained, st)
		mu.Unlock()
	}

	room, err := New(Config{Session: sc, Logger: zap.New(core)}, nil)
	require.NoError(t, err)
	defer room.Close()

	require.NoError(t, room.Session().Start(context.Background()))
	require.Eventually(t, func() bool { return room.Session().Snapshot().Status == live.StatusConnected }, 2*time.Second, 5*time.Millisecond)

	tr.send(live.InboundEvent{UserText: "hello", ModelText: "hi there"})
	tr.send(live.InboundEvent{TurnComplete: true})

	require.Eventually(t, func() bool {
		return logs.FilterMessage("turn complete").Len() == 1
	}, 2*time.Second, 5*time.Millisecond)

	entry := logs.FilterMessage("turn complete").All()[0]
	assert.Equal(t, "hello", entry.ContextMap()["user"])
	assert.Equal(t, "hi there", entry.ContextMap()["model"])

	mu.Lock()
	assert.NotEmpty(t, chained, "caller's OnStateChange still runs")
	mu.Unlock()
}

func TestRoomRequiresTransport(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

func TestRoomDeviceFailureKeepsRunning(t *testing.T) {
	sc := sessionConfig(&openTransport{})
	sc.OpenCapture = func() (input.Device, error) { return nil, errors.New("no microphone") }
	msgs := &msgLog{}

	room, err := New(Config{Session: sc}, msgs.add)
	require.NoError(t, err)
	defer room.Close()

	ctrl := ui.NewControls()
	done := make(chan error, 1)
	go func() { done <- room.Run(context.Background(), ctrl) }()

	ctrl.Toggle <- ui.ToggleMsg{}
	require.Eventually(t, func() bool {
		st := room.Session().Snapshot()
		return st.Status == live.StatusIdle && st.Error == live.MsgDeviceUnavailable
	}, 2*time.Second, 5*time.Millisecond)

	ctrl.Quit <- ui.QuitMsg{}
	assert.NoError(t, <-done)
}
