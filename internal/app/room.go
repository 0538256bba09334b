// ABOUTME: Live room application orchestration
// ABOUTME: Coordinates the voice session, TUI controls and status updates
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/cognira/velmora-go/internal/ui"
	"github.com/cognira/velmora-go/pkg/live"
)

const runtimeStatsInterval = 2 * time.Second

// Config holds room configuration
type Config struct {
	// Session is passed to live.NewSession. OnStateChange is chained.
	Session live.Config

	// AutoStart starts a conversation as soon as Run begins
	AutoStart bool

	Logger *zap.Logger
}

// Room runs one live voice session and routes UI actions to it
type Room struct {
	config  Config
	logger  *zap.Logger
	session *live.Session
	notify  func(tea.Msg)

	turns int
}

// New creates a room. notify receives TUI messages and may be nil.
func New(config Config, notify func(tea.Msg)) (*Room, error) {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if notify == nil {
		notify = func(tea.Msg) {}
	}

	r := &Room{config: config, logger: logger, notify: notify}

	sc := config.Session
	next := sc.OnStateChange
	sc.OnStateChange = func(st live.State) {
		r.handleState(st)
		if next != nil {
			next(st)
		}
	}
	if sc.Logger == nil {
		sc.Logger = logger
	}

	session, err := live.NewSession(sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	r.session = session
	return r, nil
}

// Session returns the underlying session
func (r *Room) Session() *live.Session {
	return r.session
}

// Run processes controls until ctx is done or a quit is requested. ctrl may
// be nil when there is no TUI.
func (r *Room) Run(ctx context.Context, ctrl *ui.Controls) error {
	if r.config.AutoStart {
		if err := r.session.Start(ctx); err != nil {
			r.logger.Warn("failed to start conversation", zap.Error(err))
		}
	}

	if ctrl == nil {
		ctrl = &ui.Controls{}
	}

	ticker := time.NewTicker(runtimeStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctrl.Toggle:
			if err := r.session.Toggle(ctx); err != nil && !errors.Is(err, live.ErrDeviceUnavailable) {
				r.logger.Warn("toggle failed", zap.Error(err))
			}

		case vol := <-ctrl.Changes:
			r.logger.Info("volume change", zap.Int("volume", vol.Volume), zap.Bool("muted", vol.Muted))
			if err := r.session.SetVolume(vol.Volume, vol.Muted); err != nil {
				r.logger.Warn("failed to set volume", zap.Error(err))
			}

		case <-ctrl.Quit:
			r.logger.Info("received quit signal from TUI")
			return nil

		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			r.notify(ui.RuntimeMsg{Goroutines: runtime.NumGoroutine(), MemAlloc: m.Alloc})

		case <-ctx.Done():
			return nil
		}
	}
}

// handleState forwards snapshots to the TUI and logs committed turns.
// It runs on the session goroutine.
func (r *Room) handleState(st live.State) {
	r.notify(ui.StateMsg{State: st})

	if len(st.Transcript) < r.turns {
		r.turns = 0
	}
	for _, t := range st.Transcript[r.turns:] {
		r.logger.Info("turn complete", zap.String("user", t.User), zap.String("model", t.Model))
	}
	r.turns = len(st.Transcript)
}

// Close stops any conversation and releases the session
func (r *Room) Close() error {
	return r.session.Close()
}
