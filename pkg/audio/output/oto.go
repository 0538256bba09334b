// ABOUTME: Oto-based playback device
// ABOUTME: Opens one oto context per process and plays mixer-backed contexts on it
package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

// OtoDevice owns the process's oto context. oto only allows one context per
// process, so the device is opened once and every playback Context is a
// player on top of it.
type OtoDevice struct {
	otoCtx     *oto.Context
	sampleRate int
	channels   int
	logger     *zap.Logger
}

// NewOtoDevice opens the system output at the given format
func NewOtoDevice(sampleRate, channels int, logger *zap.Logger) (*OtoDevice, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
		// small buffer keeps CurrentTime close to what is audible
		BufferSize: 100 * time.Millisecond,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	logger.Info("audio output initialized",
		zap.Int("sample_rate", sampleRate),
		zap.Int("channels", channels))

	return &OtoDevice{
		otoCtx:     ctx,
		sampleRate: sampleRate,
		channels:   channels,
		logger:     logger,
	}, nil
}

// Open starts a new playback context on the device
func (d *OtoDevice) Open() (Context, error) {
	if err := d.otoCtx.Err(); err != nil {
		return nil, fmt.Errorf("oto context failed: %w", err)
	}
	if err := d.otoCtx.Resume(); err != nil {
		return nil, fmt.Errorf("failed to resume oto context: %w", err)
	}

	mixer := NewMixer(d.sampleRate, d.channels)
	player := d.otoCtx.NewPlayer(mixer)
	player.Play()

	return &OtoContext{Mixer: mixer, player: player, device: d}, nil
}

// Close suspends the device
func (d *OtoDevice) Close() error {
	if err := d.otoCtx.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend oto context: %w", err)
	}
	return nil
}

// OtoContext is a mixer played through an oto player
type OtoContext struct {
	*Mixer
	player *oto.Player
	device *OtoDevice
	once   sync.Once
}

// Close stops the player and the mixer
func (c *OtoContext) Close() error {
	var err error
	c.once.Do(func() {
		c.Mixer.Close()
		err = c.player.Close()
		c.device.logger.Debug("playback context closed")
	})
	if err != nil {
		return fmt.Errorf("failed to close player: %w", err)
	}
	return nil
}
