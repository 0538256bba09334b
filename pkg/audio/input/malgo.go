// ABOUTME: Malgo-based microphone capture
// ABOUTME: Uses miniaudio via malgo to capture float audio and chunk it
package input

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/cognira/velmora-go/pkg/audio"
)

// Malgo captures from the default input device
type Malgo struct {
	cfg      Config
	logger   *zap.Logger
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device

	mu      sync.Mutex
	chunker *Chunker
	samples []float32
	started bool
	closed  bool
}

// OpenMalgo acquires the default capture device. The device is initialized
// but not started, so no audio is delivered until Start.
func OpenMalgo(cfg Config, logger *zap.Logger) (*Malgo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	m := &Malgo{
		cfg:      cfg,
		logger:   logger,
		malgoCtx: ctx,
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.DeviceRate)
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pInputSamples []byte, frameCount uint32) {
			m.dataCallback(pInputSamples, frameCount)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		m.releaseContext()
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}
	m.device = device

	logger.Info("capture device acquired",
		zap.Int("device_rate", cfg.DeviceRate),
		zap.Int("sample_rate", cfg.SampleRate),
		zap.Int("chunk_frames", cfg.ChunkFrames))

	return m, nil
}

// Start begins delivering chunks
func (m *Malgo) Start(onChunk func(audio.Buffer)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("capture device closed")
	}
	if m.started {
		return nil
	}

	m.chunker = NewChunker(m.cfg, onChunk)
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	m.started = true
	return nil
}

// dataCallback is called by malgo with captured F32 frames
func (m *Malgo) dataCallback(input []byte, frameCount uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.chunker == nil || m.closed {
		return
	}

	n := int(frameCount) * m.cfg.Channels
	if len(input) < n*4 {
		n = len(input) / 4
	}
	if cap(m.samples) < n {
		m.samples = make([]float32, n)
	}
	samples := m.samples[:n]
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(input[i*4:]))
	}

	m.chunker.Write(samples)
}

// Close stops capture and releases the device. Safe to call more than once.
func (m *Malgo) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	device := m.device
	m.device = nil
	m.mu.Unlock()

	// Stop waits for the callback to return, so it must run without m.mu held
	if device != nil {
		if err := device.Stop(); err != nil {
			m.logger.Warn("capture device stop error", zap.Error(err))
		}
		device.Uninit()
	}

	m.releaseContext()
	m.logger.Info("capture device released")
	return nil
}

func (m *Malgo) releaseContext() {
	if m.malgoCtx == nil {
		return
	}
	if err := m.malgoCtx.Uninit(); err != nil {
		m.logger.Warn("malgo context uninit error", zap.Error(err))
	}
	m.malgoCtx.Free()
	m.malgoCtx = nil
}
