// ABOUTME: Software mixer implementing the playback context clock
// ABOUTME: Renders scheduled sources into 16-bit PCM for a pull-based device
package output

import (
	"encoding/binary"
	"io"
	"math"
	"sync"

	"github.com/cognira/velmora-go/pkg/audio"
	"github.com/cognira/velmora-go/pkg/audio/resample"
)

const maxSample = float32(32767) / audio.PCM16Scale

// Mixer sums scheduled sources sample-accurately. Its clock advances only
// as the device reads from it, so CurrentTime tracks what has been rendered.
type Mixer struct {
	sampleRate int
	channels   int

	mu       sync.Mutex
	position int64 // frames rendered
	sources  []*mixSource
	gain     float32
	closed   bool
	scratch  []float32
}

// NewMixer creates a mixer rendering at the given format
func NewMixer(sampleRate, channels int) *Mixer {
	return &Mixer{
		sampleRate: sampleRate,
		channels:   channels,
		gain:       1,
	}
}

// CurrentTime returns the render position in seconds
func (m *Mixer) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.position) / float64(m.sampleRate)
}

// NewSource creates an unscheduled source. Buffers at a different rate are resampled.
func (m *Mixer) NewSource(buf audio.Buffer) Source {
	if buf.Format.SampleRate > 0 && buf.Format.SampleRate != m.sampleRate && buf.Format.Channels > 0 {
		r := resample.New(buf.Format.SampleRate, m.sampleRate, buf.Format.Channels)
		out := make([]float32, r.MaxOutputSamples(len(buf.Samples)))
		n := r.Resample(buf.Samples, out)
		buf.Samples = out[:n]
		buf.Format.SampleRate = m.sampleRate
	}
	if buf.Format.Channels <= 0 {
		buf.Format.Channels = m.channels
	}
	return &mixSource{mixer: m, buf: buf}
}

// SetVolume sets the output gain (0-100)
func (m *Mixer) SetVolume(volume int, muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gain = volumeGain(volume, muted)
}

// Active returns the number of scheduled sources that have not finished
func (m *Mixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

// Read renders the next len(p) bytes of 16-bit little-endian PCM.
// Ended callbacks for sources that finish inside the block run after the mixer lock is released.
func (m *Mixer) Read(p []byte) (int, error) {
	frameBytes := 2 * m.channels
	frames := len(p) / frameBytes

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, io.EOF
	}

	n := frames * m.channels
	if cap(m.scratch) < n {
		m.scratch = make([]float32, n)
	}
	mix := m.scratch[:n]
	for i := range mix {
		mix[i] = 0
	}

	start := m.position
	end := start + int64(frames)

	var ended []func()
	kept := m.sources[:0]
	for _, src := range m.sources {
		src.render(mix, start, end, m.channels)
		if src.endFrame <= end {
			if src.onEnded != nil {
				ended = append(ended, src.onEnded)
			}
			continue
		}
		kept = append(kept, src)
	}
	for i := len(kept); i < len(m.sources); i++ {
		m.sources[i] = nil
	}
	m.sources = kept
	m.position = end

	for i, s := range mix {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(audio.SampleToInt16(clamp(s*m.gain))))
	}
	m.mu.Unlock()

	for _, fn := range ended {
		fn()
	}

	return frames * frameBytes, nil
}

// Close drops every source; subsequent reads return io.EOF
func (m *Mixer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.sources = nil
	return nil
}

func (m *Mixer) remove(src *mixSource) {
	for i, s := range m.sources {
		if s == src {
			m.sources = append(m.sources[:i], m.sources[i+1:]...)
			return
		}
	}
}

type mixSource struct {
	mixer *Mixer
	buf   audio.Buffer

	// guarded by mixer.mu
	startFrame int64
	endFrame   int64
	started    bool
	onEnded    func()
}

func (s *mixSource) Start(at float64) {
	m := s.mixer
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.started || m.closed {
		return
	}

	startFrame := int64(math.Round(at * float64(m.sampleRate)))
	if startFrame < m.position {
		startFrame = m.position
	}
	s.startFrame = startFrame
	s.endFrame = startFrame + int64(s.buf.Frames())
	s.started = true
	m.sources = append(m.sources, s)
}

func (s *mixSource) Stop() {
	m := s.mixer
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(s)
}

func (s *mixSource) Duration() float64 {
	return s.buf.Duration()
}

func (s *mixSource) OnEnded(fn func()) {
	s.mixer.mu.Lock()
	defer s.mixer.mu.Unlock()
	s.onEnded = fn
}

// render adds the part of the source overlapping [start, end) into mix (must hold mixer.mu)
func (s *mixSource) render(mix []float32, start, end int64, channels int) {
	from := max(start, s.startFrame)
	to := min(end, s.endFrame)
	srcChannels := s.buf.Format.Channels

	for f := from; f < to; f++ {
		off := int(f - s.startFrame)
		base := int(f-start) * channels
		for ch := 0; ch < channels; ch++ {
			mix[base+ch] += s.buf.Samples[off*srcChannels+ch%srcChannels]
		}
	}
}

func clamp(s float32) float32 {
	if s > maxSample {
		return maxSample
	}
	if s < -1 {
		return -1
	}
	return s
}

// volumeGain converts a 0-100 volume into a linear gain
func volumeGain(volume int, muted bool) float32 {
	if muted {
		return 0
	}
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	return float32(volume) / 100
}
