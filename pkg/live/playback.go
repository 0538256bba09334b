// ABOUTME: Gapless scheduling of received speech on the output clock
// ABOUTME: Tracks active sources, the next start time and interruption
package live

import (
	"github.com/cognira/velmora-go/pkg/audio/decode"
	"github.com/cognira/velmora-go/pkg/audio/output"
)

// playback is owned by the session goroutine
type playback struct {
	out     output.Context
	decoder decode.Decoder
	clock   float64
	active  map[output.Source]struct{}
}

func newPlayback(out output.Context, decoder decode.Decoder) *playback {
	return &playback{
		out:     out,
		decoder: decoder,
		clock:   out.CurrentTime(),
		active:  make(map[output.Source]struct{}),
	}
}

// enqueue schedules pcm right after everything already queued, or now if the
// queue has drained. It returns the start time.
func (p *playback) enqueue(pcm []byte, onEnded func(output.Source)) (float64, error) {
	buf, err := p.decoder.Decode(pcm)
	if err != nil {
		return 0, err
	}

	startAt := max(p.clock, p.out.CurrentTime())

	src := p.out.NewSource(buf)
	src.OnEnded(func() { onEnded(src) })
	src.Start(startAt)

	p.clock = startAt + src.Duration()
	p.active[src] = struct{}{}
	return startAt, nil
}

// ended removes a finished source. Sources already flushed are ignored.
func (p *playback) ended(src output.Source) bool {
	if _, ok := p.active[src]; !ok {
		return false
	}
	delete(p.active, src)
	return true
}

// interrupt stops every source and resets the clock to zero
func (p *playback) interrupt() {
	for src := range p.active {
		src.Stop()
	}
	clear(p.active)
	// zero, not CurrentTime: the next enqueue takes max() with the device clock
	p.clock = 0
}

func (p *playback) speaking() bool {
	return len(p.active) > 0
}
