// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Used by capture to bring device-rate audio down to the upload rate
package resample

// Resampler performs linear interpolation to convert between sample rates.
// The last frame of each chunk is carried into the next call so chunk
// boundaries interpolate without gaps.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64   // in frames; frame 0 is lastFrame, frame k is input frame k-1
	lastFrame  []float32 // one sample per channel
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	r := &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastFrame:  make([]float32, channels),
	}
	r.Reset()
	return r
}

// Passthrough reports whether input and output rates match.
func (r *Resampler) Passthrough() bool {
	return r.inputRate == r.outputRate
}

// Resample converts interleaved input at inputRate into output at outputRate
// and returns the number of samples written. Output should hold at least
// MaxOutputSamples(len(input)) samples or the tail of the input is dropped.
func (r *Resampler) Resample(input []float32, output []float32) int {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return 0
	}
	outputFrames := len(output) / r.channels

	outIdx := 0
	for outIdx < outputFrames {
		idx := int(r.position)
		frac := float32(r.position - float64(idx))
		if idx > inputFrames || (idx == inputFrames && frac > 0) {
			break
		}

		for ch := 0; ch < r.channels; ch++ {
			s0 := r.frameSample(input, idx, ch)
			if frac == 0 {
				output[outIdx*r.channels+ch] = s0
				continue
			}
			s1 := input[idx*r.channels+ch]
			output[outIdx*r.channels+ch] = s0 + (s1-s0)*frac
		}

		outIdx++
		r.position += r.ratio
	}

	r.position -= float64(inputFrames)
	if r.position < 0 {
		r.position = 0
	}
	copy(r.lastFrame, input[(inputFrames-1)*r.channels:inputFrames*r.channels])

	return outIdx * r.channels
}

func (r *Resampler) frameSample(input []float32, frame, ch int) float32 {
	if frame == 0 {
		return r.lastFrame[ch]
	}
	return input[(frame-1)*r.channels+ch]
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 1.0
	for i := range r.lastFrame {
		r.lastFrame[i] = 0
	}
}

// MaxOutputSamples returns an output size large enough for one Resample call.
func (r *Resampler) MaxOutputSamples(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames)/r.ratio) + 2
	return outputFrames * r.channels
}
