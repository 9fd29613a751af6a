package mixer

import "sync/atomic"

// Sound is an immutable, reference-counted decoded audio asset. Samples are
// 16-bit PCM, interleaved if Stereo. The decoded-sound provider (outside this
// package, see pkg/soundprovider) is responsible for producing Sounds that
// are already resampled to the mixer's sample rate — this package never
// resamples.
type Sound struct {
	Samples    []int16
	Stereo     bool
	FrameCount int
	Path       string

	refs int32
}

// NewSound wraps decoded samples into a Sound with an initial reference
// count of one, owned by the caller.
func NewSound(path string, samples []int16, stereo bool) *Sound {
	frames := len(samples)
	if stereo {
		frames /= 2
	}
	return &Sound{
		Samples:    samples,
		Stereo:     stereo,
		FrameCount: frames,
		Path:       path,
		refs:       1,
	}
}

// Retain increments the reference count. Safe from any thread.
func (s *Sound) Retain() *Sound {
	atomic.AddInt32(&s.refs, 1)
	return s
}

// Release decrements the reference count. The caller must not touch s after
// a call that brings the count to zero; there is nothing left to free beyond
// the Go garbage collector reclaiming the backing slice, but Release is kept
// symmetric with Retain so callers can reason about ownership the same way
// the original C implementation did.
func (s *Sound) Release() {
	atomic.AddInt32(&s.refs, -1)
}

// RefCount reports the current reference count, for diagnostics and tests.
func (s *Sound) RefCount() int32 {
	return atomic.LoadInt32(&s.refs)
}

// frame returns the left/right sample pair at the given frame index,
// converted to float32 via the standard s16 -> float scale. Indices outside
// [0, FrameCount) return silence.
func (s *Sound) frame(i int) (l, r float32) {
	if i < 0 || i >= s.FrameCount {
		return 0, 0
	}
	const scale = 1.0 / 32768.0
	if s.Stereo {
		base := i * 2
		return float32(s.Samples[base]) * scale, float32(s.Samples[base+1]) * scale
	}
	x := float32(s.Samples[i]) * scale
	return x, x
}
