package mixer

import (
	"math"
	"testing"
)

func toneSound(frames int, stereo bool) *Sound {
	ch := 1
	if stereo {
		ch = 2
	}
	samples := make([]int16, frames*ch)
	for i := 0; i < frames; i++ {
		v := int16(10000)
		if stereo {
			samples[2*i], samples[2*i+1] = v, v
		} else {
			samples[i] = v
		}
	}
	return NewSound("tone", samples, stereo)
}

func newTestSystem(t *testing.T) (*System, *Mixdown) {
	t.Helper()
	sys := NewSystem(nil)
	md, err := NewLiveMixdown(sys, 44100, 512, nil)
	if err != nil {
		t.Fatalf("NewLiveMixdown: %v", err)
	}
	return sys, md
}

func TestSingleToneNominal(t *testing.T) {
	sys, md := newTestSystem(t)
	defer md.Destroy()

	snd := toneSound(4096, false)
	sys.SetTime(0)
	h, err := sys.ChannelPlay(snd, 0)
	if err != nil {
		t.Fatalf("ChannelPlay: %v", err)
	}
	if err := sys.ChannelSetParam(h, ParamVolume, 0); err != nil {
		t.Fatalf("ChannelSetParam: %v", err)
	}
	sys.Commit()

	// With vol=0, pan=0, every rendered sample should equal the source
	// amplitude times sin(pi/4) — the unity-gain, center-pan case of E2E
	// scenario 1.
	want := float32(10000) / 32768 * float32(math.Sin(math.Pi/4))

	out := make([]float32, 2*md.BufferSize())
	var sawSound bool
	for i := 0; i < 20; i++ {
		md.Process(Timestamp(i * 12))
		md.Output(out)
		for _, s := range out {
			if s != 0 {
				sawSound = true
				if math.Abs(float64(s-want)) > 1e-4 {
					t.Fatalf("sample = %v, want %v (vol=0 pan=0 gain)", s, want)
				}
			}
		}
	}
	if !sawSound {
		t.Fatalf("expected nonzero output from a playing channel")
	}
}

func TestPanSweepIsEqualPower(t *testing.T) {
	vol := []float32{0}
	leftPan := []float32{-1}
	rightPan := []float32{1}
	centerPan := []float32{0}

	rightVol := append([]float32{}, vol...)
	cvolpan(append([]float32{}, vol...), leftPan)
	cvolpan(rightVol, rightPan)
	cvolpan(append([]float32{}, vol...), centerPan)

	if leftPan[0] != 0 {
		t.Errorf("hard left pan should silence the right channel buffer slot, got %v", leftPan[0])
	}
	if rightVol[0] != 0 {
		t.Errorf("hard right pan should silence the left channel buffer slot, got %v", rightVol[0])
	}

	c := centerPan[0]
	want := float32(math.Sin(math.Pi / 4))
	if math.Abs(float64(c-want)) > 1e-5 {
		t.Errorf("center pan gain = %v, want %v (equal power)", c, want)
	}
}

// TestPanIntermediateMatchesSinLaw pins cvolpan's pan curve to the spec's
// sin((1 ∓ pan) × π/4) law at a non-endpoint, non-center value, where it is
// distinguishable from the sqrt(0.5 ∓ 0.5·pan) law (both laws agree at
// pan ∈ {-1, 0, 1}, so only an intermediate value catches a regression).
func TestPanIntermediateMatchesSinLaw(t *testing.T) {
	vol := []float32{0}
	pan := []float32{0.5}
	cvolpan(vol, pan)

	wantLeft := float32(math.Sin((1 - 0.5) * math.Pi / 4))
	wantRight := float32(math.Sin((1 + 0.5) * math.Pi / 4))
	if math.Abs(float64(vol[0]-wantLeft)) > 1e-5 {
		t.Errorf("left gain at pan=0.5 = %v, want %v (sin law)", vol[0], wantLeft)
	}
	if math.Abs(float64(pan[0]-wantRight)) > 1e-5 {
		t.Errorf("right gain at pan=0.5 = %v, want %v (sin law)", pan[0], wantRight)
	}
}

// TestVolumeGainAtNegativeSixDB pins cvolpan's dB-to-linear conversion at a
// representative non-zero, above-the-fade-knee value, where the inverted
// fade condition and the g-vs-vol multiplier bug both would have produced a
// grossly wrong (louder-than-unity) gain instead of leaving -6dB untouched.
func TestVolumeGainAtNegativeSixDB(t *testing.T) {
	vol := []float32{-6}
	pan := []float32{0}
	cvolpan(vol, pan)

	want := float32(math.Exp(-6*math.Log(10)/20)) * float32(math.Sin(math.Pi/4))
	if math.Abs(float64(vol[0]-want)) > 1e-4 {
		t.Errorf("left gain at vol=-6dB = %v, want %v", vol[0], want)
	}
	if vol[0] >= float32(math.Sin(math.Pi/4)) {
		t.Errorf("vol=-6dB produced gain %v >= unity gain %v", vol[0], math.Sin(math.Pi/4))
	}
}

// TestVolumeFadeBelowKnee exercises the linear fade-to-zero applied below
// -60dB (vol < -60, per spec §4.5), the branch whose condition was
// previously inverted.
func TestVolumeFadeBelowKnee(t *testing.T) {
	vol := []float32{-70}
	pan := []float32{0}
	cvolpan(vol, pan)

	g := float32(math.Exp(-70 * math.Log(10) / 20))
	g *= float32((-70.0 + 80.0) / 20.0)
	want := g * float32(math.Sin(math.Pi/4))
	if math.Abs(float64(vol[0]-want)) > 1e-6 {
		t.Errorf("left gain at vol=-70dB = %v, want %v", vol[0], want)
	}
}

func TestDeferredStart(t *testing.T) {
	sys, md := newTestSystem(t)
	defer md.Destroy()

	snd := toneSound(2048, false)
	sys.SetTime(0)
	h, _ := sys.ChannelPlay(snd, 2000) // starts 2 seconds in the future
	sys.ChannelSetParam(h, ParamVolume, 0)
	sys.Commit()

	out := make([]float32, 2*md.BufferSize())
	for i := 0; i < 5; i++ {
		md.Process(Timestamp(i * 12))
		md.Output(out)
		for _, s := range out {
			if s != 0 {
				t.Fatalf("sound with a future start time produced output on buffer %d", i)
			}
		}
	}
}

func TestStopFinishesChannel(t *testing.T) {
	sys, md := newTestSystem(t)
	defer md.Destroy()

	snd := toneSound(1 << 16, false)
	sys.SetTime(0)
	h, _ := sys.ChannelPlay(snd, 0)
	sys.ChannelSetParam(h, ParamVolume, 0)
	sys.Commit()

	md.Process(0)
	sys.SetTime(5)
	sys.ChannelStop(h)
	sys.Commit()

	for i := 0; i < 50 && !sys.ChannelIsDone(h); i++ {
		md.Process(Timestamp(i * 12))
	}
	if !sys.ChannelIsDone(h) {
		t.Fatalf("channel never reported done after stop")
	}
}

func TestChannelReuseAfterDone(t *testing.T) {
	sys, md := newTestSystem(t)
	defer md.Destroy()

	snd := toneSound(16, false)
	sys.SetTime(0)
	h, _ := sys.ChannelPlay(snd, 0)
	sys.ChannelSetParam(h, ParamVolume, 0)
	sys.Commit()

	for i := 0; i < 20 && !sys.ChannelIsDone(h); i++ {
		md.Process(Timestamp(i * 12))
	}
	sys.Commit()

	h2, err := sys.ChannelPlay(snd, 0)
	if err != nil {
		t.Fatalf("expected the freed channel slot to be reusable: %v", err)
	}
	if h2 < 0 {
		t.Fatalf("expected a valid handle, got %d", h2)
	}
}

func TestQueuedParamSurvivesBufferBoundary(t *testing.T) {
	sys, md := newTestSystem(t)
	defer md.Destroy()

	// Long enough (512 buffers) that the channel is still playing when the
	// loop below ends, so the final check sees its pan state.
	snd := toneSound(1<<18, false)
	sys.SetTime(0)
	h, _ := sys.ChannelPlay(snd, 0)
	sys.ChannelSetParam(h, ParamVolume, 0)
	sys.Commit()
	md.Process(0)

	// Schedule a parameter change far enough in the future that it should
	// not land within the very next buffer, to exercise retention across a
	// buffer boundary rather than immediate dispatch.
	sys.SetTime(2000)
	sys.ChannelSetParam(h, ParamPan, 1)
	sys.Commit()

	if md.process.len() == 0 && md.inbox.len() == 0 {
		t.Fatalf("expected the pan message to be queued somewhere in the mixdown")
	}

	for i := 1; i < 400; i++ {
		md.Process(Timestamp(i * 12))
	}
	// After enough buffers have advanced past the scheduled time, the
	// channel's pan should have moved off center.
	lc := &md.channels[h]
	if lc.flags&lOccupied != 0 && lc.params[ParamPan].val1 == 0 {
		t.Errorf("expected the deferred pan change to have taken effect")
	}
}

func TestChannelExhaustion(t *testing.T) {
	sys, md := newTestSystem(t)
	defer md.Destroy()

	snd := toneSound(1<<16, false)
	sys.SetTime(0)
	for i := 0; i < ChannelCapacity; i++ {
		if _, err := sys.ChannelPlay(snd, 0); err != nil {
			t.Fatalf("unexpected error filling channel %d: %v", i, err)
		}
	}
	if _, err := sys.ChannelPlay(snd, 0); err != ErrChannelExhausted {
		t.Fatalf("expected ErrChannelExhausted, got %v", err)
	}
}

func TestVolumeClamping(t *testing.T) {
	if got := ClampVolume(10); got != 0 {
		t.Errorf("ClampVolume(10) = %v, want 0", got)
	}
	if got := ClampVolume(-1000); got != SilenceDB {
		t.Errorf("ClampVolume(-1000) = %v, want %v", got, SilenceDB)
	}
	if got := ClampPan(5); got != 1 {
		t.Errorf("ClampPan(5) = %v, want 1", got)
	}
	if got := ClampPan(-5); got != -1 {
		t.Errorf("ClampPan(-5) = %v, want -1", got)
	}
}

func TestTimestampWraparound(t *testing.T) {
	var a Timestamp = 10
	var b Timestamp = 0xFFFFFFF0
	if !TimeBefore(b, a) {
		t.Errorf("expected %d to be considered before %d across wraparound", b, a)
	}
	if TimeBefore(a, b) {
		t.Errorf("did not expect %d to be considered before %d", a, b)
	}
}
