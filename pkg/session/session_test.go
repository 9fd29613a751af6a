package session

import (
	"bytes"
	"context"
	"testing"

	"github.com/loamforge/mixer/pkg/mixer"
)

type fakeLoader struct {
	sounds map[string]*mixer.Sound
}

func (f fakeLoader) Load(_ context.Context, path string) (*mixer.Sound, error) {
	return f.sounds[path], nil
}

func toneSound(path string, frames int) *mixer.Sound {
	samples := make([]int16, frames)
	for i := range samples {
		samples[i] = 8000
	}
	return mixer.NewSound(path, samples, false)
}

func TestRecordAndReplayRendersAudio(t *testing.T) {
	sys := mixer.NewSystem(nil)
	md, err := mixer.NewLiveMixdown(sys, 44100, 512, nil)
	if err != nil {
		t.Fatalf("NewLiveMixdown: %v", err)
	}
	defer md.Destroy()

	var buf bytes.Buffer
	rec := NewRecorder(sys, nopCloser{&buf})

	snd := toneSound("tones/a.pcm", 4096)
	rec.SetTime(0)
	h, err := rec.ChannelPlay(snd, 0)
	if err != nil {
		t.Fatalf("ChannelPlay: %v", err)
	}
	if err := rec.ChannelSetParam(h, mixer.ParamVolume, 0); err != nil {
		t.Fatalf("ChannelSetParam: %v", err)
	}
	if err := rec.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	rec.SetTime(20)
	rec.ChannelStop(h)
	if err := rec.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := rec.Commit(); err != nil { // idempotent: nothing pending
		t.Fatalf("empty Commit: %v", err)
	}

	if buf.Len() == 0 {
		t.Fatalf("expected the recorded log to contain at least one batch")
	}

	replaySys := mixer.NewSystem(nil)
	replayMd, err := mixer.NewLiveMixdown(replaySys, 44100, 512, nil)
	if err != nil {
		t.Fatalf("NewLiveMixdown (replay): %v", err)
	}
	defer replayMd.Destroy()

	loader := fakeLoader{sounds: map[string]*mixer.Sound{"tones/a.pcm": snd}}
	if err := Replay(context.Background(), &buf, replaySys, loader); err != nil {
		t.Fatalf("Replay: %v", err)
	}

	out := make([]float32, 2*replayMd.BufferSize())
	replayMd.Process(40)
	replayMd.Output(out)
	var sawSound bool
	for _, s := range out {
		if s != 0 {
			sawSound = true
		}
	}
	if !sawSound {
		t.Errorf("expected the replayed session to render nonzero audio")
	}
}

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }
