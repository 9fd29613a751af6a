package control

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/loamforge/mixer/pkg/mixer"
)

type fakeLoader struct{}

func (fakeLoader) Load(_ context.Context, path string) (*mixer.Sound, error) {
	samples := make([]int16, 4096)
	for i := range samples {
		samples[i] = 8000
	}
	return mixer.NewSound(path, samples, false), nil
}

func TestClientServerRoundTrip(t *testing.T) {
	sys := mixer.NewSystem(nil)
	md, err := mixer.NewLiveMixdown(sys, 44100, 512, nil)
	if err != nil {
		t.Fatalf("NewLiveMixdown: %v", err)
	}
	defer md.Destroy()

	srv := NewServer(sys, fakeLoader{}, nil)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/"
	client, err := Dial(context.Background(), url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if err := client.SetTime(0); err != nil {
		t.Fatalf("SetTime: %v", err)
	}
	h, err := client.ChannelPlay("tones/a.pcm", 0)
	if err != nil {
		t.Fatalf("ChannelPlay: %v", err)
	}
	if err := client.ChannelSetParam(h, mixer.ParamVolume, 0); err != nil {
		t.Fatalf("ChannelSetParam: %v", err)
	}
	if err := client.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	done, err := client.ChannelIsDone(h)
	if err != nil {
		t.Fatalf("ChannelIsDone: %v", err)
	}
	if done {
		t.Errorf("freshly started channel reported done")
	}

	md.Process(12)
	out := make([]float32, 2*md.BufferSize())
	md.Output(out)
	var sawSound bool
	for _, s := range out {
		if s != 0 {
			sawSound = true
		}
	}
	if !sawSound {
		t.Errorf("expected audio rendered after a remote ChannelPlay+Commit")
	}
}
