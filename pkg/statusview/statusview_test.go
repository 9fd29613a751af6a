package statusview

import (
	"strings"
	"testing"
)

func TestRenderEmptyFrame(t *testing.T) {
	f := Frame{Styles: NewStyles(DefaultTheme), Title: "mixerctl", Status: "live 48000Hz/1024"}
	out := f.Render(60)
	if !strings.Contains(out, "no channels playing") {
		t.Errorf("expected an empty-frame placeholder, got:\n%s", out)
	}
}

func TestRenderOccupiedChannel(t *testing.T) {
	f := Frame{
		Styles: NewStyles(DefaultTheme),
		Title:  "mixerctl",
		Status: "live",
		Channels: []ChannelView{
			{Index: 3, Occupied: true, Path: "explosion.pcm", Volume: -6, Pan: 0.5, Started: true},
		},
	}
	out := f.Render(60)
	if !strings.Contains(out, "ch03") || !strings.Contains(out, "playing") {
		t.Errorf("expected channel 3 listed as playing, got:\n%s", out)
	}
}
