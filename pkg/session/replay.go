package session

import (
	"context"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/loamforge/mixer/pkg/mixer"
)

// SoundLoader resolves a recorded sound path back into a live Sound during
// replay. pkg/soundprovider.Provider satisfies this.
type SoundLoader interface {
	Load(ctx context.Context, path string) (*mixer.Sound, error)
}

// Replay reads batches from r until EOF, issuing the recorded control calls
// against sys in order and committing after each batch — reproducing the
// original session's commit boundaries exactly. channels maps a recorded
// channel index to the live ChannelHandle returned by the replayed
// ChannelPlay, so that later Stop/SetParam commands against the same
// recorded index are forwarded to the right handle even if the live System
// allocates a different index.
func Replay(ctx context.Context, r io.Reader, sys *mixer.System, sounds SoundLoader) error {
	dec := msgpack.NewDecoder(r)
	channels := make(map[int]mixer.ChannelHandle)

	for {
		var batch Batch
		if err := dec.Decode(&batch); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("session: decode batch: %w", err)
		}

		sys.SetTime(batch.Time)

		for _, p := range batch.Plays {
			snd, err := sounds.Load(ctx, p.SoundPath)
			if err != nil {
				return fmt.Errorf("session: load %s: %w", p.SoundPath, err)
			}
			h, err := sys.ChannelPlay(snd, p.Time)
			if err != nil {
				// Matches the original run's own failure mode: channel
				// exhaustion is not a replay error, just a dropped event.
				continue
			}
			channels[p.Channel] = h
			if p.Loop {
				sys.ChannelSetLoop(h, true)
			}
		}
		for _, s := range batch.Stops {
			if h, ok := channels[s.Channel]; ok {
				sys.ChannelStop(h)
			}
		}
		for _, pm := range batch.Params {
			if h, ok := channels[pm.Channel]; ok {
				sys.ChannelSetParam(h, pm.Param, pm.Value)
			}
		}

		sys.Commit()
	}
}
