// Package session records the control-layer command stream a mixer.System
// receives, and replays it later against a fresh System. It is the record
// mixdown's natural companion: a recorded session lets an offline render be
// reproduced byte-for-byte, or lets a regression test replay a fixed
// scenario without depending on a live client.
package session

import (
	"fmt"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/loamforge/mixer/pkg/mixer"
)

// PlayCmd records a channel_play call.
type PlayCmd struct {
	Channel   int             `msgpack:"ch"`
	SoundPath string          `msgpack:"path"`
	Time      mixer.Timestamp `msgpack:"t"`
	Loop      bool            `msgpack:"loop,omitempty"`
}

// StopCmd records a channel_stop call.
type StopCmd struct {
	Channel int `msgpack:"ch"`
}

// ParamCmd records a channel_set_param call.
type ParamCmd struct {
	Channel int        `msgpack:"ch"`
	Param   mixer.Param `msgpack:"p"`
	Value   float32    `msgpack:"v"`
}

// Batch is everything recorded between two commits: the commit's wall-clock
// timestamp plus every control call that preceded it. An empty batch (no
// calls between two commits) is not written — see Recorder.Commit.
type Batch struct {
	Time   mixer.Timestamp `msgpack:"time"`
	Plays  []PlayCmd       `msgpack:"plays,omitempty"`
	Stops  []StopCmd       `msgpack:"stops,omitempty"`
	Params []ParamCmd      `msgpack:"params,omitempty"`
}

func (b *Batch) empty() bool {
	return len(b.Plays) == 0 && len(b.Stops) == 0 && len(b.Params) == 0
}

// Recorder wraps a mixer.System, forwarding every control call unchanged and
// additionally appending it to the pending batch. Commit flushes the pending
// batch to the underlying msgpack stream before forwarding to the System.
//
// Recorder is safe for concurrent use by multiple control threads, mirroring
// the concurrency guarantees of the System it wraps.
type Recorder struct {
	sys *mixer.System
	enc *msgpack.Encoder
	w   io.Closer

	mu      sync.Mutex
	pending Batch
}

// NewRecorder creates a Recorder that forwards to sys and appends
// msgpack-framed batches to w as they commit. w is closed by Close.
func NewRecorder(sys *mixer.System, w io.WriteCloser) *Recorder {
	return &Recorder{
		sys: sys,
		enc: msgpack.NewEncoder(w),
		w:   w,
	}
}

// Close closes the underlying writer. It does not flush a partial batch —
// call Commit first if there are pending, uncommitted control calls worth
// keeping.
func (r *Recorder) Close() error {
	return r.w.Close()
}

func (r *Recorder) ChannelPlay(sound *mixer.Sound, t mixer.Timestamp) (mixer.ChannelHandle, error) {
	h, err := r.sys.ChannelPlay(sound, t)
	if err != nil {
		return h, err
	}
	r.mu.Lock()
	r.pending.Plays = append(r.pending.Plays, PlayCmd{Channel: int(h), SoundPath: sound.Path, Time: t})
	r.mu.Unlock()
	return h, nil
}

func (r *Recorder) ChannelStop(h mixer.ChannelHandle) {
	r.sys.ChannelStop(h)
	r.mu.Lock()
	r.pending.Stops = append(r.pending.Stops, StopCmd{Channel: int(h)})
	r.mu.Unlock()
}

func (r *Recorder) ChannelSetLoop(h mixer.ChannelHandle, loop bool) error {
	if err := r.sys.ChannelSetLoop(h, loop); err != nil {
		return err
	}
	r.mu.Lock()
	for i := range r.pending.Plays {
		if r.pending.Plays[i].Channel == int(h) {
			r.pending.Plays[i].Loop = loop
		}
	}
	r.mu.Unlock()
	return nil
}

func (r *Recorder) ChannelSetParam(h mixer.ChannelHandle, p mixer.Param, value float32) error {
	if err := r.sys.ChannelSetParam(h, p, value); err != nil {
		return err
	}
	r.mu.Lock()
	r.pending.Params = append(r.pending.Params, ParamCmd{Channel: int(h), Param: p, Value: value})
	r.mu.Unlock()
	return nil
}

func (r *Recorder) SetTime(t mixer.Timestamp) {
	r.sys.SetTime(t)
	r.mu.Lock()
	r.pending.Time = t
	r.mu.Unlock()
}

// Commit forwards to the wrapped System, then — if any control call was
// recorded since the previous commit — writes the pending batch to the
// session log.
func (r *Recorder) Commit() error {
	r.sys.Commit()

	r.mu.Lock()
	batch := r.pending
	r.pending = Batch{}
	r.mu.Unlock()

	if batch.empty() {
		return nil
	}
	if err := r.enc.Encode(&batch); err != nil {
		return fmt.Errorf("session: write batch: %w", err)
	}
	return nil
}
