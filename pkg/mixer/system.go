package mixer

import (
	"fmt"
	"sync"
)

// System is the global mixer singleton, as an explicit owned value rather
// than package-level state (see Design Notes on globals). One System may
// have at most one live and one record Mixdown registered at a time.
type System struct {
	mu sync.Mutex // the commit lock: channel flags, uncommitted queue, mixdown pointers, committed time

	channels [ChannelCapacity]Channel
	nextScan int // round-robin hint for the next free-channel scan

	uncommitted   *msgQueue
	uncommittedAt Timestamp // "current uncommitted timestamp", advanced by SetTime
	committedTime Timestamp

	live   *Mixdown
	record *Mixdown

	log Logger
}

// NewSystem creates an empty mixer with no channels playing and no
// mixdowns registered. A nil logger falls back to the package default.
func NewSystem(log Logger) *System {
	if log == nil {
		log = defaultLogger
	}
	return &System{
		uncommitted: newMsgQueue(256),
		log:         log,
	}
}

// ChannelPlay scans for a free channel, assigns the given sound to it at
// the given start timestamp, and returns its handle. It returns
// ErrChannelExhausted if every channel is occupied, and ErrNilSound if
// sound is nil — neither mutates mixer state.
func (s *System) ChannelPlay(sound *Sound, startTime Timestamp) (ChannelHandle, error) {
	if sound == nil {
		return invalidHandle, ErrNilSound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := 0; i < ChannelCapacity; i++ {
		c := (s.nextScan + i) % ChannelCapacity
		if s.channels[c].free() {
			idx = c
			break
		}
	}
	if idx < 0 {
		s.log.Warnf("channel_play: all %d channels occupied, dropping", ChannelCapacity)
		return invalidHandle, ErrChannelExhausted
	}
	s.nextScan = (idx + 1) % ChannelCapacity

	ch := &s.channels[idx]
	ch.ctrl = ctrlStart
	ch.global = 0
	ch.startTime = startTime
	ch.stopTime = startTime
	ch.sound = sound.Retain()
	ch.initialParams = [ParamCount]float32{}
	ch.committedParams = [ParamCount]float32{}

	return ChannelHandle(idx), nil
}

// ChannelStop marks a channel to stop at the current uncommitted timestamp.
// It is a no-op on an invalid or already-free handle.
func (s *System) ChannelStop(h ChannelHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.lockedChannel(h)
	if !ok {
		return
	}
	ch.ctrl |= ctrlStop
	ch.stopTime = s.uncommittedAt
}

// ChannelSetLoop marks a channel to loop its sound on reaching the end. It
// only has an effect if called before the channel's first Commit — the loop
// flag is read once, when the channel's play event is published.
func (s *System) ChannelSetLoop(h ChannelHandle, loop bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.lockedChannel(h)
	if !ok {
		s.log.Errorf("channel_set_loop: invalid handle %d", h)
		return ErrInvalidArgument
	}
	if loop {
		ch.ctrl |= ctrlLoop
	} else {
		ch.ctrl &^= ctrlLoop
	}
	return nil
}

// ChannelSetParam queues a parameter change. If the channel has not yet
// been through its first commit, the value is written directly into its
// initial parameters instead of being queued as a message — see §4.1.
func (s *System) ChannelSetParam(h ChannelHandle, p Param, value float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.lockedChannel(h)
	if !ok || p >= ParamCount {
		s.log.Errorf("channel_set_param: invalid argument (handle=%d param=%d)", h, p)
		return ErrInvalidArgument
	}

	value = clampParam(p, value)

	if ch.global == 0 {
		// INIT window: no commit has published this channel yet.
		ch.initialParams[p] = value
		return nil
	}

	if !s.uncommitted.append(message{
		addr: makeAddr(int(h), p),
		time: s.uncommittedAt,
		val:  value,
	}) {
		s.log.Warnf("channel_set_param: uncommitted queue full, dropping message")
	}
	return nil
}

// ParamValue pairs a parameter with a value, for ChannelSetParams.
type ParamValue struct {
	Param Param
	Value float32
}

// ChannelSetParams applies several parameter changes atomically with
// respect to the commit lock.
func (s *System) ChannelSetParams(h ChannelHandle, values []ParamValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.lockedChannel(h)
	if !ok {
		s.log.Errorf("channel_set_params: invalid handle %d", h)
		return ErrInvalidArgument
	}

	for _, pv := range values {
		if pv.Param >= ParamCount {
			s.log.Errorf("channel_set_params: invalid param %d", pv.Param)
			continue
		}
		v := clampParam(pv.Param, pv.Value)
		if ch.global == 0 {
			ch.initialParams[pv.Param] = v
			continue
		}
		if !s.uncommitted.append(message{addr: makeAddr(int(h), pv.Param), time: s.uncommittedAt, val: v}) {
			s.log.Warnf("channel_set_params: uncommitted queue full, dropping message")
		}
	}
	return nil
}

// ChannelIsDone reports whether every active mixdown has finished this
// channel. A free or invalid handle reports true.
func (s *System) ChannelIsDone(h ChannelHandle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.lockedChannel(h)
	if !ok {
		return true
	}
	return s.doneLocked(ch)
}

func (s *System) doneLocked(ch *Channel) bool {
	need := globalFlags(0)
	if s.live != nil {
		need |= gDoneLive
	}
	if s.record != nil {
		need |= gDoneRecord
	}
	if need == 0 {
		return false
	}
	return ch.global&need == need
}

func (s *System) lockedChannel(h ChannelHandle) (*Channel, bool) {
	if h < 0 || int(h) >= ChannelCapacity {
		return nil, false
	}
	ch := &s.channels[h]
	if ch.free() {
		return nil, false
	}
	return ch, true
}

func clampParam(p Param, v float32) float32 {
	switch p {
	case ParamVolume:
		return ClampVolume(v)
	case ParamPan:
		return ClampPan(v)
	default:
		return v
	}
}

// SetTime advances the uncommitted timestamp. All subsequent control calls
// that append messages use this timestamp until the next SetTime call.
func (s *System) SetTime(t Timestamp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uncommittedAt = t
}

// Commit publishes the uncommitted queue and channel flag deltas to every
// active mixdown's inbox, advances the committed timestamp, and frees any
// channel that every active mixdown has finished. It is idempotent: a
// second call with no intervening control calls performs steps (a)-(d)
// again over an empty uncommitted queue, which is a no-op, and then
// repeats step (e), which is also a no-op since already-freed channels
// have zero global flags.
func (s *System) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.channels {
		ch := &s.channels[i]
		if ch.ctrl == 0 {
			continue
		}
		if ch.ctrl&ctrlStart != 0 && ch.global&gStart == 0 {
			ch.global |= gStart
			ev := lifecycleEvent{
				channel: i,
				kind:    lifecyclePlay,
				time:    ch.startTime,
				sound:   ch.sound,
				initial: ch.initialParams,
				loop:    ch.ctrl&ctrlLoop != 0,
			}
			// Each mixdown holds its own sound reference, released by its
			// finishLocally; the channel's reference is released when the
			// channel is freed below.
			if s.live != nil {
				ch.sound.Retain()
				s.live.life = append(s.live.life, ev)
			}
			if s.record != nil {
				ch.sound.Retain()
				s.record.life = append(s.record.life, ev)
			}
		}
		if ch.ctrl&ctrlStop != 0 && ch.global&gStop == 0 {
			ch.global |= gStop
			ev := lifecycleEvent{channel: i, kind: lifecycleStop, time: ch.stopTime}
			if s.live != nil {
				s.live.life = append(s.live.life, ev)
			}
			if s.record != nil {
				s.record.life = append(s.record.life, ev)
			}
		}
	}

	if s.live != nil {
		s.live.inbox.appendAll(s.uncommitted)
	}
	if s.record != nil {
		s.record.inbox.appendAll(s.uncommitted)
	}

	for _, m := range s.uncommitted.msgs {
		ch := &s.channels[m.addr.channel()]
		if ch.ctrl != 0 {
			ch.committedParams[m.addr.param()] = m.val
		}
	}

	s.uncommitted.reset()
	s.committedTime = s.uncommittedAt

	for i := range s.channels {
		ch := &s.channels[i]
		if ch.ctrl == 0 {
			continue
		}
		if s.doneLocked(ch) {
			ch.sound.Release()
			*ch = Channel{}
		}
	}
}

// registerLive and registerRecord are called by Mixdown constructors under
// the commit lock. Only one of each kind may be registered at a time.
func (s *System) registerLive(md *Mixdown) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live != nil {
		return fmt.Errorf("mixer: a live mixdown is already registered")
	}
	s.live = md
	return nil
}

func (s *System) registerRecord(md *Mixdown) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record != nil {
		return fmt.Errorf("mixer: a record mixdown is already registered")
	}
	s.record = md
	return nil
}

func (s *System) unregister(md *Mixdown) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live == md {
		s.live = nil
	}
	if s.record == md {
		s.record = nil
	}
}

// drainInbox is the one point per buffer where a mixdown's own thread
// touches the commit lock: it publishes the channels that finished
// rendering during the previous buffer (see §4.5 point 4 — the local DONE
// bit propagates to the global flag "on the next commit", which for this
// lock acquisition means "the next time this mixdown touches the lock"),
// moves every message waiting in md's inbox into its process queue, and
// snapshots the current committed time.
func (s *System) drainInbox(md *Mixdown, justDone []int, kind MixdownKind) Timestamp {
	s.mu.Lock()
	defer s.mu.Unlock()

	bit := gDoneLive
	if kind == KindRecord {
		bit = gDoneRecord
	}
	for _, channel := range justDone {
		ch := &s.channels[channel]
		if ch.ctrl != 0 {
			ch.global |= bit
		}
	}

	md.process.appendAll(md.inbox)
	md.inbox.reset()

	md.lifeProcess = append(md.lifeProcess, md.life...)
	md.life = md.life[:0]

	return s.committedTime
}
