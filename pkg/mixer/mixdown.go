package mixer

import "fmt"

// localFlags tracks per-mixdown, per-channel state that is never shared
// across threads: only the mixdown's own thread ever touches it.
type localFlags uint8

const (
	lOccupied localFlags = 1 << iota // this local slot mirrors a live global channel
	lStarted                         // start_sample has been reached; playback underway
	lStop                            // a stop has been processed locally
	lDone                            // finished; the next drainInbox call propagates this to the global flag
)

// paramSeg mirrors one parameter's most recent automation segment: a value
// going from val[0] at pos[0] to val[1] at pos[1], both sample positions
// relative to the start of the current buffer.
type paramSeg struct {
	pos0, pos1 int
	val0, val1 float32
}

type localChannel struct {
	flags  localFlags
	sound  *Sound
	pos    int // sample position within the sound, relative to the current buffer's start; may be negative
	loop   bool
	params [ParamCount]paramSeg
}

// Mixdown is one output rendering pipeline: either a live mixdown (driven by
// an audio device callback, using the drifting time map) or a record
// mixdown (driven by an offline encoder loop, using the exact time map).
type Mixdown struct {
	kind       MixdownKind
	sys        *System
	sampleRate int
	bufSize    int

	live    *liveTimeMap
	offline *offlineTimeMap

	inbox   *msgQueue
	process *msgQueue

	// life and lifeProcess carry play/stop events the same way inbox/process
	// carry parameter messages: life is appended to under the commit lock
	// (by Commit), lifeProcess is this mixdown's own working copy, refilled
	// by drainInbox.
	life        []lifecycleEvent
	lifeProcess []lifecycleEvent

	channels [ChannelCapacity]localChannel
	justDone []int

	// bufParam holds, per channel, PARAM_COUNT lanes of bufSize>>paramRateBits
	// samples each: gain/pan envelopes at the parameter rate.
	bufParam [][ParamCount][]float32
	bufSampL []float32
	bufSampR []float32
	busL     []float32
	busR     []float32

	log Logger
}

// minBufSize / maxBufSize bound the power-of-two buffer size accepted by
// mixdown creation, per §4.2.
const (
	minBufSize = 32
	maxBufSize = 32768

	minLiveSampleRate = 11025
	maxLiveSampleRate = 192000
)

func newMixdown(sys *System, kind MixdownKind, sampleRate, bufSize int, log Logger) (*Mixdown, error) {
	if bufSize < minBufSize || bufSize > maxBufSize || bufSize&(bufSize-1) != 0 {
		return nil, fmt.Errorf("%w: buffer size %d must be a power of two in [%d, %d]", ErrConfiguration, bufSize, minBufSize, maxBufSize)
	}
	if kind == KindLive && (sampleRate < minLiveSampleRate || sampleRate > maxLiveSampleRate) {
		return nil, fmt.Errorf("%w: sample rate %d out of range [%d, %d]", ErrConfiguration, sampleRate, minLiveSampleRate, maxLiveSampleRate)
	}
	if log == nil {
		log = defaultLogger
	}

	pbufsz := bufSize >> paramRateBits
	bufParam := make([][ParamCount][]float32, ChannelCapacity)
	for i := range bufParam {
		for p := 0; p < int(ParamCount); p++ {
			bufParam[i][p] = make([]float32, pbufsz)
		}
	}

	md := &Mixdown{
		kind:       kind,
		sys:        sys,
		sampleRate: sampleRate,
		bufSize:    bufSize,
		inbox:      newMsgQueue(64),
		process:    newMsgQueue(64),
		bufParam:   bufParam,
		bufSampL:   make([]float32, bufSize),
		bufSampR:   make([]float32, bufSize),
		busL:       make([]float32, bufSize),
		busR:       make([]float32, bufSize),
		log:        log,
	}
	return md, nil
}

// NewLiveMixdown creates and registers a live mixdown with sys. At most one
// live mixdown may exist at a time.
func NewLiveMixdown(sys *System, sampleRate, bufSize int, log Logger) (*Mixdown, error) {
	md, err := newMixdown(sys, KindLive, sampleRate, bufSize, log)
	if err != nil {
		return nil, err
	}
	md.live = newLiveTimeMap(sampleRate, bufSize)
	if err := sys.registerLive(md); err != nil {
		return nil, err
	}
	return md, nil
}

// NewRecordMixdown creates and registers a record mixdown with sys. At most
// one record mixdown may exist at a time. timeref is the timestamp the
// offline time map is anchored to; pass the client's current wall time.
func NewRecordMixdown(sys *System, sampleRate, bufSize int, timeref Timestamp, log Logger) (*Mixdown, error) {
	md, err := newMixdown(sys, KindRecord, sampleRate, bufSize, log)
	if err != nil {
		return nil, err
	}
	md.offline = newOfflineTimeMap(sampleRate, bufSize, timeref)
	if err := sys.registerRecord(md); err != nil {
		return nil, err
	}
	return md, nil
}

// Destroy deregisters the mixdown. Already-rendered output the caller holds
// remains valid; no further Process calls should be made on md.
func (md *Mixdown) Destroy() {
	md.sys.unregister(md)
}

// SampleRate reports the mixdown's sample rate.
func (md *Mixdown) SampleRate() int { return md.sampleRate }

// BufferSize reports the mixdown's buffer size, in frames.
func (md *Mixdown) BufferSize() int { return md.bufSize }

// timeToSample converts a client timestamp to a sample offset relative to
// the start of the current buffer, dispatching on md.kind rather than
// through an interface — see Design Notes on polymorphism.
func (md *Mixdown) timeToSample(t Timestamp) int {
	if md.kind == KindLive {
		return md.live.t2s(t)
	}
	return md.offline.t2s(t)
}

// updateTime advances the time map by one buffer.
func (md *Mixdown) updateTime(committedTime, wallTime Timestamp) {
	if md.kind == KindLive {
		md.live.update(committedTime, wallTime)
	} else {
		md.offline.update()
	}
}

// Process renders one buffer ending at the given wall-clock timestamp and
// returns the number of frames rendered (always BufferSize(), never zero —
// rendering is total by design). Call Output afterward to retrieve the
// interleaved samples.
func (md *Mixdown) Process(endTime Timestamp) int {
	committedTime := md.sys.drainInbox(md, md.justDone, md.kind)
	md.justDone = md.justDone[:0]

	md.updateTime(committedTime, endTime)
	md.process.sortByAddr()
	md.dispatch()
	md.render()

	return md.bufSize
}

// Output copies the most recently rendered buffer into dst as interleaved
// stereo float32 samples. dst must have length >= 2*BufferSize().
func (md *Mixdown) Output(dst []float32) {
	n := md.bufSize
	for i := 0; i < n; i++ {
		dst[2*i] = md.busL[i]
		dst[2*i+1] = md.busR[i]
	}
}
