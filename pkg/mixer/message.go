package mixer

// Param identifies an automatable channel parameter.
type Param uint16

const (
	ParamVolume Param = iota
	ParamPan
	ParamCount
)

const (
	// SilenceDB is the floor for Volume: at or below this value a channel
	// renders exactly zero.
	SilenceDB float32 = -80

	// paramRateBits / ParamRate: the gain/pan envelope is evaluated at
	// 1/64th of the audio sample rate.
	paramRateBits = 6
	ParamRate     = 1 << paramRateBits
)

// ClampVolume clamps a volume value to [SilenceDB, 0].
func ClampVolume(db float32) float32 {
	if db < SilenceDB {
		return SilenceDB
	}
	if db > 0 {
		return 0
	}
	return db
}

// ClampPan clamps a pan value to [-1, 1].
func ClampPan(p float32) float32 {
	if p < -1 {
		return -1
	}
	if p > 1 {
		return 1
	}
	return p
}

// addr packs a channel index and a parameter index into a single sortable
// key: channel in the high bits, parameter in the low bits. Sorting messages
// by addr groups every message for one channel together, and within a
// channel groups by parameter — exactly the grouping the dispatch pass in
// dispatch.go needs.
type addr uint32

func makeAddr(channel int, p Param) addr {
	return addr(uint32(channel)<<16 | uint32(p))
}

func (a addr) channel() int { return int(uint32(a) >> 16) }
func (a addr) param() Param { return Param(uint32(a) & 0xffff) }

// message is a single parameter-change entry: 16 logical bytes (addr,
// timestamp, value, plus padding to keep the struct uint32-aligned). There
// is no ramp duration field here — a ramp is two messages, a start value and
// an end value at two timestamps; see channel_set_param in system.go.
type message struct {
	addr addr
	time Timestamp
	val  float32
	_    uint32 // pad to 16 bytes, matching the wire-level message layout
}
