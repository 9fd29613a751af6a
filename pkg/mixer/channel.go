package mixer

// ChannelCapacity bounds the number of simultaneously playing (or
// about-to-play) sounds.
const ChannelCapacity = 64

// Control flags: written by the client thread under the commit lock,
// consumed at commit time.
type controlFlags uint32

const (
	ctrlStart controlFlags = 1 << iota
	ctrlStop
	ctrlLoop
)

// Global flags: written by commit, read by every mixdown thread. DoneLive
// and DoneRecord are set independently by each mixdown once it finishes
// rendering a channel; a channel is only freed once every active mixdown
// has set its bit.
type globalFlags uint32

const (
	gStart globalFlags = 1 << iota
	gStop
	gDoneLive
	gDoneRecord
)

// Channel is one slot in the fixed-size channel array. A channel with zero
// control flags is free and its Sound is nil.
type Channel struct {
	ctrl   controlFlags
	global globalFlags

	startTime Timestamp
	stopTime  Timestamp

	sound *Sound

	initialParams   [ParamCount]float32
	committedParams [ParamCount]float32
}

func (c *Channel) free() bool {
	return c.ctrl == 0
}

// ChannelHandle identifies an allocated channel by its index in the channel
// array; ChannelPlay returns handles in [0, ChannelCapacity), and
// invalidHandle (-1) on failure.
type ChannelHandle int

const invalidHandle ChannelHandle = -1
