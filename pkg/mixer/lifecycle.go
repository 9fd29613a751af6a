package mixer

// lifecycleKind distinguishes the two channel-level events a commit can
// publish to a mixdown's inbox, separate from the fixed-size parameter
// message stream: starting playback of a sound, and requesting a stop.
type lifecycleKind uint8

const (
	lifecyclePlay lifecycleKind = iota
	lifecycleStop
)

// lifecycleEvent carries what a plain parameter message cannot: a sound
// pointer and the channel's initial parameter values, needed once when a
// channel starts. It is published at most once per kind for each allocation
// of a channel; a channel index is only allocated again after it is freed.
type lifecycleEvent struct {
	channel int
	kind    lifecycleKind
	time    Timestamp
	sound   *Sound
	initial [ParamCount]float32
	loop    bool
}
