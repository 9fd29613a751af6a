package mixer

import "errors"

// Error kinds surfaced by the control layer and mixdown lifecycle. Render
// errors do not exist by design: rendering is total over its local state.
var (
	// ErrChannelExhausted is returned by ChannelPlay when every channel slot
	// is occupied. The caller decides whether this is a voice-stealing
	// policy failure worth acting on; the mixer itself logs a warning and
	// changes no state.
	ErrChannelExhausted = errors.New("mixer: channel exhausted")

	// ErrInvalidArgument flags a bad parameter enum or a channel handle that
	// does not refer to a live channel.
	ErrInvalidArgument = errors.New("mixer: invalid argument")

	// ErrConfiguration flags a bad sample rate or buffer size at mixdown
	// creation. No mixdown is created.
	ErrConfiguration = errors.New("mixer: invalid configuration")

	// ErrNilSound is returned when ChannelPlay is called with a nil Sound.
	ErrNilSound = errors.New("mixer: nil sound")
)
