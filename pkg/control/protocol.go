// Package control exposes the mixer's client-facing API (§6 of the control
// layer) over a websocket, msgpack-framed, for a process that cannot link
// the mixer directly — a scripting sidecar, a remote test harness, or a
// cross-language game client.
package control

import "github.com/loamforge/mixer/pkg/mixer"

// CommandKind tags the variant of a Command frame.
type CommandKind uint8

const (
	CmdSetTime CommandKind = iota
	CmdPlay
	CmdStop
	CmdSetParam
	CmdCommit
	CmdIsDone
)

// Command is one client-to-server frame. Only the fields relevant to Kind
// are populated; the rest are zero.
type Command struct {
	Kind CommandKind `msgpack:"k"`

	RequestID uint64 `msgpack:"id,omitempty"`

	Time      mixer.Timestamp `msgpack:"t,omitempty"`
	SoundPath string          `msgpack:"path,omitempty"`
	Channel   int             `msgpack:"ch,omitempty"`
	Param     mixer.Param     `msgpack:"p,omitempty"`
	Value     float32         `msgpack:"v,omitempty"`
}

// ReplyKind tags the variant of a Reply frame.
type ReplyKind uint8

const (
	ReplyOK ReplyKind = iota
	ReplyChannel
	ReplyDone
	ReplyError
)

// Reply is one server-to-client frame, correlated to a Command by
// RequestID. Play is the only command that expects a Channel reply;
// IsDone expects a Done reply; everything else gets a bare OK (or an
// Error, for any command).
type Reply struct {
	RequestID uint64    `msgpack:"id,omitempty"`
	Kind      ReplyKind `msgpack:"k"`

	Channel int    `msgpack:"ch,omitempty"`
	Done    bool   `msgpack:"done,omitempty"`
	Error   string `msgpack:"err,omitempty"`
}
