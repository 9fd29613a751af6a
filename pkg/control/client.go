package control

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/loamforge/mixer/pkg/mixer"
)

// Client is a thin remote proxy for the mixer client-facing API, talking to
// a Server over a websocket. Exactly one request is in flight at a time —
// the protocol is request/reply, not pipelined — so the mixer's own
// non-blocking-control-call guarantee does not carry over the wire; callers
// needing low latency should run their own local System instead and reserve
// Client for sidecars and test harnesses.
type Client struct {
	conn *websocket.Conn

	mu      sync.Mutex
	nextReq uint64
}

// Dial connects to a control.Server at url (e.g. "ws://host:port/mixer").
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("control: dial %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(cmd Command) (Reply, error) {
	cmd.RequestID = atomic.AddUint64(&c.nextReq, 1)

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := msgpack.Marshal(&cmd)
	if err != nil {
		return Reply{}, fmt.Errorf("control: encode command: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return Reply{}, fmt.Errorf("control: send command: %w", err)
	}

	_, data, err = c.conn.ReadMessage()
	if err != nil {
		return Reply{}, fmt.Errorf("control: read reply: %w", err)
	}
	var reply Reply
	if err := msgpack.Unmarshal(data, &reply); err != nil {
		return Reply{}, fmt.Errorf("control: decode reply: %w", err)
	}
	if reply.Kind == ReplyError {
		return reply, fmt.Errorf("control: %s", reply.Error)
	}
	return reply, nil
}

// SetTime advances the remote System's uncommitted timestamp.
func (c *Client) SetTime(t mixer.Timestamp) error {
	_, err := c.roundTrip(Command{Kind: CmdSetTime, Time: t})
	return err
}

// ChannelPlay asks the remote System to play the sound at soundPath.
func (c *Client) ChannelPlay(soundPath string, t mixer.Timestamp) (mixer.ChannelHandle, error) {
	reply, err := c.roundTrip(Command{Kind: CmdPlay, SoundPath: soundPath, Time: t})
	if err != nil {
		return -1, err
	}
	return mixer.ChannelHandle(reply.Channel), nil
}

// ChannelStop asks the remote System to stop channel h.
func (c *Client) ChannelStop(h mixer.ChannelHandle) error {
	_, err := c.roundTrip(Command{Kind: CmdStop, Channel: int(h)})
	return err
}

// ChannelSetParam asks the remote System to set a parameter on channel h.
func (c *Client) ChannelSetParam(h mixer.ChannelHandle, p mixer.Param, v float32) error {
	_, err := c.roundTrip(Command{Kind: CmdSetParam, Channel: int(h), Param: p, Value: v})
	return err
}

// Commit asks the remote System to commit.
func (c *Client) Commit() error {
	_, err := c.roundTrip(Command{Kind: CmdCommit})
	return err
}

// ChannelIsDone asks the remote System whether channel h is done.
func (c *Client) ChannelIsDone(h mixer.ChannelHandle) (bool, error) {
	reply, err := c.roundTrip(Command{Kind: CmdIsDone, Channel: int(h)})
	if err != nil {
		return false, err
	}
	return reply.Done, nil
}
