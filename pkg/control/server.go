package control

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/loamforge/mixer/pkg/mixer"
)

// SoundLoader resolves a path named by a Play command into a live Sound.
// pkg/soundprovider.Provider satisfies this.
type SoundLoader interface {
	Load(ctx context.Context, path string) (*mixer.Sound, error)
}

// Server upgrades incoming HTTP connections to a websocket and applies
// msgpack-framed Commands to sys, one connection's worth of control-thread
// traffic at a time. Every connection is an independent control thread per
// §5: concurrent connections issuing ChannelPlay/ChannelStop/etc. against
// the same System are safe, same as any two in-process control threads.
type Server struct {
	sys      *mixer.System
	sounds   SoundLoader
	log      mixer.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a Server bridging sys and sounds. A nil log falls back
// to the mixer package default.
func NewServer(sys *mixer.System, sounds SoundLoader, log mixer.Logger) *Server {
	if log == nil {
		log = mixer.SlogLogger(nil)
	}
	return &Server{
		sys:    sys,
		sounds: sounds,
		log:    log,
		upgrader: websocket.Upgrader{
			Subprotocols: []string{"mixerctl"},
			CheckOrigin:  func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements http.Handler, upgrading the request and servicing
// the connection until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("control: upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	s.serveConn(r.Context(), conn)
}

func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd Command
		if err := msgpack.Unmarshal(data, &cmd); err != nil {
			s.log.Warnf("control: malformed frame: %v", err)
			continue
		}

		reply := s.apply(ctx, &cmd)
		out, err := msgpack.Marshal(&reply)
		if err != nil {
			s.log.Errorf("control: encode reply: %v", err)
			continue
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, out); err != nil {
			return
		}
	}
}

func (s *Server) apply(ctx context.Context, cmd *Command) Reply {
	reply := Reply{RequestID: cmd.RequestID, Kind: ReplyOK}

	switch cmd.Kind {
	case CmdSetTime:
		s.sys.SetTime(cmd.Time)

	case CmdPlay:
		snd, err := s.sounds.Load(ctx, cmd.SoundPath)
		if err != nil {
			reply.Kind, reply.Error = ReplyError, err.Error()
			return reply
		}
		h, err := s.sys.ChannelPlay(snd, cmd.Time)
		if err != nil {
			reply.Kind, reply.Error = ReplyError, err.Error()
			return reply
		}
		reply.Kind, reply.Channel = ReplyChannel, int(h)

	case CmdStop:
		s.sys.ChannelStop(mixer.ChannelHandle(cmd.Channel))

	case CmdSetParam:
		if err := s.sys.ChannelSetParam(mixer.ChannelHandle(cmd.Channel), cmd.Param, cmd.Value); err != nil {
			reply.Kind, reply.Error = ReplyError, err.Error()
		}

	case CmdCommit:
		s.sys.Commit()

	case CmdIsDone:
		reply.Kind = ReplyDone
		reply.Done = s.sys.ChannelIsDone(mixer.ChannelHandle(cmd.Channel))

	default:
		reply.Kind, reply.Error = ReplyError, "control: unknown command kind"
	}

	return reply
}
