package rtmp

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/yutopp/go-amf0"
	"golang.org/x/sync/errgroup"

	"example/rtmpbind/amf"
	"example/rtmpbind/message"
)

// Handler receives every packet the session loop does not answer itself:
// media, data messages and unknown commands.
type Handler interface {
	OnPacket(s *Session, p message.Packet) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(s *Session, p message.Packet) error

func (f HandlerFunc) OnPacket(s *Session, p message.Packet) error {
	return f(s, p)
}

// TransportFactory returns a fresh transport for each accepted connection.
type TransportFactory func() (Transport, error)

// ServerOption configures a Server.
type ServerOption func(*Server)

// ServerLoggerOption sets the logger for the server and its sessions.
func ServerLoggerOption(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// HandlerOption sets the packet handler. Packets are dropped otherwise.
func HandlerOption(h Handler) ServerOption {
	return func(s *Server) {
		s.handler = h
	}
}

// Server accepts connections and runs a publish session on each of them.
type Server struct {
	listener     net.Listener
	newTransport TransportFactory
	handler      Handler
	logger       zerolog.Logger
	publishers   *Publishers

	mu       sync.Mutex
	sessions map[*Session]struct{}
	closed   atomic.Bool
}

func NewServer(l net.Listener, newTransport TransportFactory, opts ...ServerOption) *Server {
	s := &Server{
		listener:     l,
		newTransport: newTransport,
		logger:       log.Logger,
		publishers:   NewPublishers(),
		sessions:     make(map[*Session]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.handler == nil {
		s.handler = HandlerFunc(func(sess *Session, p message.Packet) error {
			sess.logger.Debug().Uint8("type", uint8(p.TypeID())).Int("size", len(p.Payload())).Msg("packet dropped")
			return nil
		})
	}
	return s
}

// Serve accepts connections until ctx is done or Close is called, then waits
// for every session to end. It returns nil on shutdown and the accept error
// otherwise.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info().Str("addr", s.listener.Addr().String()).Msg("server started")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		<-ctx.Done()
		return s.Close()
	})

	group.Go(func() error {
		defer cancel()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				if s.closed.Load() {
					s.logger.Info().Str("addr", s.listener.Addr().String()).Msg("server stopped")
					return nil
				}
				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					continue
				}
				s.logger.Error().Err(err).Msg("accept error")
				return err
			}

			s.logger.Debug().Str("remote_addr", conn.RemoteAddr().String()).Msg("accepted connection")
			group.Go(func() error {
				s.serveConn(conn)
				return nil
			})
		}
	})

	return group.Wait()
}

// Close stops accepting and closes every session. It is safe to call more
// than once and always returns nil.
func (s *Server) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if err := s.listener.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("listener close failed")
	}

	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
	return nil
}

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Publishers returns the registry of published stream names.
func (s *Server) Publishers() *Publishers {
	return s.publishers
}

func (s *Server) track(sess *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return false
	}
	s.sessions[sess] = struct{}{}
	return true
}

func (s *Server) untrack(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sess)
}

func (s *Server) serveConn(conn net.Conn) {
	t, err := s.newTransport()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to allocate transport")
		_ = conn.Close()
		return
	}

	sess := newSession(s, conn, t)
	defer sess.close()
	if !s.track(sess) {
		return
	}
	defer s.untrack(sess)

	if err := sess.run(); err != nil && !sess.closed.Load() {
		sess.logger.Info().Err(err).Msg("session closed with error")
		return
	}
	sess.logger.Debug().Msg("session closed")
}

// Session is one accepted connection.
type Session struct {
	server  *Server
	conn    net.Conn
	t       Transport
	streams *Streams
	logger  zerolog.Logger

	lastStream uint32
	writeMu    sync.Mutex
	closeOnce  sync.Once
	closed     atomic.Bool
}

func newSession(s *Server, conn net.Conn, t Transport) *Session {
	return &Session{
		server:  s,
		conn:    conn,
		t:       t,
		streams: NewStreams(),
		logger:  s.logger.With().Str("remote_addr", conn.RemoteAddr().String()).Logger(),
	}
}

// RemoteAddr returns the peer address.
func (sess *Session) RemoteAddr() net.Addr {
	return sess.conn.RemoteAddr()
}

// Streams returns the message streams created by the peer.
func (sess *Session) Streams() *Streams {
	return sess.streams
}

// WritePacket sends a packet to the peer. Calls are serialized.
func (sess *Session) WritePacket(p message.Packet) error {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	return sess.t.WritePacket(p)
}

// Send encodes values as one command packet and sends it.
func (sess *Session) Send(values ...amf.Value) error {
	body, err := amf.Encode(values...)
	if err != nil {
		return err
	}
	return sess.WritePacket(message.NewCommandPacket(0, body))
}

func (sess *Session) run() error {
	if err := sess.t.Serve(sess.conn); err != nil {
		return errors.Wrap(err, "serve")
	}
	for {
		p, err := sess.t.ReadPacket()
		if err != nil {
			return err
		}
		if err := sess.handle(p); err != nil {
			return err
		}
	}
}

func (sess *Session) handle(p message.Packet) error {
	if p.TypeID() != message.TypeIDCommandMessageAMF0 {
		return sess.server.handler.OnPacket(sess, p)
	}

	cmd, err := message.DecodeCommand(p)
	if err != nil {
		return err
	}
	sess.logger.Debug().Str("command", cmd.CommandName).Int64("transaction_id", cmd.TransactionID).Msg("command")

	switch cmd.CommandName {
	case CommandConnect:
		return sess.Send(ConnectResult(cmd.TransactionID)...)

	case CommandReleaseStream, CommandFCPublish:
		return nil

	case CommandCreateStream:
		sess.lastStream = sess.streams.Create()
		return sess.Send(CreateStreamResult(cmd.TransactionID, sess.lastStream)...)

	case CommandPublish:
		name, err := decodeStreamName(cmd)
		if err != nil {
			return errors.Wrap(err, "publish")
		}
		return sess.publish(name)

	case CommandFCUnpublish:
		name, err := decodeStreamName(cmd)
		if err != nil {
			return errors.Wrap(err, "FCUnpublish")
		}
		sess.server.publishers.Release(name, sess)
		return nil

	case CommandDeleteStream:
		streamID, err := decodeStreamID(cmd)
		if err != nil {
			return errors.Wrap(err, "deleteStream")
		}
		if name, ok := sess.streams.Delete(streamID); ok {
			sess.server.publishers.Release(name, sess)
		}
		return nil

	default:
		return sess.server.handler.OnPacket(sess, p)
	}
}

func (sess *Session) publish(name string) error {
	if err := sess.server.publishers.Acquire(name, sess); err != nil {
		sess.logger.Info().Err(err).Str("name", name).Msg("publish rejected")
		return sess.Send(OnStatus("error", StatusPublishBadName, "Stream already publishing.")...)
	}
	prev, err := sess.streams.SetName(sess.lastStream, name)
	if err != nil {
		sess.server.publishers.Release(name, sess)
		return err
	}
	if prev != "" && prev != name {
		sess.server.publishers.Release(prev, sess)
	}
	sess.logger.Info().Str("name", name).Uint32("stream_id", sess.lastStream).Msg("publish started")
	return sess.Send(OnStatus("status", StatusPublishStart, "Publish started.")...)
}

func (sess *Session) close() {
	sess.closeOnce.Do(func() {
		sess.closed.Store(true)
		for _, name := range sess.streams.Names() {
			sess.server.publishers.Release(name, sess)
		}
		if err := sess.t.Close(); err != nil {
			sess.logger.Debug().Err(err).Msg("transport close failed")
		}
		_ = sess.conn.Close()
	})
}

// decodeStreamName reads the arguments of publish and FCUnpublish: a null
// command object followed by the stream name.
func decodeStreamName(cmd *message.CommandMessage) (string, error) {
	d := amf0.NewDecoder(cmd.Body)

	var commandObject interface{} // maybe nil
	if err := d.Decode(&commandObject); err != nil {
		return "", errors.Wrap(err, "failed to decode args[0]")
	}
	var name string
	if err := d.Decode(&name); err != nil {
		return "", errors.Wrap(err, "failed to decode args[1]")
	}
	return name, nil
}

// decodeStreamID reads the arguments of deleteStream: a null command
// object followed by the stream id.
func decodeStreamID(cmd *message.CommandMessage) (uint32, error) {
	d := amf0.NewDecoder(cmd.Body)

	var commandObject interface{}
	if err := d.Decode(&commandObject); err != nil {
		return 0, errors.Wrap(err, "failed to decode args[0]")
	}
	var streamID float64
	if err := d.Decode(&streamID); err != nil {
		return 0, errors.Wrap(err, "failed to decode args[1]")
	}
	return uint32(streamID), nil
}
