// Package rtmp drives an RTMP connection through an injected Transport.
//
// Handshake, chunk framing, TLS and socket I/O live in the Transport
// implementation, usually a binding to a native protocol engine. This
// package adds write serialization, error mapping, codec negotiation,
// command encoding and a publish-side server loop.
package rtmp

import (
	"net"
	"time"

	"github.com/pkg/errors"

	"example/rtmpbind/codec"
	"example/rtmpbind/message"
)

var (
	// ErrConnection reports a broken connection.
	ErrConnection = errors.New("rtmp: connection error")
	// ErrTimeout reports an I/O call that hit the transport timeout.
	ErrTimeout = errors.New("rtmp: timeout")
	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("rtmp: connection closed")
)

// Transport is the protocol engine behind a connection.
//
// Read and Write follow the engine convention: a zero count with a nil error
// means the call timed out, a negative count means the connection failed.
// Implementations may also return their own errors, which are passed to the
// caller unchanged. Close must be safe to call more than once.
type Transport interface {
	Connect(url string, enableWrite bool) error
	ConnectStream() error
	DeleteStream() error
	IsConnected() bool

	SetTimeout(d time.Duration) error
	Timeout() (time.Duration, error)

	SetCapabilities(caps codec.Capabilities) error
	Capabilities() (codec.Capabilities, error)

	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	WritePacket(p message.Packet) error
	ReadPacket() (message.Packet, error)

	Pause() error
	Resume() error
	Close() error

	// Serve runs the server side handshake on an accepted connection.
	Serve(conn net.Conn) error
}

// ioResult maps an engine status count to an error.
func ioResult(n int, err error) (int, error) {
	switch {
	case err != nil:
		return n, err
	case n < 0:
		return 0, ErrConnection
	case n == 0:
		return 0, ErrTimeout
	default:
		return n, nil
	}
}
