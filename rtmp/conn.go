package rtmp

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"example/rtmpbind/amf"
	"example/rtmpbind/message"
)

// Conn is a client RTMP connection. Reads may run concurrently with writes;
// writes are serialized so at most one is in flight on the transport.
type Conn struct {
	t      Transport
	opts   options
	logger zerolog.Logger

	writeMu sync.Mutex
	closed  atomic.Bool
}

// NewConn wraps t. The Conn owns t and closes it on Close.
func NewConn(t Transport, opt ...Option) *Conn {
	opts := defaultOptions()
	for _, o := range opt {
		o(&opts)
	}
	if opts.negotiator == nil {
		opts.negotiator = defaultOptions().negotiator
	}

	return &Conn{
		t:      t,
		opts:   opts,
		logger: opts.logger.With().Str("component", "rtmp.conn").Logger(),
	}
}

func (c *Conn) checkOpen() error {
	if c.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Connect connects to url, e.g. rtmp://host/app/streamKey. Call
// ConnectStream afterwards.
func (c *Conn) Connect(url string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := c.t.Connect(url, c.opts.enableWrite); err != nil {
		c.logger.Debug().Err(err).Str("url", url).Msg("connect failed")
		return err
	}
	c.logger.Info().Str("url", url).Bool("write", c.opts.enableWrite).Msg("connected")
	return nil
}

// ConnectStream creates the stream.
func (c *Conn) ConnectStream() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.t.ConnectStream()
}

// DeleteStream deletes the running stream.
func (c *Conn) DeleteStream() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.t.DeleteStream()
}

// IsConnected reports whether the transport still has a live connection.
func (c *Conn) IsConnected() bool {
	if c.closed.Load() {
		return false
	}
	return c.t.IsConnected()
}

func (c *Conn) Timeout() (time.Duration, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	return c.t.Timeout()
}

// SetTimeout bounds every blocking call. It is the only way to stop a call
// that waits on the network.
func (c *Conn) SetTimeout(d time.Duration) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.t.SetTimeout(d)
}

// SetSupportedVideoCodecs negotiates mimes and hands both wire forms to the
// transport for the connect command. Nothing is applied if negotiation fails.
func (c *Conn) SetSupportedVideoCodecs(mimes []string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	caps, err := c.opts.negotiator.Negotiate(mimes)
	if err != nil {
		return err
	}
	if err := c.t.SetCapabilities(caps); err != nil {
		return errors.Wrap(err, "set capabilities")
	}
	c.logger.Debug().Int("videoCodecs", caps.VideoCodecs).Interface("fourCcList", caps.ExVideoCodecs).Msg("capabilities set")
	return nil
}

// SupportedVideoCodecs returns the codecs currently announced by the transport.
func (c *Conn) SupportedVideoCodecs() ([]string, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	caps, err := c.t.Capabilities()
	if err != nil {
		return nil, err
	}
	return c.opts.negotiator.Supported(caps), nil
}

// Write sends FLV tags and returns the number of bytes sent.
func (c *Conn) Write(b []byte) (int, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	c.writeMu.Lock()
	n, err := c.t.Write(b)
	c.writeMu.Unlock()
	return ioResult(n, err)
}

// Read reads FLV data into b.
func (c *Conn) Read(b []byte) (int, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	return ioResult(c.t.Read(b))
}

// WritePacket sends one RTMP packet.
func (c *Conn) WritePacket(p message.Packet) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.t.WritePacket(p)
}

// ReadPacket receives one RTMP packet.
func (c *Conn) ReadPacket() (message.Packet, error) {
	if err := c.checkOpen(); err != nil {
		return message.Packet{}, err
	}
	return c.t.ReadPacket()
}

// SendCommand encodes name, txID and args as an AMF0 command and writes it
// on the command channel.
func (c *Conn) SendCommand(name string, txID float64, args ...amf.Value) error {
	p, err := commandPacket(name, txID, args...)
	if err != nil {
		return err
	}
	return c.WritePacket(p)
}

// Pause pauses the stream.
func (c *Conn) Pause() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.t.Pause()
}

// Resume resumes a paused stream.
func (c *Conn) Resume() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.t.Resume()
}

// Close releases the transport. It is safe to call more than once and
// always returns nil; a failing transport close is only logged.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if err := c.t.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("transport close failed")
	}
	return nil
}

func commandPacket(name string, txID float64, args ...amf.Value) (message.Packet, error) {
	enc := amf.NewEncoder()
	enc.Add(amf.String(name))
	enc.Add(amf.Number(txID))
	for _, a := range args {
		enc.Add(a)
	}
	body, err := enc.Encode()
	if err != nil {
		return message.Packet{}, errors.Wrapf(err, "encode %s", name)
	}
	return message.NewCommandPacket(0, body), nil
}
