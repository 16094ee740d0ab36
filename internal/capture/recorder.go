package capture

import (
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"example/rtmpbind/message"
	"example/rtmpbind/rtmp"
)

type options struct {
	compress bool
	logger   zerolog.Logger
	now      func() time.Time
}

// Option configures a Recorder.
type Option func(*options)

// CompressOption wraps the record stream in zstd.
func CompressOption(compress bool) Option {
	return func(o *options) {
		o.compress = compress
	}
}

// LoggerOption sets the logger.
func LoggerOption(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// ClockOption sets the time source for Record.At.
func ClockOption(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Recorder is a Transport that appends a Record for every packet written
// or read successfully. All other calls go straight to the wrapped transport.
// A failing record write is logged and kept in Err; it never fails the
// packet call itself.
type Recorder struct {
	rtmp.Transport

	opts   options
	logger zerolog.Logger

	mu  sync.Mutex
	enc *cbor.Encoder
	zw  *zstd.Encoder
	err error

	closeOnce sync.Once
	closeErr  error
}

// NewRecorder wraps t, writing records to w. Close flushes the stream but
// does not close w.
func NewRecorder(t rtmp.Transport, w io.Writer, opt ...Option) (*Recorder, error) {
	opts := options{
		logger: log.Logger,
		now:    time.Now,
	}
	for _, o := range opt {
		o(&opts)
	}

	r := &Recorder{
		Transport: t,
		opts:      opts,
		logger:    opts.logger.With().Str("component", "capture").Logger(),
	}
	if opts.compress {
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, errors.Wrap(err, "zstd writer")
		}
		r.zw = zw
		w = zw
	}
	r.enc = encMode.NewEncoder(w)
	return r, nil
}

func (r *Recorder) WritePacket(p message.Packet) error {
	if err := r.Transport.WritePacket(p); err != nil {
		return err
	}
	r.record(DirectionWrite, p)
	return nil
}

func (r *Recorder) ReadPacket() (message.Packet, error) {
	p, err := r.Transport.ReadPacket()
	if err != nil {
		return p, err
	}
	r.record(DirectionRead, p)
	return p, nil
}

func (r *Recorder) record(dir Direction, p message.Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return
	}
	if err := r.enc.Encode(newRecord(dir, p, r.opts.now())); err != nil {
		r.err = errors.Wrap(err, "write record")
		r.logger.Warn().Err(err).Msg("capture stopped")
	}
}

// Err returns the first record write error.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close closes the wrapped transport and flushes the record stream. Later
// calls return the first result.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.Transport.Close()

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.zw != nil {
			if err := r.zw.Close(); err != nil && r.err == nil {
				r.err = errors.Wrap(err, "flush records")
			}
		}
	})
	return r.closeErr
}
