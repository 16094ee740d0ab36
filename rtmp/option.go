package rtmp

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"example/rtmpbind/codec"
)

// options holds the configuration for a connection.
type options struct {
	logger      zerolog.Logger
	enableWrite bool
	negotiator  *codec.Negotiator
}

// Option is a function that configures connection options.
type Option func(*options)

// LoggerOption sets the logger. The global zerolog logger is used otherwise.
func LoggerOption(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// EnableWriteOption selects publishing (true, the default) or playing.
func EnableWriteOption(enable bool) Option {
	return func(o *options) {
		o.enableWrite = enable
	}
}

// NegotiatorOption sets the codec tables used for capability negotiation.
func NegotiatorOption(n *codec.Negotiator) Option {
	return func(o *options) {
		o.negotiator = n
	}
}

func defaultOptions() options {
	return options{
		logger:      log.Logger,
		enableWrite: true,
		negotiator:  codec.DefaultNegotiator(),
	}
}
