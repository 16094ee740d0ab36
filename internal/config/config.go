// Package config loads the rtmpbind TOML configuration.
package config

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"example/rtmpbind/codec"
	"example/rtmpbind/message"
	"example/rtmpbind/rtmp"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid")

type Config struct {
	URL           string              `mapstructure:"url"`
	EnableWrite   bool                `mapstructure:"enable_write"`
	Timeout       time.Duration       `mapstructure:"timeout"`
	VideoCodecs   []string            `mapstructure:"video_codecs"`
	PlatformLevel int                 `mapstructure:"platform_level"`
	LogLevel      string              `mapstructure:"log_level"`
	Connect       rtmp.ConnectCommand `mapstructure:"connect"`
	Capture       Capture             `mapstructure:"capture"`
}

type Capture struct {
	Path     string `mapstructure:"path"`
	Compress bool   `mapstructure:"compress"`
}

func Default() Config {
	return Config{
		EnableWrite:   true,
		Timeout:       10 * time.Second,
		VideoCodecs:   []string{codec.MimeVideoAVC},
		PlatformLevel: codec.AllPlatforms,
		LogLevel:      "info",
		Connect: rtmp.ConnectCommand{
			Type:           "nonprivate",
			FlashVer:       "FMLE/3.0 (compatible; FMSc/1.0)",
			Capabilities:   239,
			AudioCodecs:    3575,
			VideoFunction:  1,
			ObjectEncoding: message.EncodingTypeAMF0,
		},
	}
}

// Load reads and validates the file at path.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "load config")
	}
	cfg, err := Parse(string(b))
	if err != nil {
		return Config{}, errors.Wrapf(err, "load config %s", path)
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults and validates the result.
// Unknown keys are an error.
func Parse(text string) (Config, error) {
	var raw map[string]interface{}
	if _, err := toml.Decode(text, &raw); err != nil {
		return Config{}, errors.Wrap(err, "parse toml")
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		ZeroFields:  true,
		Result:      &cfg,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.URL != "" {
		u, err := url.Parse(c.URL)
		if err != nil {
			return errors.Wrapf(ErrInvalid, "url: %v", err)
		}
		if u.Scheme != "rtmp" && u.Scheme != "rtmps" {
			return errors.Wrapf(ErrInvalid, "url scheme %q", u.Scheme)
		}
	}
	if c.Timeout < 0 {
		return errors.Wrapf(ErrInvalid, "timeout %s", c.Timeout)
	}
	if c.PlatformLevel < 0 {
		return errors.Wrapf(ErrInvalid, "platform_level %d", c.PlatformLevel)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(ErrInvalid, "log_level %q", c.LogLevel)
	}
	if _, err := c.Negotiator().Negotiate(c.VideoCodecs); err != nil {
		return errors.Wrap(err, "video_codecs")
	}
	return nil
}

func (c Config) Negotiator() *codec.Negotiator {
	return codec.NewNegotiator(c.PlatformLevel)
}

// ConnectCommand returns the connect command object for the configured URL
// and codecs. App and tcUrl are taken from the URL when not set:
// rtmp://host/app/key gives app "app" and tcUrl "rtmp://host/app".
func (c Config) ConnectCommand() (rtmp.ConnectCommand, error) {
	caps, err := c.Negotiator().Negotiate(c.VideoCodecs)
	if err != nil {
		return rtmp.ConnectCommand{}, err
	}
	cmd := c.Connect.WithCapabilities(caps)

	if c.URL == "" {
		return cmd, nil
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return rtmp.ConnectCommand{}, errors.Wrapf(ErrInvalid, "url: %v", err)
	}
	app := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0]
	if cmd.App == "" {
		cmd.App = app
	}
	if cmd.TCURL == "" {
		cmd.TCURL = u.Scheme + "://" + u.Host + "/" + app
	}
	return cmd, nil
}

// ConnOptions returns the rtmp.Conn options matching the configuration.
// The timeout is applied separately with Conn.SetTimeout once connected.
func (c Config) ConnOptions(logger zerolog.Logger) []rtmp.Option {
	return []rtmp.Option{
		rtmp.LoggerOption(logger),
		rtmp.EnableWriteOption(c.EnableWrite),
		rtmp.NegotiatorOption(c.Negotiator()),
	}
}
