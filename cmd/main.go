// rtmpbind negotiates video codec capabilities and prints the connect
// command a client would send, or dumps a packet capture.
//
//	rtmpbind [--config FILE] [--codec MIME]... [negotiate]
//	rtmpbind [--compressed] dump FILE
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"example/rtmpbind/amf"
	"example/rtmpbind/internal/capture"
	"example/rtmpbind/internal/config"
	"example/rtmpbind/internal/logging"
	"example/rtmpbind/message"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var configPath string
	var codecs []string
	var platformLevel int
	var logLevel string
	var compressed bool

	flagSet := pflag.NewFlagSet("rtmpbind", pflag.ContinueOnError)
	flagSet.SetOutput(stdout)
	flagSet.StringVar(&configPath, "config", "", "path to a TOML config file")
	flagSet.StringArrayVar(&codecs, "codec", nil, "video codec MIME type to announce (repeatable)")
	flagSet.IntVar(&platformLevel, "platform-level", -1, "platform level gating extended codecs")
	flagSet.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flagSet.BoolVar(&compressed, "compressed", false, "capture file is zstd compressed (dump)")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if len(codecs) > 0 {
		cfg.VideoCodecs = codecs
	}
	if platformLevel >= 0 {
		cfg.PlatformLevel = platformLevel
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := logging.NewWithWriter(os.Stderr, "rtmpbind", cfg.LogLevel)

	rest := flagSet.Args()
	if len(rest) == 0 {
		rest = []string{"negotiate"}
	}
	switch rest[0] {
	case "negotiate":
		return negotiate(cfg, stdout, logger)
	case "dump":
		path := cfg.Capture.Path
		if len(rest) > 1 {
			path = rest[1]
		}
		if path == "" {
			return errors.New("dump: no capture file")
		}
		return dump(path, compressed || cfg.Capture.Compress, stdout)
	default:
		return errors.Errorf("unknown command %q", rest[0])
	}
}

func negotiate(cfg config.Config, w io.Writer, logger zerolog.Logger) error {
	cmd, err := cfg.ConnectCommand()
	if err != nil {
		return err
	}
	logger.Debug().Strs("codecs", cfg.VideoCodecs).Int("platform_level", cfg.PlatformLevel).Msg("negotiated")

	body, err := amf.Encode(cmd.Values()...)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "videoCodecs: %#x\n", cmd.VideoCodecs)
	if cmd.FourCCList != nil {
		fmt.Fprintf(w, "fourCcList: %s\n", *cmd.FourCCList)
	} else {
		fmt.Fprintln(w, "fourCcList: <absent>")
	}
	fmt.Fprintf(w, "connect: %s\n", hex.EncodeToString(body))
	return nil
}

func dump(path string, compressed bool, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "dump")
	}
	defer f.Close()

	rd, err := capture.NewReader(f, compressed)
	if err != nil {
		return err
	}
	defer rd.Close()

	for {
		rec, err := rd.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s ch=%d type=%d ts=%d size=%d",
			rec.At.Format("15:04:05.000"), rec.Direction, rec.Channel, rec.TypeID, rec.Timestamp, len(rec.Payload))
		if p, err := rec.Packet(); err == nil {
			if cmd, err := message.DecodeCommand(p); err == nil {
				fmt.Fprintf(w, " %s(%d)", cmd.CommandName, cmd.TransactionID)
			}
		}
		fmt.Fprintln(w)
	}
}
