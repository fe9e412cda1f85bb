package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zereker/framestream"
	"github.com/Zereker/framestream/alert"
	"github.com/Zereker/framestream/display"
	"github.com/Zereker/framestream/internal/config"
)

func newViewCommand() *cobra.Command {
	var (
		addr        string
		codec       string
		byteOrder   string
		envelope    string
		decoder     string
		sound       string
		readTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Connect to a source and display its frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Address = addr
			}
			if flags.Changed("codec") {
				cfg.Codec = codec
			}
			if flags.Changed("byte-order") {
				cfg.ByteOrder = byteOrder
			}
			if flags.Changed("envelope") {
				cfg.Envelope = envelope
			}
			if flags.Changed("decoder") {
				cfg.Decoder = decoder
			}
			if flags.Changed("sound") {
				cfg.Alert.Sound = sound
			}
			if flags.Changed("read-timeout") {
				cfg.ReadTimeout = readTimeout
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runView(cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Source address (host:port or ws://...)")
	cmd.Flags().StringVar(&codec, "codec", "", "Framing: length-prefix or tagged")
	cmd.Flags().StringVar(&byteOrder, "byte-order", "", "Length prefix byte order: big or little")
	cmd.Flags().StringVar(&envelope, "envelope", "", "Frame container: raw or json")
	cmd.Flags().StringVar(&decoder, "decoder", "", "Image decoder: std or gocv")
	cmd.Flags().StringVar(&sound, "sound", "", "Sound file played on alerts")
	cmd.Flags().DurationVar(&readTimeout, "read-timeout", 0, "Give up when no message arrives in this time (0 waits forever)")

	return cmd
}

func runView(cfg *config.Config) error {
	logger, flush, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer flush()

	ctx, cancel := signalContext(logger)
	defer cancel()

	stream, err := framestream.Dial(ctx, cfg.Address)
	if err != nil {
		return err
	}
	logger.Info("connected to source", "addr", cfg.Address)

	win := display.NewWindow(cfg.Window.Title, []rune(cfg.Window.QuitKey)[0])
	defer win.Close()

	opts := []framestream.Option{
		framestream.CodecOption(newCodec(cfg)),
		framestream.EnvelopeOption(newEnvelope(cfg)),
		framestream.DisplayOption(win),
		framestream.AlertOption(newAlertSink(cfg.Alert)),
		framestream.ChunkSizeOption(cfg.ChunkSize),
		framestream.ReadTimeoutOption(cfg.ReadTimeout),
		framestream.LoggerOption(logger),
	}
	if cfg.Decoder == config.DecoderGoCV {
		opts = append(opts, framestream.DecoderOption(display.Decoder{}))
	}

	receiver, err := framestream.NewReceiver(stream, opts...)
	if err != nil {
		stream.Close()
		return err
	}
	defer receiver.Close()

	return interrupted(receiver.Run(ctx))
}

func newAlertSink(cfg config.AlertConfig) framestream.AlertSink {
	bell := alert.Bell{W: os.Stderr}
	if cfg.Sound == "" {
		return bell
	}
	return alert.Fallback{&alert.Player{Command: cfg.Command, Sound: cfg.Sound}, bell}
}
