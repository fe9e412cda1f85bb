package main

import (
	"context"
	"encoding/binary"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Zereker/framestream"
	"github.com/Zereker/framestream/internal/config"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

func newLogger(cfg config.LogConfig) (framestream.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, errors.Wrap(err, "log level")
	}

	if cfg.Backend == config.BackendZap {
		zcfg := zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.Level(level / 4))
		l, err := zcfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
		if err != nil {
			return nil, nil, errors.Wrap(err, "build zap logger")
		}
		return framestream.NewZapLogger(l.Named("framestream")), func() { _ = l.Sync() }, nil
	}

	l := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(l)
	return l, func() {}, nil
}

func newCodec(cfg *config.Config) framestream.Codec {
	var order binary.ByteOrder = binary.BigEndian
	if cfg.ByteOrder == config.ByteOrderLittle {
		order = binary.LittleEndian
	}

	if cfg.Codec == config.CodecTagged {
		return &framestream.TaggedCodec{ByteOrder: order, MaxSize: cfg.MaxMessageSize}
	}
	return &framestream.LengthPrefixCodec{ByteOrder: order, MaxSize: cfg.MaxMessageSize}
}

func newEnvelope(cfg *config.Config) framestream.Envelope {
	if cfg.Envelope == config.EnvelopeJSON {
		return &framestream.JSONEnvelope{}
	}
	return framestream.RawEnvelope{}
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(logger framestream.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// interrupted treats a canceled context as a clean exit.
func interrupted(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
