package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Zereker/framestream"
)

func newServeCommand() *cobra.Command {
	var (
		listen     string
		fps        int
		alertEvery int
	)

	cmd := &cobra.Command{
		Use:   "serve <image-dir>",
		Short: "Stream the images in a directory to connected viewers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if fps <= 0 {
				return errors.New("fps must be positive")
			}

			logger, flush, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer flush()

			images, err := loadImages(args[0])
			if err != nil {
				return err
			}
			logger.Info("loaded images", "dir", args[0], "count", len(images))

			addr, err := net.ResolveTCPAddr("tcp", listen)
			if err != nil {
				return err
			}
			srv, err := framestream.NewServer(addr,
				framestream.ServerLoggerOption(logger),
				framestream.ServerShutdownTimeoutOption(time.Second))
			if err != nil {
				return err
			}
			defer srv.Close()

			ctx, cancel := signalContext(logger)
			defer cancel()

			handler := framestream.HandlerFunc(func(ctx context.Context, conn *net.TCPConn) {
				w := framestream.NewWriter(conn, newCodec(cfg), newEnvelope(cfg))
				if err := stream(ctx, w, images, time.Second/time.Duration(fps), alertEvery); err != nil {
					logger.Debug("stream ended", "remote_addr", conn.RemoteAddr(), "error", err.Error())
				}
			})

			return interrupted(srv.Serve(ctx, handler))
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", ":8485", "Address to listen on")
	cmd.Flags().IntVar(&fps, "fps", 10, "Frames per second")
	cmd.Flags().IntVar(&alertEvery, "alert-every", 0, "Send an alert after every N frames (0 disables)")

	return cmd
}

// stream cycles through images until ctx ends or a write fails.
func stream(ctx context.Context, w *framestream.Writer, images [][]byte, interval time.Duration, alertEvery int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for sent := 0; ; sent++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err := w.WriteFrame(images[sent%len(images)]); err != nil {
			return err
		}
		if alertEvery > 0 && (sent+1)%alertEvery == 0 {
			if err := w.WriteAlert(); err != nil {
				return err
			}
		}
	}
}

func loadImages(dir string) ([][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png", ".gif":
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, errors.Errorf("no images in %s", dir)
	}
	sort.Strings(names)

	images := make([][]byte, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		images = append(images, data)
	}
	return images, nil
}
