package framestream

import (
	"context"
	"image"
)

// DisplaySink renders decoded frames.
type DisplaySink interface {
	// Show renders img. It must not retain img after returning.
	Show(img image.Image) error
	// StopRequested is a non-blocking poll for a user stop request.
	StopRequested() bool
}

// AlertSink plays the alert cue.
type AlertSink interface {
	Alert(ctx context.Context, payload []byte) error
}

// AlertFunc adapts a function to AlertSink.
type AlertFunc func(ctx context.Context, payload []byte) error

// Alert implements AlertSink.
func (f AlertFunc) Alert(ctx context.Context, payload []byte) error {
	return f(ctx, payload)
}

// nopAlert drops alerts.
type nopAlert struct{}

func (nopAlert) Alert(context.Context, []byte) error { return nil }
