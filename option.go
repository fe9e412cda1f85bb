package framestream

import (
	"time"
)

// ErrorAction defines the action to take when a recoverable error occurs.
type ErrorAction int

const (
	// Disconnect ends the dispatch loop with the error.
	Disconnect ErrorAction = iota
	// Continue skips the message and keeps reading.
	Continue
)

// options holds the configuration for a receiver.
type options struct {
	codec   Codec
	logger  Logger
	display DisplaySink
	alert   AlertSink
	env     Envelope
	decoder ImageDecoder

	// onError is called for decode and sink failures only. Stream errors
	// always end the loop.
	onError func(error) ErrorAction

	chunkSize   int           // read size used to refill the receive buffer
	readTimeout time.Duration // per-message read deadline, zero means none
}

// Option is a function that configures receiver options.
type Option func(*options)

// CodecOption sets the message codec. Defaults to a big-endian LengthPrefixCodec.
func CodecOption(codec Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// DisplayOption sets the sink frames are rendered to. Required.
func DisplayOption(display DisplaySink) Option {
	return func(o *options) {
		o.display = display
	}
}

// AlertOption sets the sink alerts are sent to. Defaults to dropping alerts.
func AlertOption(alert AlertSink) Option {
	return func(o *options) {
		o.alert = alert
	}
}

// EnvelopeOption sets the frame container format. Defaults to RawEnvelope.
func EnvelopeOption(env Envelope) Option {
	return func(o *options) {
		o.env = env
	}
}

// DecoderOption sets the image decoder. Defaults to StdDecoder.
func DecoderOption(decoder ImageDecoder) Option {
	return func(o *options) {
		o.decoder = decoder
	}
}

// ChunkSizeOption sets how many bytes are requested from the stream per read.
func ChunkSizeOption(size int) Option {
	return func(o *options) {
		o.chunkSize = size
	}
}

// ReadTimeoutOption bounds how long a single message may take to arrive.
// It only applies to streams with a SetReadDeadline method. Zero blocks
// indefinitely.
func ReadTimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.readTimeout = timeout
	}
}

// OnErrorOption sets the callback for recoverable errors.
// Return Disconnect to stop the loop, or Continue to skip the message.
func OnErrorOption(cb func(error) ErrorAction) Option {
	return func(o *options) {
		o.onError = cb
	}
}

// LoggerOption sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
