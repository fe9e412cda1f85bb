package framestream

import "errors"

// Fatal errors. Any of these ends the dispatch loop.
var (
	// ErrConnectionClosed is returned when the stream ends before a complete
	// message has been read, including exactly at a message boundary.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrReadTimeout is returned when no complete message arrives within the
	// configured read timeout.
	ErrReadTimeout = errors.New("read timeout")
	// ErrMessageTooLarge is returned when a length prefix exceeds the limit.
	ErrMessageTooLarge = errors.New("message too large")
	// ErrUnknownKind is returned for an unrecognised message tag.
	ErrUnknownKind = errors.New("unknown message kind")
)

// Recoverable errors. These are logged and passed to the error callback.
var (
	// ErrDecodeFailure wraps envelope and image decoding errors.
	ErrDecodeFailure = errors.New("decode failure")
	// ErrSinkFailure wraps display and alert sink errors.
	ErrSinkFailure = errors.New("sink failure")
)

// Construction errors.
var (
	// ErrInvalidStream is returned when NewReceiver is given a nil stream.
	ErrInvalidStream = errors.New("invalid stream")
	// ErrInvalidDisplay is returned when no display sink is configured.
	ErrInvalidDisplay = errors.New("invalid display sink")
)
