// Package framestream receives a length-prefixed stream of video frames and
// alert notifications from a single peer and dispatches them to a display
// sink and an alert sink.
package framestream

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Stream is the byte stream a Receiver reads from. net.Conn satisfies it.
type Stream interface {
	io.Reader
	io.Closer
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type remoteAddresser interface {
	RemoteAddr() net.Addr
}

// Default configuration values.
const (
	// defaultChunkSize is the number of bytes requested per stream read.
	defaultChunkSize = 4096
)

// errStopRequested ends the read loop when the display asks to quit.
var errStopRequested = errors.New("stop requested")

// Stats counts dispatched messages.
type Stats struct {
	Frames  uint64
	Alerts  uint64
	Skipped uint64
}

// Receiver owns one stream and the receive buffer in front of it.
// Construct it with NewReceiver, call Run once, and Close it (Run closes
// it on return as well).
type Receiver struct {
	stream  Stream
	reader  *bufio.Reader
	logger  Logger
	session string

	opts options

	closed atomic.Bool
	mu     sync.Mutex
	cancel context.CancelFunc

	frames  atomic.Uint64
	alerts  atomic.Uint64
	skipped atomic.Uint64
}

// NewReceiver wraps stream. A display sink is required; everything else
// has a default.
func NewReceiver(stream Stream, opt ...Option) (*Receiver, error) {
	if stream == nil {
		return nil, ErrInvalidStream
	}

	var opts options
	for _, o := range opt {
		o(&opts)
	}

	if err := checkOptions(&opts); err != nil {
		return nil, err
	}

	session := uuid.NewString()
	return &Receiver{
		stream:  stream,
		reader:  bufio.NewReaderSize(stream, opts.chunkSize),
		logger:  withSession(opts.logger, session),
		session: session,
		opts:    opts,
	}, nil
}

// checkOptions validates and sets default values for receiver options.
func checkOptions(opts *options) error {
	if opts.display == nil {
		return ErrInvalidDisplay
	}

	if opts.codec == nil {
		opts.codec = &LengthPrefixCodec{ByteOrder: binary.BigEndian}
	}

	if opts.alert == nil {
		opts.alert = nopAlert{}
	}

	if opts.env == nil {
		opts.env = RawEnvelope{}
	}

	if opts.decoder == nil {
		opts.decoder = StdDecoder{}
	}

	if opts.chunkSize <= 0 {
		opts.chunkSize = defaultChunkSize
	}

	if opts.readTimeout < 0 {
		opts.readTimeout = 0
	}

	if opts.onError == nil {
		opts.onError = func(err error) ErrorAction { return Continue }
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	return nil
}

// withSession attaches the session id to the known logger implementations.
func withSession(l Logger, session string) Logger {
	switch v := l.(type) {
	case *slog.Logger:
		return v.With("session", session)
	case *zapLogger:
		return &zapLogger{l: v.l.With("session", session)}
	}
	return l
}

// Next reads the next complete message. Bytes past the end of the message
// stay buffered for the following call. A stream that ends anywhere short
// of a complete message yields ErrConnectionClosed.
func (r *Receiver) Next() (Message, error) {
	if r.opts.readTimeout > 0 {
		if d, ok := r.stream.(readDeadliner); ok {
			_ = d.SetReadDeadline(time.Now().Add(r.opts.readTimeout))
		}
	}

	msg, err := r.opts.codec.Decode(r.reader)
	if err != nil {
		if isTimeout(err) {
			return nil, errors.Wrapf(ErrReadTimeout, "no message within %s", r.opts.readTimeout)
		}
		return nil, err
	}
	return msg, nil
}

// Run reads and dispatches messages until the stream closes, a fatal error
// occurs, the display requests a stop, or ctx is canceled. A stop request
// returns nil. The stream is closed when Run returns.
//
// The sinks are called from the goroutine that called Run.
func (r *Receiver) Run(ctx context.Context) error {
	r.logger.Info("receiver started", "addr", r.Addr())
	r.logger.Debug("receiver options", "addr", r.Addr(),
		"chunk_size", r.opts.chunkSize,
		"read_timeout", r.opts.readTimeout)

	parent := ctx
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	if r.IsClosed() {
		cancel()
	}

	group, child := errgroup.WithContext(ctx)

	// A blocked read only returns once the stream is closed.
	group.Go(func() error {
		<-child.Done()
		r.closeStream()
		return nil
	})

	// Sinks run on the caller's goroutine.
	err := r.readLoop(child)
	cancel()
	_ = group.Wait()
	r.closeStream()

	switch {
	case errors.Is(err, errStopRequested):
		err = nil
	case parent.Err() != nil:
		err = parent.Err()
	}

	stats := r.Stats()
	if err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Info("receiver stopped with error", "addr", r.Addr(), "error", err.Error(),
			"frames", stats.Frames, "alerts", stats.Alerts, "skipped", stats.Skipped)
	} else {
		r.logger.Info("receiver stopped", "addr", r.Addr(),
			"frames", stats.Frames, "alerts", stats.Alerts, "skipped", stats.Skipped)
	}

	return err
}

// Close stops Run and closes the stream. Safe to call multiple times.
func (r *Receiver) Close() error {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
	return r.closeStream()
}

// IsClosed returns true if the stream has been closed.
func (r *Receiver) IsClosed() bool {
	return r.closed.Load()
}

// Addr returns the remote address, or nil if the stream has none.
func (r *Receiver) Addr() net.Addr {
	if a, ok := r.stream.(remoteAddresser); ok {
		return a.RemoteAddr()
	}
	return nil
}

// Session returns the id attached to this receiver's log lines.
func (r *Receiver) Session() string {
	return r.session
}

// Stats returns a snapshot of the dispatch counters.
func (r *Receiver) Stats() Stats {
	return Stats{
		Frames:  r.frames.Load(),
		Alerts:  r.alerts.Load(),
		Skipped: r.skipped.Load(),
	}
}

// readLoop reads one message per iteration and dispatches it.
func (r *Receiver) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := r.Next()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Debug("read error", "addr", r.Addr(), "error", err.Error())
				return err
			}

			if err = r.dispatch(ctx, msg); err != nil {
				return err
			}
		}
	}
}

func (r *Receiver) dispatch(ctx context.Context, msg Message) error {
	switch msg.Kind() {
	case KindAlert:
		r.alerts.Add(1)
		r.logger.Info("alert received", "length", msg.Length())
		if err := r.opts.alert.Alert(ctx, msg.Body()); err != nil {
			return r.recoverable(errors.Wrapf(ErrSinkFailure, "alert: %v", err))
		}
		return nil

	default:
		if err := r.showFrame(msg.Body()); err != nil {
			if err = r.recoverable(err); err != nil {
				return err
			}
		} else {
			r.frames.Add(1)
		}

		if r.opts.display.StopRequested() {
			r.logger.Info("stop requested by display")
			return errStopRequested
		}
		return nil
	}
}

func (r *Receiver) showFrame(payload []byte) error {
	data, err := r.opts.env.Unwrap(payload)
	if err != nil {
		return errors.Wrapf(ErrDecodeFailure, "unwrap %d bytes: %v", len(payload), err)
	}

	img, err := r.opts.decoder.Decode(data)
	if err != nil {
		return errors.Wrapf(ErrDecodeFailure, "decode %d bytes: %v", len(data), err)
	}

	if err = r.opts.display.Show(img); err != nil {
		return errors.Wrapf(ErrSinkFailure, "display: %v", err)
	}
	return nil
}

// recoverable logs err and consults the error callback.
func (r *Receiver) recoverable(err error) error {
	r.skipped.Add(1)
	r.logger.Warn("message skipped", "error", err.Error())
	if r.opts.onError(err) == Disconnect {
		return err
	}
	return nil
}

// closeStream marks the receiver closed and closes the stream once.
func (r *Receiver) closeStream() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.stream.Close()
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
