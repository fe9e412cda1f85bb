package framestream

import (
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Writer is the sending side of the protocol. It is safe for concurrent use.
type Writer struct {
	mu    sync.Mutex
	w     io.Writer
	codec Codec
	env   Envelope
}

// NewWriter returns a Writer encoding with codec and env. Nil values fall
// back to the receiver defaults.
func NewWriter(w io.Writer, codec Codec, env Envelope) *Writer {
	if codec == nil {
		codec = &LengthPrefixCodec{}
	}
	if env == nil {
		env = RawEnvelope{}
	}
	return &Writer{w: w, codec: codec, env: env}
}

// WriteFrame sends one encoded image.
func (w *Writer) WriteFrame(image []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	payload, err := w.env.Wrap(image)
	if err != nil {
		return errors.Wrap(err, "wrap frame")
	}
	return w.write(NewMessage(KindFrame, payload))
}

// WriteAlert sends an alert notification.
func (w *Writer) WriteAlert() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.write(NewMessage(KindAlert, AlertMarker))
}

func (w *Writer) write(m Message) error {
	data, err := w.codec.Encode(m)
	if err != nil {
		return err
	}
	if _, err = w.w.Write(data); err != nil {
		return errors.Wrapf(err, "write %s", m.Kind())
	}
	return nil
}
