package framestream

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"syscall"

	"github.com/pkg/errors"
)

// Wire constants.
const (
	// PrefixSize is the size of the length prefix in bytes.
	PrefixSize = 8
	// DefaultMaxMessageSize bounds a single payload (64MB).
	DefaultMaxMessageSize = 64 << 20
)

// AlertMarker identifies alert payloads in the untagged protocol.
var AlertMarker = []byte("ALERT")

// Tag bytes of the tagged protocol.
const (
	tagFrame byte = 0x01
	tagAlert byte = 0x02
)

// Classify reports the kind of an untagged payload. A payload is an alert
// if and only if it contains AlertMarker anywhere; a frame that happens to
// contain the marker is misclassified, which TaggedCodec avoids.
func Classify(payload []byte) Kind {
	if bytes.Contains(payload, AlertMarker) {
		return KindAlert
	}
	return KindFrame
}

// LengthPrefixCodec frames messages as [8-byte length][payload] and
// classifies payloads by content.
type LengthPrefixCodec struct {
	// ByteOrder of the prefix. Nil means big-endian.
	ByteOrder binary.ByteOrder
	// MaxSize bounds the declared payload length. Zero means DefaultMaxMessageSize.
	MaxSize uint64
}

// Decode implements Codec.
func (c *LengthPrefixCodec) Decode(r io.Reader) (Message, error) {
	var prefix [PrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, closedErr(err, "read length prefix")
	}

	body, err := readPayload(r, order(c.ByteOrder).Uint64(prefix[:]), c.MaxSize)
	if err != nil {
		return nil, err
	}

	return message{kind: Classify(body), body: body}, nil
}

// Encode implements Codec. The message kind is not encoded; an alert is
// expected to carry the marker in its body.
func (c *LengthPrefixCodec) Encode(m Message) ([]byte, error) {
	body := m.Body()
	out := make([]byte, PrefixSize+len(body))
	order(c.ByteOrder).PutUint64(out, uint64(len(body)))
	copy(out[PrefixSize:], body)
	return out, nil
}

// TaggedCodec frames messages as [1-byte kind][8-byte length][payload].
type TaggedCodec struct {
	ByteOrder binary.ByteOrder
	MaxSize   uint64
}

// Decode implements Codec.
func (c *TaggedCodec) Decode(r io.Reader) (Message, error) {
	var header [1 + PrefixSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, closedErr(err, "read message header")
	}

	var kind Kind
	switch header[0] {
	case tagFrame:
		kind = KindFrame
	case tagAlert:
		kind = KindAlert
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "tag 0x%02x", header[0])
	}

	body, err := readPayload(r, order(c.ByteOrder).Uint64(header[1:]), c.MaxSize)
	if err != nil {
		return nil, err
	}

	return message{kind: kind, body: body}, nil
}

// Encode implements Codec.
func (c *TaggedCodec) Encode(m Message) ([]byte, error) {
	var tag byte
	switch m.Kind() {
	case KindFrame:
		tag = tagFrame
	case KindAlert:
		tag = tagAlert
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "kind %d", m.Kind())
	}

	body := m.Body()
	out := make([]byte, 1+PrefixSize+len(body))
	out[0] = tag
	order(c.ByteOrder).PutUint64(out[1:], uint64(len(body)))
	copy(out[1+PrefixSize:], body)
	return out, nil
}

func readPayload(r io.Reader, n, maxSize uint64) ([]byte, error) {
	if maxSize == 0 {
		maxSize = DefaultMaxMessageSize
	}
	if n > maxSize {
		return nil, errors.Wrapf(ErrMessageTooLarge, "declared %d bytes, limit %d", n, maxSize)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, closedErr(err, "read payload")
	}
	return body, nil
}

// closedErr maps a short read to ErrConnectionClosed. io.ReadFull returns
// io.EOF when nothing was read and io.ErrUnexpectedEOF mid-read; both mean
// the peer went away before a complete message arrived. A reset or aborted
// connection counts the same.
func closedErr(err error, op string) error {
	if isClosed(err) {
		return errors.Wrap(ErrConnectionClosed, op)
	}
	return errors.Wrap(err, op)
}

var closedErrs = []error{
	io.EOF,
	io.ErrUnexpectedEOF,
	net.ErrClosed,
	syscall.ECONNRESET,
	syscall.ECONNABORTED,
	syscall.EPIPE,
}

func isClosed(err error) bool {
	for _, target := range closedErrs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func order(o binary.ByteOrder) binary.ByteOrder {
	if o == nil {
		return binary.BigEndian
	}
	return o
}
