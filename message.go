package framestream

import "io"

// Kind classifies a received message.
type Kind uint8

const (
	// KindFrame is an encoded image to be decoded and displayed.
	KindFrame Kind = iota + 1
	// KindAlert is a notification that triggers the alert sink.
	KindAlert
)

func (k Kind) String() string {
	switch k {
	case KindFrame:
		return "frame"
	case KindAlert:
		return "alert"
	default:
		return "unknown"
	}
}

// Message is a single payload reconstructed from the stream.
type Message interface {
	// Length returns the length of the message body.
	Length() int
	// Body returns the raw payload.
	Body() []byte
	// Kind reports how the payload should be dispatched.
	Kind() Kind
}

// Codec is the interface for message framing.
//
// Decode reads exactly one message from r. Because r is a buffered view of
// the stream, any bytes past the end of the message stay buffered for the
// next call.
type Codec interface {
	// Decode reads and decodes a complete message from the reader.
	Decode(r io.Reader) (Message, error)
	// Encode encodes a Message into raw bytes for transmission.
	Encode(Message) ([]byte, error)
}

type message struct {
	kind Kind
	body []byte
}

// NewMessage returns a Message of the given kind carrying body.
func NewMessage(kind Kind, body []byte) Message {
	return message{kind: kind, body: body}
}

func (m message) Length() int  { return len(m.body) }
func (m message) Body() []byte { return m.body }
func (m message) Kind() Kind   { return m.kind }
