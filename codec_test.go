package framestream

import (
	"bytes"
	"encoding/binary"
	"io"
	"math/rand"
	"net"
	"os"
	"syscall"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeAll concatenates the wire form of each payload.
func encodeAll(t *testing.T, codec Codec, msgs ...Message) []byte {
	t.Helper()

	var buf bytes.Buffer
	for _, m := range msgs {
		data, err := codec.Encode(m)
		require.NoError(t, err)
		buf.Write(data)
	}
	return buf.Bytes()
}

// randomSplitReader returns at most a random number of bytes per Read.
type randomSplitReader struct {
	r   io.Reader
	rnd *rand.Rand
}

func (s *randomSplitReader) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1+s.rnd.Intn(len(p))]
	}
	return s.r.Read(p)
}

func decodeAll(t *testing.T, codec Codec, r io.Reader) ([]Message, error) {
	t.Helper()

	var out []Message
	for {
		m, err := codec.Decode(r)
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
}

func testPayloads() []Message {
	big := make([]byte, 10000)
	rand.New(rand.NewSource(1)).Read(big)

	return []Message{
		NewMessage(KindFrame, []byte("first frame")),
		NewMessage(KindFrame, []byte{}),
		NewMessage(KindFrame, big),
		NewMessage(KindAlert, []byte("ALERT")),
		NewMessage(KindFrame, []byte{0x00, 0x01, 0x02}),
	}
}

func TestLengthPrefixCodec_ChunkingDoesNotMatter(t *testing.T) {
	codec := &LengthPrefixCodec{}
	msgs := testPayloads()
	wire := encodeAll(t, codec, msgs...)

	readers := map[string]func() io.Reader{
		"single read": func() io.Reader { return bytes.NewReader(wire) },
		"one byte":    func() io.Reader { return iotest.OneByteReader(bytes.NewReader(wire)) },
		"half":        func() io.Reader { return iotest.HalfReader(bytes.NewReader(wire)) },
		"random": func() io.Reader {
			return &randomSplitReader{r: bytes.NewReader(wire), rnd: rand.New(rand.NewSource(7))}
		},
	}

	for name, newReader := range readers {
		t.Run(name, func(t *testing.T) {
			got, err := decodeAll(t, codec, newReader())
			assert.ErrorIs(t, err, ErrConnectionClosed)
			require.Len(t, got, len(msgs))
			for i, m := range msgs {
				assert.Equal(t, m.Body(), got[i].Body(), "message %d", i)
				assert.Equal(t, m.Kind(), got[i].Kind(), "message %d", i)
			}
		})
	}
}

func TestLengthPrefixCodec_AlertScenario(t *testing.T) {
	wire := []byte{0, 0, 0, 0, 0, 0, 0, 5, 'A', 'L', 'E', 'R', 'T'}

	m, err := (&LengthPrefixCodec{}).Decode(bytes.NewReader(wire))
	require.NoError(t, err)
	assert.Equal(t, KindAlert, m.Kind())
	assert.Equal(t, 5, m.Length())
}

func TestLengthPrefixCodec_ZeroLength(t *testing.T) {
	wire := make([]byte, PrefixSize)

	m, err := (&LengthPrefixCodec{}).Decode(bytes.NewReader(wire))
	require.NoError(t, err)
	assert.Equal(t, 0, m.Length())
	assert.Equal(t, KindFrame, m.Kind())
}

func TestLengthPrefixCodec_ClosedStream(t *testing.T) {
	codec := &LengthPrefixCodec{}
	full := encodeAll(t, codec, NewMessage(KindFrame, []byte("payload")))

	cases := map[string][]byte{
		"at boundary":  {},
		"mid prefix":   full[:3],
		"after prefix": full[:PrefixSize],
		"mid payload":  full[:PrefixSize+2],
	}

	for name, wire := range cases {
		t.Run(name, func(t *testing.T) {
			m, err := codec.Decode(bytes.NewReader(wire))
			assert.Nil(t, m)
			assert.ErrorIs(t, err, ErrConnectionClosed)
		})
	}
}

func TestLengthPrefixCodec_LittleEndian(t *testing.T) {
	wire := make([]byte, PrefixSize+2)
	binary.LittleEndian.PutUint64(wire, 2)
	copy(wire[PrefixSize:], "hi")

	m, err := (&LengthPrefixCodec{ByteOrder: binary.LittleEndian}).Decode(bytes.NewReader(wire))
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), m.Body())

	// The same bytes read big-endian declare an absurd length.
	_, err = (&LengthPrefixCodec{}).Decode(bytes.NewReader(wire))
	assert.ErrorIs(t, err, ErrMessageTooLarge)
}

func TestLengthPrefixCodec_MessageTooLarge(t *testing.T) {
	codec := &LengthPrefixCodec{MaxSize: 4}
	wire := encodeAll(t, codec, NewMessage(KindFrame, []byte("12345")))

	_, err := codec.Decode(bytes.NewReader(wire))
	assert.ErrorIs(t, err, ErrMessageTooLarge)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindAlert, Classify([]byte("ALERT")))
	assert.Equal(t, KindAlert, Classify([]byte("driver sleeping: ALERT!")))
	assert.Equal(t, KindFrame, Classify([]byte("alert")))
	assert.Equal(t, KindFrame, Classify([]byte{0xff, 0xd8, 0xff, 0xe0}))
	assert.Equal(t, KindFrame, Classify(nil))
}

func TestTaggedCodec_KindFromTag(t *testing.T) {
	codec := &TaggedCodec{}
	// A frame whose bytes happen to contain the marker stays a frame.
	msgs := []Message{
		NewMessage(KindFrame, []byte("xxALERTxx")),
		NewMessage(KindAlert, nil),
		NewMessage(KindFrame, []byte{}),
	}
	wire := encodeAll(t, codec, msgs...)

	got, err := decodeAll(t, codec, iotest.OneByteReader(bytes.NewReader(wire)))
	assert.ErrorIs(t, err, ErrConnectionClosed)
	require.Len(t, got, 3)
	assert.Equal(t, KindFrame, got[0].Kind())
	assert.Equal(t, []byte("xxALERTxx"), got[0].Body())
	assert.Equal(t, KindAlert, got[1].Kind())
	assert.Equal(t, KindFrame, got[2].Kind())
	assert.Equal(t, 0, got[2].Length())
}

func TestTaggedCodec_UnknownTag(t *testing.T) {
	wire := make([]byte, 1+PrefixSize)
	wire[0] = 0x7f

	_, err := (&TaggedCodec{}).Decode(bytes.NewReader(wire))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = (&TaggedCodec{}).Encode(NewMessage(Kind(9), nil))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestTaggedCodec_ClosedMidPayload(t *testing.T) {
	codec := &TaggedCodec{}
	wire := encodeAll(t, codec, NewMessage(KindFrame, []byte("abcdef")))

	_, err := codec.Decode(bytes.NewReader(wire[:len(wire)-1]))
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "frame", KindFrame.String())
	assert.Equal(t, "alert", KindAlert.String())
	assert.Equal(t, "unknown", Kind(0).String())
}

func TestClosedErr_Reset(t *testing.T) {
	reset := &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET)}

	for _, err := range []error{reset, syscall.ECONNABORTED, syscall.EPIPE, net.ErrClosed} {
		assert.ErrorIs(t, closedErr(err, "read payload"), ErrConnectionClosed, "%v", err)
	}
	assert.NotErrorIs(t, closedErr(syscall.EINVAL, "read payload"), ErrConnectionClosed)
}
