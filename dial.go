package framestream

import (
	"context"
	"io"
	"net"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Dial opens the stream to a source. addr is either host:port (optionally
// prefixed with tcp://) or a ws:// or wss:// URL. Over a websocket the
// binary messages are concatenated into one byte stream, so framing still
// comes from the codec.
func Dial(ctx context.Context, addr string) (Stream, error) {
	switch {
	case strings.HasPrefix(addr, "ws://"), strings.HasPrefix(addr, "wss://"):
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			return nil, errors.Wrapf(err, "dial %s", addr)
		}
		return &wsStream{conn: conn}, nil

	default:
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", strings.TrimPrefix(addr, "tcp://"))
		if err != nil {
			return nil, errors.Wrapf(err, "dial %s", addr)
		}
		return conn, nil
	}
}

// wsStream reads the binary messages of a websocket connection as one
// continuous stream. Text messages are ignored.
type wsStream struct {
	conn *websocket.Conn
	r    io.Reader
}

func (s *wsStream) Read(p []byte) (int, error) {
	for {
		if s.r == nil {
			mt, r, err := s.conn.NextReader()
			if err != nil {
				return 0, wsErr(err)
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			s.r = r
		}

		n, err := s.r.Read(p)
		if err == io.EOF {
			s.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, wsErr(err)
	}
}

// wsErr turns any close, clean or abnormal, into io.EOF.
func wsErr(err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return io.EOF
	}
	return err
}

func (s *wsStream) Close() error {
	return s.conn.Close()
}

func (s *wsStream) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

func (s *wsStream) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}
