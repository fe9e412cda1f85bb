package framestream

import (
	"bytes"
	"encoding/json"
	"image"
	// Registered formats for StdDecoder.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
)

// Envelope is the container a frame payload is serialised in. Unwrap
// returns the encoded image bytes it carries.
type Envelope interface {
	Unwrap(payload []byte) ([]byte, error)
	Wrap(image []byte) ([]byte, error)
}

// RawEnvelope treats the payload as the encoded image itself.
type RawEnvelope struct{}

func (RawEnvelope) Unwrap(payload []byte) ([]byte, error) { return payload, nil }
func (RawEnvelope) Wrap(image []byte) ([]byte, error)     { return image, nil }

// FrameEnvelope is the JSON container written by JSONEnvelope.
type FrameEnvelope struct {
	ID       string `json:"id,omitempty"`
	Sequence int64  `json:"seq"`
	Payload  []byte `json:"payload"`
}

// JSONEnvelope wraps the image bytes in a JSON object; encoding/json
// base64-encodes the payload field.
type JSONEnvelope struct {
	seq int64
}

// Unwrap implements Envelope.
func (e *JSONEnvelope) Unwrap(payload []byte) ([]byte, error) {
	var env FrameEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, errors.Wrap(err, "unmarshal frame envelope")
	}
	return env.Payload, nil
}

// Wrap implements Envelope. Not safe for concurrent use.
func (e *JSONEnvelope) Wrap(image []byte) ([]byte, error) {
	e.seq++
	return json.Marshal(FrameEnvelope{Sequence: e.seq, Payload: image})
}

// ImageDecoder turns encoded image bytes into a raster image.
type ImageDecoder interface {
	Decode(data []byte) (image.Image, error)
}

// StdDecoder decodes JPEG, PNG and GIF data with the image package.
type StdDecoder struct{}

// Decode implements ImageDecoder.
func (StdDecoder) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	if b := img.Bounds(); b.Empty() {
		return nil, errors.Errorf("decoded %s image is empty", format)
	}
	return img, nil
}
