package display

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Decoder is a framestream.ImageDecoder using OpenCV's imdecode, which
// accepts every format the OpenCV build supports.
type Decoder struct{}

// Decode implements framestream.ImageDecoder.
func (Decoder) Decode(data []byte) (image.Image, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, errors.Wrap(err, "imdecode")
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.New("imdecode returned an empty image")
	}
	return mat.ToImage()
}
