// Package display renders frames in an OpenCV window through gocv.
package display

import (
	"image"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// DefaultQuitKey stops the receiver when pressed in the window.
const DefaultQuitKey = 'q'

// Window is a framestream.DisplaySink backed by a gocv window.
// It must be used from the goroutine that created it.
type Window struct {
	win     *gocv.Window
	quitKey int

	mu   sync.Mutex
	quit bool
}

// NewWindow opens a window titled title. A quitKey of zero means DefaultQuitKey.
func NewWindow(title string, quitKey rune) *Window {
	if quitKey == 0 {
		quitKey = DefaultQuitKey
	}
	return &Window{
		win:     gocv.NewWindow(title),
		quitKey: int(quitKey),
	}
}

// Show renders img and polls the keyboard once.
func (w *Window) Show(img image.Image) error {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return errors.Wrap(err, "convert image")
	}
	defer mat.Close()

	w.win.IMShow(mat)
	if key := w.win.WaitKey(1); key >= 0 && key&0xFF == w.quitKey {
		w.mu.Lock()
		w.quit = true
		w.mu.Unlock()
	}
	return nil
}

// StopRequested reports whether the quit key has been pressed.
func (w *Window) StopRequested() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.quit
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}
