// Package alert provides sinks that play the alert cue.
package alert

import (
	"context"
	"io"
	"os/exec"
	"runtime"

	"github.com/pkg/errors"
)

// Player plays a sound file with an external command.
type Player struct {
	// Command is the program and leading arguments; the sound file is
	// appended. Empty means DefaultCommand for the current OS.
	Command []string
	// Sound is the path of the file to play.
	Sound string
}

// DefaultCommand returns the player command for goos.
func DefaultCommand(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"afplay"}
	case "linux":
		return []string{"aplay", "-q"}
	default:
		return []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}
	}
}

// Alert runs the player and waits for it to finish or ctx to end.
func (p *Player) Alert(ctx context.Context, _ []byte) error {
	if p.Sound == "" {
		return errors.New("no sound file configured")
	}

	argv := p.Command
	if len(argv) == 0 {
		argv = DefaultCommand(runtime.GOOS)
	}
	args := append(append([]string{}, argv[1:]...), p.Sound)

	out, err := exec.CommandContext(ctx, argv[0], args...).CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "%s: %s", argv[0], out)
	}
	return nil
}

// Bell writes the terminal bell character.
type Bell struct {
	W io.Writer
}

// Alert implements framestream.AlertSink.
func (b Bell) Alert(context.Context, []byte) error {
	_, err := io.WriteString(b.W, "\a")
	return err
}

// Sink is the method set shared with framestream.AlertSink.
type Sink interface {
	Alert(ctx context.Context, payload []byte) error
}

// Fallback tries each sink in order and stops at the first success.
type Fallback []Sink

// Alert implements framestream.AlertSink. It returns the last error if
// every sink fails.
func (f Fallback) Alert(ctx context.Context, payload []byte) error {
	var err error
	for _, s := range f {
		if err = s.Alert(ctx, payload); err == nil {
			return nil
		}
	}
	return err
}
