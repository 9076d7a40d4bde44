package console

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/morikuni/aec"
	"github.com/pkg/errors"
)

// Color modes accepted by the color config key.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var ErrUnknownColorMode = errors.New("unknown color mode")

var (
	colorTitle     = aec.NewBuilder(aec.DefaultF, aec.Bold).ANSI
	colorFreeSpace = aec.NewBuilder(aec.GreenF, aec.Bold).ANSI
	colorCursor    = aec.NewBuilder(aec.Bold).ANSI
	colorError     = aec.LightRedF
	colorFaint     = aec.NewBuilder(aec.DefaultF, aec.Faint).ANSI
	colorNone      = aec.ANSI(noColor{})
)

type noColor struct{}

func (a noColor) With(_ ...aec.ANSI) aec.ANSI {
	return a
}

func (noColor) Apply(s string) string {
	return s
}

func (noColor) String() string {
	return ""
}

// ValidateColorMode reports whether mode is a known color mode.
func ValidateColorMode(mode string) error {
	switch mode {
	case ColorAuto, ColorAlways, ColorNever:
		return nil
	default:
		return errors.Wrapf(ErrUnknownColorMode, "%q", mode)
	}
}

// UseColor resolves mode for output written to f. Auto enables color only
// on a terminal.
func UseColor(mode string, f *os.File) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return f != nil && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
	}
}
