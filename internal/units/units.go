// Package units converts between byte counts and the human readable sizes
// accepted on the command line and shown in the interactive detail panel.
package units

import (
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

const (
	KiB uint64 = 1 << 10
	MiB uint64 = 1 << 20
	GiB uint64 = 1 << 30
	TiB uint64 = 1 << 40
)

// ParseSize parses a byte count. A bare number is bytes. The single letter
// suffixes K, M, G and T are binary units, so "10M" and "10MiB" are the same
// size. Decimal suffixes such as "MB" are passed through to humanize.
func ParseSize(s string) (uint64, error) {
	arg := strings.TrimSpace(s)
	if arg == "" {
		return 0, errors.New("empty size")
	}

	idx := strings.IndexFunc(arg, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	if idx == 0 {
		return 0, errors.Errorf("invalid size %q: must start with a number", s)
	}

	if idx > 0 {
		suffix := strings.TrimSpace(arg[idx:])
		switch strings.ToUpper(suffix) {
		case "K", "M", "G", "T":
			arg = arg[:idx] + strings.ToUpper(suffix) + "iB"
		case "B":
			arg = arg[:idx]
		}
	}

	n, err := humanize.ParseBytes(arg)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid size %q", s)
	}
	return n, nil
}

// FormatSize renders n using binary units, e.g. "10 MiB".
func FormatSize(n uint64) string {
	return humanize.IBytes(n)
}
