// Package placement decides where a new partition goes, given whatever
// subset of start, end and size the user supplied.
package placement

import (
	"github.com/pkg/errors"
)

// ErrConflictingEnd is returned when both an absolute end and a size are
// given for one partition.
var ErrConflictingEnd = errors.New("an end offset and a size cannot both be given")

// End is how the end of a new partition was specified: AbsoluteEnd,
// RelativeSize, or nil for "use all remaining space".
type End interface {
	isEnd()
}

// AbsoluteEnd is an inclusive byte offset.
type AbsoluteEnd uint64

// RelativeSize is a length in bytes measured from the start.
type RelativeSize uint64

func (AbsoluteEnd) isEnd()  {}
func (RelativeSize) isEnd() {}

// Hint is the partial placement requested by the user.
type Hint struct {
	Start *uint64
	End   End
}

// NewHint builds a Hint from optional command line values. Giving both end
// and size is an input error and is rejected here, before any resolution.
func NewHint(start, end, size *uint64) (Hint, error) {
	if end != nil && size != nil {
		return Hint{}, ErrConflictingEnd
	}

	h := Hint{Start: start}
	switch {
	case end != nil:
		h.End = AbsoluteEnd(*end)
	case size != nil:
		h.End = RelativeSize(*size)
	}
	return h, nil
}

// StartingAt returns a hint with an explicit start and no end.
func StartingAt(start uint64) Hint {
	return Hint{Start: &start}
}
