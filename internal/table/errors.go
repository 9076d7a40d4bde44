package table

import "github.com/pkg/errors"

// Validation failures reported by Add. They are returned wrapped with the
// offending record, so match them with errors.Is.
var (
	ErrOverlap        = errors.New("partition overlaps an existing partition")
	ErrOutOfBounds    = errors.New("partition is outside the usable area of the device")
	ErrDuplicateID    = errors.New("partition unique id is already in use")
	ErrUnaligned      = errors.New("partition boundary is not aligned to the logical block size")
	ErrInvalidRange   = errors.New("partition end is before its start")
	ErrTableFull      = errors.New("partition table has no free entries")
	ErrDeviceTooSmall = errors.New("device is too small to hold a partition table")
	ErrNameTooLong    = errors.New("partition name is too long")
)

// ErrNoTable is returned by Read when the device does not carry a valid
// table. An unformatted device is an expected state, so callers usually
// offer to create a new table instead of failing.
var ErrNoTable = errors.New("no valid GPT found")

// IsValidation reports whether err is one of the table validation errors.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrOverlap, ErrOutOfBounds, ErrDuplicateID, ErrUnaligned,
		ErrInvalidRange, ErrTableFull, ErrDeviceTooSmall, ErrNameTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
