package placement

import (
	"github.com/larsks/part/internal/table"
)

// DefaultMinStart is where the first partition of an empty table starts. It
// leaves room for the protective MBR, the GPT header and partition array,
// and keeps partitions aligned for devices with large physical blocks.
const DefaultMinStart uint64 = 1 << 20

// Range is a resolved placement. End is the inclusive last byte before any
// block rounding; see Align.
type Range struct {
	Start uint64
	End   uint64
}

// Size is the number of bytes in the range.
func (r Range) Size() uint64 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Resolver turns hints into ranges for one table.
type Resolver struct {
	MinStart uint64
}

// NewResolver returns a resolver using minStart for empty tables, or
// DefaultMinStart when minStart is zero.
func NewResolver(minStart uint64) *Resolver {
	if minStart == 0 {
		minStart = DefaultMinStart
	}
	return &Resolver{MinStart: minStart}
}

// After returns the default start of a partition placed after rec: the
// first byte of the block following the block that holds rec.End.
func After(rec table.Record, blockSize uint64) uint64 {
	return rec.End - rec.End%blockSize + blockSize
}

// DefaultStart is where a partition goes when no start is given.
func (r *Resolver) DefaultStart(t *table.Table) uint64 {
	if last, ok := t.Last(); ok {
		return After(last, t.BlockSize())
	}
	return r.MinStart
}

// Resolve computes the range for a new partition. It never fails; if the
// result does not fit, the table rejects it when the record is added.
func (r *Resolver) Resolve(t *table.Table, h Hint) Range {
	start := r.DefaultStart(t)
	if h.Start != nil {
		start = *h.Start
	}
	return r.resolveEnd(t, start, h.End)
}

// Preview computes the free-space placeholder shown after last, or at the
// table's default start when nothing has been selected yet.
func (r *Resolver) Preview(t *table.Table, last *table.Record) Range {
	start := r.MinStart
	if last != nil {
		start = After(*last, t.BlockSize())
	}
	return r.resolveEnd(t, start, nil)
}

func (r *Resolver) resolveEnd(t *table.Table, start uint64, end End) Range {
	switch e := end.(type) {
	case AbsoluteEnd:
		return Range{Start: start, End: uint64(e)}
	case RelativeSize:
		return Range{Start: start, End: start + uint64(e) - 1}
	default:
		// An empty run gives End == Start-1, a zero sized range.
		return Range{Start: start, End: start + t.Remaining(start) - 1}
	}
}

// Align rounds the end of rg up so the range covers the whole block that
// contains it. Starts are never moved.
func Align(rg Range, blockSize uint64) Range {
	if rg.End < rg.Start {
		return rg
	}
	next := rg.End + 1
	if rem := next % blockSize; rem != 0 {
		next += blockSize - rem
	}
	return Range{Start: rg.Start, End: next - 1}
}
