// Package table holds the in-memory model of a GPT and the validated
// operations on it. Encoding to and from the on-disk format is delegated to
// go-diskfs (see disk.go).
package table

import (
	"sort"
	"unicode/utf16"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// MaxEntries is the number of entries in a standard partition array.
	MaxEntries = 128
	// EntrySize is the size in bytes of one partition array entry.
	EntrySize = 128
	// MaxNameLength is the capacity of an entry's name in UTF-16 code units.
	MaxNameLength = 36
)

// Record is one partition. Start is the first byte of the partition and End
// is the last byte, inclusive.
type Record struct {
	ID    uuid.UUID
	Name  string
	Type  uuid.UUID
	Start uint64
	End   uint64
}

// Size is the number of bytes covered by the record.
func (r Record) Size() uint64 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

func (r Record) overlaps(o Record) bool {
	return r.Start <= o.End && o.Start <= r.End
}

// Table is an ordered set of partition records on a device of a given size
// and logical block size. Records are kept in insertion order.
type Table struct {
	id         uuid.UUID
	diskSize   uint64
	blockSize  uint64
	partitions []Record
}

// New returns an empty table.
func New(id uuid.UUID, diskSize, blockSize uint64) *Table {
	return &Table{
		id:        id,
		diskSize:  diskSize,
		blockSize: blockSize,
	}
}

func (t *Table) ID() uuid.UUID { return t.id }

func (t *Table) DiskSize() uint64 { return t.diskSize }

func (t *Table) BlockSize() uint64 { return t.blockSize }

func (t *Table) Len() int { return len(t.partitions) }

// Partitions returns a copy of the records in insertion order.
func (t *Table) Partitions() []Record {
	out := make([]Record, len(t.partitions))
	copy(out, t.partitions)
	return out
}

// Clone returns an independent copy of t.
func (t *Table) Clone() *Table {
	c := *t
	c.partitions = t.Partitions()
	return &c
}

func (t *Table) arrayBlocks() uint64 {
	return (MaxEntries*EntrySize + t.blockSize - 1) / t.blockSize
}

// FirstUsable is the first byte that may belong to a partition: after the
// protective MBR, the primary header and the primary partition array.
func (t *Table) FirstUsable() uint64 {
	return (2 + t.arrayBlocks()) * t.blockSize
}

// LastUsable is the last byte that may belong to a partition: before the
// backup partition array and the backup header.
func (t *Table) LastUsable() uint64 {
	blocks := t.diskSize / t.blockSize
	reserved := 1 + t.arrayBlocks()
	if blocks <= reserved {
		return 0
	}
	return (blocks-reserved)*t.blockSize - 1
}

func (t *Table) fits() bool {
	return t.blockSize > 0 && t.LastUsable() > t.FirstUsable()
}

// Last returns the record with the greatest end offset.
func (t *Table) Last() (Record, bool) {
	if len(t.partitions) == 0 {
		return Record{}, false
	}
	last := t.partitions[0]
	for _, p := range t.partitions[1:] {
		if p.End > last.End {
			last = p
		}
	}
	return last, true
}

// Find returns the record with the given unique id.
func (t *Table) Find(id uuid.UUID) (Record, bool) {
	for _, p := range t.partitions {
		if p.ID == id {
			return p, true
		}
	}
	return Record{}, false
}

// Validate checks r against the table without adding it.
func (t *Table) Validate(r Record) error {
	if !t.fits() {
		return errors.Wrapf(ErrDeviceTooSmall, "%d bytes with block size %d", t.diskSize, t.blockSize)
	}
	if r.End < r.Start {
		return errors.Wrapf(ErrInvalidRange, "start %d, end %d", r.Start, r.End)
	}
	if r.Start%t.blockSize != 0 || (r.End+1)%t.blockSize != 0 {
		return errors.Wrapf(ErrUnaligned, "start %d, end %d, block size %d", r.Start, r.End, t.blockSize)
	}
	if r.Start < t.FirstUsable() || r.End > t.LastUsable() {
		return errors.Wrapf(ErrOutOfBounds, "start %d, end %d, usable %d-%d",
			r.Start, r.End, t.FirstUsable(), t.LastUsable())
	}
	if n := len(utf16.Encode([]rune(r.Name))); n > MaxNameLength {
		return errors.Wrapf(ErrNameTooLong, "%q has %d UTF-16 code units, at most %d fit", r.Name, n, MaxNameLength)
	}
	if len(t.partitions) >= MaxEntries {
		return errors.Wrapf(ErrTableFull, "%d entries", MaxEntries)
	}
	for _, p := range t.partitions {
		if p.ID == r.ID {
			return errors.Wrapf(ErrDuplicateID, "%s", r.ID)
		}
		if p.overlaps(r) {
			return errors.Wrapf(ErrOverlap, "start %d, end %d overlaps %s (%d-%d)",
				r.Start, r.End, p.ID, p.Start, p.End)
		}
	}
	return nil
}

// Add validates r and appends it to the table. Records are never adjusted
// to make them fit; any problem is returned unchanged.
func (t *Table) Add(r Record) error {
	if err := t.Validate(r); err != nil {
		return err
	}
	t.partitions = append(t.partitions, r)
	return nil
}

// Remaining returns the number of contiguous free bytes starting at from:
// up to the next partition, or to the end of the usable area.
func (t *Table) Remaining(from uint64) uint64 {
	if !t.fits() || from < t.FirstUsable() || from > t.LastUsable() {
		return 0
	}
	limit := t.LastUsable() + 1
	for _, p := range t.partitions {
		if from >= p.Start && from <= p.End {
			return 0
		}
		if p.Start > from && p.Start < limit {
			limit = p.Start
		}
	}
	return limit - from
}

// Free returns the total number of unallocated usable bytes.
func (t *Table) Free() uint64 {
	if !t.fits() {
		return 0
	}
	sorted := t.Partitions()
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var free uint64
	pos := t.FirstUsable()
	for _, p := range sorted {
		if p.Start > pos {
			free += p.Start - pos
		}
		if p.End+1 > pos {
			pos = p.End + 1
		}
	}
	if end := t.LastUsable() + 1; end > pos {
		free += end - pos
	}
	return free
}
