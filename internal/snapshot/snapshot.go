// Package snapshot converts a partition table and the device it lives on to
// a portable, versioned document and back.
package snapshot

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/larsks/part/internal/device"
	"github.com/larsks/part/internal/table"
)

// Version of the snapshot document layout.
type Version string

const (
	V1 Version = "V1"
)

// Latest is the version written by default.
const Latest = V1

var (
	ErrInvalidSnapshot    = errors.New("invalid snapshot")
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
)

// Versions lists every version this package reads and writes, oldest first.
func Versions() []Version {
	return []Version{V1}
}

// ParseVersion normalises v. An empty version means the oldest one, so
// documents written before versioning existed keep working.
func ParseVersion(v string) (Version, error) {
	if strings.TrimSpace(v) == "" {
		return Versions()[0], nil
	}
	for _, known := range Versions() {
		if strings.EqualFold(v, string(known)) {
			return known, nil
		}
	}
	return "", errors.Wrapf(ErrUnsupportedVersion, "%q", v)
}

// Partition is one partition entry of a snapshot. End is inclusive.
type Partition struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	TypeID   string `json:"type_id" yaml:"type_id" toml:"type_id"`
	UniqueID string `json:"unique_id" yaml:"unique_id" toml:"unique_id"`
	Start    uint64 `json:"start" yaml:"start" toml:"start"`
	End      uint64 `json:"end" yaml:"end" toml:"end"`
}

// Snapshot is the portable form of a table and its device.
type Snapshot struct {
	Version          Version     `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	TableID          string      `json:"table_id" yaml:"table_id" toml:"table_id"`
	Model            string      `json:"model" yaml:"model" toml:"model"`
	LogicalBlockSize uint64      `json:"logical_block_size" yaml:"logical_block_size" toml:"logical_block_size"`
	TotalSize        uint64      `json:"total_size" yaml:"total_size" toml:"total_size"`
	Partitions       []Partition `json:"partitions" yaml:"partitions" toml:"partitions"`
}

// Encode captures every partition of t exactly, in table order.
func Encode(t *table.Table, d device.Descriptor, v Version) Snapshot {
	s := Snapshot{
		Version:          v,
		TableID:          strings.ToUpper(t.ID().String()),
		Model:            d.Model,
		LogicalBlockSize: t.BlockSize(),
		TotalSize:        t.DiskSize(),
		Partitions:       make([]Partition, 0, t.Len()),
	}
	for _, p := range t.Partitions() {
		s.Partitions = append(s.Partitions, Partition{
			Name:     p.Name,
			TypeID:   strings.ToUpper(p.Type.String()),
			UniqueID: strings.ToUpper(p.ID.String()),
			Start:    p.Start,
			End:      p.End,
		})
	}
	return s
}

// Decode rebuilds a table from s. Each partition goes through the same
// validated Add used for new partitions, so an edited snapshot with
// overlapping or misaligned entries is rejected with the table's own
// errors. A non-zero overrideBlockSize replaces the recorded block size;
// byte offsets are kept as recorded.
func Decode(s Snapshot, overrideBlockSize uint64) (*table.Table, error) {
	if _, err := ParseVersion(string(s.Version)); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(s.TableID)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSnapshot, "table_id %q: %v", s.TableID, err)
	}

	blockSize := s.LogicalBlockSize
	if overrideBlockSize != 0 {
		blockSize = overrideBlockSize
	}
	if blockSize == 0 {
		return nil, errors.Wrap(ErrInvalidSnapshot, "logical_block_size must be greater than zero")
	}
	if s.TotalSize == 0 {
		return nil, errors.Wrap(ErrInvalidSnapshot, "total_size must be greater than zero")
	}

	t := table.New(id, s.TotalSize, blockSize)
	for i, p := range s.Partitions {
		rec, err := p.record()
		if err != nil {
			return nil, errors.Wrapf(err, "partition %d", i+1)
		}
		if err := t.Add(rec); err != nil {
			return nil, errors.Wrapf(err, "partition %d (%s)", i+1, p.UniqueID)
		}
	}
	return t, nil
}

func (p Partition) record() (table.Record, error) {
	id, err := uuid.Parse(p.UniqueID)
	if err != nil {
		return table.Record{}, errors.Wrapf(ErrInvalidSnapshot, "unique_id %q: %v", p.UniqueID, err)
	}
	typ, err := uuid.Parse(p.TypeID)
	if err != nil {
		return table.Record{}, errors.Wrapf(ErrInvalidSnapshot, "type_id %q: %v", p.TypeID, err)
	}
	return table.Record{
		ID:    id,
		Name:  p.Name,
		Type:  typ,
		Start: p.Start,
		End:   p.End,
	}, nil
}
