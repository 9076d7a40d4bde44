// Package actions implements the operations shared by the command line and
// the interactive session: create a table, add a partition, dump and
// restore. Neither front end touches the on-disk format directly.
package actions

import (
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/larsks/part/internal/device"
	"github.com/larsks/part/internal/placement"
	"github.com/larsks/part/internal/snapshot"
	"github.com/larsks/part/internal/table"
)

// ErrBlockSizeMismatch is returned by RestoreTable when a snapshot was
// taken with a different logical block size and no override was given.
var ErrBlockSizeMismatch = errors.New("snapshot block size does not match the device")

// Editor performs table operations on one device.
type Editor struct {
	device   device.Descriptor
	resolver *placement.Resolver
	logger   logrus.FieldLogger
}

// PartitionOptions are the caller supplied attributes of a new partition.
type PartitionOptions struct {
	// ID is generated when nil.
	ID   *uuid.UUID
	Type uuid.UUID
	Name string
}

func NewEditor(d device.Descriptor, resolver *placement.Resolver, logger logrus.FieldLogger) *Editor {
	if resolver == nil {
		resolver = placement.NewResolver(0)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Editor{
		device:   d,
		resolver: resolver,
		logger:   logger.WithField("device", d.Path),
	}
}

func (e *Editor) Device() device.Descriptor { return e.device }

func (e *Editor) Resolver() *placement.Resolver { return e.resolver }

// Open reads the table currently on the device. A device without a valid
// table yields an error matching table.ErrNoTable.
func (e *Editor) Open() (*table.Table, error) {
	f, err := os.Open(e.device.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't open device %s", e.device.Path)
	}
	defer f.Close()

	t, err := table.Read(f, e.device.LogicalBlockSize, e.device.TotalSize)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't read GPT from %s", e.device.Path)
	}
	e.logger.Debugf("read table %s with %d partitions", t.ID(), t.Len())
	return t, nil
}

// Write replaces the table on the device with t.
func (e *Editor) Write(t *table.Table) error {
	f, err := os.OpenFile(e.device.Path, os.O_WRONLY, 0)
	if err != nil {
		return errors.Wrapf(err, "couldn't open device %s for writing", e.device.Path)
	}
	defer f.Close()

	if err := t.Write(f); err != nil {
		return errors.Wrapf(err, "couldn't write GPT to %s", e.device.Path)
	}
	e.logger.Infof("wrote table %s with %d partitions", t.ID(), t.Len())
	return nil
}

// CreateTable writes a new, empty table stamped with id, or with a random
// id when id is nil. Any existing table is overwritten immediately.
func (e *Editor) CreateTable(id *uuid.UUID) (*table.Table, error) {
	tableID := uuid.New()
	if id != nil {
		tableID = *id
	}

	t := table.New(tableID, e.device.TotalSize, e.device.LogicalBlockSize)
	if err := e.Write(t); err != nil {
		return nil, err
	}
	e.logger.WithField("table", tableID).Info("created new table")
	return t, nil
}

// AddPartition places a new partition according to hint and returns a new
// table containing it. t itself is never modified, and validation errors
// from the table are returned unchanged.
func (e *Editor) AddPartition(t *table.Table, hint placement.Hint, opts PartitionOptions) (*table.Table, table.Record, error) {
	rg := placement.Align(e.resolver.Resolve(t, hint), t.BlockSize())

	id := uuid.New()
	if opts.ID != nil {
		id = *opts.ID
	}
	typ := opts.Type
	if typ == uuid.Nil {
		typ = table.TypeLinuxFilesystem
	}

	rec := table.Record{
		ID:    id,
		Name:  opts.Name,
		Type:  typ,
		Start: rg.Start,
		End:   rg.End,
	}

	next := t.Clone()
	if err := next.Add(rec); err != nil {
		return nil, table.Record{}, errors.Wrap(err, "couldn't add partition")
	}
	e.logger.WithFields(logrus.Fields{
		"partition": rec.ID,
		"start":     rec.Start,
		"end":       rec.End,
	}).Info("added partition")
	return next, rec, nil
}

// DumpTable renders t as a snapshot document.
func (e *Editor) DumpTable(t *table.Table, format snapshot.Format) ([]byte, error) {
	s := snapshot.Encode(t, e.device, snapshot.Latest)
	data, err := snapshot.Marshal(format, s)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't dump table of %s", e.device.Path)
	}
	return data, nil
}

// RestoreTable rebuilds a table from a snapshot document. Nothing is
// written; the caller writes the result once decoding has succeeded. A
// non-zero overrideBlockSize replaces the block size recorded in data;
// without it the recorded block size must match the device.
func (e *Editor) RestoreTable(data []byte, format snapshot.Format, overrideBlockSize uint64) (*table.Table, error) {
	s, err := snapshot.Unmarshal(format, data)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read snapshot")
	}
	if overrideBlockSize == 0 && s.LogicalBlockSize != e.device.LogicalBlockSize {
		return nil, errors.Wrapf(ErrBlockSizeMismatch, "snapshot uses %d byte blocks, %s uses %d",
			s.LogicalBlockSize, e.device.Path, e.device.LogicalBlockSize)
	}
	if overrideBlockSize != 0 && overrideBlockSize != s.LogicalBlockSize {
		e.logger.Warnf("overriding snapshot block size %d with %d", s.LogicalBlockSize, overrideBlockSize)
	}
	t, err := snapshot.Decode(s, overrideBlockSize)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't restore snapshot")
	}
	if t.DiskSize() != e.device.TotalSize {
		e.logger.Warnf("snapshot was taken from a %d byte device, %s is %d bytes",
			t.DiskSize(), e.device.Path, e.device.TotalSize)
	}
	return t, nil
}

// Retarget returns t sized for this editor's device, so a restored layout
// can be written to a device of a different size.
func (e *Editor) Retarget(t *table.Table) (*table.Table, error) {
	out := table.New(t.ID(), e.device.TotalSize, t.BlockSize())
	for _, p := range t.Partitions() {
		if err := out.Add(p); err != nil {
			return nil, errors.Wrapf(err, "partition %s does not fit on %s", p.ID, e.device.Path)
		}
	}
	return out, nil
}
