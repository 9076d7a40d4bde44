package table

import (
	"os"
	"strings"

	"github.com/diskfs/go-diskfs/partition/gpt"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Read parses the GPT found on f. Any failure to find a valid header or
// partition array is reported as ErrNoTable.
func Read(f *os.File, blockSize, diskSize uint64) (*Table, error) {
	g, err := gpt.Read(f, int(blockSize), int(blockSize))
	if err != nil {
		return nil, errors.Wrap(ErrNoTable, err.Error())
	}

	id, err := uuid.Parse(g.GUID)
	if err != nil {
		return nil, errors.Wrapf(ErrNoTable, "invalid disk GUID %q", g.GUID)
	}

	t := New(id, diskSize, blockSize)
	for _, p := range g.Partitions {
		if p == nil || p.Type == gpt.Unused {
			continue
		}
		rec, err := fromDisk(p, blockSize)
		if err != nil {
			return nil, err
		}
		if err := t.Add(rec); err != nil {
			return nil, errors.Wrapf(err, "partition %q", p.Name)
		}
	}
	return t, nil
}

// Write writes t to f, including the protective MBR and the backup header.
func (t *Table) Write(f *os.File) error {
	if !t.fits() {
		return errors.Wrapf(ErrDeviceTooSmall, "%d bytes with block size %d", t.diskSize, t.blockSize)
	}

	g := &gpt.Table{
		LogicalSectorSize:  int(t.blockSize),
		PhysicalSectorSize: int(t.blockSize),
		ProtectiveMBR:      true,
		GUID:               strings.ToUpper(t.id.String()),
	}
	for _, r := range t.partitions {
		g.Partitions = append(g.Partitions, toDisk(r, t.blockSize))
	}

	if err := g.Write(f, int64(t.diskSize)); err != nil {
		return errors.Wrap(err, "couldn't write GPT")
	}
	return f.Sync()
}

func fromDisk(p *gpt.Partition, blockSize uint64) (Record, error) {
	id, err := uuid.Parse(p.GUID)
	if err != nil {
		return Record{}, errors.Wrapf(ErrNoTable, "invalid partition GUID %q", p.GUID)
	}
	typ, err := uuid.Parse(string(p.Type))
	if err != nil {
		return Record{}, errors.Wrapf(ErrNoTable, "invalid partition type %q", p.Type)
	}
	return Record{
		ID:    id,
		Name:  p.Name,
		Type:  typ,
		Start: p.Start * blockSize,
		End:   (p.End+1)*blockSize - 1,
	}, nil
}

func toDisk(r Record, blockSize uint64) *gpt.Partition {
	return &gpt.Partition{
		Start: r.Start / blockSize,
		End:   r.End / blockSize,
		Size:  r.Size(),
		Type:  gpt.Type(strings.ToUpper(r.Type.String())),
		Name:  r.Name,
		GUID:  strings.ToUpper(r.ID.String()),
	}
}
