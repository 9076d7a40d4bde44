package table

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mib      = uint64(1 << 20)
	diskSize = 100 * mib
)

func newRecord(start, end uint64) Record {
	return Record{ID: uuid.New(), Type: TypeLinuxFilesystem, Start: start, End: end}
}

func named(r Record, name string) Record {
	r.Name = name
	return r
}

func sparseImage(t *testing.T, size uint64) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "disk.img"))
	require.NoError(t, err)
	require.NoError(t, f.Truncate(int64(size)))
	t.Cleanup(func() { f.Close() })
	return f
}

func TestUsableArea(t *testing.T) {
	tbl := New(uuid.New(), diskSize, 512)
	assert.Equal(t, uint64(34*512), tbl.FirstUsable())
	assert.Equal(t, uint64((204800-33)*512-1), tbl.LastUsable())

	tbl = New(uuid.New(), diskSize, 4096)
	assert.Equal(t, uint64(6*4096), tbl.FirstUsable())
	assert.Equal(t, uint64((25600-5)*4096-1), tbl.LastUsable())
}

func TestAdd(t *testing.T) {
	existing := newRecord(mib, 2*mib-1)

	tests := []struct {
		name    string
		record  Record
		wantErr error
	}{
		{name: "after existing", record: newRecord(2*mib, 3*mib-1)},
		{name: "before existing", record: newRecord(512*100, mib-1)},
		{name: "overlap start", record: newRecord(mib+512, 3*mib-1), wantErr: ErrOverlap},
		{name: "overlap containing", record: newRecord(mib-512, 2*mib+511), wantErr: ErrOverlap},
		{name: "unaligned start", record: newRecord(2*mib+1, 3*mib-1), wantErr: ErrUnaligned},
		{name: "unaligned end", record: newRecord(2*mib, 3*mib), wantErr: ErrUnaligned},
		{name: "end before start", record: newRecord(3*mib, 2*mib-1), wantErr: ErrInvalidRange},
		{name: "inside primary array", record: newRecord(512, mib-1), wantErr: ErrOutOfBounds},
		{name: "past last usable", record: newRecord(99*mib, diskSize-1), wantErr: ErrOutOfBounds},
		{name: "duplicate id", record: Record{ID: existing.ID, Start: 4 * mib, End: 5*mib - 1}, wantErr: ErrDuplicateID},
		{name: "name at limit", record: named(newRecord(2*mib, 3*mib-1), strings.Repeat("x", MaxNameLength))},
		{name: "wide name at limit", record: named(newRecord(2*mib, 3*mib-1), strings.Repeat("\U0001F600", MaxNameLength/2))},
		{name: "name too long", record: named(newRecord(2*mib, 3*mib-1), strings.Repeat("x", 40)), wantErr: ErrNameTooLong},
		{name: "surrogate pairs too long", record: named(newRecord(2*mib, 3*mib-1), strings.Repeat("\U0001F600", 20)), wantErr: ErrNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := New(uuid.New(), diskSize, 512)
			require.NoError(t, tbl.Add(existing))

			err := tbl.Add(tt.record)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
				assert.True(t, IsValidation(err))
				assert.Equal(t, 1, tbl.Len(), "table must be unchanged after a rejected add")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2, tbl.Len())
		})
	}
}

func TestAddTableFull(t *testing.T) {
	tbl := New(uuid.New(), diskSize, 512)
	for i := uint64(0); i < MaxEntries; i++ {
		start := mib + i*mib/2
		require.NoError(t, tbl.Add(newRecord(start, start+mib/2-1)))
	}
	err := tbl.Add(newRecord(80*mib, 81*mib-1))
	assert.True(t, errors.Is(err, ErrTableFull))
}

func TestDeviceTooSmall(t *testing.T) {
	tbl := New(uuid.New(), 16*1024, 512)
	err := tbl.Add(newRecord(0, 511))
	assert.True(t, errors.Is(err, ErrDeviceTooSmall))
	assert.Zero(t, tbl.Remaining(0))
}

func TestRemaining(t *testing.T) {
	tbl := New(uuid.New(), diskSize, 512)
	assert.Equal(t, tbl.LastUsable()+1-mib, tbl.Remaining(mib))

	require.NoError(t, tbl.Add(newRecord(mib, 2*mib-1)))
	require.NoError(t, tbl.Add(newRecord(10*mib, 11*mib-1)))

	assert.Equal(t, 8*mib, tbl.Remaining(2*mib), "free run ends at the next partition")
	assert.Zero(t, tbl.Remaining(mib+512), "inside a partition")
	assert.Equal(t, tbl.LastUsable()+1-11*mib, tbl.Remaining(11*mib))
	assert.Zero(t, tbl.Remaining(tbl.LastUsable()+1))
	assert.Zero(t, tbl.Remaining(0))
}

func TestFree(t *testing.T) {
	tbl := New(uuid.New(), diskSize, 512)
	total := tbl.LastUsable() + 1 - tbl.FirstUsable()
	assert.Equal(t, total, tbl.Free())

	require.NoError(t, tbl.Add(newRecord(10*mib, 11*mib-1)))
	require.NoError(t, tbl.Add(newRecord(mib, 2*mib-1)))
	assert.Equal(t, total-2*mib, tbl.Free())
}

func TestLast(t *testing.T) {
	tbl := New(uuid.New(), diskSize, 512)
	_, ok := tbl.Last()
	assert.False(t, ok)

	high := newRecord(10*mib, 11*mib-1)
	require.NoError(t, tbl.Add(high))
	require.NoError(t, tbl.Add(newRecord(mib, 2*mib-1)))

	last, ok := tbl.Last()
	require.True(t, ok)
	assert.Equal(t, high, last)
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := New(uuid.New(), diskSize, 512)
	require.NoError(t, tbl.Add(newRecord(mib, 2*mib-1)))

	c := tbl.Clone()
	require.NoError(t, c.Add(newRecord(2*mib, 3*mib-1)))
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, 2, c.Len())
}

func TestWriteRead(t *testing.T) {
	f := sparseImage(t, diskSize)

	tbl := New(uuid.New(), diskSize, 512)
	first := Record{ID: uuid.New(), Name: "boot", Type: TypeEFISystem, Start: mib, End: 65*mib - 1}
	second := Record{ID: uuid.New(), Name: "root", Type: TypeLinuxFilesystem, Start: 65 * mib, End: 90*mib - 1}
	require.NoError(t, tbl.Add(first))
	require.NoError(t, tbl.Add(second))
	require.NoError(t, tbl.Write(f))

	got, err := Read(f, 512, diskSize)
	require.NoError(t, err)
	assert.Equal(t, tbl.ID(), got.ID())
	assert.Equal(t, []Record{first, second}, got.Partitions())
}

func TestReadBlankDevice(t *testing.T) {
	f := sparseImage(t, diskSize)
	_, err := Read(f, 512, diskSize)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoTable))
}

func TestParseType(t *testing.T) {
	got, err := ParseType("efi")
	require.NoError(t, err)
	assert.Equal(t, TypeEFISystem, got)

	got, err = ParseType("0fc63daf-8483-4772-8e79-3d69d8477de4")
	require.NoError(t, err)
	assert.Equal(t, TypeLinuxFilesystem, got)

	_, err = ParseType("not-a-type")
	assert.Error(t, err)

	assert.Equal(t, "Linux filesystem data", TypeName(TypeLinuxFilesystem))
	custom := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", TypeName(custom))
}
