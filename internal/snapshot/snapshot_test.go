package snapshot

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsks/part/internal/device"
	"github.com/larsks/part/internal/table"
)

const mib = uint64(1 << 20)

func sampleTable(t *testing.T) (*table.Table, device.Descriptor) {
	t.Helper()
	d := device.Descriptor{
		Path:             "/dev/sdz",
		LogicalBlockSize: 512,
		TotalSize:        100 * mib,
		Model:            "Test Disk",
		DisplayName:      "sdz",
	}
	tbl := table.New(uuid.New(), d.TotalSize, d.LogicalBlockSize)
	require.NoError(t, tbl.Add(table.Record{ID: uuid.New(), Name: "root", Type: table.TypeLinuxFilesystem, Start: 10 * mib, End: 20*mib - 1}))
	require.NoError(t, tbl.Add(table.Record{ID: uuid.New(), Name: "EFI", Type: table.TypeEFISystem, Start: mib, End: 10*mib - 1}))
	require.NoError(t, tbl.Add(table.Record{ID: uuid.New(), Name: "", Type: table.TypeLinuxSwap, Start: 20 * mib, End: 24*mib - 1}))
	return tbl, d
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tbl, d := sampleTable(t)

	for _, v := range Versions() {
		t.Run(string(v), func(t *testing.T) {
			s := Encode(tbl, d, v)
			assert.Equal(t, v, s.Version)
			assert.Equal(t, "Test Disk", s.Model)
			require.Len(t, s.Partitions, 3)
			assert.Equal(t, "root", s.Partitions[0].Name, "insertion order is kept")

			got, err := Decode(s, 0)
			require.NoError(t, err)
			assert.Equal(t, tbl, got)
		})
	}
}

func TestRoundTripThroughEveryFormat(t *testing.T) {
	tbl, d := sampleTable(t)

	for _, f := range Formats() {
		for _, v := range Versions() {
			t.Run(string(f)+"/"+string(v), func(t *testing.T) {
				data, err := Marshal(f, Encode(tbl, d, v))
				require.NoError(t, err)

				s, err := Unmarshal(f, data)
				require.NoError(t, err)

				got, err := Decode(s, 0)
				require.NoError(t, err)
				assert.Equal(t, tbl.Partitions(), got.Partitions())
				assert.Equal(t, tbl.ID(), got.ID())
				assert.Equal(t, tbl.BlockSize(), got.BlockSize())
				assert.Equal(t, tbl.DiskSize(), got.DiskSize())
			})
		}
	}
}

func TestEmptyTableRoundTrip(t *testing.T) {
	d := device.Descriptor{LogicalBlockSize: 512, TotalSize: 100 * mib}
	tbl := table.New(uuid.New(), d.TotalSize, d.LogicalBlockSize)

	for _, f := range Formats() {
		data, err := Marshal(f, Encode(tbl, d, Latest))
		require.NoError(t, err, f)
		s, err := Unmarshal(f, data)
		require.NoError(t, err, f)
		got, err := Decode(s, 0)
		require.NoError(t, err, f)
		assert.Zero(t, got.Len())
	}
}

func TestMissingVersionDefaultsToV1(t *testing.T) {
	doc := `{
  "table_id": "6F1D3C1B-4B0E-4A36-9A4B-3C2B1F0A9E11",
  "model": "Disk",
  "logical_block_size": 512,
  "total_size": 104857600,
  "partitions": []
}`
	s, err := Unmarshal(JSON, []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, V1, s.Version)

	s, err = Unmarshal(YAML, []byte("table_id: 6F1D3C1B-4B0E-4A36-9A4B-3C2B1F0A9E11\nlogical_block_size: 512\ntotal_size: 104857600\npartitions: []\n"))
	require.NoError(t, err)
	assert.Equal(t, V1, s.Version)
}

func TestUnknownVersionRejected(t *testing.T) {
	doc := `{"version": "V9", "table_id": "6F1D3C1B-4B0E-4A36-9A4B-3C2B1F0A9E11", "logical_block_size": 512, "total_size": 104857600, "partitions": []}`
	_, err := Unmarshal(JSON, []byte(doc))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeRejectsOverlap(t *testing.T) {
	tbl, d := sampleTable(t)
	s := Encode(tbl, d, V1)
	s.Partitions[1].End = 15*mib - 1

	_, err := Decode(s, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, table.ErrOverlap)
}

func TestDecodeRejectsLongNames(t *testing.T) {
	tbl, d := sampleTable(t)

	for _, name := range []string{strings.Repeat("x", 40), strings.Repeat("\U0001F600", 20)} {
		s := Encode(tbl, d, V1)
		s.Partitions[0].Name = name
		_, err := Decode(s, 0)
		assert.ErrorIs(t, err, table.ErrNameTooLong)
	}
}

func TestDecodeRejectsBadIdentifiers(t *testing.T) {
	tbl, d := sampleTable(t)

	s := Encode(tbl, d, V1)
	s.TableID = "nope"
	_, err := Decode(s, 0)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	s = Encode(tbl, d, V1)
	s.Partitions[0].TypeID = "nope"
	_, err = Decode(s, 0)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	s = Encode(tbl, d, V1)
	s.Partitions[2].UniqueID = s.Partitions[0].UniqueID
	_, err = Decode(s, 0)
	assert.ErrorIs(t, err, table.ErrDuplicateID)
}

func TestDecodeOverrideBlockSize(t *testing.T) {
	tbl, d := sampleTable(t)
	s := Encode(tbl, d, V1)

	got, err := Decode(s, 4096)
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), got.BlockSize())
	assert.Equal(t, tbl.Partitions(), got.Partitions(), "byte offsets are unchanged")

	// 512 byte aligned offsets are not valid on a 4096 byte block device.
	s.Partitions[0].Start = 10*mib + 512
	_, err = Decode(s, 4096)
	assert.ErrorIs(t, err, table.ErrUnaligned)
	_, err = Decode(s, 0)
	assert.NoError(t, err)
}

func TestJSONSchemaValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: "{"},
		{name: "missing partitions", doc: `{"table_id": "6F1D3C1B-4B0E-4A36-9A4B-3C2B1F0A9E11", "logical_block_size": 512, "total_size": 1}`},
		{name: "zero block size", doc: `{"table_id": "6F1D3C1B-4B0E-4A36-9A4B-3C2B1F0A9E11", "logical_block_size": 0, "total_size": 1, "partitions": []}`},
		{name: "bad guid", doc: `{"table_id": "xyz", "logical_block_size": 512, "total_size": 1, "partitions": []}`},
		{name: "negative start", doc: `{"table_id": "6F1D3C1B-4B0E-4A36-9A4B-3C2B1F0A9E11", "logical_block_size": 512, "total_size": 1, "partitions": [
			{"type_id": "0FC63DAF-8483-4772-8E79-3D69D8477DE4", "unique_id": "6F1D3C1B-4B0E-4A36-9A4B-3C2B1F0A9E12", "start": -1, "end": 10}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(JSON, []byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}

func TestJSONFieldNames(t *testing.T) {
	tbl, d := sampleTable(t)
	data, err := Marshal(JSON, Encode(tbl, d, V1))
	require.NoError(t, err)

	for _, field := range []string{`"version": "V1"`, `"table_id"`, `"model"`, `"logical_block_size": 512`,
		`"total_size"`, `"partitions"`, `"name"`, `"type_id"`, `"unique_id"`, `"start"`, `"end"`} {
		assert.True(t, strings.Contains(string(data), field), "missing %s", field)
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"json", "JSON", "Json"} {
		f, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, JSON, f)
	}

	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	var f Format
	require.NoError(t, f.Set("YAML"))
	assert.Equal(t, YAML, f)
	assert.Equal(t, "format", f.Type())
	assert.Error(t, f.Set("csv"))

	_, err = NewCodec(Format("csv"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
