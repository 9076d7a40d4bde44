package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsks/part/internal/placement"
	"github.com/larsks/part/internal/snapshot"
	"github.com/larsks/part/internal/table"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	f, err := cfg.SnapshotFormat()
	require.NoError(t, err)
	assert.Equal(t, snapshot.JSON, f)

	typ, err := cfg.Type()
	require.NoError(t, err)
	assert.Equal(t, table.TypeLinuxFilesystem, typ)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, lvl)

	start, err := cfg.MinStartBytes()
	require.NoError(t, err)
	assert.Equal(t, placement.DefaultMinStart, start)
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
format = "yaml"
partition_type = "swap"
min_start = "2M"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, "auto", cfg.Color)

	typ, err := cfg.Type()
	require.NoError(t, err)
	assert.Equal(t, table.TypeLinuxSwap, typ)

	start, err := cfg.MinStartBytes()
	require.NoError(t, err)
	assert.Equal(t, uint64(2<<20), start)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", "log_level: debug\ncolor: never\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "never", cfg.Color)
	assert.Equal(t, "json", cfg.Format)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, lvl)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "bad toml", file: "config.toml", content: "format = "},
		{name: "bad yaml", file: "config.yaml", content: "format: [\n"},
		{name: "unknown extension", file: "config.ini", content: "format=json"},
		{name: "unknown format", file: "config.toml", content: `format = "xml"`},
		{name: "bad type", file: "config.toml", content: `partition_type = "not-a-type"`},
		{name: "bad level", file: "config.toml", content: `log_level = "loud"`},
		{name: "bad color", file: "config.toml", content: `color = "sometimes"`},
		{name: "unaligned min_start", file: "config.toml", content: `min_start = "1000"`},
		{name: "zero min_start", file: "config.toml", content: `min_start = "0"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestValidateReportsAllFields(t *testing.T) {
	cfg := Default()
	cfg.Format = "xml"
	cfg.Color = "sometimes"

	err := cfg.Validate()
	require.Error(t, err)
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 2)
	assert.Equal(t, "format", errs[0].Field)
	assert.Equal(t, "color", errs[1].Field)
	assert.ErrorIs(t, errs[0], snapshot.ErrUnknownFormat)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "part"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "part", "config.yaml"), []byte("format: toml\n"), 0o644))

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "toml", cfg.Format)
}
