package actions

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteDump saves a dump to path. The file is replaced atomically so a
// failed write never leaves a truncated snapshot behind.
func WriteDump(path string, data []byte) error {
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "couldn't write dump to %s", path)
	}
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".part-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
