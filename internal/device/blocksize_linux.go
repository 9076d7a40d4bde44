package device

import (
	"os"

	"golang.org/x/sys/unix"
)

func logicalBlockSize(f *os.File) (uint64, error) {
	n, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKSSZGET)
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}
