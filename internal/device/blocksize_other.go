//go:build !linux

package device

import "os"

func logicalBlockSize(_ *os.File) (uint64, error) {
	return DefaultBlockSize, nil
}
