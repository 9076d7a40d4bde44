package device

import (
	"strconv"
	"strings"
)

// AutoDetect is the device argument meaning "pick or ask for a device".
const AutoDetect = "auto"

// DefaultBlockSize is used for image files, which have no logical block
// size of their own.
const DefaultBlockSize uint64 = 512

// Descriptor identifies one device for the length of a session. It is
// passed by value and never changed after probing.
type Descriptor struct {
	Path             string
	LogicalBlockSize uint64
	TotalSize        uint64
	Model            string
	DisplayName      string
}

// ProbeOptions override what probing would otherwise detect.
type ProbeOptions struct {
	// BlockSize replaces the detected logical block size when non-zero.
	BlockSize uint64
}

type LsblkDevice struct {
	Name   string   `json:"name"`
	Path   string   `json:"path"`
	Size   flexUint `json:"size"`
	Model  string   `json:"model"`
	LogSec flexUint `json:"log-sec"`
	Type   string   `json:"type"`
}

type LsblkOutput struct {
	BlockDevices []LsblkDevice `json:"blockdevices"`
}

// flexUint accepts both numbers and quoted numbers; older lsblk releases
// print every column as a string.
type flexUint uint64

func (f *flexUint) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexUint(n)
	return nil
}
