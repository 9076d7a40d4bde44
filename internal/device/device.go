// Package device probes disks and disk images and lists the block devices
// attached to the system.
package device

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/larsks/part/internal/units"
)

var sysClassBlock = "/sys/class/block"

// Lister enumerates candidate devices.
type Lister interface {
	List() ([]Descriptor, error)
}

// LsblkLister lists whole disks by running lsblk.
type LsblkLister struct{}

// IsImageFile reports whether path is a regular file rather than a device.
func IsImageFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// IsBlockDevice reports whether path is a block device node.
func IsBlockDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeDevice != 0 && info.Mode()&os.ModeCharDevice == 0
}

// Probe builds a descriptor for path, which may be a block device or an
// image file.
func Probe(path string, opts ProbeOptions) (Descriptor, error) {
	d := Descriptor{
		Path:        path,
		DisplayName: filepath.Base(path),
	}

	switch {
	case IsImageFile(path):
		info, err := os.Stat(path)
		if err != nil {
			return Descriptor{}, errors.Wrapf(err, "couldn't stat %s", path)
		}
		d.TotalSize = uint64(info.Size())
		d.LogicalBlockSize = DefaultBlockSize
		d.Model = "Image file"

	case IsBlockDevice(path):
		f, err := os.Open(path)
		if err != nil {
			return Descriptor{}, errors.Wrapf(err, "couldn't open %s", path)
		}
		defer f.Close()

		size, err := f.Seek(0, io.SeekEnd)
		if err != nil {
			return Descriptor{}, errors.Wrapf(err, "couldn't get size of %s", path)
		}
		d.TotalSize = uint64(size)

		bs, err := logicalBlockSize(f)
		if err != nil {
			return Descriptor{}, errors.Wrapf(err, "couldn't get logical block size of %s", path)
		}
		d.LogicalBlockSize = bs
		d.Model = readModel(d.DisplayName)

	default:
		if _, err := os.Stat(path); err != nil {
			return Descriptor{}, errors.Wrapf(err, "couldn't open device %s", path)
		}
		return Descriptor{}, errors.Errorf("%s is neither a block device nor a regular file", path)
	}

	if opts.BlockSize != 0 {
		d.LogicalBlockSize = opts.BlockSize
	}
	if d.LogicalBlockSize == 0 || d.LogicalBlockSize&(d.LogicalBlockSize-1) != 0 {
		return Descriptor{}, errors.Errorf("invalid logical block size %d for %s", d.LogicalBlockSize, path)
	}
	return d, nil
}

func readModel(name string) string {
	data, err := os.ReadFile(filepath.Join(sysClassBlock, name, "device", "model"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Label is the line shown for d in the device list.
func (d Descriptor) Label() string {
	model := d.Model
	if model == "" {
		model = "None"
	}
	return fmt.Sprintf("Disk %s - %s - Model: %s", d.DisplayName, units.FormatSize(d.TotalSize), model)
}

// List returns the whole disks reported by lsblk, sorted by name.
func (LsblkLister) List() ([]Descriptor, error) {
	cmd := exec.Command("lsblk", "-J", "-b", "-d", "-o", "NAME,PATH,SIZE,MODEL,LOG-SEC,TYPE")
	output, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get connected devices")
	}
	return parseLsblk(output)
}

func parseLsblk(output []byte) ([]Descriptor, error) {
	var data LsblkOutput
	if err := json.Unmarshal(output, &data); err != nil {
		return nil, errors.Wrap(err, "failed to parse lsblk output")
	}

	var devices []Descriptor
	for _, bd := range data.BlockDevices {
		if bd.Type != "disk" {
			continue
		}
		path := bd.Path
		if path == "" {
			path = "/dev/" + bd.Name
		}
		bs := uint64(bd.LogSec)
		if bs == 0 {
			bs = DefaultBlockSize
		}
		devices = append(devices, Descriptor{
			Path:             path,
			LogicalBlockSize: bs,
			TotalSize:        uint64(bd.Size),
			Model:            strings.TrimSpace(bd.Model),
			DisplayName:      bd.Name,
		})
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].DisplayName < devices[j].DisplayName })
	return devices, nil
}

// Resolve turns the device argument into a descriptor. AutoDetect picks the
// only disk lister reports and fails if there are none or several.
func Resolve(path string, lister Lister, opts ProbeOptions) (Descriptor, error) {
	if path != AutoDetect {
		return Probe(path, opts)
	}

	devices, err := lister.List()
	if err != nil {
		return Descriptor{}, err
	}
	switch len(devices) {
	case 0:
		return Descriptor{}, errors.New("no devices found; specify a device path")
	case 1:
		return Probe(devices[0].Path, opts)
	default:
		names := make([]string, 0, len(devices))
		for _, d := range devices {
			names = append(names, d.Path)
		}
		return Descriptor{}, errors.Errorf("several devices found (%s); specify one", strings.Join(names, ", "))
	}
}
