//go:build windows

package volume

import (
	"fmt"

	"github.com/joshuathompsonlindley/rawcopy/device"
)

// Open opens the raw device of a mounted NTFS volume, e.g. drive letter "C",
// and gathers its geometry.
func Open(driveLetter string) (*Accessor, error) {
	conn, err := device.OpenVolume(driveLetter)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrDeviceOpen, driveLetter, err)
	}
	return NewAccessor(conn, func() (uint32, uint32, error) {
		return device.FreeSpace(driveLetter + `:\`)
	})
}
