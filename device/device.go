package device

import "errors"

// Control codes issued against volume and file handles.
const (
	IOCTL_DISK_GET_DRIVE_GEOMETRY = 0x00070000
	IOCTL_DISK_GET_LENGTH_INFO    = 0x0007405C
	FSCTL_GET_RETRIEVAL_POINTERS  = 0x00090073
)

// ErrMoreData marks a device control whose output buffer could not hold the
// full response. Callers grow the buffer and retry.
var ErrMoreData = errors.New("device output buffer too small")

// Conn is one open handle to a raw device or file. A Conn owns a single read
// cursor and is not safe for concurrent use.
type Conn interface {
	Control(code uint32, in []byte, out []byte) (uint32, error)
	Seek(offset int64) error
	Read(buf []byte) (int, error)
	Close() error
}
