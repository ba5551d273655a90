//go:build windows

package device

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32              = windows.NewLazySystemDLL("kernel32.dll")
	procSetFilePointerEx  = kernel32.NewProc("SetFilePointerEx")
	procGetDiskFreeSpaceW = kernel32.NewProc("GetDiskFreeSpaceW")
)

type WindowsDevice struct {
	a_file string
	fd     windows.Handle
}

// OpenVolume opens the raw volume device \\.\X: read-only with shared access.
func OpenVolume(driveLetter string) (*WindowsDevice, error) {
	return open(fmt.Sprintf(`\\.\%s:`, driveLetter))
}

// OpenFile opens a file on an NTFS volume unbuffered, suitable for
// FSCTL_GET_RETRIEVAL_POINTERS queries.
func OpenFile(path string) (*WindowsDevice, error) {
	return open(path)
}

func open(path string) (*WindowsDevice, error) {
	file_ptr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}
	var templateHandle windows.Handle
	fd, err := windows.CreateFile(file_ptr, windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE, nil,
		windows.OPEN_EXISTING, windows.FILE_ATTRIBUTE_NORMAL|windows.FILE_FLAG_NO_BUFFERING, templateHandle)
	if err != nil {
		return nil, err
	}
	return &WindowsDevice{a_file: path, fd: fd}, nil
}

func (windev *WindowsDevice) Control(code uint32, in []byte, out []byte) (uint32, error) {
	var bytesReturned uint32
	var inBuffer, outBuffer *byte
	if len(in) > 0 {
		inBuffer = &in[0]
	}
	if len(out) > 0 {
		outBuffer = &out[0]
	}
	err := windows.DeviceIoControl(windev.fd, code, inBuffer, uint32(len(in)),
		outBuffer, uint32(len(out)), &bytesReturned, nil)
	if err == windows.ERROR_MORE_DATA {
		return bytesReturned, fmt.Errorf("%w: %v", ErrMoreData, err)
	}
	return bytesReturned, err
}

func (windev *WindowsDevice) Seek(offset int64) error {
	var newPos int64
	r1, _, err := procSetFilePointerEx.Call(
		uintptr(windev.fd),
		uintptr(offset),
		uintptr(unsafe.Pointer(&newPos)),
		uintptr(windows.FILE_BEGIN),
	)
	if r1 == 0 {
		return err
	}
	return nil
}

func (windev *WindowsDevice) Read(buf []byte) (int, error) {
	var bytesRead uint32
	err := windows.ReadFile(windev.fd, buf, &bytesRead, nil)
	return int(bytesRead), err
}

func (windev *WindowsDevice) Close() error {
	if windev.fd == 0 || windev.fd == windows.InvalidHandle {
		return nil
	}
	err := windows.Close(windev.fd)
	windev.fd = windows.InvalidHandle
	return err
}

// FreeSpace reports the allocation shape of a mounted volume, rootPath in the
// form X:\.
func FreeSpace(rootPath string) (sectorsPerCluster uint32, bytesPerSector uint32, err error) {
	root, err := windows.UTF16PtrFromString(rootPath)
	if err != nil {
		return 0, 0, err
	}
	var freeClusters, totalClusters uint32
	r1, _, err := procGetDiskFreeSpaceW.Call(
		uintptr(unsafe.Pointer(root)),
		uintptr(unsafe.Pointer(&sectorsPerCluster)),
		uintptr(unsafe.Pointer(&bytesPerSector)),
		uintptr(unsafe.Pointer(&freeClusters)),
		uintptr(unsafe.Pointer(&totalClusters)),
	)
	if r1 == 0 {
		return 0, 0, err
	}
	return sectorsPerCluster, bytesPerSector, nil
}
