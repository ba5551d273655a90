package volume

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/joshuathompsonlindley/rawcopy/device"
	"github.com/joshuathompsonlindley/rawcopy/logger"
)

var (
	ErrDeviceOpen    = errors.New("cannot open volume device")
	ErrGeometryQuery = errors.New("volume geometry query failed")
	ErrInvalidRange  = errors.New("invalid cluster range")
	ErrSeek          = errors.New("volume seek failed")
	ErrShortRead     = errors.New("short volume read")
)

const nByte_DISK_GEOMETRY = 24
const nByte_GET_LENGTH_INFORMATION = 8

type DISK_GEOMETRY struct {
	Cylinders         int64
	MediaType         int32
	TracksPerCylinder int32
	SectorsPerTrack   int32
	BytesPerSector    int32
}

// Geometry holds the volume facts gathered once at open time. Immutable for
// the lifetime of the Accessor.
type Geometry struct {
	BytesPerSector    int64
	SectorsPerCluster int64
	ClusterSize       int64
	SizeBytes         int64
}

func (geom Geometry) ClusterCount() int64 {
	return geom.SizeBytes / geom.ClusterSize
}

func (geom Geometry) SectorCount() int64 {
	return geom.SizeBytes / geom.BytesPerSector
}

func (geom Geometry) GetInfo() string {
	return fmt.Sprintf("sector size %d cluster size %d volume size %d",
		geom.BytesPerSector, geom.ClusterSize, geom.SizeBytes)
}

// FreeSpaceFunc reports the allocation shape of the mounted volume
// (sectors per cluster, bytes per sector).
type FreeSpaceFunc func() (uint32, uint32, error)

// Accessor owns one raw volume handle and its read cursor. Not safe for
// concurrent use.
type Accessor struct {
	Geometry Geometry

	conn     device.Conn
	position int64
	closed   bool
}

// NewAccessor queries the device geometry, length and allocation shape and
// returns an Accessor positioned at offset 0. The conn is closed on any
// failure so a handle never outlives a failed open.
func NewAccessor(conn device.Conn, freeSpace FreeSpaceFunc) (*Accessor, error) {
	geom, err := queryGeometry(conn, freeSpace)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Accessor{Geometry: geom, conn: conn}, nil
}

func queryGeometry(conn device.Conn, freeSpace FreeSpaceFunc) (Geometry, error) {
	out := make([]byte, nByte_DISK_GEOMETRY)
	bytesReturned, err := conn.Control(device.IOCTL_DISK_GET_DRIVE_GEOMETRY, nil, out)
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: drive geometry: %v", ErrGeometryQuery, err)
	}

	var disk_geometry DISK_GEOMETRY
	err = binary.Read(bytes.NewReader(out[:bytesReturned]), binary.LittleEndian, &disk_geometry)
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: drive geometry response: %v", ErrGeometryQuery, err)
	}

	out = make([]byte, nByte_GET_LENGTH_INFORMATION)
	bytesReturned, err = conn.Control(device.IOCTL_DISK_GET_LENGTH_INFO, nil, out)
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: length info: %v", ErrGeometryQuery, err)
	}
	if bytesReturned < nByte_GET_LENGTH_INFORMATION {
		return Geometry{}, fmt.Errorf("%w: length info response truncated at %d bytes",
			ErrGeometryQuery, bytesReturned)
	}
	sizeBytes := int64(binary.LittleEndian.Uint64(out[:nByte_GET_LENGTH_INFORMATION]))

	sectorsPerCluster, bytesPerSector, err := freeSpace()
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: free space: %v", ErrGeometryQuery, err)
	}
	if int64(bytesPerSector) != int64(disk_geometry.BytesPerSector) {
		return Geometry{}, fmt.Errorf("%w: sector size mismatch %d vs %d",
			ErrGeometryQuery, bytesPerSector, disk_geometry.BytesPerSector)
	}

	geom := Geometry{
		BytesPerSector:    int64(disk_geometry.BytesPerSector),
		SectorsPerCluster: int64(sectorsPerCluster),
		ClusterSize:       int64(sectorsPerCluster) * int64(bytesPerSector),
		SizeBytes:         sizeBytes,
	}
	if geom.BytesPerSector <= 0 || geom.SectorsPerCluster <= 0 ||
		geom.ClusterSize <= 0 || geom.SizeBytes <= 0 {
		return Geometry{}, fmt.Errorf("%w: non positive geometry %+v", ErrGeometryQuery, geom)
	}
	return geom, nil
}

func (accessor *Accessor) ClusterSize() int64 {
	return accessor.Geometry.ClusterSize
}

// ReadClusters returns exactly clusters*ClusterSize bytes starting at the
// given logical cluster. Out of range requests fail before any device I/O.
func (accessor *Accessor) ReadClusters(cluster int64, clusters int64) ([]byte, error) {
	geom := accessor.Geometry

	if clusters <= 0 {
		return nil, fmt.Errorf("%w: number of clusters must be greater than 0, got %d",
			ErrInvalidRange, clusters)
	}
	if cluster < 0 || cluster+clusters > geom.ClusterCount() {
		return nil, fmt.Errorf("%w: clusters %d-%d outside volume of %d clusters",
			ErrInvalidRange, cluster, cluster+clusters, geom.ClusterCount())
	}

	// The same bounds restated in sectors. Logically redundant but kept as a
	// guard against unit conversion drift between the two coordinate systems.
	sector := cluster * geom.SectorsPerCluster
	sectors := clusters * geom.SectorsPerCluster
	if sectors <= 0 {
		return nil, fmt.Errorf("%w: number of sectors must be greater than 0, got %d",
			ErrInvalidRange, sectors)
	}
	if sector < 0 || sector+sectors > geom.SectorCount() {
		return nil, fmt.Errorf("%w: sectors %d-%d outside volume of %d sectors",
			ErrInvalidRange, sector, sector+sectors, geom.SectorCount())
	}

	offsetBytes := sector * geom.BytesPerSector
	if accessor.position != offsetBytes {
		err := accessor.conn.Seek(offsetBytes)
		if err != nil {
			return nil, fmt.Errorf("%w at offset %d: %v", ErrSeek, offsetBytes, err)
		}
		accessor.position = offsetBytes
	}

	expectedLength := clusters * geom.ClusterSize
	buffer := make([]byte, expectedLength)
	bytesRead, err := accessor.conn.Read(buffer)
	if err != nil {
		return nil, fmt.Errorf("read failed at offset %d: %w", offsetBytes, err)
	}
	if int64(bytesRead) != expectedLength {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d at offset %d",
			ErrShortRead, expectedLength, bytesRead, offsetBytes)
	}
	accessor.position += int64(bytesRead)

	logger.RCLogger.Info(fmt.Sprintf("Read %d clusters at cluster %d offset %d",
		clusters, cluster, offsetBytes))
	return buffer, nil
}

// Close releases the volume handle. Safe to call more than once.
func (accessor *Accessor) Close() error {
	if accessor.closed || accessor.conn == nil {
		return nil
	}
	accessor.closed = true
	return accessor.conn.Close()
}
