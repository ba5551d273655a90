package volume

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuathompsonlindley/rawcopy/device"
)

// fakeConn is an in-memory device with spies on every boundary call.
type fakeConn struct {
	geometry   []byte
	length     []byte
	controlErr map[uint32]error

	data    []byte
	offset  int64
	seekErr error
	maxRead int // when > 0, cap reads to simulate a short read

	seeks  int
	reads  int
	closes int
}

func (conn *fakeConn) Control(code uint32, in []byte, out []byte) (uint32, error) {
	if err := conn.controlErr[code]; err != nil {
		return 0, err
	}
	var resp []byte
	switch code {
	case device.IOCTL_DISK_GET_DRIVE_GEOMETRY:
		resp = conn.geometry
	case device.IOCTL_DISK_GET_LENGTH_INFO:
		resp = conn.length
	}
	n := copy(out, resp)
	return uint32(n), nil
}

func (conn *fakeConn) Seek(offset int64) error {
	conn.seeks++
	if conn.seekErr != nil {
		return conn.seekErr
	}
	conn.offset = offset
	return nil
}

func (conn *fakeConn) Read(buf []byte) (int, error) {
	conn.reads++
	n := copy(buf, conn.data[conn.offset:])
	if conn.maxRead > 0 && n > conn.maxRead {
		n = conn.maxRead
	}
	conn.offset += int64(n)
	return n, nil
}

func (conn *fakeConn) Close() error {
	conn.closes++
	return nil
}

func geometryBlock(bytesPerSector int32) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, DISK_GEOMETRY{
		Cylinders:         1024,
		MediaType:         12,
		TracksPerCylinder: 255,
		SectorsPerTrack:   63,
		BytesPerSector:    bytesPerSector,
	})
	return buf.Bytes()
}

func lengthBlock(size int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(size))
	return buf
}

// newFakeConn builds a 1 MiB volume, 512 bytes per sector.
func newFakeConn() *fakeConn {
	size := int64(1 << 20)
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i / 512)
	}
	return &fakeConn{
		geometry: geometryBlock(512),
		length:   lengthBlock(size),
		data:     data,
	}
}

func stubFreeSpace(sectorsPerCluster, bytesPerSector uint32) FreeSpaceFunc {
	return func() (uint32, uint32, error) {
		return sectorsPerCluster, bytesPerSector, nil
	}
}

func TestNewAccessor(t *testing.T) {
	conn := newFakeConn()
	accessor, err := NewAccessor(conn, stubFreeSpace(8, 512))
	require.NoError(t, err)

	assert.Equal(t, int64(512), accessor.Geometry.BytesPerSector)
	assert.Equal(t, int64(8), accessor.Geometry.SectorsPerCluster)
	assert.Equal(t, int64(4096), accessor.Geometry.ClusterSize)
	assert.Equal(t, int64(1<<20), accessor.Geometry.SizeBytes)
	assert.Equal(t, int64(256), accessor.Geometry.ClusterCount())
	assert.Equal(t, int64(2048), accessor.Geometry.SectorCount())
	assert.Equal(t, 0, conn.closes)
}

func TestNewAccessorGeometryFailure(t *testing.T) {
	driverErr := errors.New("status 21: device not ready")

	tests := []struct {
		name  string
		setup func(conn *fakeConn) FreeSpaceFunc
	}{
		{
			name: "drive geometry query fails",
			setup: func(conn *fakeConn) FreeSpaceFunc {
				conn.controlErr = map[uint32]error{device.IOCTL_DISK_GET_DRIVE_GEOMETRY: driverErr}
				return stubFreeSpace(8, 512)
			},
		},
		{
			name: "length query fails",
			setup: func(conn *fakeConn) FreeSpaceFunc {
				conn.controlErr = map[uint32]error{device.IOCTL_DISK_GET_LENGTH_INFO: driverErr}
				return stubFreeSpace(8, 512)
			},
		},
		{
			name: "free space query fails",
			setup: func(conn *fakeConn) FreeSpaceFunc {
				return func() (uint32, uint32, error) { return 0, 0, driverErr }
			},
		},
		{
			name: "sector size mismatch between queries",
			setup: func(conn *fakeConn) FreeSpaceFunc {
				return stubFreeSpace(8, 4096)
			},
		},
		{
			name: "truncated geometry response",
			setup: func(conn *fakeConn) FreeSpaceFunc {
				conn.geometry = conn.geometry[:10]
				return stubFreeSpace(8, 512)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newFakeConn()
			freeSpace := tt.setup(conn)

			accessor, err := NewAccessor(conn, freeSpace)
			require.ErrorIs(t, err, ErrGeometryQuery)
			assert.Nil(t, accessor)
			assert.Equal(t, 1, conn.closes, "handle must be released on a failed open")
		})
	}
}

func TestReadClusters(t *testing.T) {
	conn := newFakeConn()
	accessor, err := NewAccessor(conn, stubFreeSpace(8, 512))
	require.NoError(t, err)

	data, err := accessor.ReadClusters(3, 2)
	require.NoError(t, err)

	assert.Len(t, data, 2*4096)
	assert.Equal(t, conn.data[3*4096:5*4096], data)
}

func TestReadClustersInvalidRange(t *testing.T) {
	tests := []struct {
		name     string
		cluster  int64
		clusters int64
	}{
		{name: "zero count", cluster: 0, clusters: 0},
		{name: "negative count", cluster: 0, clusters: -1},
		{name: "negative start", cluster: -1, clusters: 1},
		{name: "end past volume", cluster: 255, clusters: 2},
		{name: "start past volume", cluster: 1000, clusters: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newFakeConn()
			accessor, err := NewAccessor(conn, stubFreeSpace(8, 512))
			require.NoError(t, err)

			data, err := accessor.ReadClusters(tt.cluster, tt.clusters)
			require.ErrorIs(t, err, ErrInvalidRange)
			assert.Nil(t, data)
			assert.Equal(t, 0, conn.seeks, "rejected request must not touch the device")
			assert.Equal(t, 0, conn.reads, "rejected request must not touch the device")
		})
	}
}

func TestReadClustersCursorTracking(t *testing.T) {
	conn := newFakeConn()
	accessor, err := NewAccessor(conn, stubFreeSpace(8, 512))
	require.NoError(t, err)

	// cursor starts at 0, so a read at cluster 0 needs no repositioning
	first, err := accessor.ReadClusters(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, conn.seeks)

	// sequential read, the cursor is already in place
	_, err = accessor.ReadClusters(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, conn.seeks)

	// rewinding repositions once and returns identical data
	again, err := accessor.ReadClusters(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, conn.seeks)
	assert.Equal(t, first, again)
}

func TestReadClustersShortRead(t *testing.T) {
	conn := newFakeConn()
	conn.maxRead = 100
	accessor, err := NewAccessor(conn, stubFreeSpace(8, 512))
	require.NoError(t, err)

	data, err := accessor.ReadClusters(0, 1)
	require.ErrorIs(t, err, ErrShortRead)
	assert.Nil(t, data)
}

func TestReadClustersSeekError(t *testing.T) {
	conn := newFakeConn()
	conn.seekErr = errors.New("status 23: seek error")
	accessor, err := NewAccessor(conn, stubFreeSpace(8, 512))
	require.NoError(t, err)

	_, err = accessor.ReadClusters(5, 1)
	require.ErrorIs(t, err, ErrSeek)
}

func TestCloseIdempotent(t *testing.T) {
	conn := newFakeConn()
	accessor, err := NewAccessor(conn, stubFreeSpace(8, 512))
	require.NoError(t, err)

	require.NoError(t, accessor.Close())
	require.NoError(t, accessor.Close())
	assert.Equal(t, 1, conn.closes)
}
