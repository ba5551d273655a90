package extents

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/joshuathompsonlindley/rawcopy/device"
	"github.com/joshuathompsonlindley/rawcopy/logger"
)

var (
	ErrExtentQuery          = errors.New("retrieval pointers query failed")
	ErrExtentQueryExhausted = errors.New("retrieval pointers buffer growth exhausted")
)

const (
	nByte_STARTING_VCN_INPUT_BUFFER = 8
	headerSize                      = 16 // u32 extent count, pad, u64 starting VCN
	recordSize                      = 16 // u64 next VCN, u64 LCN

	initialBufferSize = 1024
	maxBufferSize     = 64 * 1024 * 1024
)

// Extent is one physically contiguous run of a file's clusters.
type Extent struct {
	VCNEnd   int64 // file relative cluster at which the run ends, exclusive
	LCNStart int64 // volume relative cluster where the run begins
	Clusters int64
}

type Extents []Extent

func (exts Extents) TotalClusters() int64 {
	var total int64
	for _, ext := range exts {
		total += ext.Clusters
	}
	return total
}

// Resolve queries the NTFS driver for the physical layout of an open file and
// returns its runs in ascending virtual cluster order. The file handle is
// borrowed for the duration of the query. A failure never yields a partial
// extent list.
func Resolve(file device.Conn) (Extents, error) {
	in := make([]byte, nByte_STARTING_VCN_INPUT_BUFFER)
	binary.LittleEndian.PutUint64(in, 0) // StartingVcn, whole file

	size := initialBufferSize
	for {
		out := make([]byte, size)
		bytesReturned, err := file.Control(device.FSCTL_GET_RETRIEVAL_POINTERS, in, out)
		if err == nil {
			return decode(out[:bytesReturned])
		}
		if !errors.Is(err, device.ErrMoreData) {
			return nil, fmt.Errorf("%w: %v", ErrExtentQuery, err)
		}
		if size >= maxBufferSize {
			return nil, fmt.Errorf("%w at %d bytes: %v", ErrExtentQueryExhausted, size, err)
		}

		grown := size * 2
		if int(bytesReturned) > grown {
			grown = int(bytesReturned)
		}
		if grown > maxBufferSize {
			grown = maxBufferSize
		}
		logger.RCLogger.Info(fmt.Sprintf("Retrieval pointers buffer grown %d -> %d bytes", size, grown))
		size = grown
	}
}

func decode(buf []byte) (Extents, error) {
	if len(buf) < headerSize {
		return nil, fmt.Errorf("%w: response truncated at %d bytes", ErrExtentQuery, len(buf))
	}
	extentCount := int(binary.LittleEndian.Uint32(buf[0:4]))
	startingVCN := int64(binary.LittleEndian.Uint64(buf[8:16]))

	if len(buf) < headerSize+extentCount*recordSize {
		return nil, fmt.Errorf("%w: %d extents do not fit in %d byte response",
			ErrExtentQuery, extentCount, len(buf))
	}

	exts := make(Extents, 0, extentCount)
	runStart := startingVCN
	for i := 0; i < extentCount; i++ {
		offset := headerSize + i*recordSize
		nextVCN := int64(binary.LittleEndian.Uint64(buf[offset : offset+8]))
		lcn := int64(binary.LittleEndian.Uint64(buf[offset+8 : offset+16]))

		if lcn < 0 {
			return nil, fmt.Errorf("%w: extent %d has no physical cluster (sparse or compressed run)",
				ErrExtentQuery, i)
		}
		length := nextVCN - runStart
		if length <= 0 {
			return nil, fmt.Errorf("%w: extent %d has non positive length %d",
				ErrExtentQuery, i, length)
		}
		exts = append(exts, Extent{VCNEnd: nextVCN, LCNStart: lcn, Clusters: length})
		runStart = nextVCN
	}
	return exts, nil
}
