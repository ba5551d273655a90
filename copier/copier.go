package copier

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joshuathompsonlindley/rawcopy/extents"
	"github.com/joshuathompsonlindley/rawcopy/logger"
	"github.com/joshuathompsonlindley/rawcopy/utils"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrCopyMismatch = errors.New("copied bytes differ from extent total")

// chunkClusters caps a single volume read while walking an extent.
const chunkClusters = 10000

// ClusterReader is the volume surface the copy path needs.
type ClusterReader interface {
	ReadClusters(cluster int64, clusters int64) ([]byte, error)
	ClusterSize() int64
}

type Copier struct {
	Destination string
	Hash        string
}

// Copy reassembles the file's extents from the raw volume into the
// destination path and returns the byte total, cross checked against the
// extent sizes.
func (cp Copier) Copy(vol ClusterReader, exts extents.Extents) (int64, error) {
	dst, err := os.Create(cp.Destination)
	if err != nil {
		return 0, err
	}
	defer dst.Close()

	copied, err := CopyExtents(vol, exts, dst)
	if err != nil {
		return copied, err
	}

	if cp.Hash != "" {
		cp.hashFile()
	}
	return copied, nil
}

// CopyExtents reads each extent from the volume in chunks of at most
// chunkClusters clusters, writing them to dst in extent order. The byte total
// must match the sum of extent sizes, a partial destination is never reported
// as success.
func CopyExtents(vol ClusterReader, exts extents.Extents, dst io.Writer) (int64, error) {
	clusterSize := vol.ClusterSize()
	totalBytes := exts.TotalClusters() * clusterSize

	var copied int64
	for _, ext := range exts {
		for offset := int64(0); offset < ext.Clusters; offset += chunkClusters {
			clusters := ext.Clusters - offset
			if clusters > chunkClusters {
				clusters = chunkClusters
			}

			data, err := vol.ReadClusters(ext.LCNStart+offset, clusters)
			if err != nil {
				return copied, err
			}
			written, err := dst.Write(data)
			if err != nil {
				return copied, fmt.Errorf("write failed after %d bytes: %w", copied, err)
			}
			copied += int64(written)
		}
		logger.RCLogger.Info(fmt.Sprintf("Copied extent of %d clusters at LCN %d",
			ext.Clusters, ext.LCNStart))
	}

	if copied != totalBytes {
		return copied, fmt.Errorf("%w: wrote %d of %d bytes", ErrCopyMismatch, copied, totalBytes)
	}

	p := message.NewPrinter(language.English)
	logger.RCLogger.Info(p.Sprintf("Copy completed, %d bytes over %d extents", copied, len(exts)))
	return copied, nil
}

func (cp Copier) hashFile() {
	if cp.Hash != "md5" && cp.Hash != "sha1" {
		fmt.Printf("Only supported hashes are md5 or sha1 and not %s!\n", cp.Hash)
		return
	}

	data, err := os.ReadFile(cp.Destination)
	if err != nil {
		fmt.Printf("ERROR %s\n", err)
		return
	}
	if cp.Hash == "md5" {
		fmt.Printf("File %s has md5 %s \n", cp.Destination, utils.GetMD5(data))
	} else {
		fmt.Printf("File %s has sha1 %s \n", cp.Destination, utils.GetSHA1(data))
	}
}
