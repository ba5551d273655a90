package reporter

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuathompsonlindley/rawcopy/extents"
	"github.com/joshuathompsonlindley/rawcopy/volume"
)

type Reporter struct {
	ShowVolInfo bool
	ShowExtents bool
}

func (rp Reporter) Show(geom volume.Geometry, exts extents.Extents) {
	p := message.NewPrinter(language.English)

	if rp.ShowVolInfo {
		p.Printf("Volume: %d bytes per sector, %d sectors per cluster, %d bytes (%d clusters)\n",
			geom.BytesPerSector, geom.SectorsPerCluster, geom.SizeBytes, geom.ClusterCount())
	}

	if rp.ShowExtents {
		for idx, ext := range exts {
			p.Printf("Extent %d: %d clusters at LCN %d ending at VCN %d\n",
				idx, ext.Clusters, ext.LCNStart, ext.VCNEnd)
		}
		p.Printf("Total %d extents %d clusters %d bytes\n",
			len(exts), exts.TotalClusters(), exts.TotalClusters()*geom.ClusterSize)
	}
}
