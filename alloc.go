package minifat

import (
	"github.com/aligator/minifat/checkpoint"
	"github.com/sirupsen/logrus"
)

// clusterAllocator hands out and reclaims data clusters using the allocation table.
type clusterAllocator struct {
	disk   []byte
	table  allocationTable
	layout Layout
	log    logrus.FieldLogger
}

// findFree returns the lowest free cluster index.
// Clusters whose data would lie outside of the image are never returned.
func (a clusterAllocator) findFree() (uint32, bool) {
	end := uint32(a.layout.ClusterCount)
	for cluster := uint32(firstDataCluster); cluster < end; cluster++ {
		if !a.layout.isBacked(cluster) {
			break
		}

		entry, err := a.table.readEntry(cluster)
		if err != nil {
			return 0, false
		}
		if entry.IsFree() {
			return cluster, true
		}
	}
	return 0, false
}

// allocate marks the first free cluster as used and returns it.
// The data of the cluster is zeroed, so a short file never exposes older bytes.
func (a clusterAllocator) allocate() (uint32, error) {
	cluster, ok := a.findFree()
	if !ok {
		return 0, checkpoint.From(ErrNoSpace)
	}

	if err := a.table.markAllocated(cluster); err != nil {
		return 0, checkpoint.From(err)
	}
	a.zero(cluster)

	a.log.WithField("cluster", cluster).Debug("allocated cluster")
	return cluster, nil
}

// release frees the cluster and zeroes its data.
func (a clusterAllocator) release(cluster uint32) error {
	if cluster < firstDataCluster || cluster == rootDirCluster || !a.layout.isBacked(cluster) {
		return checkpoint.Mark(ErrOutOfRange, "cluster %d cannot be released", cluster)
	}

	if err := a.table.markFree(cluster); err != nil {
		return checkpoint.From(err)
	}
	a.zero(cluster)

	a.log.WithField("cluster", cluster).Debug("released cluster")
	return nil
}

// data returns the bytes of the cluster inside the volume buffer.
func (a clusterAllocator) data(cluster uint32) []byte {
	offset := a.layout.clusterOffset(cluster)
	return a.disk[offset : offset+a.layout.ClusterSize]
}

func (a clusterAllocator) zero(cluster uint32) {
	d := a.data(cluster)
	for i := range d {
		d[i] = 0
	}
}

// usage counts the clusters used by files. The root directory cluster is not counted.
func (a clusterAllocator) usage() (used int, total int) {
	for cluster := uint32(rootDirCluster + 1); int64(cluster) < int64(a.layout.ClusterCount); cluster++ {
		entry, err := a.table.readEntry(cluster)
		if err != nil {
			break
		}
		if !entry.IsFree() {
			used++
		}
	}
	return used, a.layout.AllocatableClusters()
}
