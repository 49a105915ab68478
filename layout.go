package minifat

import (
	"math"

	"github.com/aligator/minifat/checkpoint"
)

const (
	// BootSectorSize is the fixed size of the boot sector at the start of every image.
	BootSectorSize = 512

	// DefaultSize is the image size used when Config.Size is 0.
	DefaultSize = 1024 * 1024
	// DefaultClusterSize is the cluster size used when Config.ClusterSize is 0.
	DefaultClusterSize = 512

	tableEntrySize = 4

	// Cluster 0 and 1 are reserved, cluster 2 always holds the root directory.
	firstDataCluster = 2
	rootDirCluster   = 2
)

// Config describes the geometry of a volume.
type Config struct {
	// Size is the total size of the image in bytes.
	Size int
	// ClusterSize is the size of one cluster in bytes. It also bounds the size of a file.
	ClusterSize int
}

func (c Config) withDefaults() Config {
	if c.Size == 0 {
		c.Size = DefaultSize
	}
	if c.ClusterSize == 0 {
		c.ClusterSize = DefaultClusterSize
	}
	return c
}

// Layout contains the byte positions of all regions of a volume.
// It is derived once from a Config and never changes for the lifetime of the volume.
type Layout struct {
	Size         int
	ClusterSize  int
	ClusterCount int

	TableOffset int
	TableSize   int
	DataOffset  int

	// BackedClusters is the number of clusters, counted from index 0, whose data lies completely inside the image.
	// Cluster i starts at DataOffset + i*ClusterSize, so the table always describes more clusters than fit.
	BackedClusters int
}

// NewLayout calculates the layout for the given configuration.
// Zero values in cfg are replaced by the defaults.
// It fails with ErrConfiguration if the geometry cannot hold a usable volume.
func NewLayout(cfg Config) (Layout, error) {
	cfg = cfg.withDefaults()

	if cfg.Size < 0 || cfg.ClusterSize < 0 {
		return Layout{}, checkpoint.Mark(ErrConfiguration, "size %d and cluster size %d must be positive", cfg.Size, cfg.ClusterSize)
	}
	if cfg.ClusterSize < dirEntrySize {
		return Layout{}, checkpoint.Mark(ErrConfiguration, "cluster size %d cannot hold a single directory entry", cfg.ClusterSize)
	}
	if cfg.Size%cfg.ClusterSize != 0 {
		return Layout{}, checkpoint.Mark(ErrConfiguration, "cluster size %d does not divide size %d", cfg.ClusterSize, cfg.Size)
	}

	l := Layout{
		Size:         cfg.Size,
		ClusterSize:  cfg.ClusterSize,
		ClusterCount: cfg.Size / cfg.ClusterSize,
		TableOffset:  BootSectorSize,
	}
	if uint64(l.ClusterCount) > math.MaxUint32 {
		return Layout{}, checkpoint.Mark(ErrConfiguration, "%d clusters exceed the table range", l.ClusterCount)
	}
	l.TableSize = l.ClusterCount * tableEntrySize
	l.DataOffset = l.TableOffset + l.TableSize

	if l.DataOffset < l.Size {
		l.BackedClusters = (l.Size - l.DataOffset) / l.ClusterSize
	}

	// The root directory and at least one file cluster have to fit.
	if l.BackedClusters <= rootDirCluster+1 || l.ClusterCount <= rootDirCluster+1 {
		return Layout{}, checkpoint.Mark(ErrConfiguration, "size %d is too small for boot sector, table and data clusters", cfg.Size)
	}

	return l, nil
}

// clusterOffset returns the image offset of the first byte of the cluster.
func (l Layout) clusterOffset(cluster uint32) int {
	return l.DataOffset + int(cluster)*l.ClusterSize
}

// isBacked reports whether the data of the cluster lies inside the image.
func (l Layout) isBacked(cluster uint32) bool {
	return int64(cluster) < int64(l.BackedClusters)
}

// DirectoryCapacity is the number of entries the root directory can hold.
func (l Layout) DirectoryCapacity() int {
	return l.ClusterSize / dirEntrySize
}

// AllocatableClusters is the number of clusters reported as total by Volume.Usage.
func (l Layout) AllocatableClusters() int {
	return l.ClusterCount - firstDataCluster
}
