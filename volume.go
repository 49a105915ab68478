package minifat

import (
	"bytes"
	"io"
	"iter"

	"github.com/aligator/minifat/checkpoint"
	"github.com/sirupsen/logrus"
)

// Options change how a Volume behaves. The zero value is the default behavior.
type Options struct {
	// AllowDuplicateNames disables the existence check of Write.
	// Writing an existing name then creates a second entry with its own cluster,
	// while Read, Update and Delete only ever see the first one.
	// Only use it to reproduce images of tools which behave that way.
	AllowDuplicateNames bool

	// Logger receives debug output about allocations. Defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// Volume is a formatted image held completely in memory.
// All operations work on the single byte buffer owned by the Volume, nothing is written to disk
// until the buffer is persisted explicitly (see Bytes and WriteTo).
//
// A Volume is not safe for concurrent use. Callers which share it between goroutines have to
// serialize all calls, like Fs does.
type Volume struct {
	disk   []byte
	layout Layout
	opts   Options
	log    logrus.FieldLogger

	table allocationTable
	alloc clusterAllocator
	root  rootDirectory
}

// New creates a new formatted volume with the geometry of cfg.
// opts may be nil.
func New(cfg Config, opts *Options) (*Volume, error) {
	layout, err := NewLayout(cfg)
	if err != nil {
		return nil, err
	}

	v := newVolume(make([]byte, layout.Size), layout, opts)
	v.Format()
	return v, nil
}

// Load creates a volume from a serialized image. The data is copied.
// cfg.Size may be 0 in which case the length of data is used, the cluster size has to match the one
// the image was created with, as it is not stored in the image.
// Load fails with ErrNotFormatted if the boot tag is missing or the root directory cluster is not allocated.
func Load(data []byte, cfg Config, opts *Options) (*Volume, error) {
	v, err := LoadSkipChecks(data, cfg, opts)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(v.disk[:len(BootTag)], BootTag[:]) {
		return nil, checkpoint.Mark(ErrNotFormatted, "boot tag %q missing", BootTag[:])
	}
	root, err := v.table.readEntry(rootDirCluster)
	if err != nil {
		return nil, checkpoint.From(err)
	}
	if root.IsFree() {
		return nil, checkpoint.Mark(ErrNotFormatted, "root directory cluster is not allocated")
	}

	return v, nil
}

// LoadSkipChecks creates a volume from a serialized image just like Load but only validates the geometry.
// Use with caution!
func LoadSkipChecks(data []byte, cfg Config, opts *Options) (*Volume, error) {
	if cfg.Size == 0 {
		cfg.Size = len(data)
	}
	if cfg.Size != len(data) {
		return nil, checkpoint.Mark(ErrConfiguration, "image has %d bytes, expected %d", len(data), cfg.Size)
	}

	layout, err := NewLayout(cfg)
	if err != nil {
		return nil, err
	}

	disk := make([]byte, len(data))
	copy(disk, data)
	return newVolume(disk, layout, opts), nil
}

func newVolume(disk []byte, layout Layout, opts *Options) *Volume {
	v := &Volume{
		disk:   disk,
		layout: layout,
	}
	if opts != nil {
		v.opts = *opts
	}
	v.log = v.opts.Logger
	if v.log == nil {
		v.log = logrus.StandardLogger()
	}

	v.table = newAllocationTable(disk, layout)
	v.alloc = clusterAllocator{
		disk:   disk,
		table:  v.table,
		layout: layout,
		log:    v.log,
	}
	v.root = newRootDirectory(disk, layout)
	return v
}

// Format erases the whole volume and initializes boot sector, allocation table and root directory.
func (v *Volume) Format() {
	for i := range v.disk {
		v.disk[i] = 0
	}

	copy(v.disk, BootTag[:])
	v.table.clear()
	v.root.clear()

	// Cannot fail, the layout guarantees the root cluster exists.
	_ = v.table.markAllocated(rootDirCluster)

	v.log.WithField("size", v.layout.Size).Debug("formatted volume")
}

// Layout returns the geometry of the volume.
func (v *Volume) Layout() Layout {
	return v.layout
}

// Bytes returns a copy of the whole image.
func (v *Volume) Bytes() []byte {
	b := make([]byte, len(v.disk))
	copy(b, v.disk)
	return b
}

// WriteTo writes the whole image to w.
func (v *Volume) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(v.disk)
	return int64(n), checkpoint.From(err)
}

// Write creates a new file.
// It fails with ErrContentTooLarge if content does not fit into one cluster, with ErrAlreadyExists if
// the name is used, with ErrNoSpace if no cluster is free and with ErrDirectoryFull if no slot is free.
// A failing Write leaves the volume unchanged.
func (v *Volume) Write(name string, content []byte) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	if err := v.checkSize(content); err != nil {
		return err
	}
	if !v.opts.AllowDuplicateNames {
		if _, ok := v.root.findSlot(name); ok {
			return checkpoint.Mark(ErrAlreadyExists, "%q", name)
		}
	}

	// Nothing is touched before both a cluster and a slot are known to be free.
	if _, ok := v.alloc.findFree(); !ok {
		return checkpoint.Mark(ErrNoSpace, "%q", name)
	}
	if _, ok := v.root.findEmptySlot(); !ok {
		return checkpoint.Mark(ErrDirectoryFull, "%q", name)
	}

	cluster, err := v.alloc.allocate()
	if err != nil {
		return err
	}
	copy(v.alloc.data(cluster), content)

	if _, err := v.root.insert(name, cluster, uint32(len(content))); err != nil {
		// Roll back, otherwise the cluster is lost for good.
		if releaseErr := v.alloc.release(cluster); releaseErr != nil {
			return checkpoint.Wrap(releaseErr, err)
		}
		return err
	}

	v.log.WithField("name", name).WithField("cluster", cluster).Debug("wrote file")
	return nil
}

// Read returns the content of the file.
func (v *Volume) Read(name string) ([]byte, error) {
	entry, err := v.Stat(name)
	if err != nil {
		return nil, err
	}

	if err := v.checkEntry(entry); err != nil {
		return nil, err
	}

	content := make([]byte, entry.FileSize)
	copy(content, v.alloc.data(entry.FirstCluster))
	return content, nil
}

// ReadString returns the content of the file as text.
// Bytes which are not valid UTF-8 are dropped.
func (v *Volume) ReadString(name string) (string, error) {
	content, err := v.Read(name)
	if err != nil {
		return "", err
	}
	return decodeContent(content), nil
}

// Update replaces the content of an existing file.
// The content is written to a newly allocated cluster, the old cluster is released afterwards.
// It fails with ErrNotFound, ErrContentTooLarge or ErrNoSpace and leaves the volume unchanged in that case.
func (v *Volume) Update(name string, content []byte) error {
	entry, err := v.Stat(name)
	if err != nil {
		return err
	}
	name = entry.Name
	if err := v.checkSize(content); err != nil {
		return err
	}

	old := entry.FirstCluster

	cluster, err := v.alloc.allocate()
	if err != nil {
		return err
	}
	copy(v.alloc.data(cluster), content)

	if err := v.root.update(name, cluster, uint32(len(content))); err != nil {
		if releaseErr := v.alloc.release(cluster); releaseErr != nil {
			return checkpoint.Wrap(releaseErr, err)
		}
		return err
	}

	// An entry of a foreign image may point to a cluster the table marks free,
	// allocate hands out that same cluster then.
	if old != cluster {
		if err := v.alloc.release(old); err != nil {
			// Only possible for entries written by other tools which point to reserved clusters.
			v.log.WithError(err).WithField("name", name).Warn("superseded cluster not released")
		}
	}

	v.log.WithField("name", name).WithField("cluster", cluster).Debug("updated file")
	return nil
}

// rewrite replaces the content of an existing file inside its own cluster.
// Unlike Update it needs no free cluster, but an interrupted rewrite leaves mixed content behind.
func (v *Volume) rewrite(name string, content []byte) error {
	entry, err := v.Stat(name)
	if err != nil {
		return err
	}
	if err := v.checkSize(content); err != nil {
		return err
	}
	if err := v.checkEntry(entry); err != nil {
		return err
	}

	v.alloc.zero(entry.FirstCluster)
	copy(v.alloc.data(entry.FirstCluster), content)
	if err := v.root.update(entry.Name, entry.FirstCluster, uint32(len(content))); err != nil {
		return err
	}

	v.log.WithField("name", entry.Name).WithField("cluster", entry.FirstCluster).Debug("rewrote file")
	return nil
}

// Delete removes the file, releases its cluster and clears the directory slot.
func (v *Volume) Delete(name string) error {
	entry, err := v.Stat(name)
	if err != nil {
		return err
	}

	if err := v.alloc.release(entry.FirstCluster); err != nil {
		v.log.WithError(err).WithField("name", entry.Name).Warn("cluster of deleted file not released")
	}
	if err := v.root.remove(entry.Name); err != nil {
		return err
	}

	v.log.WithField("name", entry.Name).Debug("deleted file")
	return nil
}

// Rename changes the name of a file in place, its cluster stays the same.
// An existing file named newName is replaced, like os.Rename does.
func (v *Volume) Rename(oldName, newName string) error {
	entry, err := v.Stat(oldName)
	if err != nil {
		return err
	}
	oldName, slot := entry.Name, entry.Slot
	newName, err = normalizeName(newName)
	if err != nil {
		return err
	}

	if oldName == newName {
		return nil
	}

	if target, ok := v.root.findSlot(newName); ok {
		if err := v.Delete(v.root.entry(target).Name); err != nil {
			return err
		}
	}

	v.root.rename(slot, newName)
	v.log.WithField("from", oldName).WithField("to", newName).Debug("renamed file")
	return nil
}

// Stat returns the directory entry of the file.
// Names which can not be stored at all are reported as ErrNotFound as well.
func (v *Volume) Stat(name string) (DirEntry, error) {
	normalized, err := normalizeName(name)
	if err != nil {
		return DirEntry{}, checkpoint.Mark(ErrNotFound, "%q can not be stored: %v", name, err)
	}
	name = normalized

	slot, ok := v.root.findSlot(name)
	if !ok {
		return DirEntry{}, checkpoint.Mark(ErrNotFound, "%q", name)
	}
	return v.root.entry(slot), nil
}

// List returns all files in slot order.
// The sequence reflects the state of the volume at the time it is iterated.
func (v *Volume) List() iter.Seq[DirEntry] {
	return v.root.entries()
}

// Usage returns the number of clusters used by files and the number of clusters the table describes,
// without the two reserved ones.
func (v *Volume) Usage() (used int, total int) {
	return v.alloc.usage()
}

// Capacity returns the maximum number of files the root directory can hold.
func (v *Volume) Capacity() int {
	return v.root.capacity()
}

func (v *Volume) checkSize(content []byte) error {
	if len(content) > v.layout.ClusterSize {
		return checkpoint.Mark(ErrContentTooLarge, "%d bytes, cluster size is %d", len(content), v.layout.ClusterSize)
	}
	return nil
}

// checkEntry validates entries which may come from a loaded image.
func (v *Volume) checkEntry(entry DirEntry) error {
	if entry.FirstCluster <= rootDirCluster || !v.layout.isBacked(entry.FirstCluster) {
		return checkpoint.Mark(ErrOutOfRange, "%q points to cluster %d", entry.Name, entry.FirstCluster)
	}
	if int64(entry.FileSize) > int64(v.layout.ClusterSize) {
		return checkpoint.Mark(ErrOutOfRange, "%q has size %d, cluster size is %d", entry.Name, entry.FileSize, v.layout.ClusterSize)
	}
	return nil
}
