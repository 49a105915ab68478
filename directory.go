package minifat

import (
	"bytes"
	"encoding/binary"
	"iter"

	"github.com/aligator/minifat/checkpoint"
)

// rootDirectory is a view on the root directory cluster.
// It is a fixed array of 40 byte slots which is always scanned from slot 0 on.
type rootDirectory struct {
	data []byte
}

var emptyRecord [dirEntrySize]byte

func newRootDirectory(disk []byte, layout Layout) rootDirectory {
	offset := layout.clusterOffset(rootDirCluster)
	capacity := layout.DirectoryCapacity()
	return rootDirectory{
		data: disk[offset : offset+capacity*dirEntrySize],
	}
}

func (d rootDirectory) capacity() int {
	return len(d.data) / dirEntrySize
}

func (d rootDirectory) slot(i int) []byte {
	return d.data[i*dirEntrySize : (i+1)*dirEntrySize]
}

func (d rootDirectory) isEmpty(i int) bool {
	return bytes.Equal(d.slot(i), emptyRecord[:])
}

func (d rootDirectory) record(i int) EntryRecord {
	s := d.slot(i)
	var r EntryRecord
	copy(r.Name[:], s[:nameSize])
	r.FirstCluster = binary.LittleEndian.Uint32(s[nameSize:])
	r.FileSize = binary.LittleEndian.Uint32(s[nameSize+4:])
	return r
}

func (d rootDirectory) setRecord(i int, r EntryRecord) {
	s := d.slot(i)
	copy(s[:nameSize], r.Name[:])
	binary.LittleEndian.PutUint32(s[nameSize:], r.FirstCluster)
	binary.LittleEndian.PutUint32(s[nameSize+4:], r.FileSize)
}

func (d rootDirectory) entry(i int) DirEntry {
	r := d.record(i)
	return DirEntry{
		Name:         decodeName(r.Name),
		FirstCluster: r.FirstCluster,
		FileSize:     r.FileSize,
		Slot:         i,
	}
}

// findSlot returns the first slot whose stored name matches name.
func (d rootDirectory) findSlot(name string) (int, bool) {
	for i := 0; i < d.capacity(); i++ {
		if d.isEmpty(i) {
			continue
		}
		if decodeName(d.record(i).Name) == name {
			return i, true
		}
	}
	return 0, false
}

// findEmptySlot returns the first all-zero slot.
func (d rootDirectory) findEmptySlot() (int, bool) {
	for i := 0; i < d.capacity(); i++ {
		if d.isEmpty(i) {
			return i, true
		}
	}
	return 0, false
}

func (d rootDirectory) insert(name string, cluster, size uint32) (int, error) {
	i, ok := d.findEmptySlot()
	if !ok {
		return 0, checkpoint.Mark(ErrDirectoryFull, "all %d slots are used", d.capacity())
	}

	d.setRecord(i, EntryRecord{
		Name:         encodeName(name),
		FirstCluster: cluster,
		FileSize:     size,
	})
	return i, nil
}

// update rewrites the entry in place, it does not move to another slot.
func (d rootDirectory) update(name string, cluster, size uint32) error {
	i, ok := d.findSlot(name)
	if !ok {
		return checkpoint.Mark(ErrNotFound, "%q", name)
	}

	d.setRecord(i, EntryRecord{
		Name:         encodeName(name),
		FirstCluster: cluster,
		FileSize:     size,
	})
	return nil
}

// rename changes the name of the entry in slot i and keeps cluster and size.
func (d rootDirectory) rename(i int, name string) {
	r := d.record(i)
	r.Name = encodeName(name)
	d.setRecord(i, r)
}

func (d rootDirectory) remove(name string) error {
	i, ok := d.findSlot(name)
	if !ok {
		return checkpoint.Mark(ErrNotFound, "%q", name)
	}

	copy(d.slot(i), emptyRecord[:])
	return nil
}

// entries yields all used slots in slot order.
// The sequence reads the buffer lazily and can be iterated any number of times.
func (d rootDirectory) entries() iter.Seq[DirEntry] {
	return func(yield func(DirEntry) bool) {
		for i := 0; i < d.capacity(); i++ {
			if d.isEmpty(i) {
				continue
			}
			if !yield(d.entry(i)) {
				return
			}
		}
	}
}

// clear empties all slots.
func (d rootDirectory) clear() {
	for i := range d.data {
		d.data[i] = 0
	}
}
