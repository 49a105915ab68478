package minifat

import (
	"encoding/binary"

	"github.com/aligator/minifat/checkpoint"
)

// tableEntry is the 32 bit status value the allocation table stores per cluster.
type tableEntry uint32

const (
	entryFree      tableEntry = 0x00000000
	entryAllocated tableEntry = 0xFFFFFFFF
)

// Value returns the raw entry.
func (e tableEntry) Value() uint32 {
	return uint32(e)
}

// IsFree reports whether the cluster may be handed out.
func (e tableEntry) IsFree() bool {
	return e == entryFree
}

// IsEOF reports whether the cluster is the last one of its chain.
// Files never span more than one cluster, so every allocated cluster is terminal.
func (e tableEntry) IsEOF() bool {
	return e == entryAllocated
}

// allocationTable is a view on the table region of the volume buffer.
type allocationTable struct {
	data   []byte
	layout Layout
}

func newAllocationTable(disk []byte, layout Layout) allocationTable {
	return allocationTable{
		data:   disk[layout.TableOffset : layout.TableOffset+layout.TableSize],
		layout: layout,
	}
}

func (t allocationTable) checkRange(cluster uint32) error {
	if int64(cluster) >= int64(t.layout.ClusterCount) {
		return checkpoint.Mark(ErrOutOfRange, "cluster %d, table has %d entries", cluster, t.layout.ClusterCount)
	}
	return nil
}

func (t allocationTable) readEntry(cluster uint32) (tableEntry, error) {
	if err := t.checkRange(cluster); err != nil {
		return 0, err
	}
	return tableEntry(binary.LittleEndian.Uint32(t.data[cluster*tableEntrySize:])), nil
}

func (t allocationTable) writeEntry(cluster uint32, value tableEntry) error {
	if err := t.checkRange(cluster); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(t.data[cluster*tableEntrySize:], uint32(value))
	return nil
}

func (t allocationTable) markAllocated(cluster uint32) error {
	return t.writeEntry(cluster, entryAllocated)
}

func (t allocationTable) markFree(cluster uint32) error {
	return t.writeEntry(cluster, entryFree)
}

// clear frees every entry of the table.
func (t allocationTable) clear() {
	for i := range t.data {
		t.data[i] = 0
	}
}
