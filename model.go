// File model contains the structs which match the direct structures of the volume.

package minifat

// BootTag identifies a formatted image. It is stored at offset 0 of the boot sector,
// the remaining boot sector bytes are zero.
var BootTag = [8]byte{'F', 'A', 'T', '3', '2', ' ', ' ', ' '}

const (
	nameSize     = 32
	dirEntrySize = 40
)

// EntryRecord is the raw 40 byte directory entry as it is stored in the root directory cluster.
// All integers are little endian.
type EntryRecord struct {
	Name         [nameSize]byte
	FirstCluster uint32
	FileSize     uint32
}

// DirEntry is the decoded form of a used directory slot.
type DirEntry struct {
	Name         string
	FirstCluster uint32
	FileSize     uint32

	// Slot is the position of the entry in the root directory, starting at 0.
	Slot int
}
