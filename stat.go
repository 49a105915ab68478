package minifat

import (
	"os"
	"time"
)

// The volume stores no permissions, every file is reported with fileMode.
const (
	fileMode = 0644
	rootMode = os.ModeDir | 0755
)

// FileInfo returns the entry as os.FileInfo.
func (e DirEntry) FileInfo() os.FileInfo {
	return entryFileInfo{e}
}

type entryFileInfo struct {
	entry DirEntry
}

func (e entryFileInfo) Name() string {
	return e.entry.Name
}

func (e entryFileInfo) Size() int64 {
	return int64(e.entry.FileSize)
}

func (e entryFileInfo) Mode() os.FileMode {
	return fileMode
}

// ModTime always returns the zero time as the format has no timestamps.
func (e entryFileInfo) ModTime() time.Time {
	return time.Time{}
}

func (e entryFileInfo) IsDir() bool {
	return false
}

// Sys returns the DirEntry.
func (e entryFileInfo) Sys() interface{} {
	return e.entry
}

// rootFileInfo describes the root directory, the only directory of a volume.
type rootFileInfo struct{}

func (rootFileInfo) Name() string       { return "." }
func (rootFileInfo) Size() int64        { return 0 }
func (rootFileInfo) Mode() os.FileMode  { return rootMode }
func (rootFileInfo) ModTime() time.Time { return time.Time{} }
func (rootFileInfo) IsDir() bool        { return true }
func (rootFileInfo) Sys() interface{}   { return nil }
