package imagefile

import (
	"errors"
	"io/fs"
	"os"

	"github.com/aligator/minifat"
	"github.com/aligator/minifat/checkpoint"
	"github.com/edsrzf/mmap-go"
)

// Mapped is a host image file mapped into memory.
// The embedded Volume works on its own copy of the image, Flush writes it back through the mapping.
type Mapped struct {
	*minifat.Volume

	file    *os.File
	mapping mmap.MMap
}

// Map maps the image file at path read-write and loads a volume from it.
// Changes to the volume reach the file on Flush. Close unmaps the file without flushing.
func Map(path string, cfg minifat.Config, opts *minifat.Options) (*Mapped, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, checkpoint.Mark(ErrImageNotFound, "%s", path)
	}
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrLoadImage)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, checkpoint.Wrap(err, ErrLoadImage)
	}
	if info.Size() == 0 {
		_ = f.Close()
		return nil, checkpoint.Mark(minifat.ErrConfiguration, "%s is empty", path)
	}

	mapping, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		_ = f.Close()
		return nil, checkpoint.Wrap(err, ErrLoadImage)
	}

	vol, err := minifat.Load(mapping, cfg, opts)
	if err != nil {
		_ = mapping.Unmap()
		_ = f.Close()
		return nil, checkpoint.Wrap(err, ErrLoadImage)
	}

	return &Mapped{
		Volume:  vol,
		file:    f,
		mapping: mapping,
	}, nil
}

// Flush copies the volume into the mapping and syncs the mapping to the file.
func (m *Mapped) Flush() error {
	if m.mapping == nil {
		return checkpoint.From(os.ErrClosed)
	}

	copy(m.mapping, m.Volume.Bytes())
	if err := m.mapping.Flush(); err != nil {
		return checkpoint.Wrap(err, ErrSaveImage)
	}
	return nil
}

// Close unmaps and closes the file. Unflushed changes are lost.
func (m *Mapped) Close() error {
	if m.mapping == nil {
		return checkpoint.From(os.ErrClosed)
	}

	err := m.mapping.Unmap()
	if closeErr := m.file.Close(); err == nil {
		err = closeErr
	}
	m.mapping = nil
	m.file = nil
	return checkpoint.From(err)
}
