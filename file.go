package minifat

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/aligator/minifat/checkpoint"
)

// These errors may occur while processing a file.
var (
	ErrReadFile  = errors.New("could not read file completely")
	ErrWriteFile = errors.New("could not write the file")
	ErrSeekFile  = errors.New("could not seek inside of the file")
	ErrReadDir   = errors.New("could not read the directory")
)

// volumeFileFs provides all methods needed from the Fs for File.
// It mainly exists to be able to mock the Fs in tests.
// Generated mock using mockgen:
//  mockgen -source=file.go -destination=file_mock.go -package minifat
type volumeFileFs interface {
	readFileAt(name string, offset int64, readSize int64) ([]byte, error)
	readRoot() ([]DirEntry, error)
	commit(name string, content []byte) error
}

// File is an open file or the open root directory of a volume.
//
// A File opened for writing keeps the whole content in memory.
// Changes reach the volume on Sync and Close, each commit replaces the file content at once.
type File struct {
	fs   volumeFileFs
	name string

	isDirectory bool

	stat   os.FileInfo
	offset int64

	writable bool
	append   bool
	dirty    bool
	buffer   []byte
	maxSize  int64
}

// Close commits pending changes and releases the file.
// The file is released even if the commit fails.
func (f *File) Close() error {
	if f.fs == nil {
		return checkpoint.From(os.ErrClosed)
	}

	err := f.Sync()
	*f = File{}
	return err
}

func (f *File) Read(p []byte) (n int, err error) {
	if p == nil {
		return 0, nil
	}

	n, err = f.ReadAt(p, f.offset)
	f.offset += int64(n)
	return n, err
}

func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if err := f.checkReadable(); err != nil {
		return 0, err
	}
	if p == nil {
		return 0, nil
	}
	if off < 0 {
		return 0, checkpoint.Wrap(fmt.Errorf("%w, offset: %v", syscall.EINVAL, off), ErrReadFile)
	}

	if f.writable {
		if off >= int64(len(f.buffer)) {
			return 0, io.EOF
		}
		n = copy(p, f.buffer[off:])
		if n < len(p) {
			return n, io.EOF
		}
		return n, nil
	}

	// Reading over the end makes no sense.
	if f.stat.Size() <= off {
		return 0, io.EOF
	}

	size := len(p)
	data, err := f.fs.readFileAt(f.name, off, int64(size))
	n = copy(p, data)

	if err != nil {
		return n, checkpoint.Wrap(err, ErrReadFile)
	}
	if n < size {
		return n, io.EOF
	}
	return n, nil
}

// Seek jumps to a specific offset in the file. This affects all Read and Write operations except ReadAt and WriteAt.
// Seeking past the end is allowed, reads there return io.EOF.
// May return a syscall.EINVAL error if the whence value or the resulting offset is invalid.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.fs == nil {
		return 0, checkpoint.From(os.ErrClosed)
	}

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		offset = f.size() + offset
	default:
		return 0, checkpoint.Wrap(fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence), ErrSeekFile)
	}

	if offset < 0 {
		return 0, checkpoint.Wrap(fmt.Errorf("%w, negative offset: %v, whence: %v", syscall.EINVAL, offset, whence), ErrSeekFile)
	}

	f.offset = offset
	return offset, nil
}

func (f *File) Write(p []byte) (n int, err error) {
	if f.append {
		f.offset = int64(len(f.buffer))
	}

	n, err = f.WriteAt(p, f.offset)
	f.offset += int64(n)
	return n, err
}

// WriteAt writes into the in-memory content of the file. Gaps are filled with zeros.
// The content can never grow beyond one cluster, larger writes fail with ErrContentTooLarge and write nothing.
func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	if err := f.checkWritable(); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, checkpoint.Wrap(fmt.Errorf("%w, offset: %v", syscall.EINVAL, off), ErrWriteFile)
	}

	end := off + int64(len(p))
	if end > f.maxSize {
		return 0, checkpoint.Mark(ErrContentTooLarge, "writing %d bytes at offset %d of %q", len(p), off, f.name)
	}

	f.grow(end)
	copy(f.buffer[off:], p)
	f.dirty = true
	return len(p), nil
}

func (f *File) WriteString(s string) (ret int, err error) {
	return f.Write([]byte(s))
}

// Truncate changes the size of the file. Growing fills the file with zeros.
func (f *File) Truncate(size int64) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	if size < 0 {
		return checkpoint.Wrap(fmt.Errorf("%w, size: %v", syscall.EINVAL, size), ErrWriteFile)
	}
	if size > f.maxSize {
		return checkpoint.Mark(ErrContentTooLarge, "truncating %q to %d bytes", f.name, size)
	}

	if size < int64(len(f.buffer)) {
		f.buffer = f.buffer[:size]
	}
	f.grow(size)
	f.dirty = true
	return nil
}

// Sync commits pending changes to the volume.
func (f *File) Sync() error {
	if f.fs == nil {
		return checkpoint.From(os.ErrClosed)
	}
	if !f.dirty {
		return nil
	}

	if err := f.fs.commit(f.name, f.buffer); err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}
	f.dirty = false
	return nil
}

func (f *File) Name() string {
	if f.isDirectory {
		return "/"
	}
	return f.name
}

// Readdir reads the contents of the root directory in slot order.
// May return syscall.ENOTDIR if the current File is no directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if f.fs == nil {
		return nil, checkpoint.From(os.ErrClosed)
	}
	if !f.isDirectory {
		return nil, checkpoint.Wrap(syscall.ENOTDIR, ErrReadDir)
	}

	content, err := f.fs.readRoot()
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	// Entries may have been removed since the last call.
	if f.offset > int64(len(content)) {
		f.offset = int64(len(content))
	}
	content = content[f.offset:]

	if count > 0 {
		if len(content) == 0 {
			return nil, io.EOF
		}
		if count < len(content) {
			content = content[:count]
		}
	}
	f.offset += int64(len(content))

	result := make([]os.FileInfo, len(content))
	for i := range content {
		result[i] = content[i].FileInfo()
	}

	return result, nil
}

func (f *File) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}

	return names, nil
}

// Stat returns the FileInfo of the file. Files opened for writing report their current in-memory size.
func (f *File) Stat() (os.FileInfo, error) {
	if f.fs == nil {
		return nil, checkpoint.From(os.ErrClosed)
	}

	if f.writable {
		entry, _ := f.stat.Sys().(DirEntry)
		entry.Name = f.name
		entry.FileSize = uint32(len(f.buffer))
		return entry.FileInfo(), nil
	}
	return f.stat, nil
}

func (f *File) size() int64 {
	if f.writable {
		return int64(len(f.buffer))
	}
	return f.stat.Size()
}

func (f *File) grow(size int64) {
	if size > int64(len(f.buffer)) {
		f.buffer = append(f.buffer, make([]byte, size-int64(len(f.buffer)))...)
	}
}

func (f *File) checkReadable() error {
	if f.fs == nil {
		return checkpoint.From(os.ErrClosed)
	}
	if f.isDirectory {
		return checkpoint.Wrap(syscall.EISDIR, ErrReadFile)
	}
	return nil
}

func (f *File) checkWritable() error {
	if f.fs == nil {
		return checkpoint.From(os.ErrClosed)
	}
	if f.isDirectory {
		return checkpoint.Wrap(syscall.EISDIR, ErrWriteFile)
	}
	if !f.writable {
		return checkpoint.Wrap(syscall.EBADF, ErrWriteFile)
	}
	return nil
}
