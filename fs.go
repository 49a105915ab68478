package minifat

import (
	"errors"
	"io"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aligator/minifat/checkpoint"
	"github.com/spf13/afero"
)

// Fs exposes a Volume as afero.Fs.
// The volume only has a root directory, so paths are plain file names. A leading "/" or "./" is ignored.
// Directories cannot be created and file attributes cannot be changed.
//
// Fs serializes all access to the volume and can be used from several goroutines,
// as long as nothing else uses the volume at the same time.
type Fs struct {
	lock sync.Mutex
	vol  *Volume
}

// NewFs wraps the volume. The volume must not be used directly while the Fs is in use.
func NewFs(vol *Volume) *Fs {
	return &Fs{vol: vol}
}

// cleanPath converts an afero path to a file name. It returns "" for the root directory.
func cleanPath(name string) (string, error) {
	name = path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimPrefix(name, "/")
	if strings.Contains(name, "/") {
		return "", checkpoint.Mark(ErrInvalidName, "%q is not in the root directory", name)
	}
	return name, nil
}

func (fs *Fs) Create(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

// Mkdir is not supported. For the root directory it reports os.ErrExist.
func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	if p, err := cleanPath(name); err == nil && p == "" {
		return &os.PathError{Op: "mkdir", Path: name, Err: checkpoint.From(os.ErrExist)}
	}
	return &os.PathError{Op: "mkdir", Path: name, Err: checkpoint.From(ErrUnsupported)}
}

// MkdirAll succeeds only for the root directory.
func (fs *Fs) MkdirAll(path string, perm os.FileMode) error {
	if p, err := cleanPath(path); err == nil && p == "" {
		return nil
	}
	return &os.PathError{Op: "mkdir", Path: path, Err: checkpoint.From(ErrUnsupported)}
}

func (fs *Fs) Open(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDONLY, 0)
}

// OpenFile opens the file with the given flags. The permissions are ignored.
// os.O_CREATE creates an empty file on the volume right away, so a full volume fails here and not on Close.
func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	file, err := fs.openFile(name, flag)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	return file, nil
}

func (fs *Fs) openFile(name string, flag int) (*File, error) {
	p, err := cleanPath(name)
	if err != nil {
		return nil, err
	}

	writable := flag&(os.O_WRONLY|os.O_RDWR) != 0

	if p == "" {
		if writable {
			return nil, checkpoint.From(syscall.EISDIR)
		}
		return &File{
			fs:          fs,
			isDirectory: true,
			stat:        rootFileInfo{},
		}, nil
	}

	entry, err := fs.vol.Stat(p)
	exists := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	switch {
	case exists && flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0:
		return nil, checkpoint.Mark(ErrAlreadyExists, "%q", p)
	case !exists && flag&os.O_CREATE == 0:
		return nil, err
	case !exists:
		if err := fs.vol.Write(p, nil); err != nil {
			return nil, err
		}
		if entry, err = fs.vol.Stat(p); err != nil {
			return nil, err
		}
	}

	file := &File{
		fs:      fs,
		name:    entry.Name,
		stat:    entry.FileInfo(),
		maxSize: int64(fs.vol.Layout().ClusterSize),
	}

	if writable {
		file.writable = true
		file.append = flag&os.O_APPEND != 0

		if flag&os.O_TRUNC != 0 {
			file.buffer = []byte{}
			file.dirty = entry.FileSize > 0
		} else if file.buffer, err = fs.vol.Read(p); err != nil {
			return nil, err
		}
	}

	return file, nil
}

func (fs *Fs) Remove(name string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	p, err := cleanPath(name)
	if err == nil && p == "" {
		err = checkpoint.Mark(ErrUnsupported, "the root directory cannot be removed")
	}
	if err == nil {
		err = fs.vol.Delete(p)
	}
	if err != nil {
		return &os.PathError{Op: "remove", Path: name, Err: err}
	}
	return nil
}

// RemoveAll removes the file. For the root directory it removes all files but keeps the directory.
// A missing file is no error.
func (fs *Fs) RemoveAll(path string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	p, err := cleanPath(path)
	if err != nil {
		return &os.PathError{Op: "removeall", Path: path, Err: err}
	}

	names := []string{p}
	if p == "" {
		names = names[:0]
		for e := range fs.vol.List() {
			names = append(names, e.Name)
		}
	}

	for _, n := range names {
		if err := fs.vol.Delete(n); err != nil && !errors.Is(err, ErrNotFound) {
			return &os.PathError{Op: "removeall", Path: path, Err: err}
		}
	}
	return nil
}

func (fs *Fs) Rename(oldname, newname string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	oldPath, err := cleanPath(oldname)
	if err != nil {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: err}
	}
	newPath, err := cleanPath(newname)
	if err != nil {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: err}
	}

	if err := fs.vol.Rename(oldPath, newPath); err != nil {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: err}
	}
	return nil
}

func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	p, err := cleanPath(name)
	if err != nil {
		return nil, &os.PathError{Op: "stat", Path: name, Err: err}
	}
	if p == "" {
		return rootFileInfo{}, nil
	}

	entry, err := fs.vol.Stat(p)
	if err != nil {
		return nil, &os.PathError{Op: "stat", Path: name, Err: err}
	}
	return entry.FileInfo(), nil
}

func (fs *Fs) Name() string {
	return "minifat"
}

func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	return &os.PathError{Op: "chmod", Path: name, Err: checkpoint.From(ErrUnsupported)}
}

func (fs *Fs) Chown(name string, uid, gid int) error {
	return &os.PathError{Op: "chown", Path: name, Err: checkpoint.From(ErrUnsupported)}
}

func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return &os.PathError{Op: "chtimes", Path: name, Err: checkpoint.From(ErrUnsupported)}
}

// readFileAt reads up to readSize bytes of the current content of the file, starting at offset.
// It returns io.EOF together with the data if the file ends before readSize bytes are read.
func (fs *Fs) readFileAt(name string, offset int64, readSize int64) ([]byte, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	content, err := fs.vol.Read(name)
	if err != nil {
		return nil, err
	}

	if offset >= int64(len(content)) {
		return nil, io.EOF
	}

	end := offset + readSize
	if end > int64(len(content)) {
		return content[offset:], io.EOF
	}
	return content[offset:end], nil
}

func (fs *Fs) readRoot() ([]DirEntry, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	return slices.Collect(fs.vol.List()), nil
}

// commit stores the buffered content in the cluster the file already owns,
// so a file created by OpenFile never needs a second cluster.
func (fs *Fs) commit(name string, content []byte) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	return fs.vol.rewrite(name, content)
}
