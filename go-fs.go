package minifat

import (
	"errors"
	"io/fs"
)

type GoDirEntry struct {
	fs.FileInfo
}

func (g GoDirEntry) Type() fs.FileMode {
	return g.FileInfo.Mode().Type()
}

func (g GoDirEntry) Info() (fs.FileInfo, error) {
	return g.FileInfo, nil
}

type GoFile struct {
	*File
}

func (g GoFile) Stat() (fs.FileInfo, error) {
	return g.File.Stat()
}

func (g GoFile) Read(bytes []byte) (int, error) {
	return g.File.Read(bytes)
}

func (g GoFile) Close() error {
	return g.File.Close()
}

func (g GoFile) ReadDir(n int) ([]fs.DirEntry, error) {
	entries, err := g.File.Readdir(n)

	goEntries := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		goEntries[i] = GoDirEntry{e}
	}

	return goEntries, err
}

// GoFs just wraps the afero implementation to be compatible with fs.FS.
type GoFs struct {
	*Fs
}

// NewGoFS exposes the volume as fs.FS compatible filesystem.
func NewGoFS(vol *Volume) *GoFs {
	return &GoFs{NewFs(vol)}
}

// LoadGoFS loads a serialized image (see Load) as fs.FS compatible filesystem.
func LoadGoFS(data []byte, cfg Config) (*GoFs, error) {
	vol, err := Load(data, cfg, nil)
	if err != nil {
		return nil, err
	}

	return NewGoFS(vol), nil
}

// LoadGoFSSkipChecks loads a serialized image as fs.FS compatible filesystem just like LoadGoFS but
// it only validates the geometry, which may allow you to open images of not perfectly compatible tools.
// Use with caution!
func LoadGoFSSkipChecks(data []byte, cfg Config) (*GoFs, error) {
	vol, err := LoadSkipChecks(data, cfg, nil)
	if err != nil {
		return nil, err
	}

	return NewGoFS(vol), nil
}

func (g GoFs) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	file, err := g.Fs.Open(name)
	if err != nil {
		return nil, err
	}

	f, ok := file.(*File)
	if !ok {
		return nil, errors.New("invalid File implementation")
	}

	return GoFile{f}, nil
}
