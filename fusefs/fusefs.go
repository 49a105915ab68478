// Package fusefs mounts the root directory of a volume read-only with FUSE.
package fusefs

import (
	"context"
	"errors"
	"sync"
	"syscall"

	"github.com/aligator/minifat"
	"github.com/aligator/minifat/checkpoint"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/sirupsen/logrus"
)

// ErrMount is returned if the mount itself fails.
var ErrMount = errors.New("could not mount the volume")

// Inode numbers of files are inodeBase + directory slot.
const inodeBase = 1000

// Options configure Mount.
type Options struct {
	// Debug prints all FUSE requests.
	Debug bool

	// Log defaults to the logrus standard logger.
	Log logrus.FieldLogger
}

// Root is the mounted root directory.
// Its children are created once from the directory listing when the mount starts.
type Root struct {
	fs.Inode

	// go-fuse serves requests concurrently, the volume is not safe for that.
	lock sync.Mutex
	vol  *minifat.Volume
	log  logrus.FieldLogger
}

var _ = (fs.NodeOnAdder)((*Root)(nil))
var _ = (fs.NodeGetattrer)((*Root)(nil))

// NewRoot creates the root node for vol. log may be nil.
func NewRoot(vol *minifat.Volume, log logrus.FieldLogger) *Root {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Root{vol: vol, log: log}
}

// Mount mounts vol at dir. Call Wait on the returned server to serve until it is unmounted.
func Mount(dir string, vol *minifat.Volume, opts Options) (*fuse.Server, error) {
	root := NewRoot(vol, opts.Log)

	fuseOpts := &fs.Options{}
	fuseOpts.Debug = opts.Debug
	fuseOpts.FsName = "minifat"
	fuseOpts.Name = "minifat"

	server, err := fs.Mount(dir, root, fuseOpts)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrMount)
	}

	root.log.WithField("dir", dir).Info("mounted volume")
	return server, nil
}

func (r *Root) OnAdd(ctx context.Context) {
	r.lock.Lock()
	defer r.lock.Unlock()

	p := &r.Inode
	for e := range r.vol.List() {
		child := p.NewPersistentInode(ctx, &file{root: r, name: e.Name}, fs.StableAttr{
			Mode: fuse.S_IFREG,
			Ino:  inodeBase + uint64(e.Slot),
		})
		p.AddChild(e.Name, child, true)
	}
}

func (r *Root) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = fuse.S_IFDIR | 0555
	return 0
}

func (r *Root) read(name string) ([]byte, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.vol.Read(name)
}

// file is a single read-only file of the volume.
type file struct {
	fs.Inode

	root *Root
	name string
}

var _ = (fs.NodeReader)((*file)(nil))
var _ = (fs.NodeOpener)((*file)(nil))
var _ = (fs.NodeGetattrer)((*file)(nil))

func (f *file) Open(ctx context.Context, openFlags uint32) (fh fs.FileHandle, fuseFlags uint32, errno syscall.Errno) {
	if openFlags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_TRUNC|syscall.O_APPEND) != 0 {
		return nil, 0, syscall.EROFS
	}
	return nil, fuse.FOPEN_DIRECT_IO, 0
}

func (f *file) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	content, errno := f.content()
	if errno != 0 {
		return fuse.ReadResultData([]byte{}), errno
	}

	if off >= int64(len(content)) {
		return fuse.ReadResultData([]byte{}), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(content)) {
		end = int64(len(content))
	}

	return fuse.ReadResultData(content[off:end]), 0
}

func (f *file) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	content, errno := f.content()
	if errno != 0 {
		return errno
	}

	out.Mode = fuse.S_IFREG | 0444
	out.Size = uint64(len(content))
	return 0
}

func (f *file) content() ([]byte, syscall.Errno) {
	content, err := f.root.read(f.name)
	if errors.Is(err, minifat.ErrNotFound) {
		return nil, syscall.ENOENT
	}
	if err != nil {
		f.root.log.WithError(err).WithField("name", f.name).Error("read failed")
		return nil, syscall.EIO
	}
	return content, 0
}
