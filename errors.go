package minifat

import (
	"errors"
	"fmt"
	"io/fs"
)

// These errors may occur while operating on a volume.
// They are always returned wrapped by a checkpoint, so use errors.Is to check for them.
var (
	ErrConfiguration   = errors.New("invalid volume configuration")
	ErrNotFormatted    = errors.New("image is not a formatted volume")
	ErrNoSpace         = errors.New("no free cluster available")
	ErrDirectoryFull   = errors.New("root directory is full")
	ErrContentTooLarge = errors.New("content does not fit into one cluster")
	ErrOutOfRange      = errors.New("cluster index out of range")
	ErrUnsupported     = errors.New("operation not supported")

	ErrNotFound      = fmt.Errorf("file not found: %w", fs.ErrNotExist)
	ErrAlreadyExists = fmt.Errorf("file already exists: %w", fs.ErrExist)
	ErrInvalidName   = fmt.Errorf("invalid file name: %w", fs.ErrInvalid)
)
