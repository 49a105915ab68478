// Package imagefile persists volumes as flat image files.
//
// A Store works on any afero.Fs, which allows to keep images on disk (afero.NewOsFs)
// or completely in memory for tests (afero.NewMemMapFs). Map works on host files only.
package imagefile

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/aligator/minifat"
	"github.com/aligator/minifat/checkpoint"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// These errors may occur while handling image files.
var (
	ErrImageNotFound = fmt.Errorf("image not found: %w", fs.ErrNotExist)
	ErrSaveImage     = errors.New("could not save the image")
	ErrLoadImage     = errors.New("could not load the image")
)

// Store creates, saves and loads images on Fs.
type Store struct {
	Fs afero.Fs

	// Options are used for every volume the Store creates or loads. May be nil.
	Options *minifat.Options

	// Log defaults to the logrus standard logger.
	Log logrus.FieldLogger
}

// NewOsStore returns a Store working on the host filesystem.
func NewOsStore() *Store {
	return &Store{Fs: afero.NewOsFs()}
}

func (s *Store) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// Create creates a new formatted volume and saves it to path. An existing image is replaced.
func (s *Store) Create(path string, cfg minifat.Config) (*minifat.Volume, error) {
	vol, err := minifat.New(cfg, s.Options)
	if err != nil {
		return nil, err
	}

	if err := s.Save(path, vol); err != nil {
		return nil, err
	}
	return vol, nil
}

// Save writes the whole image to path.
// The image is written to a temporary file next to path first, which then replaces path,
// so an interrupted Save leaves the previous image intact.
func (s *Store) Save(path string, vol *minifat.Volume) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := afero.TempFile(s.Fs, dir, "."+base+".*.tmp")
	if err != nil {
		return checkpoint.Wrap(err, ErrSaveImage)
	}
	tmpName := tmp.Name()

	_, err = vol.WriteTo(tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = s.Fs.Rename(tmpName, path)
	}
	if err != nil {
		if removeErr := s.Fs.Remove(tmpName); removeErr != nil {
			s.log().WithError(removeErr).WithField("file", tmpName).Warn("temporary image not removed")
		}
		return checkpoint.Wrap(err, ErrSaveImage)
	}

	s.log().WithField("image", path).WithField("size", vol.Layout().Size).Debug("saved image")
	return nil
}

// Load reads the image at path. cfg has to match the geometry the image was created with,
// a zero cfg.Size means the size of the file.
func (s *Store) Load(path string, cfg minifat.Config) (*minifat.Volume, error) {
	data, err := afero.ReadFile(s.Fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, checkpoint.Mark(ErrImageNotFound, "%s", path)
	}
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrLoadImage)
	}

	vol, err := minifat.Load(data, cfg, s.Options)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrLoadImage)
	}

	s.log().WithField("image", path).Debug("loaded image")
	return vol, nil
}

// Clone copies the image at src to dst. The source is validated by loading it first.
func (s *Store) Clone(src, dst string, cfg minifat.Config) error {
	vol, err := s.Load(src, cfg)
	if err != nil {
		return err
	}

	return s.Save(dst, vol)
}

// Remove deletes the image at path.
func (s *Store) Remove(path string) error {
	exists, err := afero.Exists(s.Fs, path)
	if err != nil {
		return checkpoint.From(err)
	}
	if !exists {
		return checkpoint.Mark(ErrImageNotFound, "%s", path)
	}

	if err := s.Fs.Remove(path); err != nil {
		return checkpoint.From(err)
	}

	s.log().WithField("image", path).Debug("removed image")
	return nil
}

// Exists reports whether an image file exists at path.
func (s *Store) Exists(path string) (bool, error) {
	exists, err := afero.Exists(s.Fs, path)
	if err != nil {
		return false, checkpoint.From(err)
	}
	return exists, nil
}
