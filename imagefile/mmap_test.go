package imagefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aligator/minifat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	s := NewOsStore()
	vol, err := s.Create(path, minifat.Config{})
	require.NoError(t, err)
	require.NoError(t, vol.Write("a", []byte("before")))
	require.NoError(t, s.Save(path, vol))

	m, err := Map(path, minifat.Config{}, nil)
	require.NoError(t, err)

	got, err := m.ReadString("a")
	require.NoError(t, err)
	assert.Equal(t, "before", got)

	require.NoError(t, m.Update("a", []byte("after")))
	require.NoError(t, m.Write("b", []byte("new")))
	require.NoError(t, m.Flush())
	require.NoError(t, m.Close())

	loaded, err := s.Load(path, minifat.Config{})
	require.NoError(t, err)
	got, err = loaded.ReadString("a")
	require.NoError(t, err)
	assert.Equal(t, "after", got)
	got, err = loaded.ReadString("b")
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestMap_CloseWithoutFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	s := NewOsStore()
	_, err := s.Create(path, minifat.Config{})
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	m, err := Map(path, minifat.Config{}, nil)
	require.NoError(t, err)
	require.NoError(t, m.Write("a", []byte("lost")))
	require.NoError(t, m.Close())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	assert.ErrorIs(t, m.Close(), os.ErrClosed)
	assert.ErrorIs(t, m.Flush(), os.ErrClosed)
}

func TestMap_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.img"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.img"), make([]byte, minifat.DefaultSize), 0644))

	tests := []struct {
		name    string
		file    string
		wantErr error
	}{
		{name: "missing", file: "missing.img", wantErr: ErrImageNotFound},
		{name: "empty", file: "empty.img", wantErr: minifat.ErrConfiguration},
		{name: "unformatted", file: "garbage.img", wantErr: minifat.ErrNotFormatted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Map(filepath.Join(dir, tt.file), minifat.Config{}, nil)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, m)
		})
	}
}
