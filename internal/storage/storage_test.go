package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorage(t *testing.T) {
	s := NewStorage()
	if s == nil {
		t.Fatal("NewStorage returned nil")
	}
}

func TestStorage_WriteAndRead(t *testing.T) {
	s := NewStorageWithFs(afero.NewMemMapFs())

	path := "/etc/app/nested/config.yaml"
	assert.False(t, s.Exists(path))

	require.NoError(t, s.WriteText(path, "a: 1\n"))
	assert.True(t, s.Exists(path))

	got, err := s.ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", got)

	require.NoError(t, s.WriteText(path, "a: 2\n"))
	got, err = s.ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "a: 2\n", got)
}

func TestStorage_WriteLeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStorage()

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, s.WriteText(path, "a: 1\n"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "config.yaml", entries[0].Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestStorage_ReadMissing(t *testing.T) {
	s := NewStorageWithFs(afero.NewMemMapFs())

	_, err := s.ReadText("/nope.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "not found")
}

func TestStorage_Copy(t *testing.T) {
	s := NewStorageWithFs(afero.NewMemMapFs())

	content := "# header\nver: 1\r\nname: demo\n"
	require.NoError(t, s.WriteText("/src.yaml", content))
	require.NoError(t, s.Copy("/src.yaml", "/backup/dst.yaml"))

	got, err := s.ReadText("/backup/dst.yaml")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	err = s.Copy("/missing.yaml", "/dst.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy source")
}

func TestStorage_ReadOnlyFilesystem(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/config.yaml", []byte("a: 1\n"), 0644))
	s := NewStorageWithFs(afero.NewReadOnlyFs(base))

	assert.Error(t, s.WriteText("/config.yaml", "a: 2\n"))
	assert.Error(t, s.Copy("/config.yaml", "/config.yaml.backup"))

	got, err := s.ReadText("/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", got, "a failed write must not touch the existing file")
}

func TestStorage_ModTime(t *testing.T) {
	dir := t.TempDir()
	s := NewStorage()
	path := filepath.Join(dir, "config.yaml")

	_, err := s.ModTime(path)
	require.Error(t, err)

	require.NoError(t, s.WriteText(path, "a: 1\n"))
	stamp := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, stamp, stamp))

	got, err := s.ModTime(path)
	require.NoError(t, err)
	assert.True(t, got.Equal(stamp), "got %v, want %v", got, stamp)
}

func TestWriteError(t *testing.T) {
	cause := os.ErrPermission
	err := &WriteError{Op: "backup", Path: "/etc/app.yaml.backup", Err: cause}

	assert.Equal(t, "backup /etc/app.yaml.backup: permission denied", err.Error())
	assert.ErrorIs(t, err, os.ErrPermission)
}
