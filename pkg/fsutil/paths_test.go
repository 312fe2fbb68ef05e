package fsutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCacheDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Setenv("LOCALAPPDATA", `C:\Users\dev\AppData\Local`)
		dir, err := GetCacheDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(`C:\Users\dev\AppData\Local`, "Nuitka", "Nuitka", "Cache", "downloads"), dir)
		return
	}

	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	t.Setenv("HOME", "/tmp/home")
	dir, err := GetCacheDir()
	require.NoError(t, err)
	assert.Equal(t, AppName, filepath.Base(dir))
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("APPDATA", t.TempDir())
	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, AppName, filepath.Base(dir))
}

func TestFreeSpace(t *testing.T) {
	free, err := FreeSpace(t.TempDir())
	require.NoError(t, err)
	assert.Positive(t, free)

	_, err = FreeSpace(filepath.Join(t.TempDir(), "does", "not", "exist"))
	assert.Error(t, err)
}
