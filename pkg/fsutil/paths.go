package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"github.com/glorpus-work/gccfetch/pkg/platform"
)

const (
	// AppName is the name of the application used in paths
	AppName = "gccfetch"
)

// GetCacheDir returns the default cache root for toolchain downloads.
// On Windows this is the directory Nuitka searches for a downloaded MinGW:
// %LOCALAPPDATA%\Nuitka\Nuitka\Cache\downloads
// Elsewhere: <UserCacheDir>/gccfetch
func GetCacheDir() (string, error) {
	if runtime.GOOS == platform.OSWindows {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			return "", errors.New("LOCALAPPDATA environment variable not set")
		}
		return filepath.Join(localAppData, "Nuitka", "Nuitka", "Cache", "downloads"), nil
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, AppName), nil
}

// GetConfigDir returns the directory holding config.yaml.
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}
