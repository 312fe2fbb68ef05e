// Package fsutil provides file system helpers shared by the acquisition steps.
package fsutil

import "time"

// File and directory permission constants.
const (
	FileModeDefault = 0o644 // -rw-r--r--
	FileModeSecure  = 0o640 // -rw-r-----
	FileModeExec    = 0o755 // -rwxr-xr-x

	DirModeDefault = 0o755 // drwxr-xr-x
	DirModeSecure  = 0o750 // drwxr-x---
	DirModePrivate = 0o700 // drwx------
)

// Removal retry defaults. Locked files on Windows usually free up within a second.
const (
	DefaultRemoveAttempts = 5
	DefaultRemoveDelay    = 200 * time.Millisecond
)
