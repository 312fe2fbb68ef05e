package cache

import (
	"fmt"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/glorpus-work/gccfetch/pkg/errors"
)

// Operation renders cache management results for the command line.
type Operation struct {
	manager Manager
}

// NewOperation creates a new cache operation instance.
func NewOperation(manager Manager) *Operation {
	return &Operation{
		manager: manager,
	}
}

// Clean cleans the cache and describes what was freed.
func (op *Operation) Clean(options CleanOptions) (string, error) {
	result, err := op.manager.Clean(options)
	if err != nil {
		return "", errors.Wrap(err, "failed to clean cache")
	}

	if len(result.Removed) == 0 {
		return "No files were removed from the cache.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Successfully cleaned cache. Freed %s of disk space.", formatBytes(result.TotalFreed))
	if result.StagingFreed > 0 {
		fmt.Fprintf(&b, "\n- Staging:    %s", formatBytes(result.StagingFreed))
	}
	if result.ArchiveFreed > 0 {
		fmt.Fprintf(&b, "\n- Archives:   %s", formatBytes(result.ArchiveFreed))
	}
	if result.ToolchainFreed > 0 {
		fmt.Fprintf(&b, "\n- Toolchains: %s", formatBytes(result.ToolchainFreed))
	}
	return b.String(), nil
}

// GetInfo returns information about the cache.
func (op *Operation) GetInfo() (string, error) {
	info, err := op.manager.GetInfo()
	if err != nil {
		return "", errors.Wrap(err, "failed to get cache info")
	}

	free := "unknown"
	if info.FreeSpace > 0 {
		free = datasize.ByteSize(info.FreeSpace).HR()
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Cache Information:
  Directory:    %s
  Total Size:   %s
  Staging:      %s (%d files)
  Archives:     %s (%d files)
  Free Space:   %s`,
		info.Directory,
		formatBytes(info.TotalSize),
		formatBytes(info.StagingSize),
		info.StagingFiles,
		formatBytes(info.ArchiveSize),
		info.ArchiveFiles,
		free,
	)
	if len(info.Toolchains) == 0 {
		b.WriteString("\n  Toolchains:   none")
	}
	for _, tc := range info.Toolchains {
		fmt.Fprintf(&b, "\n  Toolchain:    %s, %s (%d files)", tc.Name, formatBytes(tc.Size), tc.Files)
	}
	return b.String(), nil
}

// GetDirectory returns the cache directory path.
func (op *Operation) GetDirectory() string {
	return op.manager.GetDirectory()
}

// SetDirectory sets a new cache directory.
func (op *Operation) SetDirectory(dir string) error {
	return op.manager.SetDirectory(dir)
}

func formatBytes(bytes int64) string {
	return datasize.ByteSize(bytes).HR()
}
