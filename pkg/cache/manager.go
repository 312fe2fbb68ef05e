// Package cache inspects and cleans the toolchain cache root: staging leftovers,
// downloaded archives, installed toolchain directories and the install record store.
package cache

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/glorpus-work/gccfetch/pkg/archive"
	"github.com/glorpus-work/gccfetch/pkg/database"
	"github.com/glorpus-work/gccfetch/pkg/download"
	"github.com/glorpus-work/gccfetch/pkg/errors"
	"github.com/glorpus-work/gccfetch/pkg/fsutil"
	"github.com/glorpus-work/gccfetch/pkg/toolchain"
)

type kind int

const (
	kindOther kind = iota
	kindStaging
	kindArchive
	kindToolchain
	kindRecords
)

// entry is one top-level item of the cache root.
type entry struct {
	name  string
	kind  kind
	size  int64
	files int
}

// DefaultManager implements the Manager interface for cache operations.
type DefaultManager struct {
	directory string
	policy    fsutil.RetryPolicy
}

// NewManager creates a new cache manager.
func NewManager(directory string) *DefaultManager {
	return &DefaultManager{
		directory: directory,
		policy:    fsutil.DefaultRetryPolicy(),
	}
}

// NewDefaultManager creates a new cache manager with default directory.
func NewDefaultManager() (*DefaultManager, error) {
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get user cache directory")
	}
	if err := fsutil.EnsureDir(cacheDir); err != nil {
		return nil, errors.Wrapf(err, "failed to create cache directory")
	}
	return NewManager(cacheDir), nil
}

// selects reports whether entries of kind k are removed. The record store goes only with All.
func (o CleanOptions) selects(k kind) bool {
	switch k {
	case kindStaging:
		return o.Staging
	case kindArchive:
		return o.Archives
	case kindToolchain:
		return o.Toolchains
	case kindRecords:
		return o.All
	}
	return false
}

// Clean removes cached entries according to the specified options.
func (cm *DefaultManager) Clean(options CleanOptions) (*CleanResult, error) {
	if !options.Staging && !options.Archives && !options.Toolchains && !options.All {
		options.Staging = true
		options.Archives = true
	}
	if options.All {
		options = CleanOptions{All: true, Staging: true, Archives: true, Toolchains: true}
	}

	entries, err := cm.scan()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCacheClean, err.Error())
	}

	result := &CleanResult{}
	for _, e := range entries {
		if !options.selects(e.kind) {
			continue
		}
		if err := fsutil.RemoveAllWithRetry(filepath.Join(cm.directory, e.name), cm.policy); err != nil {
			return result, errors.Wrap(errors.ErrCacheClean, err.Error(), errors.V("entry", e.name))
		}

		switch e.kind {
		case kindStaging:
			result.StagingFreed += e.size
		case kindArchive:
			result.ArchiveFreed += e.size
		case kindToolchain:
			result.ToolchainFreed += e.size
		}
		result.TotalFreed += e.size
		result.Removed = append(result.Removed, e.name)
	}
	return result, nil
}

// GetInfo returns information about the cache.
func (cm *DefaultManager) GetInfo() (*Info, error) {
	info := &Info{Directory: cm.directory}

	entries, err := cm.scan()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCacheInfo, err.Error())
	}
	for _, e := range entries {
		switch e.kind {
		case kindStaging:
			info.StagingSize += e.size
			info.StagingFiles += e.files
		case kindArchive:
			info.ArchiveSize += e.size
			info.ArchiveFiles++
		case kindToolchain:
			info.Toolchains = append(info.Toolchains, Toolchain{Name: e.name, Size: e.size, Files: e.files})
		}
		info.TotalSize += e.size
	}

	if free, err := fsutil.FreeSpace(cm.directory); err == nil {
		info.FreeSpace = free
	}
	return info, nil
}

// GetDirectory returns the cache directory path.
func (cm *DefaultManager) GetDirectory() string {
	return cm.directory
}

// SetDirectory sets the cache directory path.
func (cm *DefaultManager) SetDirectory(dir string) error {
	if dir == "" {
		return errors.ErrCacheDirectory
	}
	cm.directory = dir
	return nil
}

// scan classifies the top-level entries of the cache root. A missing root is empty.
func (cm *DefaultManager) scan() ([]entry, error) {
	dirEntries, err := os.ReadDir(cm.directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []entry
	for _, de := range dirEntries {
		e := entry{name: de.Name(), kind: classify(de)}
		if e.kind == kindOther {
			continue
		}

		path := filepath.Join(cm.directory, e.name)
		if de.IsDir() {
			e.size, e.files, err = fsutil.DirSize(path)
			if err != nil {
				return nil, errors.Wrapf(err, "error walking directory %s", path)
			}
		} else {
			fi, err := de.Info()
			if err != nil {
				return nil, err
			}
			e.size, e.files = fi.Size(), 1
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries, nil
}

func classify(de os.DirEntry) kind {
	name := de.Name()
	lower := strings.ToLower(name)
	switch {
	case de.IsDir() && strings.HasSuffix(name, archive.ExtractSuffix):
		return kindStaging
	case de.IsDir():
		for _, canonical := range toolchain.CanonicalNames() {
			if lower == canonical {
				return kindToolchain
			}
		}
	case strings.HasSuffix(name, download.StagingSuffix):
		return kindStaging
	case strings.HasSuffix(lower, toolchain.ArchiveExt):
		return kindArchive
	case name == database.FileName:
		return kindRecords
	}
	return kindOther
}
