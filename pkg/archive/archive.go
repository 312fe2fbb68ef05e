// Package archive verifies and unpacks toolchain zip archives.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/gccfetch/pkg/fsutil"
	"github.com/mholt/archives"
)

// walkZip opens the zip at path and calls handle for every entry in stored order.
func walkZip(ctx context.Context, path string, handle archives.FileHandler) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open archive file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return archives.Zip{}.Extract(ctx, file, handle)
}

// entryName returns the slash separated entry path without leading "./" or "/".
func entryName(info archives.FileInfo) string {
	name := strings.ReplaceAll(info.NameInArchive, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	return strings.TrimLeft(name, "/")
}

// rootOf returns the first path element of an entry if it is one of roots.
func rootOf(name string, roots []string) (string, bool) {
	first, _, _ := strings.Cut(name, "/")
	for _, root := range roots {
		if strings.EqualFold(first, root) {
			return root, true
		}
	}
	return "", false
}

// targetPath joins name under destDir and rejects entries escaping it.
func targetPath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if !within(destDir, target) {
		return "", fmt.Errorf("entry %q escapes the destination directory", name)
	}
	return target, nil
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// resolvedPath resolves symlinks in the longest existing prefix of path and appends the rest.
func resolvedPath(path string) (string, error) {
	existing, rest := path, ""
	for {
		resolved, err := filepath.EvalSymlinks(existing)
		if err == nil {
			return filepath.Join(resolved, rest), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return path, nil
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = parent
	}
}

// writeEntry processes a single archive entry and writes it below destDir.
func writeEntry(destDir, name string, info archives.FileInfo) error {
	if name == "" {
		return nil
	}
	target, err := targetPath(destDir, name)
	if err != nil {
		return err
	}

	root, err := filepath.EvalSymlinks(destDir)
	if err != nil {
		return fmt.Errorf("failed to resolve destination directory: %w", err)
	}
	parent, err := resolvedPath(filepath.Dir(target))
	if err != nil {
		return fmt.Errorf("failed to resolve parent of %s: %w", name, err)
	}
	if !within(root, parent) {
		return fmt.Errorf("entry %q passes through a symlink leaving the destination directory", name)
	}

	if info.IsDir() {
		return fsutil.EnsureDir(target)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return writeSymlink(info, root, parent, target)
	}
	return writeRegularFile(info, target)
}

// writeSymlink creates a symlink at target. Zip stores the link target as the entry content.
// Links must point to a relative location inside root, resolved from parent.
func writeSymlink(info archives.FileInfo, root, parent, target string) error {
	linkTarget := info.LinkTarget
	if linkTarget == "" {
		src, err := info.Open()
		if err != nil {
			return fmt.Errorf("failed to read symlink %s: %w", info.NameInArchive, err)
		}
		defer func() { _ = src.Close() }()

		b, err := io.ReadAll(src)
		if err != nil {
			return fmt.Errorf("failed to read symlink target %s: %w", info.NameInArchive, err)
		}
		linkTarget = string(b)
	}

	if linkTarget == "" || filepath.IsAbs(linkTarget) || filepath.VolumeName(linkTarget) != "" ||
		strings.HasPrefix(linkTarget, "/") || strings.HasPrefix(linkTarget, "\\") {
		return fmt.Errorf("symlink %s has an empty or absolute target %q", info.NameInArchive, linkTarget)
	}
	pointsTo, err := resolvedPath(filepath.Join(parent, filepath.FromSlash(linkTarget)))
	if err != nil {
		return fmt.Errorf("failed to resolve symlink target %s: %w", info.NameInArchive, err)
	}
	if !within(root, pointsTo) {
		return fmt.Errorf("symlink %s points outside the destination directory: %q", info.NameInArchive, linkTarget)
	}

	if err := fsutil.EnsureFileDir(target); err != nil {
		return fmt.Errorf("failed to create parent directory for symlink %s: %w", info.NameInArchive, err)
	}
	_ = os.Remove(target)
	return os.Symlink(linkTarget, target)
}

// writeRegularFile copies the entry to target and preserves its permissions and modification time.
func writeRegularFile(info archives.FileInfo, target string) error {
	src, err := info.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", info.NameInArchive, err)
	}
	defer func() { _ = src.Close() }()

	if err := fsutil.EnsureFileDir(target); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", info.NameInArchive, err)
	}

	perm := info.Mode().Perm() | 0o200
	dst, err := fsutil.CreateFilePerm(target, perm)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", target, err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy file %s: %w", info.NameInArchive, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", target, err)
	}

	if err := os.Chmod(target, perm); err != nil {
		return fmt.Errorf("failed to set permissions for %s: %w", target, err)
	}
	if mtime := info.ModTime(); !mtime.IsZero() {
		if err := os.Chtimes(target, mtime, mtime); err != nil {
			return fmt.Errorf("failed to set modification time for %s: %w", target, err)
		}
	}
	return nil
}
