package testutil

import (
	"archive/zip"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/glorpus-work/gccfetch/pkg/toolchain"
)

// ToolchainFiles lists the files of a complete toolchain for v, relative to the archive root.
func ToolchainFiles(v toolchain.Variant) []string {
	files := make([]string, 0, len(toolchain.RequiredExecutables)+2)
	for _, f := range toolchain.RequiredExecutables {
		files = append(files, v.Name+"/"+f)
	}
	for _, f := range v.OptionalExecutables() {
		files = append(files, v.Name+"/"+f)
	}
	return files
}

// WriteTree creates files below root. Each file holds its own name, except names listed in
// extra, which get the given content.
func WriteTree(t *testing.T, root string, files []string, extra map[string][]byte) {
	t.Helper()
	for _, f := range files {
		content := []byte(f)
		if c, ok := extra[f]; ok {
			content = c
		}
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", f, err)
		}
		if err := os.WriteFile(path, content, 0o755); err != nil {
			t.Fatalf("Failed to create file %s: %v", f, err)
		}
	}
}

// BuildZip writes a stored (uncompressed) zip at archivePath holding files in the given order.
// Each file holds its own name unless extra provides content for it. Parent directory entries
// are added before the first file below them.
func BuildZip(t *testing.T, archivePath string, files []string, extra map[string][]byte) string {
	t.Helper()

	out, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("Failed to create archive %s: %v", archivePath, err)
	}
	defer func() { _ = out.Close() }()

	zw := zip.NewWriter(out)
	seen := map[string]bool{}
	for _, f := range files {
		for _, dir := range parents(f) {
			if seen[dir] {
				continue
			}
			seen[dir] = true
			hdr := &zip.FileHeader{Name: dir, Method: zip.Store}
			hdr.SetMode(os.ModeDir | 0o755)
			if _, err := zw.CreateHeader(hdr); err != nil {
				t.Fatalf("Failed to add directory %s: %v", dir, err)
			}
		}

		content := []byte(f)
		if c, ok := extra[f]; ok {
			content = c
		}
		hdr := &zip.FileHeader{Name: f, Method: zip.Store}
		hdr.SetMode(0o755)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("Failed to add %s: %v", f, err)
		}
		if _, err := w.Write(content); err != nil {
			t.Fatalf("Failed to write %s: %v", f, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to finish archive: %v", err)
	}
	return archivePath
}

// parents returns "a/", "a/b/" for "a/b/c".
func parents(name string) []string {
	var dirs []string
	for i := 0; i < len(name); i++ {
		if name[i] == '/' && i > 0 {
			dirs = append(dirs, name[:i+1])
		}
	}
	return dirs
}

// BuildToolchainZip writes a complete toolchain archive for v. padding adds a file of random
// bytes so the archive can be made arbitrarily large.
func BuildToolchainZip(t *testing.T, archivePath string, v toolchain.Variant, padding int) string {
	t.Helper()
	files := ToolchainFiles(v)
	extra := map[string][]byte{}
	if padding > 0 {
		filler := v.Name + "/lib/filler.bin"
		files = append(files, filler)
		data := make([]byte, padding)
		rand.New(rand.NewSource(int64(padding))).Read(data)
		extra[filler] = data
	}
	return BuildZip(t, archivePath, files, extra)
}

// ToolchainZipBytes builds a toolchain archive in a temporary directory and returns its content.
func ToolchainZipBytes(t *testing.T, v toolchain.Variant, padding int) []byte {
	t.Helper()
	path := BuildToolchainZip(t, filepath.Join(t.TempDir(), "toolchain.zip"), v, padding)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read archive: %v", err)
	}
	return data
}
