package download

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/glorpus-work/gccfetch/pkg/errors"
	"github.com/glorpus-work/gccfetch/pkg/fsutil"
)

// DefaultMergeBufferSize is the write buffer used while concatenating chunks.
const DefaultMergeBufferSize = 4 * 1024 * 1024

// Merger concatenates chunk files into the final artifact.
type Merger struct {
	BufferSize int
	Cleanup    fsutil.RetryPolicy
}

// NewMerger returns a Merger with default buffering.
func NewMerger() *Merger {
	return &Merger{BufferSize: DefaultMergeBufferSize, Cleanup: fsutil.DefaultRetryPolicy()}
}

// Merge appends every chunk to destPath in index order and then removes the chunk files.
// results must be complete, ordered by index and all successful. A failed merge never leaves
// a partial file at destPath; its error matches ErrMergeFailed. If the merge succeeded but
// some chunk could not be removed, the error matches only ErrCleanupFailed.
func (m *Merger) Merge(results []ChunkResult, destPath string) error {
	if err := checkResults(results); err != nil {
		return errors.Wrap(errors.ErrMergeFailed, err.Error())
	}

	if err := m.concat(results, destPath); err != nil {
		_ = fsutil.RemoveWithRetry(destPath, m.Cleanup)
		return errors.Wrap(errors.Classify(err, errors.ErrMergeFailed), "merge failed", errors.V("dest", destPath))
	}

	var errs []error
	for _, r := range results {
		if err := fsutil.RemoveWithRetry(r.Path, m.Cleanup); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", errors.ErrCleanupFailed, errors.Join(errs...))
	}
	return nil
}

func checkResults(results []ChunkResult) error {
	if len(results) == 0 {
		return fmt.Errorf("no chunks to merge")
	}
	for i, r := range results {
		if r.Index != i {
			return fmt.Errorf("chunk at position %d has index %d", i, r.Index)
		}
		if !r.Success {
			return fmt.Errorf("chunk %d did not complete", r.Index)
		}
	}
	return nil
}

func (m *Merger) concat(results []ChunkResult, destPath string) error {
	if err := fsutil.EnsureFileDir(destPath); err != nil {
		return err
	}
	dest, err := fsutil.CreateFilePerm(destPath, fsutil.FileModeDefault)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer dest.Close()

	size := m.BufferSize
	if size <= 0 {
		size = DefaultMergeBufferSize
	}
	w := bufio.NewWriterSize(dest, size)

	for _, r := range results {
		if err := appendChunk(w, r); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", destPath, err)
	}
	return dest.Close()
}

func appendChunk(w io.Writer, r ChunkResult) error {
	src, err := os.Open(r.Path)
	if err != nil {
		return fmt.Errorf("chunk %d: %w", r.Index, err)
	}
	defer src.Close()

	n, err := io.Copy(w, src)
	if err != nil {
		return fmt.Errorf("chunk %d: %w", r.Index, err)
	}
	if n != r.Bytes {
		return fmt.Errorf("chunk %d: staging file holds %d bytes, expected %d", r.Index, n, r.Bytes)
	}
	return nil
}
