package archive

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/glorpus-work/gccfetch/pkg/download"
	"github.com/glorpus-work/gccfetch/pkg/errors"
	"github.com/glorpus-work/gccfetch/pkg/fsutil"
	"github.com/glorpus-work/gccfetch/pkg/toolchain"
	"github.com/mholt/archives"
)

// DefaultReportEvery is the number of entries between two progress messages.
const DefaultReportEvery = 100

// ExtractSuffix ends the staging directories an archive is extracted into before it is moved into place.
const ExtractSuffix = ".extract"

// ProgressFunc receives human readable extraction status.
type ProgressFunc func(string)

// Extractor unpacks a toolchain archive.
type Extractor struct {
	// RootNames are searched under the destination, in order, once extraction completes.
	RootNames   []string
	ReportEvery int
}

// NewExtractor returns an Extractor preferring mingw64 over mingw32.
func NewExtractor() *Extractor {
	return &Extractor{
		RootNames:   toolchain.CanonicalNames(),
		ReportEvery: DefaultReportEvery,
	}
}

// Extract writes every entry of archivePath below destDir in stored order and returns the
// canonical toolchain directory found afterwards. cancelled is polled between entries; a
// cancelled extraction returns an error matching ErrCancelled and leaves written files in place.
// Any other failure matches ErrExtractionFailed.
func (e *Extractor) Extract(ctx context.Context, archivePath, destDir string, progress ProgressFunc, cancelled download.CancelFunc) (string, error) {
	if err := fsutil.EnsureDir(destDir); err != nil {
		return "", errors.Wrap(errors.Classify(err, errors.ErrExtractionFailed), "failed to create destination directory")
	}

	total, err := countEntries(ctx, archivePath)
	if err != nil {
		return "", e.fail(ctx, cancelled, err, archivePath)
	}

	every := e.ReportEvery
	if every <= 0 {
		every = DefaultReportEvery
	}

	done := 0
	err = walkZip(ctx, archivePath, func(ctx context.Context, info archives.FileInfo) error {
		if cancelled.Cancelled() {
			return errors.ErrCancelled
		}
		if err := writeEntry(destDir, entryName(info), info); err != nil {
			return err
		}
		done++
		if progress != nil && (done%every == 0 || done == total) {
			progress(fmt.Sprintf("Extracting: %d/%d entries", done, total))
		}
		return nil
	})
	if err != nil {
		return "", e.fail(ctx, cancelled, err, archivePath)
	}

	for _, name := range e.RootNames {
		dir := filepath.Join(destDir, name)
		if fsutil.IsDir(dir) {
			return dir, nil
		}
	}
	return "", errors.Wrap(errors.ErrExtractionFailed, "no toolchain directory after extraction",
		errors.V("dest", destDir))
}

func (e *Extractor) fail(ctx context.Context, cancelled download.CancelFunc, err error, archivePath string) error {
	if cancelled.Cancelled() || ctx.Err() != nil || errors.Is(err, errors.ErrCancelled) {
		return errors.Wrap(errors.ErrCancelled, "extraction stopped")
	}
	return errors.Wrap(errors.Classify(err, errors.ErrExtractionFailed), "extraction failed",
		errors.V("archive", archivePath))
}

func countEntries(ctx context.Context, archivePath string) (int, error) {
	n := 0
	err := walkZip(ctx, archivePath, func(context.Context, archives.FileInfo) error {
		n++
		return nil
	})
	return n, err
}
