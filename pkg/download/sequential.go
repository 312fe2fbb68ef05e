package download

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/glorpus-work/gccfetch/pkg/errors"
	"github.com/glorpus-work/gccfetch/pkg/fsutil"
)

// SequentialFetcher downloads an asset as one stream. It serves servers without range
// support, unknown sizes, and the fallback after a failed parallel fetch.
type SequentialFetcher struct {
	client       *Client
	dir          string
	cleanup      fsutil.RetryPolicy
	pollInterval time.Duration
}

// NewSequentialFetcher creates a fetcher writing its staging file into stagingDir.
func NewSequentialFetcher(client *Client, stagingDir string) *SequentialFetcher {
	return &SequentialFetcher{
		client:       client,
		dir:          stagingDir,
		cleanup:      fsutil.DefaultRetryPolicy(),
		pollInterval: DefaultPollInterval,
	}
}

// Fetch streams the asset to a staging file. On any failure or cancellation the partial
// file is removed before returning.
func (f *SequentialFetcher) Fetch(ctx context.Context, req Request) (StreamResult, error) {
	if err := fsutil.EnsureDir(f.dir); err != nil {
		return StreamResult{}, errors.Wrap(errors.Classify(err, errors.ErrFetchFailed), "failed to create staging directory")
	}

	path := StreamPath(f.dir, req.Name, newAttemptID())

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopWatch := watchCancel(streamCtx, cancel, req.Cancelled, f.pollInterval)

	n, err := f.stream(streamCtx, req, path)
	stopWatch()
	if err == nil {
		return StreamResult{Path: path, Bytes: n}, nil
	}

	cleanupErr := fsutil.RemoveWithRetry(path, f.cleanup)
	if cleanupErr != nil {
		cleanupErr = fmt.Errorf("%w: %w", errors.ErrCleanupFailed, cleanupErr)
	}
	if req.Cancelled.Cancelled() || ctx.Err() != nil {
		return StreamResult{}, errors.Join(errors.Wrap(errors.ErrCancelled, "download stopped"), cleanupErr)
	}
	return StreamResult{}, errors.Join(errors.Wrap(errors.Classify(err, errors.ErrFetchFailed), "download failed",
		errors.V("url", req.URL)), cleanupErr)
}

func (f *SequentialFetcher) stream(ctx context.Context, req Request, path string) (int64, error) {
	file, err := fsutil.CreateFilePerm(path, fsutil.FileModeDefault)
	if err != nil {
		return 0, fmt.Errorf("failed to create staging file: %w", err)
	}
	defer file.Close()

	resp, err := f.client.Do(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if resp.ContentLength > 0 {
		if _, total := req.Progress.Snapshot(); total <= 0 {
			req.Progress.SetTotal(resp.ContentLength)
		}
	}

	n, err := f.client.copyBody(ctx, file, resp.Body, req.Progress, req.Cancelled)
	if err != nil {
		return n, err
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return n, fmt.Errorf("short read: got %d of %d bytes", n, resp.ContentLength)
	}
	if err := file.Close(); err != nil {
		return n, fmt.Errorf("failed to close staging file: %w", err)
	}
	return n, nil
}
