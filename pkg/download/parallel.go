package download

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/glorpus-work/gccfetch/pkg/errors"
	"github.com/glorpus-work/gccfetch/pkg/fsutil"
	"golang.org/x/sync/errgroup"
)

// DefaultPollInterval is how often a running fetch checks the cancellation predicate
// while its workers may be blocked on the network.
const DefaultPollInterval = 50 * time.Millisecond

// ParallelFetcher downloads every range of a plan concurrently, one worker per range.
type ParallelFetcher struct {
	client       *Client
	dir          string
	cleanup      fsutil.RetryPolicy
	pollInterval time.Duration
}

// NewParallelFetcher creates a fetcher writing staging files into stagingDir.
func NewParallelFetcher(client *Client, stagingDir string) *ParallelFetcher {
	return &ParallelFetcher{
		client:       client,
		dir:          stagingDir,
		cleanup:      fsutil.DefaultRetryPolicy(),
		pollInterval: DefaultPollInterval,
	}
}

// Fetch downloads all ranges. It is all-or-nothing: if any worker fails, or the caller cancels,
// every staging file of this attempt is removed before returning. Cancellation yields an error
// matching ErrCancelled; everything else matches ErrFetchFailed.
func (f *ParallelFetcher) Fetch(ctx context.Context, req Request, plan Plan) ([]ChunkResult, error) {
	if plan.ChunkCount() == 0 {
		return nil, errors.Wrap(errors.ErrFetchFailed, "empty download plan")
	}
	if err := fsutil.EnsureDir(f.dir); err != nil {
		return nil, errors.Wrap(errors.Classify(err, errors.ErrFetchFailed), "failed to create staging directory")
	}

	attempt := newAttemptID()
	paths := make([]string, plan.ChunkCount())
	for i, r := range plan.Ranges {
		paths[i] = ChunkPath(f.dir, req.Name, attempt, r.Index)
	}
	results := make([]ChunkResult, plan.ChunkCount())

	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopWatch := watchCancel(groupCtx, cancel, req.Cancelled, f.pollInterval)

	g, gctx := errgroup.WithContext(groupCtx)
	for i, r := range plan.Ranges {
		g.Go(func() error {
			res, err := f.fetchChunk(gctx, req, r, paths[i])
			results[i] = res
			return err
		})
	}
	err := g.Wait()
	stopWatch()

	if err == nil {
		return results, nil
	}

	cleanupErr := removeStaging(paths, f.cleanup)
	if req.Cancelled.Cancelled() || ctx.Err() != nil {
		return nil, errors.Join(errors.Wrap(errors.ErrCancelled, "parallel download stopped"), cleanupErr)
	}
	return nil, errors.Join(errors.Wrap(errors.Classify(err, errors.ErrFetchFailed), "parallel download failed",
		errors.V("url", req.URL), errors.V("chunks", plan.ChunkCount())), cleanupErr)
}

func (f *ParallelFetcher) fetchChunk(ctx context.Context, req Request, r Range, path string) (ChunkResult, error) {
	result := ChunkResult{Index: r.Index, Path: path}

	file, err := fsutil.CreateFilePerm(path, fsutil.FileModeDefault)
	if err != nil {
		return result, fmt.Errorf("chunk %d: failed to create staging file: %w", r.Index, err)
	}
	defer file.Close()

	resp, err := f.client.Do(ctx, http.MethodGet, req.URL, &r)
	if err != nil {
		return result, fmt.Errorf("chunk %d: %w", r.Index, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		return result, fmt.Errorf("chunk %d: unexpected status code: %d", r.Index, resp.StatusCode)
	}
	if resp.ContentLength >= 0 && resp.ContentLength != r.Len() {
		return result, fmt.Errorf("chunk %d: server sent %d bytes for a %d byte range", r.Index, resp.ContentLength, r.Len())
	}

	n, err := f.client.copyBody(ctx, file, resp.Body, req.Progress, req.Cancelled)
	result.Bytes = n
	if err != nil {
		return result, fmt.Errorf("chunk %d: %w", r.Index, err)
	}
	if n != r.Len() {
		return result, fmt.Errorf("chunk %d: short read: got %d of %d bytes", r.Index, n, r.Len())
	}
	if err := file.Close(); err != nil {
		return result, fmt.Errorf("chunk %d: failed to close staging file: %w", r.Index, err)
	}

	result.Success = true
	return result, nil
}

// watchCancel cancels ctx as soon as cancelled reports true, so workers blocked in a read
// are released. The returned stop function waits for the watcher to exit.
func watchCancel(ctx context.Context, cancel context.CancelFunc, cancelled CancelFunc, every time.Duration) (stop func()) {
	if cancelled == nil {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if cancelled() {
					cancel()
					return
				}
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

func removeStaging(paths []string, policy fsutil.RetryPolicy) error {
	var errs []error
	for _, p := range paths {
		if err := fsutil.RemoveWithRetry(p, policy); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", errors.ErrCleanupFailed, errors.Join(errs...))
}
