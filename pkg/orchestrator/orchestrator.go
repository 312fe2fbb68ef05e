package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/glorpus-work/gccfetch/pkg/archive"
	"github.com/glorpus-work/gccfetch/pkg/database"
	"github.com/glorpus-work/gccfetch/pkg/download"
	"github.com/glorpus-work/gccfetch/pkg/errors"
	"github.com/glorpus-work/gccfetch/pkg/fsutil"
	"github.com/glorpus-work/gccfetch/pkg/manifest"
	"github.com/glorpus-work/gccfetch/pkg/toolchain"
	"github.com/google/uuid"
)

// Orchestrator drives one toolchain acquisition through its states.
type Orchestrator struct {
	Resolver   AssetResolver
	Prober     RangeProber
	Parallel   ChunkFetcher
	Sequential StreamFetcher
	Merger     ChunkMerger
	Verifier   ArchiveVerifier
	Extractor  ArchiveExtractor
	Validator  ToolchainValidator
	// Records is optional.
	Records RecordStore
	// FreeSpace reports the free bytes of the volume holding a path. Defaults to fsutil.FreeSpace.
	FreeSpace func(path string) (uint64, error)
	Hooks     Hooks
	Options   Options

	cleanup fsutil.RetryPolicy
}

// Components configures the real collaborators built by New.
type Components struct {
	Client          *download.Client
	Resolver        AssetResolver
	MinArchiveSize  int64
	VerifyChecksums bool
}

// New wires the production components around opts.
func New(opts Options, c Components) *Orchestrator {
	verifier := archive.NewVerifier(c.MinArchiveSize)
	verifier.CheckIntegrity = c.VerifyChecksums

	return &Orchestrator{
		Resolver:   c.Resolver,
		Prober:     download.NewProber(c.Client),
		Parallel:   download.NewParallelFetcher(c.Client, opts.CacheDir),
		Sequential: download.NewSequentialFetcher(c.Client, opts.CacheDir),
		Merger:     download.NewMerger(),
		Verifier:   verifier,
		Extractor:  archive.NewExtractor(),
		Validator:  toolchain.NewValidator(),
		FreeSpace:  fsutil.FreeSpace,
		Options:    opts,
	}
}

// attempt tracks what one attempt left on disk.
type attempt struct {
	n           int
	asset       manifest.Asset
	archivePath string
	extractDir  string
	size        int64
}

// Acquire returns an installed toolchain, downloading it when no valid installation exists.
//
// On success the result has StateDone and the installed path. A cancelled acquisition returns
// StateCancelled and an error matching ErrCancelled. When every attempt failed the error matches
// ErrExhaustedRetries and wraps the last attempt's error.
func (o *Orchestrator) Acquire(ctx context.Context) (Result, error) {
	opts := o.options()
	variant := toolchain.ForArch(opts.Arch)
	cancelled := o.cancelPredicate(ctx)

	o.enter(StateCheckCache, 0, "looking for an installed toolchain")
	if dir, ok := o.locate(opts); ok {
		o.logf("using installed toolchain at %s", dir)
		o.enter(StateDone, 0, dir)
		return Result{State: StateDone, Path: dir, Variant: filepath.Base(dir), FromCache: true}, nil
	}
	if cancelled() {
		return o.cancelledResult(0)
	}

	if err := fsutil.EnsureDir(opts.CacheDir); err != nil {
		return o.errorResult(0, errors.Wrap(err, "failed to create cache directory", errors.V("dir", opts.CacheDir)))
	}

	var lastErr error
	for n := 1; n <= opts.MaxAttempts; n++ {
		if n > 1 {
			o.logf("retrying download, attempt %d of %d", n, opts.MaxAttempts)
		}

		a := &attempt{n: n}
		path, err := o.run(ctx, opts, variant, a, cancelled)
		if err == nil {
			o.record(a, path)
			o.enter(StateDone, n, path)
			return Result{State: StateDone, Path: path, Variant: filepath.Base(path), Attempts: n}, nil
		}

		if cancelled() || errors.Is(err, errors.ErrCancelled) {
			o.discard(a, false)
			return o.cancelledResult(n)
		}
		o.discard(a, true)
		if errors.Is(err, errors.ErrInsufficientSpace) {
			return o.errorResult(n, err)
		}

		lastErr = err
		o.logf("attempt %d of %d failed: %v", n, opts.MaxAttempts, err)
		if n < opts.MaxAttempts {
			if err := o.wait(ctx, Backoff(n, opts.BackoffBase, opts.BackoffMax), cancelled); err != nil {
				return o.cancelledResult(n)
			}
		}
	}

	return o.errorResult(opts.MaxAttempts,
		fmt.Errorf("%w (%d attempts): %w", errors.ErrExhaustedRetries, opts.MaxAttempts, lastErr))
}

// run executes one attempt from Resolve to Validate.
func (o *Orchestrator) run(ctx context.Context, opts Options, variant toolchain.Variant, a *attempt, cancelled download.CancelFunc) (string, error) {
	o.removeStaging(opts)

	o.enter(StateResolve, a.n, variant.Name)
	a.asset = o.Resolver.Resolve(ctx, variant)
	if !manifest.SafeName(a.asset.Name) {
		o.logf("asset name %q would leave the cache directory, using fallback %s", a.asset.Name, variant.FallbackName())
		a.asset = manifest.FallbackAsset(variant)
	}
	a.archivePath = filepath.Join(opts.CacheDir, a.asset.Name)
	if cancelled() {
		return "", errors.ErrCancelled
	}

	reused := false
	if fsutil.Exists(a.archivePath) {
		o.enter(StateReuseArchive, a.n, a.archivePath)
		if res := o.Verifier.Verify(ctx, a.archivePath); res.IsValid() {
			o.logf("reusing downloaded archive %s", a.asset.Name)
			a.size = res.Size
			reused = true
		} else {
			o.logf("discarding leftover archive %s: %s", a.asset.Name, res.Reason)
			if err := fsutil.RemoveWithRetry(a.archivePath, o.cleanup); err != nil {
				return "", errors.Wrap(errors.ErrVerificationFailed, err.Error())
			}
		}
	}

	if !reused {
		if err := o.fetch(ctx, opts, a, cancelled); err != nil {
			return "", err
		}
		if cancelled() {
			return "", errors.ErrCancelled
		}

		o.enter(StateVerify, a.n, a.archivePath)
		res := o.Verifier.Verify(ctx, a.archivePath)
		if !res.IsValid() {
			return "", res.Err()
		}
		a.size = res.Size
		o.logf("archive verified: %d entries, %s", res.EntryCount, datasize.ByteSize(res.Size).HR())
	}
	if cancelled() {
		return "", errors.ErrCancelled
	}

	o.enter(StateExtract, a.n, a.archivePath)
	a.extractDir = filepath.Join(opts.CacheDir, fmt.Sprintf("%s.%s%s", variant.Name, uuid.NewString(), archive.ExtractSuffix))
	extracted, err := o.Extractor.Extract(ctx, a.archivePath, a.extractDir, o.Hooks.Progress, cancelled)
	if err != nil {
		return "", err
	}
	if cancelled() {
		return "", errors.ErrCancelled
	}

	o.enter(StateValidate, a.n, extracted)
	if res := o.Validator.Validate(extracted); !res.Valid {
		return "", errors.Wrap(errors.ErrValidationFailed, res.Reason, errors.V("dir", extracted))
	}

	final, err := o.install(opts.CacheDir, extracted)
	if err != nil {
		return "", err
	}
	if err := fsutil.RemoveAllWithRetry(a.extractDir, o.cleanup); err != nil {
		o.logf("warning: %v", err)
	}
	a.extractDir = ""

	if !opts.KeepArchive {
		if err := fsutil.RemoveWithRetry(a.archivePath, o.cleanup); err != nil {
			o.logf("warning: %v", err)
		}
	}
	return final, nil
}

// fetch downloads the asset to a.archivePath, in parallel when the server allows it and
// as a single stream otherwise or after a failed parallel download.
func (o *Orchestrator) fetch(ctx context.Context, opts Options, a *attempt, cancelled download.CancelFunc) error {
	o.enter(StateProbe, a.n, a.asset.URL)
	probe, err := o.Prober.Probe(ctx, a.asset.URL)
	if err != nil {
		o.logf("range probe failed, downloading as a single stream: %v", err)
		probe = download.ProbeResult{}
	}
	if cancelled() {
		return errors.ErrCancelled
	}

	if err := o.checkSpace(opts, max(probe.TotalSize, a.asset.Size)); err != nil {
		return err
	}

	progress := download.NewProgress(probe.TotalSize)
	stop := download.ReportProgress(ctx, progress, o.Hooks.Progress, opts.ProgressInterval)
	defer stop()

	req := download.Request{URL: a.asset.URL, Name: a.asset.Name, Progress: progress, Cancelled: cancelled}

	if probe.SupportsRanges && probe.TotalSize > 0 {
		plan := download.NewPlan(probe.TotalSize, opts.Workers)
		o.enter(StateParallelPlan, a.n, fmt.Sprintf("%d chunks of %s", plan.ChunkCount(),
			datasize.ByteSize(plan.Ranges[0].Len()).HR()))

		o.enter(StateFetch, a.n, a.asset.URL)
		chunks, err := o.Parallel.Fetch(ctx, req, plan)
		if err == nil {
			o.enter(StateMerge, a.n, a.archivePath)
			return o.merge(chunks, a.archivePath)
		}
		if cancelled() || errors.Is(err, errors.ErrCancelled) {
			return err
		}
		o.logf("parallel download failed, falling back to a single stream: %v", err)
		progress.Restart(probe.TotalSize)
	}

	o.enter(StateSequentialPlan, a.n, a.asset.URL)
	o.enter(StateFetch, a.n, a.asset.URL)
	res, err := o.Sequential.Fetch(ctx, req)
	if err != nil {
		return err
	}
	if err := fsutil.Move(res.Path, a.archivePath); err != nil {
		_ = fsutil.RemoveWithRetry(res.Path, o.cleanup)
		return errors.Wrap(errors.Classify(err, errors.ErrMergeFailed), "failed to move download into place")
	}
	return nil
}

// merge treats a failed chunk removal after a complete merge as a warning.
func (o *Orchestrator) merge(chunks []download.ChunkResult, dest string) error {
	err := o.Merger.Merge(chunks, dest)
	if err != nil && errors.Is(err, errors.ErrCleanupFailed) && !errors.Is(err, errors.ErrMergeFailed) {
		o.logf("warning: %v", err)
		return nil
	}
	return err
}

func (o *Orchestrator) checkSpace(opts Options, size int64) error {
	if !opts.CheckDiskSpace || size <= 0 || o.FreeSpace == nil {
		return nil
	}
	free, err := o.FreeSpace(opts.CacheDir)
	if err != nil {
		o.logf("warning: cannot determine free disk space: %v", err)
		return nil
	}
	need := uint64(size) * SpaceFactor
	if free < need {
		return errors.Wrap(errors.ErrInsufficientSpace, fmt.Sprintf("%s free, %s needed",
			datasize.ByteSize(free).HR(), datasize.ByteSize(need).HR()), errors.V("dir", opts.CacheDir))
	}
	return nil
}

// install moves a validated toolchain from its extraction directory into the cache root,
// replacing whatever invalid directory of the same name was there.
func (o *Orchestrator) install(cacheDir, extracted string) (string, error) {
	final := filepath.Join(cacheDir, filepath.Base(extracted))
	if err := fsutil.RemoveAllWithRetry(final, o.cleanup); err != nil {
		return "", errors.Wrap(errors.Classify(err, errors.ErrExtractionFailed), "failed to remove previous installation")
	}
	if err := os.Rename(extracted, final); err != nil {
		return "", errors.Wrap(errors.Classify(err, errors.ErrExtractionFailed), "failed to move toolchain into place")
	}
	return final, nil
}

// discard removes what a failed attempt left behind. A cancelled attempt keeps a complete
// archive so the next run can reuse it.
func (o *Orchestrator) discard(a *attempt, archiveToo bool) {
	if a.extractDir != "" {
		if err := fsutil.RemoveAllWithRetry(a.extractDir, o.cleanup); err != nil {
			o.logf("warning: %v", err)
		}
	}
	if archiveToo && a.archivePath != "" {
		if err := fsutil.RemoveWithRetry(a.archivePath, o.cleanup); err != nil {
			o.logf("warning: %v", err)
		}
	}
	o.removeStaging(o.options())
}

// removeStaging deletes staging files and extraction directories left by crashed runs.
func (o *Orchestrator) removeStaging(opts Options) {
	cutoff := time.Now().Add(-opts.StagingMaxAge)
	for _, pattern := range []string{download.StagingGlob(opts.CacheDir), filepath.Join(opts.CacheDir, "*"+archive.ExtractSuffix)} {
		removed, err := fsutil.RemoveGlobOlder(pattern, cutoff, o.cleanup)
		if len(removed) > 0 {
			o.logf("removed %d leftover staging entries", len(removed))
		}
		if err != nil {
			o.logf("warning: %v", err)
		}
	}
}

func (o *Orchestrator) locate(opts Options) (string, bool) {
	for _, v := range toolchain.SearchOrder(opts.Arch) {
		dir := filepath.Join(opts.CacheDir, v.Name)
		if o.Validator.Validate(dir).Valid {
			return dir, true
		}
	}
	return "", false
}

func (o *Orchestrator) record(a *attempt, path string) {
	if o.Records == nil {
		return
	}
	err := o.Records.Put(database.Record{
		Variant:     filepath.Base(path),
		Path:        path,
		AssetName:   a.asset.Name,
		URL:         a.asset.URL,
		Size:        a.size,
		Attempts:    a.n,
		InstalledAt: time.Now().UTC(),
	})
	if err != nil {
		o.logf("warning: %v", err)
	}
}

// cancelPredicate folds ctx and the caller's ShouldCancel into one latched predicate.
func (o *Orchestrator) cancelPredicate(ctx context.Context) download.CancelFunc {
	var flag download.Flag
	return func() bool {
		if flag.Cancelled() {
			return true
		}
		if ctx.Err() != nil || (o.Hooks.ShouldCancel != nil && o.Hooks.ShouldCancel()) {
			flag.Cancel()
			return true
		}
		return false
	}
}

// wait sleeps for d unless the acquisition is cancelled first.
func (o *Orchestrator) wait(ctx context.Context, d time.Duration, cancelled download.CancelFunc) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	ticker := time.NewTicker(download.DefaultPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return errors.ErrCancelled
		case <-ticker.C:
			if cancelled() {
				return errors.ErrCancelled
			}
		}
	}
}

// Backoff is the delay after failed attempt n (1-based): base doubled per attempt, capped at limit.
func Backoff(n int, base, limit time.Duration) time.Duration {
	if base <= 0 || n < 1 {
		return 0
	}
	d := base
	for i := 1; i < n; i++ {
		d *= 2
		if limit > 0 && d >= limit {
			return limit
		}
	}
	if limit > 0 && d > limit {
		return limit
	}
	return d
}

func (o *Orchestrator) cancelledResult(n int) (Result, error) {
	o.logf("acquisition cancelled")
	o.enter(StateCancelled, n, "cancelled by user")
	return Result{State: StateCancelled, Attempts: n, Reason: "cancelled by user"},
		errors.Wrap(errors.ErrCancelled, "toolchain acquisition")
}

func (o *Orchestrator) errorResult(n int, err error) (Result, error) {
	o.enter(StateError, n, err.Error())
	return Result{State: StateError, Attempts: n, Reason: err.Error()}, err
}

func (o *Orchestrator) options() Options {
	opts := o.Options
	if opts.Workers < 1 {
		opts.Workers = download.DefaultWorkers
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Arch == "" {
		opts.Arch = "amd64"
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = download.DefaultProgressInterval
	}
	if opts.StagingMaxAge <= 0 {
		opts.StagingMaxAge = DefaultStagingMaxAge
	}
	if o.cleanup.Attempts == 0 {
		o.cleanup = fsutil.DefaultRetryPolicy()
	}
	return opts
}

func (o *Orchestrator) enter(s State, n int, msg string) {
	emit(o.Hooks, Event{State: s, Attempt: n, Msg: msg})
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.Hooks.Log != nil {
		o.Hooks.Log(fmt.Sprintf(format, args...))
	}
}
