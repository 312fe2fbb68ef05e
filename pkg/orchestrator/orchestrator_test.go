package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glorpus-work/gccfetch/pkg/archive"
	"github.com/glorpus-work/gccfetch/pkg/database"
	"github.com/glorpus-work/gccfetch/pkg/download"
	"github.com/glorpus-work/gccfetch/pkg/errors"
	"github.com/glorpus-work/gccfetch/pkg/manifest"
	"github.com/glorpus-work/gccfetch/pkg/orchestrator/mocks"
	"github.com/glorpus-work/gccfetch/pkg/toolchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testAsset = manifest.Asset{URL: "https://example.com/tc.zip", Name: "tc.zip", Size: 1000}

type fixture struct {
	resolver   *mocks.MockAssetResolver
	prober     *mocks.MockRangeProber
	parallel   *mocks.MockChunkFetcher
	sequential *mocks.MockStreamFetcher
	merger     *mocks.MockChunkMerger
	verifier   *mocks.MockArchiveVerifier
	extractor  *mocks.MockArchiveExtractor
	validator  *mocks.MockToolchainValidator
	records    *mocks.MockRecordStore

	orch   *Orchestrator
	cache  string
	events []Event
	logs   []string
	cancel atomic.Bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		resolver:   mocks.NewMockAssetResolver(ctrl),
		prober:     mocks.NewMockRangeProber(ctrl),
		parallel:   mocks.NewMockChunkFetcher(ctrl),
		sequential: mocks.NewMockStreamFetcher(ctrl),
		merger:     mocks.NewMockChunkMerger(ctrl),
		verifier:   mocks.NewMockArchiveVerifier(ctrl),
		extractor:  mocks.NewMockArchiveExtractor(ctrl),
		validator:  mocks.NewMockToolchainValidator(ctrl),
		records:    mocks.NewMockRecordStore(ctrl),
		cache:      t.TempDir(),
	}
	f.orch = &Orchestrator{
		Resolver:   f.resolver,
		Prober:     f.prober,
		Parallel:   f.parallel,
		Sequential: f.sequential,
		Merger:     f.merger,
		Verifier:   f.verifier,
		Extractor:  f.extractor,
		Validator:  f.validator,
		Records:    f.records,
		FreeSpace:  func(string) (uint64, error) { return 1 << 40, nil },
		Hooks: Hooks{
			OnEvent:      func(e Event) { f.events = append(f.events, e) },
			Log:          func(s string) { f.logs = append(f.logs, s) },
			ShouldCancel: f.cancel.Load,
		},
		Options: Options{
			CacheDir:       f.cache,
			Arch:           "amd64",
			Workers:        4,
			MaxAttempts:    3,
			BackoffBase:    time.Millisecond,
			BackoffMax:     2 * time.Millisecond,
			KeepArchive:    true,
			CheckDiskSpace: true,
		},
	}
	return f
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.cache, name)
}

// expectNoInstall makes the cache check miss for both variants.
func (f *fixture) expectNoInstall() {
	missing := toolchain.Result{Reason: "directory does not exist"}
	f.validator.EXPECT().Validate(f.path(toolchain.NameMingw64)).Return(missing)
	f.validator.EXPECT().Validate(f.path(toolchain.NameMingw32)).Return(missing)
}

func (f *fixture) expectRangedProbe() {
	f.prober.EXPECT().Probe(gomock.Any(), testAsset.URL).
		Return(download.ProbeResult{SupportsRanges: true, TotalSize: testAsset.Size}, nil)
}

func (f *fixture) expectInstall() {
	f.verifier.EXPECT().Verify(gomock.Any(), f.path(testAsset.Name)).
		Return(archive.VerificationResult{Verdict: archive.Valid, EntryCount: 10, RootDir: "mingw64", Size: testAsset.Size})
	f.extractor.EXPECT().Extract(gomock.Any(), f.path(testAsset.Name), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(fakeExtract)
	f.validator.EXPECT().Validate(extractedDir{}).Return(toolchain.Result{Valid: true})
}

func (f *fixture) states() []State {
	states := make([]State, 0, len(f.events))
	for _, e := range f.events {
		states = append(states, e.State)
	}
	return states
}

func (f *fixture) count(s State) int {
	n := 0
	for _, e := range f.events {
		if e.State == s {
			n++
		}
	}
	return n
}

func fakeExtract(_ context.Context, _ string, dest string, _ archive.ProgressFunc, _ download.CancelFunc) (string, error) {
	dir := filepath.Join(dest, toolchain.NameMingw64)
	if err := os.MkdirAll(filepath.Join(dir, "bin"), 0o755); err != nil {
		return "", err
	}
	return dir, os.WriteFile(filepath.Join(dir, "bin", "gcc.exe"), []byte("gcc"), 0o755)
}

func writeArchive(_ []download.ChunkResult, dest string) error {
	return os.WriteFile(dest, []byte("archive"), 0o644)
}

func chunks() []download.ChunkResult {
	return []download.ChunkResult{{Index: 0, Path: "c0", Bytes: 500, Success: true}, {Index: 1, Path: "c1", Bytes: 500, Success: true}}
}

// extractedDir matches a toolchain directory inside a per-attempt extraction directory.
type extractedDir struct{}

func (extractedDir) Matches(x any) bool {
	s, ok := x.(string)
	return ok && strings.HasSuffix(filepath.Dir(s), archive.ExtractSuffix)
}

func (extractedDir) String() string { return "is inside an extraction directory" }

func TestAcquire_CacheHit(t *testing.T) {
	f := newFixture(t)
	f.validator.EXPECT().Validate(f.path(toolchain.NameMingw64)).Return(toolchain.Result{Valid: true})

	res, err := f.orch.Acquire(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{State: StateDone, Path: f.path("mingw64"), Variant: "mingw64", FromCache: true}, res)
	assert.Equal(t, []State{StateCheckCache, StateDone}, f.states())
}

func TestAcquire_CacheHitMingw32On64BitHost(t *testing.T) {
	f := newFixture(t)
	gomock.InOrder(
		f.validator.EXPECT().Validate(f.path(toolchain.NameMingw64)).Return(toolchain.Result{Reason: "missing bin directory"}),
		f.validator.EXPECT().Validate(f.path(toolchain.NameMingw32)).Return(toolchain.Result{Valid: true}),
	)

	res, err := f.orch.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.path("mingw32"), res.Path)
	assert.True(t, res.FromCache)
}

func TestAcquire_32BitHostOnlyChecksMingw32(t *testing.T) {
	f := newFixture(t)
	f.orch.Options.Arch = "386"
	f.validator.EXPECT().Validate(f.path(toolchain.NameMingw32)).Return(toolchain.Result{Valid: true})

	res, err := f.orch.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.path("mingw32"), res.Path)
}

func TestAcquire_ParallelDownload(t *testing.T) {
	f := newFixture(t)
	f.expectNoInstall()
	f.resolver.EXPECT().Resolve(gomock.Any(), toolchain.Mingw64).Return(testAsset)
	f.expectRangedProbe()
	f.parallel.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req download.Request, plan download.Plan) ([]download.ChunkResult, error) {
			assert.Equal(t, testAsset.URL, req.URL)
			assert.Equal(t, testAsset.Name, req.Name)
			assert.NotNil(t, req.Progress)
			assert.False(t, req.Cancelled.Cancelled())
			assert.Equal(t, 4, plan.ChunkCount())
			assert.Equal(t, testAsset.Size, plan.TotalSize)
			return chunks(), nil
		})
	f.merger.EXPECT().Merge(chunks(), f.path(testAsset.Name)).DoAndReturn(writeArchive)
	f.expectInstall()
	f.records.EXPECT().Put(gomock.Any()).DoAndReturn(func(rec database.Record) error {
		assert.Equal(t, "mingw64", rec.Variant)
		assert.Equal(t, f.path("mingw64"), rec.Path)
		assert.Equal(t, testAsset.Name, rec.AssetName)
		assert.Equal(t, 1, rec.Attempts)
		return nil
	})

	res, err := f.orch.Acquire(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, f.path("mingw64"), res.Path)
	assert.Equal(t, 1, res.Attempts)
	assert.False(t, res.FromCache)
	assert.FileExists(t, filepath.Join(res.Path, "bin", "gcc.exe"))
	assert.FileExists(t, f.path(testAsset.Name), "archive is kept for reuse")

	leftovers, _ := filepath.Glob(f.path("*" + archive.ExtractSuffix))
	assert.Empty(t, leftovers)

	assert.Equal(t, []State{
		StateCheckCache, StateResolve, StateProbe, StateParallelPlan, StateFetch,
		StateMerge, StateVerify, StateExtract, StateValidate, StateDone,
	}, f.states())
}

func TestAcquire_ParallelFailureFallsBackToSequential(t *testing.T) {
	f := newFixture(t)
	f.expectNoInstall()
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(testAsset).Times(1)
	f.expectRangedProbe()
	f.parallel.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req download.Request, _ download.Plan) ([]download.ChunkResult, error) {
			req.Progress.Add(300)
			return nil, errors.Wrap(errors.ErrFetchFailed, "chunk 2: unexpected status code: 503")
		})
	f.sequential.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req download.Request) (download.StreamResult, error) {
			downloaded, total := req.Progress.Snapshot()
			assert.Equal(t, int64(300), downloaded, "bytes of the failed parallel phase stay counted")
			assert.Equal(t, 300+testAsset.Size, total)
			path := f.path("tc.zip.x.stream.part")
			require.NoError(t, os.WriteFile(path, []byte("archive"), 0o644))
			return download.StreamResult{Path: path, Bytes: 7}, nil
		})
	f.expectInstall()
	f.records.EXPECT().Put(gomock.Any()).Return(nil)

	res, err := f.orch.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts, "the fallback happens within the same attempt")
	assert.FileExists(t, f.path(testAsset.Name))
	assert.NoFileExists(t, f.path("tc.zip.x.stream.part"))
	assert.Equal(t, 1, f.count(StateSequentialPlan))
}

func TestAcquire_ProbeFailureUsesSequential(t *testing.T) {
	f := newFixture(t)
	f.expectNoInstall()
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(testAsset)
	f.prober.EXPECT().Probe(gomock.Any(), gomock.Any()).Return(download.ProbeResult{}, errors.ErrProbeFailed)
	f.sequential.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ download.Request) (download.StreamResult, error) {
			path := f.path("stream.part")
			return download.StreamResult{Path: path, Bytes: 7}, os.WriteFile(path, []byte("archive"), 0o644)
		})
	f.expectInstall()
	f.records.EXPECT().Put(gomock.Any()).Return(nil)

	_, err := f.orch.Acquire(context.Background())
	require.NoError(t, err)
	assert.Zero(t, f.count(StateParallelPlan))
	assert.Equal(t, 1, f.count(StateSequentialPlan))
}

func TestAcquire_UnknownSizeUsesSequential(t *testing.T) {
	f := newFixture(t)
	f.expectNoInstall()
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(testAsset)
	f.prober.EXPECT().Probe(gomock.Any(), gomock.Any()).Return(download.ProbeResult{SupportsRanges: true}, nil)
	f.sequential.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ download.Request) (download.StreamResult, error) {
			path := f.path("stream.part")
			return download.StreamResult{Path: path, Bytes: 7}, os.WriteFile(path, []byte("archive"), 0o644)
		})
	f.expectInstall()
	f.records.EXPECT().Put(gomock.Any()).Return(nil)

	_, err := f.orch.Acquire(context.Background())
	require.NoError(t, err)
	assert.Zero(t, f.count(StateParallelPlan))
}

func TestAcquire_ExhaustedRetries(t *testing.T) {
	f := newFixture(t)
	f.expectNoInstall()
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(testAsset).Times(3)
	f.prober.EXPECT().Probe(gomock.Any(), gomock.Any()).
		Return(download.ProbeResult{SupportsRanges: true, TotalSize: 1000}, nil).Times(3)
	f.parallel.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.Wrap(errors.ErrFetchFailed, "unexpected status code: 500")).Times(3)
	f.sequential.EXPECT().Fetch(gomock.Any(), gomock.Any()).
		Return(download.StreamResult{}, errors.Wrap(errors.ErrFetchFailed, "unexpected status code: 500")).Times(3)

	res, err := f.orch.Acquire(context.Background())
	require.Error(t, err)

	assert.True(t, errors.Is(err, errors.ErrExhaustedRetries))
	assert.True(t, errors.Is(err, errors.ErrFetchFailed), "the last attempt's error is kept")
	assert.False(t, errors.Is(err, errors.ErrCancelled))
	assert.Equal(t, StateError, res.State)
	assert.Equal(t, 3, res.Attempts)
	assert.Contains(t, res.Reason, "500")
	assert.Equal(t, 3, f.count(StateResolve))
	assert.Equal(t, StateError, f.events[len(f.events)-1].State)

	var failures int
	for _, l := range f.logs {
		if strings.Contains(l, "failed") && strings.HasPrefix(l, "attempt") {
			failures++
		}
	}
	assert.Equal(t, 3, failures, "transient failures go to the log sink")
}

func TestAcquire_VerificationFailureDiscardsArchive(t *testing.T) {
	f := newFixture(t)
	f.expectNoInstall()
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(testAsset).Times(2)
	f.prober.EXPECT().Probe(gomock.Any(), gomock.Any()).
		Return(download.ProbeResult{SupportsRanges: true, TotalSize: 1000}, nil).Times(2)
	f.parallel.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return(chunks(), nil).Times(2)
	gomock.InOrder(
		f.merger.EXPECT().Merge(gomock.Any(), gomock.Any()).DoAndReturn(writeArchive),
		f.verifier.EXPECT().Verify(gomock.Any(), gomock.Any()).
			Return(archive.VerificationResult{Verdict: archive.Invalid, Reason: "archive too small"}),
		f.merger.EXPECT().Merge(gomock.Any(), gomock.Any()).DoAndReturn(
			func(results []download.ChunkResult, dest string) error {
				assert.NoFileExists(t, dest, "the rejected archive is removed before the next attempt")
				return writeArchive(results, dest)
			}),
	)
	f.expectInstall()
	f.records.EXPECT().Put(gomock.Any()).Return(nil)

	res, err := f.orch.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
}

func TestAcquire_ValidationFailureDiscardsExtraction(t *testing.T) {
	f := newFixture(t)
	f.expectNoInstall()
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(testAsset).Times(2)
	f.prober.EXPECT().Probe(gomock.Any(), gomock.Any()).
		Return(download.ProbeResult{SupportsRanges: true, TotalSize: 1000}, nil).Times(2)
	f.parallel.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return(chunks(), nil).Times(2)
	f.merger.EXPECT().Merge(gomock.Any(), gomock.Any()).DoAndReturn(writeArchive).Times(2)
	f.verifier.EXPECT().Verify(gomock.Any(), gomock.Any()).
		Return(archive.VerificationResult{Verdict: archive.Valid}).Times(2)
	f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(fakeExtract).Times(2)

	var firstExtraction string
	gomock.InOrder(
		f.validator.EXPECT().Validate(extractedDir{}).DoAndReturn(func(dir string) toolchain.Result {
			firstExtraction = filepath.Dir(dir)
			return toolchain.Result{Reason: "missing required files: bin/g++.exe", Missing: []string{"bin/g++.exe"}}
		}),
		f.validator.EXPECT().Validate(extractedDir{}).DoAndReturn(func(dir string) toolchain.Result {
			assert.NoDirExists(t, firstExtraction, "the partial extraction is removed before the next attempt")
			return toolchain.Result{Valid: true}
		}),
	)
	f.records.EXPECT().Put(gomock.Any()).Return(nil)

	res, err := f.orch.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.DirExists(t, res.Path)
}

func TestAcquire_CancelDuringFetch(t *testing.T) {
	f := newFixture(t)
	f.expectNoInstall()
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(testAsset)
	f.expectRangedProbe()
	f.parallel.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req download.Request, _ download.Plan) ([]download.ChunkResult, error) {
			f.cancel.Store(true)
			assert.True(t, req.Cancelled.Cancelled())
			return nil, errors.Wrap(errors.ErrCancelled, "parallel download stopped")
		})

	res, err := f.orch.Acquire(context.Background())
	require.Error(t, err)

	assert.True(t, errors.Is(err, errors.ErrCancelled))
	assert.False(t, errors.Is(err, errors.ErrExhaustedRetries))
	assert.Equal(t, StateCancelled, res.State)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, StateCancelled, f.events[len(f.events)-1].State)
	assert.Zero(t, f.count(StateError))
}

func TestAcquire_CancelBeforeNetwork(t *testing.T) {
	f := newFixture(t)
	f.cancel.Store(true)
	f.expectNoInstall()

	res, err := f.orch.Acquire(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCancelled))
	assert.Equal(t, StateCancelled, res.State)
	assert.Zero(t, res.Attempts)
}

func TestAcquire_ContextCancelDuringBackoff(t *testing.T) {
	f := newFixture(t)
	f.orch.Options.BackoffBase = time.Minute
	f.orch.Options.BackoffMax = time.Minute
	f.expectNoInstall()
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(testAsset)
	f.prober.EXPECT().Probe(gomock.Any(), gomock.Any()).Return(download.ProbeResult{}, nil)
	f.sequential.EXPECT().Fetch(gomock.Any(), gomock.Any()).
		Return(download.StreamResult{}, errors.Wrap(errors.ErrFetchFailed, "connection reset"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.orch.Hooks.Log = func(s string) {
		if strings.HasPrefix(s, "attempt 1") {
			time.AfterFunc(20*time.Millisecond, cancel)
		}
	}

	start := time.Now()
	res, err := f.orch.Acquire(ctx)
	assert.True(t, errors.Is(err, errors.ErrCancelled))
	assert.Equal(t, StateCancelled, res.State)
	assert.Equal(t, 1, res.Attempts)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestAcquire_InsufficientSpace(t *testing.T) {
	f := newFixture(t)
	f.orch.FreeSpace = func(string) (uint64, error) { return 2999, nil }
	f.expectNoInstall()
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(testAsset).Times(1)
	f.expectRangedProbe()

	res, err := f.orch.Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientSpace))
	assert.False(t, errors.Is(err, errors.ErrExhaustedRetries), "a full disk is not retried")
	assert.Equal(t, StateError, res.State)
	assert.Equal(t, 1, res.Attempts)
}

func TestAcquire_SpaceCheckDisabled(t *testing.T) {
	f := newFixture(t)
	f.orch.Options.CheckDiskSpace = false
	f.orch.FreeSpace = func(string) (uint64, error) { return 0, nil }
	f.expectNoInstall()
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(testAsset)
	f.expectRangedProbe()
	f.parallel.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return(chunks(), nil)
	f.merger.EXPECT().Merge(gomock.Any(), gomock.Any()).DoAndReturn(writeArchive)
	f.expectInstall()
	f.records.EXPECT().Put(gomock.Any()).Return(nil)

	_, err := f.orch.Acquire(context.Background())
	require.NoError(t, err)
}

func TestAcquire_ReusesVerifiedArchive(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.path(testAsset.Name), []byte("archive"), 0o644))
	f.expectNoInstall()
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(testAsset)
	f.expectInstall()
	f.records.EXPECT().Put(gomock.Any()).Return(nil)

	res, err := f.orch.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, 1, f.count(StateReuseArchive))
	assert.Zero(t, f.count(StateProbe), "no download when the archive is reused")
	assert.Zero(t, f.count(StateVerify))
}

func TestAcquire_DiscardsInvalidLeftoverArchive(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.path(testAsset.Name), []byte("trunc"), 0o644))
	f.expectNoInstall()
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(testAsset)
	f.verifier.EXPECT().Verify(gomock.Any(), f.path(testAsset.Name)).
		Return(archive.VerificationResult{Verdict: archive.Invalid, Reason: "unreadable archive"})
	f.expectRangedProbe()
	f.parallel.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return(chunks(), nil)
	f.merger.EXPECT().Merge(gomock.Any(), gomock.Any()).DoAndReturn(
		func(results []download.ChunkResult, dest string) error {
			assert.NoFileExists(t, dest)
			return writeArchive(results, dest)
		})
	f.expectInstall()
	f.records.EXPECT().Put(gomock.Any()).Return(nil)

	res, err := f.orch.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
}

func TestAcquire_MergeCleanupFailureIsAWarning(t *testing.T) {
	f := newFixture(t)
	f.expectNoInstall()
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(testAsset)
	f.expectRangedProbe()
	f.parallel.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return(chunks(), nil)
	f.merger.EXPECT().Merge(gomock.Any(), gomock.Any()).DoAndReturn(
		func(results []download.ChunkResult, dest string) error {
			if err := writeArchive(results, dest); err != nil {
				return err
			}
			return fmt.Errorf("%w: chunk c1 is locked", errors.ErrCleanupFailed)
		})
	f.expectInstall()
	f.records.EXPECT().Put(gomock.Any()).Return(errors.ErrRecordStore)

	res, err := f.orch.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)

	joined := strings.Join(f.logs, "\n")
	assert.Contains(t, joined, "chunk c1 is locked")
	assert.Contains(t, joined, errors.ErrRecordStore.Error())
}

func TestAcquire_DropsArchiveWhenNotKept(t *testing.T) {
	f := newFixture(t)
	f.orch.Options.KeepArchive = false
	f.orch.Records = nil
	f.expectNoInstall()
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(testAsset)
	f.expectRangedProbe()
	f.parallel.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return(chunks(), nil)
	f.merger.EXPECT().Merge(gomock.Any(), gomock.Any()).DoAndReturn(writeArchive)
	f.expectInstall()

	_, err := f.orch.Acquire(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, f.path(testAsset.Name))
}

func TestAcquire_UnsafeAssetNameUsesFallback(t *testing.T) {
	f := newFixture(t)
	f.expectNoInstall()
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).
		Return(manifest.Asset{URL: "https://example.com/x.zip", Name: "../escaped-x86_64-posix.zip", Size: 1000})

	fallback := manifest.FallbackAsset(toolchain.Mingw64)
	f.prober.EXPECT().Probe(gomock.Any(), fallback.URL).DoAndReturn(
		func(context.Context, string) (download.ProbeResult, error) {
			f.cancel.Store(true)
			return download.ProbeResult{}, nil
		})

	_, err := f.orch.Acquire(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCancelled))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(f.cache), "escaped-x86_64-posix.zip"))

	var warned bool
	for _, l := range f.logs {
		warned = warned || strings.Contains(l, "would leave the cache directory")
	}
	assert.True(t, warned)
}

func TestAcquire_RemovesLeftoverStaging(t *testing.T) {
	f := newFixture(t)
	stale := f.path("tc.zip.0f9e.3" + download.StagingSuffix)
	staleDir := f.path("mingw64.0f9e" + archive.ExtractSuffix)
	live := f.path("tc.zip.a1b2.0" + download.StagingSuffix)
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(staleDir, "mingw64"), 0o755))
	require.NoError(t, os.WriteFile(live, []byte("x"), 0o644))
	past := time.Now().Add(-2 * DefaultStagingMaxAge)
	require.NoError(t, os.Chtimes(stale, past, past))
	require.NoError(t, os.Chtimes(staleDir, past, past))

	f.expectNoInstall()
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(testAsset)
	f.prober.EXPECT().Probe(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, string) (download.ProbeResult, error) {
			assert.NoFileExists(t, stale)
			assert.NoDirExists(t, staleDir)
			assert.FileExists(t, live, "a concurrent acquisition's chunk is kept")
			f.cancel.Store(true)
			return download.ProbeResult{}, nil
		})

	_, err := f.orch.Acquire(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCancelled))
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		base    time.Duration
		limit   time.Duration
		want    time.Duration
	}{
		{1, 2 * time.Second, 30 * time.Second, 2 * time.Second},
		{2, 2 * time.Second, 30 * time.Second, 4 * time.Second},
		{3, 2 * time.Second, 30 * time.Second, 8 * time.Second},
		{5, 2 * time.Second, 30 * time.Second, 30 * time.Second},
		{40, 2 * time.Second, 30 * time.Second, 30 * time.Second},
		{3, time.Second, 0, 4 * time.Second},
		{1, 0, 30 * time.Second, 0},
		{0, time.Second, 0, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt %d base %s", tt.attempt, tt.base), func(t *testing.T) {
			assert.Equal(t, tt.want, Backoff(tt.attempt, tt.base, tt.limit))
		})
	}
}

func TestState(t *testing.T) {
	assert.Equal(t, "parallel-plan", StateParallelPlan.String())
	assert.Equal(t, "cancelled", StateCancelled.String())
	assert.Equal(t, "unknown", State(99).String())

	for _, s := range []State{StateDone, StateError, StateCancelled} {
		assert.True(t, s.Terminal(), s.String())
	}
	assert.False(t, StateFetch.Terminal())
}
