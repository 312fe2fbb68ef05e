//go:generate mockgen -destination=./mocks/orchestrator.go -package=mocks . AssetResolver,RangeProber,ChunkFetcher,StreamFetcher,ChunkMerger,ArchiveVerifier,ArchiveExtractor,ToolchainValidator,RecordStore

package orchestrator

import (
	"context"
	"time"

	"github.com/glorpus-work/gccfetch/pkg/archive"
	"github.com/glorpus-work/gccfetch/pkg/database"
	"github.com/glorpus-work/gccfetch/pkg/download"
	"github.com/glorpus-work/gccfetch/pkg/manifest"
	"github.com/glorpus-work/gccfetch/pkg/toolchain"
)

// AssetResolver picks the release asset of a variant. It never fails.
type AssetResolver interface {
	Resolve(ctx context.Context, v toolchain.Variant) manifest.Asset
}

// RangeProber reports whether the asset server supports byte ranges.
type RangeProber interface {
	Probe(ctx context.Context, url string) (download.ProbeResult, error)
}

// ChunkFetcher downloads all ranges of a plan.
type ChunkFetcher interface {
	Fetch(ctx context.Context, req download.Request, plan download.Plan) ([]download.ChunkResult, error)
}

// StreamFetcher downloads an asset as a single stream.
type StreamFetcher interface {
	Fetch(ctx context.Context, req download.Request) (download.StreamResult, error)
}

// ChunkMerger joins downloaded chunks into the archive.
type ChunkMerger interface {
	Merge(results []download.ChunkResult, destPath string) error
}

// ArchiveVerifier checks a downloaded archive.
type ArchiveVerifier interface {
	Verify(ctx context.Context, path string) archive.VerificationResult
}

// ArchiveExtractor unpacks an archive and returns the toolchain directory inside destDir.
type ArchiveExtractor interface {
	Extract(ctx context.Context, archivePath, destDir string, progress archive.ProgressFunc, cancelled download.CancelFunc) (string, error)
}

// ToolchainValidator checks an installed toolchain directory.
type ToolchainValidator interface {
	Validate(dir string) toolchain.Result
}

// RecordStore receives a record of every successful acquisition.
type RecordStore interface {
	Put(rec database.Record) error
}

// State is a step of the acquisition state machine.
type State int

const (
	StateCheckCache State = iota
	StateResolve
	StateReuseArchive
	StateProbe
	StateParallelPlan
	StateSequentialPlan
	StateFetch
	StateMerge
	StateVerify
	StateExtract
	StateValidate
	StateDone
	StateError
	StateCancelled
)

var stateNames = map[State]string{
	StateCheckCache:     "check-cache",
	StateResolve:        "resolve",
	StateReuseArchive:   "reuse-archive",
	StateProbe:          "probe",
	StateParallelPlan:   "parallel-plan",
	StateSequentialPlan: "sequential-plan",
	StateFetch:          "fetch",
	StateMerge:          "merge",
	StateVerify:         "verify",
	StateExtract:        "extract",
	StateValidate:       "validate",
	StateDone:           "done",
	StateError:          "error",
	StateCancelled:      "cancelled",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the state ends an acquisition.
func (s State) Terminal() bool {
	return s == StateDone || s == StateError || s == StateCancelled
}

// Event represents a state transition.
type Event struct {
	State   State
	Attempt int // 0 outside the retry loop
	Msg     string
}

// Hooks carries the caller's callbacks. All are optional.
type Hooks struct {
	OnEvent func(Event)
	// Log receives informational messages, including transient failures between attempts.
	Log func(string)
	// Progress receives human readable download and extraction status.
	Progress func(string)
	// ShouldCancel is polled; once it returns true the acquisition stops.
	ShouldCancel func() bool
}

// Options control an acquisition.
type Options struct {
	// CacheDir is the root holding staging files, archives and installed toolchains.
	CacheDir string
	// Arch is the host architecture; it selects the variant.
	Arch        string
	Workers     int
	MaxAttempts int
	// BackoffBase is the delay after the first failed attempt; it doubles up to BackoffMax.
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// KeepArchive leaves the verified archive in the cache for later reuse.
	KeepArchive bool
	// CheckDiskSpace requires SpaceFactor times the archive size to be free before fetching.
	CheckDiskSpace   bool
	ProgressInterval time.Duration
	// StagingMaxAge is how old a staging entry must be before it counts as a crashed run's leftover.
	// Younger entries may belong to a concurrent acquisition.
	StagingMaxAge time.Duration
}

// Defaults.
const (
	DefaultMaxAttempts = 3
	DefaultBackoffBase = 2 * time.Second
	DefaultBackoffMax  = 30 * time.Second
	// SpaceFactor covers the archive, its extraction and headroom.
	SpaceFactor = 3
	DefaultStagingMaxAge = time.Hour
)

// Result is the outcome of Acquire.
type Result struct {
	State State
	// Path is the installed toolchain directory when State is StateDone.
	Path    string
	Variant string
	// Attempts is the number of attempts started. 0 for a cache hit.
	Attempts  int
	FromCache bool
	// Reason is a short human readable explanation of a failure or cancellation.
	Reason string
}
