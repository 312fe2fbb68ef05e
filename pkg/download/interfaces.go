package download

import (
	"fmt"
	"sync/atomic"
)

// CancelFunc reports whether the caller has asked to stop. It is polled, never pushed,
// and must be safe to call from every worker concurrently.
type CancelFunc func() bool

// Cancelled calls f, treating a nil predicate as never cancelled.
func (f CancelFunc) Cancelled() bool {
	return f != nil && f()
}

// Flag is a cancellation flag shared between the caller and the workers.
type Flag struct {
	v atomic.Bool
}

// Cancel sets the flag. It is idempotent.
func (f *Flag) Cancel() { f.v.Store(true) }

// Cancelled reports whether Cancel has been called.
func (f *Flag) Cancelled() bool { return f.v.Load() }

// Request identifies one asset download.
type Request struct {
	URL string
	// Name is the asset file name; staging files are derived from it.
	Name string
	// Progress receives every byte written. May be nil.
	Progress *Progress
	// Cancelled is polled before every read. May be nil.
	Cancelled CancelFunc
}

// Range is one contiguous chunk of the asset. End is inclusive, as sent on the wire.
type Range struct {
	Index int
	Start int64
	End   int64
}

// Len is the number of bytes covered by the range.
func (r Range) Len() int64 {
	return r.End - r.Start + 1
}

// Header returns the Range request header value.
func (r Range) Header() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
}

// ChunkResult describes one downloaded chunk. It is written only by the worker that fetched it.
type ChunkResult struct {
	Index   int
	Path    string
	Bytes   int64
	Success bool
}

// StreamResult describes a single-stream download.
type StreamResult struct {
	Path  string
	Bytes int64
}

// ProbeResult reports what the asset server offers.
type ProbeResult struct {
	SupportsRanges bool
	// TotalSize is 0 when unknown.
	TotalSize int64
}
