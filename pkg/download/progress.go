package download

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/c2h5oh/datasize"
)

// DefaultProgressInterval is how often ReportProgress samples the counters.
const DefaultProgressInterval = 500 * time.Millisecond

// Progress holds the byte counters of one acquisition. All access goes through the mutex.
// The downloaded counter never decreases: bytes of an abandoned phase stay counted.
type Progress struct {
	mu         sync.Mutex
	downloaded int64
	total      int64
	// base is the downloaded count when the current phase started.
	base int64
}

// NewProgress returns counters for a download of total bytes (0 if unknown).
func NewProgress(total int64) *Progress {
	return &Progress{total: total}
}

// Add records n more downloaded bytes.
func (p *Progress) Add(n int64) {
	if p == nil || n <= 0 {
		return
	}
	p.mu.Lock()
	p.downloaded += n
	p.mu.Unlock()
}

// SetTotal sets the expected size of the current phase once it becomes known.
func (p *Progress) SetTotal(total int64) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.setTotal(total)
	p.mu.Unlock()
}

// Restart begins a new phase downloading total bytes (0 if unknown), as when a failed parallel
// download falls back to a single stream. The total grows by what was already counted.
func (p *Progress) Restart(total int64) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.base = p.downloaded
	p.setTotal(total)
	p.mu.Unlock()
}

func (p *Progress) setTotal(total int64) {
	if total <= 0 {
		p.total = 0
		return
	}
	p.total = p.base + total
}

// Snapshot returns a consistent view of both counters.
func (p *Progress) Snapshot() (downloaded, total int64) {
	if p == nil {
		return 0, 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.downloaded, p.total
}

// String renders the counters for a progress sink.
func (p *Progress) String() string {
	downloaded, total := p.Snapshot()
	if total <= 0 {
		return fmt.Sprintf("Downloading: %s", datasize.ByteSize(downloaded).HumanReadable())
	}
	percent := float64(downloaded) / float64(total) * 100
	return fmt.Sprintf("Downloading: %.1f%% (%s / %s)", percent,
		datasize.ByteSize(downloaded).HumanReadable(), datasize.ByteSize(total).HumanReadable())
}

// ReportProgress writes p to sink every interval until ctx is done or stop is called.
// A final line is written on stop.
func ReportProgress(ctx context.Context, p *Progress, sink func(string), interval time.Duration) (stop func()) {
	if sink == nil {
		return func() {}
	}
	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				sink(p.String())
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
			sink(p.String())
		})
	}
}
