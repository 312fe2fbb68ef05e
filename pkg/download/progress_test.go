package download

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress_ConcurrentAdds(t *testing.T) {
	p := NewProgress(8 * 1000)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				p.Add(1)
			}
		}()
	}
	wg.Wait()

	downloaded, total := p.Snapshot()
	assert.Equal(t, int64(8000), downloaded)
	assert.Equal(t, int64(8000), total)
	assert.Contains(t, p.String(), "100.0%")
}

func TestProgress_NilSafe(t *testing.T) {
	var p *Progress
	p.Add(10)
	p.SetTotal(10)
	p.Restart(10)
	downloaded, total := p.Snapshot()
	assert.Zero(t, downloaded)
	assert.Zero(t, total)
}

func TestProgress_UnknownTotal(t *testing.T) {
	p := NewProgress(0)
	p.Add(2048)
	assert.NotContains(t, p.String(), "%")
	assert.Contains(t, p.String(), "Downloading")
}

func TestProgress_RestartNeverDecreases(t *testing.T) {
	p := NewProgress(100)
	p.Add(60)
	p.Restart(100)

	downloaded, total := p.Snapshot()
	assert.Equal(t, int64(60), downloaded)
	assert.Equal(t, int64(160), total)

	p.Add(100)
	assert.Contains(t, p.String(), "100.0%")

	p.Restart(0)
	p.SetTotal(40)
	downloaded, total = p.Snapshot()
	assert.Equal(t, int64(160), downloaded)
	assert.Equal(t, int64(200), total)
}

func TestReportProgress(t *testing.T) {
	p := NewProgress(100)

	var (
		mu    sync.Mutex
		lines []string
	)
	sink := func(s string) {
		mu.Lock()
		lines = append(lines, s)
		mu.Unlock()
	}

	stop := ReportProgress(context.Background(), p, sink, 5*time.Millisecond)
	p.Add(50)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(lines) > 0
	}, time.Second, 5*time.Millisecond)
	p.Add(50)
	stop()
	stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, lines[len(lines)-1], "100.0%")
}

func TestReportProgress_NilSink(t *testing.T) {
	stop := ReportProgress(context.Background(), NewProgress(1), nil, time.Millisecond)
	stop()
}
