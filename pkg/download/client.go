package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds the wait for response headers and any gap between body reads.
	DefaultTimeout = 60 * time.Second
	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "gccfetch/1.0"
	// ReadBufferSize is the unit of progress accounting and cancellation polling.
	ReadBufferSize = 32 * 1024
)

// ClientOptions configures a Client.
type ClientOptions struct {
	Timeout   time.Duration
	UserAgent string
	// BytesPerSecond caps the combined throughput of all requests. 0 means unlimited.
	BytesPerSecond int64
	// Transport overrides the HTTP transport.
	Transport http.RoundTripper
}

// Client issues asset requests. Every request carries its own timeout: a request whose
// headers or next body read take longer than Timeout fails like any other fetch error.
type Client struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	limiter   *rate.Limiter
}

// NewClient creates a Client.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	c := &Client{
		client:    &http.Client{Transport: opts.Transport},
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
	}
	if opts.BytesPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.BytesPerSecond), ReadBufferSize)
	}
	return c
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Do sends a request for url. A non-nil rng adds a Range header.
// The response body enforces the idle timeout and must be closed by the caller.
func (c *Client) Do(ctx context.Context, method, url string, rng *Range) (*http.Response, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	timedOut := &atomic.Bool{}
	timer := time.AfterFunc(c.timeout, func() {
		timedOut.Store(true)
		cancel()
	})

	req, err := http.NewRequestWithContext(reqCtx, method, url, http.NoBody)
	if err != nil {
		timer.Stop()
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if rng != nil {
		req.Header.Set("Range", rng.Header())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		timer.Stop()
		cancel()
		if timedOut.Load() {
			return nil, fmt.Errorf("no response within %s: %w", c.timeout, context.DeadlineExceeded)
		}
		return nil, err
	}
	timer.Reset(c.timeout)
	resp.Body = &idleTimeoutBody{
		ReadCloser: resp.Body,
		timer:      timer,
		timeout:    c.timeout,
		timedOut:   timedOut,
		cancel:     cancel,
	}
	return resp, nil
}

// copyBody streams body into w one buffer at a time. cancelled is polled before every read
// so a cancelled download stops within one buffer.
func (c *Client) copyBody(ctx context.Context, w io.Writer, body io.Reader, progress *Progress, cancelled CancelFunc) (int64, error) {
	buf := make([]byte, ReadBufferSize)
	var written int64
	for {
		if cancelled.Cancelled() {
			return written, context.Canceled
		}
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return written, fmt.Errorf("failed to write staging file: %w", err)
			}
			written += int64(n)
			progress.Add(int64(n))
			if err := c.throttle(ctx, n); err != nil {
				return written, err
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

func (c *Client) throttle(ctx context.Context, n int) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.WaitN(ctx, n)
}

// idleTimeoutBody restarts the request timer after every successful read.
type idleTimeoutBody struct {
	io.ReadCloser
	timer    *time.Timer
	timeout  time.Duration
	timedOut *atomic.Bool
	cancel   context.CancelFunc
}

func (b *idleTimeoutBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 {
		b.timer.Reset(b.timeout)
	}
	if err != nil && err != io.EOF && b.timedOut.Load() {
		err = fmt.Errorf("no data for %s: %w", b.timeout, context.DeadlineExceeded)
	}
	return n, err
}

func (b *idleTimeoutBody) Close() error {
	b.timer.Stop()
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
