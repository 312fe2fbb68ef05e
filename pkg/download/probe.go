package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/glorpus-work/gccfetch/pkg/errors"
)

// Prober discovers whether an asset server honours byte ranges and how large the asset is.
type Prober struct {
	client *Client
}

// NewProber creates a Prober.
func NewProber(client *Client) *Prober {
	return &Prober{client: client}
}

// Probe sends a HEAD request and, when that is inconclusive, a one-byte ranged GET.
// On failure it returns the zero ProbeResult together with an error matching ErrProbeFailed,
// which callers treat as "use a single stream".
func (p *Prober) Probe(ctx context.Context, url string) (ProbeResult, error) {
	head, headErr := p.head(ctx, url)
	if headErr == nil && head.SupportsRanges && head.TotalSize > 0 {
		return head, nil
	}

	ranged, err := p.rangedGet(ctx, url)
	if err == nil {
		return ranged, nil
	}
	if headErr == nil {
		// HEAD worked but ranges were not confirmed.
		return ProbeResult{TotalSize: head.TotalSize}, nil
	}
	return ProbeResult{}, errors.Wrap(errors.ErrProbeFailed, fmt.Sprintf("head: %v; ranged get: %v", headErr, err),
		errors.V("url", url))
}

func (p *Prober) head(ctx context.Context, url string) (ProbeResult, error) {
	resp, err := p.client.Do(ctx, http.MethodHead, url, nil)
	if err != nil {
		return ProbeResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ProbeResult{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	result := ProbeResult{
		SupportsRanges: strings.Contains(strings.ToLower(resp.Header.Get("Accept-Ranges")), "bytes"),
	}
	if resp.ContentLength > 0 {
		result.TotalSize = resp.ContentLength
	}
	return result, nil
}

func (p *Prober) rangedGet(ctx context.Context, url string) (ProbeResult, error) {
	resp, err := p.client.Do(ctx, http.MethodGet, url, &Range{Start: 0, End: 0})
	if err != nil {
		return ProbeResult{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1))
		total, err := parseContentRangeTotal(resp.Header.Get("Content-Range"))
		if err != nil {
			return ProbeResult{}, err
		}
		return ProbeResult{SupportsRanges: true, TotalSize: total}, nil
	case http.StatusOK:
		// Range ignored; the body is the whole asset and is left unread.
		result := ProbeResult{}
		if resp.ContentLength > 0 {
			result.TotalSize = resp.ContentLength
		}
		return result, nil
	default:
		return ProbeResult{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}

// parseContentRangeTotal extracts N from "bytes 0-0/N". An unknown total ("*") is an error.
func parseContentRangeTotal(header string) (int64, error) {
	slash := strings.LastIndex(header, "/")
	if !strings.HasPrefix(header, "bytes ") || slash < 0 {
		return 0, fmt.Errorf("malformed Content-Range %q", header)
	}
	total, err := strconv.ParseInt(strings.TrimSpace(header[slash+1:]), 10, 64)
	if err != nil || total <= 0 {
		return 0, fmt.Errorf("unknown total size in Content-Range %q", header)
	}
	return total, nil
}
