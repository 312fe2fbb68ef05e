package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/glorpus-work/gccfetch/pkg/errors"
	"github.com/glorpus-work/gccfetch/pkg/toolchain"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds the whole manifest request.
const DefaultTimeout = 30 * time.Second

// maxManifestSize guards against reading an unbounded body.
const maxManifestSize = 16 << 20

// Options configures a Resolver.
type Options struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
	// Token authenticates against the release API. Empty means anonymous.
	Token string
	// Transport overrides the HTTP transport.
	Transport http.RoundTripper
	// Log receives a message whenever the resolver degrades to the fallback asset.
	Log func(string)
}

// Resolver reads the release manifest.
type Resolver struct {
	client    *http.Client
	url       string
	userAgent string
	log       func(string)
}

// NewResolver creates a Resolver.
func NewResolver(opts Options) *Resolver {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "gccfetch/1.0"
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
			Base:   transport,
		}
	}

	return &Resolver{
		client:    &http.Client{Timeout: opts.Timeout, Transport: transport},
		url:       opts.URL,
		userAgent: opts.UserAgent,
		log:       opts.Log,
	}
}

// Resolve returns the asset to download for v. It never fails: an unreachable or unusable
// manifest degrades to the variant's fallback asset and is reported through the log hook.
func (r *Resolver) Resolve(ctx context.Context, v toolchain.Variant) Asset {
	assets, err := r.fetch(ctx)
	if err != nil {
		r.logf("%v, using fallback %s", err, v.FallbackName())
		return FallbackAsset(v)
	}

	asset, tier, ok := selectAsset(assets, v)
	if !ok {
		r.logf("no %s asset in release manifest, using fallback %s", v.Name, v.FallbackName())
		return FallbackAsset(v)
	}
	r.logf("selected %s (%s)", asset.Name, tier)
	return asset
}

func (r *Resolver) fetch(ctx context.Context) ([]releaseAsset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(errors.ErrManifestUnavailable, err.Error())
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrManifestUnavailable, err.Error(), errors.V("url", r.url))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrap(errors.ErrManifestUnavailable, fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			errors.V("url", r.url))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	if err != nil {
		return nil, errors.Wrap(errors.ErrManifestUnavailable, "failed to read response body: "+err.Error())
	}

	var rel release
	if err := json.Unmarshal(data, &rel); err != nil {
		return nil, errors.Wrap(errors.ErrManifestUnavailable, "malformed manifest: "+err.Error())
	}
	return rel.Assets, nil
}

func (r *Resolver) logf(format string, args ...any) {
	if r.log != nil {
		r.log(fmt.Sprintf(format, args...))
	}
}
