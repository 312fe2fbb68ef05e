// Package testutil holds fixtures shared by the package and command tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// Manifest and asset routes served by AssetServer.
const (
	ManifestPath = "/releases/latest"
	AssetPrefix  = "/download/"
)

// AssetServer serves a release manifest and one binary asset, counting every request.
type AssetServer struct {
	*httptest.Server

	name string
	data []byte
	// ManifestSize is the size advertised in the manifest. Defaults to len(data).
	ManifestSize int64

	requests     atomic.Int64
	assetGets    atomic.Int64
	streamGets   atomic.Int64
	fail         atomic.Int32
	noRanges     atomic.Bool
	manifestDown atomic.Bool
}

// NewAssetServer starts a server for an asset called name. It is closed with the test.
func NewAssetServer(t *testing.T, name string, data []byte) *AssetServer {
	t.Helper()
	s := &AssetServer{name: name, data: data, ManifestSize: int64(len(data))}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// ManifestURL is the release manifest endpoint.
func (s *AssetServer) ManifestURL() string {
	return s.URL + ManifestPath
}

// AssetURL is the download URL listed in the manifest.
func (s *AssetServer) AssetURL() string {
	return s.URL + AssetPrefix + s.name
}

// Requests returns the number of requests received so far.
func (s *AssetServer) Requests() int64 {
	return s.requests.Load()
}

// AssetGets returns the number of GET requests for the asset, ranged or not.
func (s *AssetServer) AssetGets() int64 {
	return s.assetGets.Load()
}

// StreamGets returns the number of GET requests for the whole asset, without a Range header.
func (s *AssetServer) StreamGets() int64 {
	return s.streamGets.Load()
}

// FailWith makes every asset request answer with status. 0 restores normal service.
func (s *AssetServer) FailWith(status int) {
	s.fail.Store(int32(status))
}

// DisableRanges makes the server ignore Range headers and omit Accept-Ranges.
func (s *AssetServer) DisableRanges() {
	s.noRanges.Store(true)
}

// DisableManifest makes the manifest endpoint fail.
func (s *AssetServer) DisableManifest() {
	s.manifestDown.Store(true)
}

func (s *AssetServer) serve(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)

	switch {
	case r.URL.Path == ManifestPath:
		s.serveManifest(w)
	case strings.HasPrefix(r.URL.Path, AssetPrefix):
		if r.Method == http.MethodGet {
			s.assetGets.Add(1)
			if r.Header.Get("Range") == "" {
				s.streamGets.Add(1)
			}
		}
		s.serveAsset(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *AssetServer) serveManifest(w http.ResponseWriter) {
	if s.manifestDown.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"tag_name": "test",
		"assets": []map[string]any{
			{"name": s.name, "size": s.ManifestSize, "browser_download_url": s.AssetURL()},
		},
	})
}

func (s *AssetServer) serveAsset(w http.ResponseWriter, r *http.Request) {
	if status := int(s.fail.Load()); status != 0 {
		w.WriteHeader(status)
		return
	}
	if s.noRanges.Load() {
		w.Header().Set("Content-Length", fmt.Sprint(len(s.data)))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write(s.data)
		}
		return
	}
	http.ServeContent(w, r, s.name, time.Time{}, bytes.NewReader(s.data))
}

// SetupTestConfig writes a config file pointing the cache and manifest at test locations.
func SetupTestConfig(t *testing.T, cacheDir, manifestURL string) string {
	t.Helper()

	configStr := fmt.Sprintf(`settings:
  cache_dir: %q
  manifest_url: %q
  min_archive_size: 1KB
  check_disk_space: false
  backoff_base: 10ms
  backoff_max: 20ms
  http_timeout: 5s
  log_level: debug
`, cacheDir, manifestURL)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(configStr), 0o600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}
