package download

import (
	"bytes"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testPayload(size int) []byte {
	data := make([]byte, size)
	rand.New(rand.NewSource(int64(size))).Read(data)
	return data
}

// newRangeServer serves data with full HEAD and Range support.
func newRangeServer(t *testing.T, data []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "toolchain.zip", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient() *Client {
	return NewClient(ClientOptions{Timeout: 5 * time.Second, UserAgent: "gccfetch-test"})
}

func stagingFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(StagingGlob(dir))
	require.NoError(t, err)
	return matches
}
