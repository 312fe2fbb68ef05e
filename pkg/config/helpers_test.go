package config

import (
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/glorpus-work/gccfetch/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetValue(t *testing.T) {
	tests := []struct {
		key   string
		value string
		check func(t *testing.T, s Settings)
	}{
		{"cache_dir", "/srv/cache", func(t *testing.T, s Settings) { assert.Equal(t, "/srv/cache", s.CacheDir) }},
		{"workers", "16", func(t *testing.T, s Settings) { assert.Equal(t, 16, s.Workers) }},
		{"http_timeout", "90s", func(t *testing.T, s Settings) { assert.Equal(t, 90*time.Second, s.HTTPTimeout) }},
		{"max_bandwidth", "5MB", func(t *testing.T, s Settings) { assert.Equal(t, 5*datasize.MB, s.MaxBandwidth) }},
		{"keep_archive", "false", func(t *testing.T, s Settings) { assert.False(t, s.KeepArchive) }},
		{"log_level", "error", func(t *testing.T, s Settings) { assert.Equal(t, "error", s.LogLevel) }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := DefaultConfig()
			require.NoError(t, cfg.SetValue(tt.key, tt.value))
			tt.check(t, cfg.Settings)

			got, err := cfg.GetValue(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestSetValue_Errors(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  error
	}{
		{"no_such_key", "1", errors.ErrUnknownSetting},
		{"workers", "many", errors.ErrConfigValidation},
		{"workers", "0", errors.ErrConfigValidation},
		{"backoff_base", "soon", errors.ErrConfigValidation},
		{"min_archive_size", "big", errors.ErrConfigValidation},
		{"verify_checksums", "maybe", errors.ErrConfigValidation},
		{"output_format", "xml", errors.ErrConfigValidation},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := DefaultConfig().SetValue(tt.key, tt.value)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestGetValue_Unknown(t *testing.T) {
	_, err := DefaultConfig().GetValue("repositories")
	assert.True(t, errors.Is(err, errors.ErrUnknownSetting))
}

func TestToMap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.GitHubToken = "secret"

	m := cfg.ToMap()
	assert.Len(t, m, len(Keys()))
	assert.Equal(t, "8", m["workers"])
	assert.Equal(t, "250MB", m["min_archive_size"])
	assert.Equal(t, "1m0s", m["http_timeout"])
	assert.Equal(t, "true", m["keep_archive"])
	assert.NotContains(t, m["github_token"], "secret")
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, "cache_dir")
	assert.Contains(t, keys, "check_disk_space")
}
