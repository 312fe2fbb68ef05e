package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RetryPolicy bounds how hard a removal is attempted.
// Attempt n (1-based) waits Delay*n before retrying.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy returns the policy used for staging files and partial installs.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: DefaultRemoveAttempts, Delay: DefaultRemoveDelay}
}

// RemoveWithRetry removes a single file. A path that does not exist counts as removed.
// The last error is returned when the file is still present after every attempt.
func RemoveWithRetry(path string, policy RetryPolicy) error {
	return retryRemove(path, policy, os.Remove)
}

// RemoveAllWithRetry removes a path and everything under it.
func RemoveAllWithRetry(path string, policy RetryPolicy) error {
	return retryRemove(path, policy, os.RemoveAll)
}

// RemoveGlob removes every path matching pattern and joins the failures.
// It returns the paths it removed.
func RemoveGlob(pattern string, policy RetryPolicy) ([]string, error) {
	return removeMatches(pattern, policy, func(os.FileInfo) bool { return true })
}

// RemoveGlobOlder removes the paths matching pattern that were last modified before cutoff.
// Newer matches may belong to a download still in progress and are left alone.
func RemoveGlobOlder(pattern string, cutoff time.Time, policy RetryPolicy) ([]string, error) {
	return removeMatches(pattern, policy, func(info os.FileInfo) bool {
		return info.ModTime().Before(cutoff)
	})
}

func removeMatches(pattern string, policy RetryPolicy, selected func(os.FileInfo) bool) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	var (
		removed []string
		errs    []error
	)
	for _, m := range matches {
		info, err := os.Lstat(m)
		if err != nil || !selected(info) {
			continue
		}
		if err := RemoveAllWithRetry(m, policy); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, m)
	}
	return removed, errors.Join(errs...)
}

func retryRemove(path string, policy RetryPolicy, remove func(string) error) error {
	if path == "" {
		return nil
	}
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if !Exists(path) {
			return nil
		}
		lastErr = remove(path)
		if lastErr == nil || errors.Is(lastErr, os.ErrNotExist) {
			return nil
		}
		if attempt < attempts && policy.Delay > 0 {
			time.Sleep(policy.Delay * time.Duration(attempt))
		}
	}
	return fmt.Errorf("failed to remove %s after %d attempts: %w", path, attempts, lastErr)
}
