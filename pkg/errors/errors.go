package errors

import (
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

// Acquisition errors. Every error leaving an acquisition step matches exactly one of these.
var (
	// ErrManifestUnavailable means the release manifest could not be used; the resolver falls back.
	ErrManifestUnavailable = errors.New("release manifest unavailable")
	// ErrProbeFailed means the range probe failed; the orchestrator takes the sequential path.
	ErrProbeFailed = errors.New("range probe failed")
	// ErrFetchFailed covers chunk and stream download errors, timeouts included.
	ErrFetchFailed = errors.New("download failed")
	// ErrMergeFailed is an I/O error while concatenating chunk files.
	ErrMergeFailed = errors.New("chunk merge failed")
	// ErrVerificationFailed is a size, structure or content rejection of the merged archive.
	ErrVerificationFailed = errors.New("archive verification failed")
	// ErrExtractionFailed is an error while unpacking the archive.
	ErrExtractionFailed = errors.New("archive extraction failed")
	// ErrValidationFailed means the extracted toolchain is incomplete.
	ErrValidationFailed = errors.New("toolchain validation failed")
	// ErrCancelled is reported when the caller stopped the acquisition. It is never retried.
	ErrCancelled = errors.New("acquisition cancelled")
	// ErrExhaustedRetries is returned after the attempt budget is spent.
	ErrExhaustedRetries = errors.New("all download attempts failed")
	// ErrInsufficientSpace is returned when the cache volume cannot hold the toolchain.
	ErrInsufficientSpace = errors.New("insufficient disk space")
	// ErrCleanupFailed means a staging file or directory could not be removed.
	ErrCleanupFailed = errors.New("cleanup failed")
)

// Config errors.
var (
	ErrEmptyConfigPath   = errors.New("config file path cannot be empty")
	ErrInvalidConfigPath = errors.New("invalid config file path")
	ErrConfigParse       = errors.New("failed to parse config")
	ErrConfigValidation  = errors.New("invalid configuration")
	ErrConfigEncode      = errors.New("failed to encode config")
	ErrConfigDirectory   = errors.New("failed to create config directory")
	ErrConfigFileCreate  = errors.New("failed to create config file")
	ErrConfigFileRename  = errors.New("failed to replace config file")
	ErrUnknownSetting    = errors.New("unknown setting")
)

// Cache errors.
var (
	ErrCacheClean     = errors.New("failed to clean cache")
	ErrCacheInfo      = errors.New("failed to get cache info")
	ErrCacheDirectory = errors.New("cache directory cannot be empty")
)

// Record store errors.
var (
	ErrRecordNotFound = errors.New("install record not found")
	ErrRecordStore    = errors.New("install record store error")
)

// Wrap wraps an error with additional context. Optional key/value pairs are attached to the error.
func Wrap(err error, msg string, values ...goerr.Option) error {
	if err == nil {
		return nil
	}
	return goerr.Wrap(err, msg, values...)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return goerr.Wrap(err, fmt.Sprintf(format, args...))
}

// V attaches a key/value pair to a wrapped error.
func V(key string, value any) goerr.Option {
	return goerr.V(key, value)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Classify tags err with kind unless it already matches kind or ErrCancelled.
func Classify(err, kind error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) || errors.Is(err, ErrCancelled) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
