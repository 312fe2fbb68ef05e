package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/glorpus-work/gccfetch/pkg/errors"
	"github.com/glorpus-work/gccfetch/pkg/toolchain"
	"github.com/mholt/archives"
)

// DefaultMinSize is the smallest archive accepted as a toolchain. Anything below is
// almost certainly truncated or the wrong asset.
const DefaultMinSize = 250 * int64(datasize.MB)

// Verdict is the outcome of a verification.
type Verdict int

const (
	// Indeterminate means the archive could not be judged, e.g. because reading it failed.
	// It is treated as invalid.
	Indeterminate Verdict = iota
	Valid
	Invalid
)

func (v Verdict) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "indeterminate"
	}
}

// VerificationResult describes a verified archive.
type VerificationResult struct {
	Verdict Verdict
	// Reason explains a rejection. Empty when valid.
	Reason string
	// EntryCount is the number of entries scanned.
	EntryCount int
	// RootDir is the canonical toolchain directory found in the archive. Empty unless valid.
	RootDir string
	Size    int64
}

// IsValid reports whether the archive may be extracted.
func (r VerificationResult) IsValid() bool {
	return r.Verdict == Valid
}

// Err returns nil for a valid archive, otherwise an error matching ErrVerificationFailed.
func (r VerificationResult) Err() error {
	if r.IsValid() {
		return nil
	}
	return errors.Wrap(errors.ErrVerificationFailed, r.Reason, errors.V("verdict", r.Verdict.String()))
}

// Verifier checks that a downloaded file is a sound toolchain archive.
type Verifier struct {
	MinSize int64
	// RootNames are the accepted top-level directories.
	RootNames []string
	// CheckIntegrity reads every entry so that corrupt data fails its checksum.
	CheckIntegrity bool
}

// NewVerifier returns a Verifier accepting either canonical toolchain directory.
func NewVerifier(minSize int64) *Verifier {
	return &Verifier{
		MinSize:        minSize,
		RootNames:      toolchain.CanonicalNames(),
		CheckIntegrity: true,
	}
}

// Verify checks, in order, the size, the container format, every entry and the top-level
// directory. The first failing check decides the result.
func (v *Verifier) Verify(ctx context.Context, path string) VerificationResult {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return reject(Invalid, "archive not found: %s", path)
	case err != nil:
		return reject(Indeterminate, "cannot stat archive: %v", err)
	case info.IsDir():
		return reject(Invalid, "%s is a directory", path)
	}

	size := info.Size()
	if size < v.MinSize {
		r := reject(Invalid, "archive too small: %s, expected at least %s",
			datasize.ByteSize(size).HR(), datasize.ByteSize(v.MinSize).HR())
		r.Size = size
		return r
	}

	r := v.scan(ctx, path)
	r.Size = size
	return r
}

func (v *Verifier) scan(ctx context.Context, path string) VerificationResult {
	if r, ok := identifyZip(ctx, path); !ok {
		return r
	}

	var (
		count   int
		root    string
		corrupt string
	)
	err := walkZip(ctx, path, func(ctx context.Context, info archives.FileInfo) error {
		count++
		name := entryName(info)
		if root == "" {
			if r, ok := rootOf(name, v.RootNames); ok {
				root = r
			}
		}
		if !v.CheckIntegrity || info.IsDir() || info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		if err := readEntry(info); err != nil {
			corrupt = fmt.Sprintf("corrupt entry %s: %v", name, err)
			return err
		}
		return nil
	})

	switch {
	case corrupt != "":
		return reject(Invalid, "%s", corrupt)
	case err != nil && ctx.Err() != nil:
		return reject(Indeterminate, "verification interrupted: %v", ctx.Err())
	case err != nil:
		return reject(Invalid, "unreadable archive: %v", err)
	case count == 0:
		return reject(Invalid, "archive is empty")
	case root == "":
		r := reject(Invalid, "no %s directory in archive", strings.Join(v.RootNames, " or "))
		r.EntryCount = count
		return r
	}
	return VerificationResult{Verdict: Valid, EntryCount: count, RootDir: root}
}

// identifyZip checks the file signature rather than the name.
func identifyZip(ctx context.Context, path string) (VerificationResult, bool) {
	file, err := os.Open(path)
	if err != nil {
		return reject(Indeterminate, "cannot open archive: %v", err), false
	}
	defer func() { _ = file.Close() }()

	format, _, err := archives.Identify(ctx, "", file)
	if err != nil {
		return reject(Invalid, "not a recognizable archive: %v", err), false
	}
	if ext := format.Extension(); ext != toolchain.ArchiveExt {
		return reject(Invalid, "unsupported archive format %s", ext), false
	}
	return VerificationResult{}, true
}

// readEntry reads the entry to the end so the zip reader compares its CRC-32.
func readEntry(info archives.FileInfo) error {
	f, err := info.Open()
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = io.Copy(io.Discard, f)
	return err
}

func reject(verdict Verdict, format string, args ...any) VerificationResult {
	return VerificationResult{Verdict: verdict, Reason: fmt.Sprintf(format, args...)}
}
