// Package toolchain describes the MinGW toolchain variants and validates installed toolchain directories.
package toolchain

import (
	"path"
	"strings"

	"github.com/glorpus-work/gccfetch/pkg/platform"
)

// Canonical installation directory names.
const (
	NameMingw64 = "mingw64"
	NameMingw32 = "mingw32"
)

// ABIKeyword marks the preferred thread model in release asset names.
const ABIKeyword = "posix"

// ArchiveExt is the only archive format the release assets are fetched in.
const ArchiveExt = ".zip"

// Variant is one of the two toolchain flavours, identified by its canonical directory name.
type Variant struct {
	// Name is the canonical installation directory name.
	Name string
	// Triplet is the architecture tag used in asset and executable names.
	Triplet string
	// Keywords select matching release assets; ExcludeKeywords reject assets of the other flavour.
	Keywords        []string
	ExcludeKeywords []string
	// FallbackURL is used when the release manifest cannot be read.
	FallbackURL string
}

var (
	// Mingw64 is the 64-bit x86 toolchain.
	Mingw64 = Variant{
		Name:            NameMingw64,
		Triplet:         "x86_64",
		Keywords:        []string{"x86_64", "x64"},
		ExcludeKeywords: []string{"i686", "i386"},
		FallbackURL:     "https://github.com/brechtsanders/winlibs_mingw/releases/download/15.2.0posix-19.1.7-13.0.0-msvcrt-r5/winlibs-x86_64-posix-seh-gcc-15.2.0-mingw-w64msvcrt-13.0.0-r5.zip",
	}
	// Mingw32 is the 32-bit x86 toolchain.
	Mingw32 = Variant{
		Name:            NameMingw32,
		Triplet:         "i686",
		Keywords:        []string{"i686", "i386"},
		ExcludeKeywords: []string{"x86_64", "x64"},
		FallbackURL:     "https://github.com/brechtsanders/winlibs_mingw/releases/download/15.2.0posix-19.1.7-13.0.0-msvcrt-r5/winlibs-i686-posix-dwarf-gcc-15.2.0-mingw-w64msvcrt-13.0.0-r5.zip",
	}
)

// RequiredExecutables must all exist for any variant, relative to the toolchain root.
var RequiredExecutables = []string{
	"bin/gcc.exe",
	"bin/g++.exe",
	"bin/c++.exe",
	"bin/cpp.exe",
}

// CanonicalNames returns the installation directory names in preference order.
func CanonicalNames() []string {
	return []string{NameMingw64, NameMingw32}
}

// ForArch returns the variant that serves the given host architecture.
func ForArch(arch string) Variant {
	if platform.Is64BitX86(arch) {
		return Mingw64
	}
	return Mingw32
}

// ByName looks a variant up by its canonical directory name, case-insensitively.
func ByName(name string) (Variant, bool) {
	switch strings.ToLower(name) {
	case NameMingw64:
		return Mingw64, true
	case NameMingw32:
		return Mingw32, true
	default:
		return Variant{}, false
	}
}

// SearchOrder lists the variants a host may already have installed, best first.
// A 64-bit host can run either toolchain; a 32-bit host only the 32-bit one.
func SearchOrder(arch string) []Variant {
	if platform.Is64BitX86(arch) {
		return []Variant{Mingw64, Mingw32}
	}
	return []Variant{Mingw32}
}

// OptionalExecutables lists the architecture-tagged compilers; at least one must exist.
func (v Variant) OptionalExecutables() []string {
	return []string{
		"bin/" + v.Triplet + "-w64-mingw32-gcc.exe",
		"bin/" + v.Triplet + "-w64-mingw32-c++.exe",
	}
}

// FallbackName is the file name of the fallback asset.
func (v Variant) FallbackName() string {
	return path.Base(v.FallbackURL)
}

// MatchesAsset reports whether an asset name belongs to this variant.
// requireABI additionally demands the ABI keyword.
func (v Variant) MatchesAsset(name string, requireABI bool) bool {
	lower := strings.ToLower(name)
	if lower == "" || !strings.HasSuffix(lower, ArchiveExt) {
		return false
	}
	for _, kw := range v.ExcludeKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	matched := false
	for _, kw := range v.Keywords {
		if strings.Contains(lower, kw) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	return !requireABI || strings.Contains(lower, ABIKeyword)
}

func (v Variant) String() string {
	return v.Name
}
