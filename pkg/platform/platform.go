package platform

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
)

// Platform represents a host platform with OS and Architecture.
type Platform struct {
	OS   string `yaml:"os" json:"os"`
	Arch string `yaml:"arch" json:"arch"`
}

// CurrentPlatform returns the current platform (OS and architecture)
func CurrentPlatform() Platform {
	goos := runtime.GOOS
	if goos == "" {
		goos = "unknown"
	}

	goarch := runtime.GOARCH
	if goarch == "" {
		goarch = "unknown"
	}

	return Platform{
		OS:   strings.ToLower(goos),
		Arch: NormalizeArch(goarch),
	}
}

// String returns a string representation of the platform
func (p Platform) String() string {
	return fmt.Sprintf("%s/%s", p.OS, p.Arch)
}

// NormalizeArch normalizes architecture names to the Go spelling.
func NormalizeArch(arch string) string {
	arch = strings.ToLower(strings.TrimSpace(arch))
	switch arch {
	case "x86_64", "x64", "amd64":
		return ArchAMD64
	case "x86", "i386", "i686", "386":
		return Arch386
	case "arm64", "aarch64":
		return ArchARM64
	default:
		return arch
	}
}

// Is64BitX86 reports whether arch names the 64-bit x86 family.
// Everything else is served by the 32-bit toolchain.
func Is64BitX86(arch string) bool {
	return NormalizeArch(arch) == ArchAMD64
}

// IsValidArch reports whether arch, once normalized, is a known value.
func IsValidArch(arch string) bool {
	return slices.Contains(ValidArch(), NormalizeArch(arch))
}
