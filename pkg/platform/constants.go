// Package platform normalizes host architecture names.
package platform

// OSWindows is the only operating system with a platform specific path layout.
const OSWindows = "windows"

// Architecture names as reported by GOARCH.
const (
	ArchAMD64 = "amd64"
	Arch386   = "386"
	ArchARM   = "arm"
	ArchARM64 = "arm64"
)

// ValidArch returns the architecture values accepted in configuration.
func ValidArch() []string {
	return []string{ArchAMD64, Arch386, ArchARM, ArchARM64}
}
