package cache

// Manager defines the interface for cache management operations.
type Manager interface {
	Clean(options CleanOptions) (*CleanResult, error)
	GetInfo() (*Info, error)
	GetDirectory() string
	SetDirectory(dir string) error
}

// CleanOptions specifies what to clean from the cache root.
// With no option set, staging leftovers and downloaded archives are removed.
type CleanOptions struct {
	All        bool
	Staging    bool
	Archives   bool
	Toolchains bool
}

// CleanResult contains information about what was cleaned.
type CleanResult struct {
	TotalFreed     int64
	StagingFreed   int64
	ArchiveFreed   int64
	ToolchainFreed int64
	// Removed lists the removed entries relative to the cache root.
	Removed []string
}

// Info represents cache information.
type Info struct {
	Directory    string
	TotalSize    int64
	StagingSize  int64
	StagingFiles int
	ArchiveSize  int64
	ArchiveFiles int
	Toolchains   []Toolchain
	// FreeSpace is the free space of the volume holding the cache root, 0 if unknown.
	FreeSpace uint64
}

// Toolchain describes an installed toolchain directory.
type Toolchain struct {
	Name  string
	Size  int64
	Files int
}
