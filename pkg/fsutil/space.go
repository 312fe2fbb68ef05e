package fsutil

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"
)

// FreeSpace returns the bytes available to unprivileged users on the volume holding path.
func FreeSpace(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, fmt.Errorf("failed to query disk usage for %s: %w", path, err)
	}
	return usage.Free, nil
}
