package download

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
)

// StagingSuffix ends every staging file name.
const StagingSuffix = ".part"

// newAttemptID returns a process-unique suffix separating the staging files of concurrent or successive attempts.
func newAttemptID() string {
	return uuid.NewString()
}

// ChunkPath is the staging file of one chunk.
func ChunkPath(dir, name, attempt string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%s.%d%s", name, attempt, index, StagingSuffix))
}

// StreamPath is the staging file of a single-stream download.
func StreamPath(dir, name, attempt string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%s.stream%s", name, attempt, StagingSuffix))
}

// StagingGlob matches every staging file under dir, whatever attempt created it.
func StagingGlob(dir string) string {
	return filepath.Join(dir, "*"+StagingSuffix)
}
