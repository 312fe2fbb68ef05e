package download

// DefaultWorkers is the default number of chunks fetched in parallel.
const DefaultWorkers = 8

// Plan partitions [0, TotalSize) into contiguous ranges ordered by start offset.
type Plan struct {
	TotalSize int64
	Ranges    []Range
}

// ChunkCount is the number of planned ranges.
func (p Plan) ChunkCount() int {
	return len(p.Ranges)
}

// NewPlan divides totalSize into at most workers ranges of roughly equal size.
// The last range absorbs the remainder. No range is ever empty, so a size smaller
// than the worker count yields fewer chunks. A size of 0 yields an empty plan.
func NewPlan(totalSize int64, workers int) Plan {
	plan := Plan{TotalSize: totalSize}
	if totalSize <= 0 {
		plan.TotalSize = 0
		return plan
	}
	if workers < 1 {
		workers = 1
	}

	count := int64(workers)
	if totalSize < count {
		count = totalSize
	}
	chunkSize := totalSize / count

	plan.Ranges = make([]Range, 0, count)
	for i := int64(0); i < count; i++ {
		start := i * chunkSize
		end := start + chunkSize - 1
		if i == count-1 {
			end = totalSize - 1
		}
		plan.Ranges = append(plan.Ranges, Range{Index: int(i), Start: start, End: end})
	}
	return plan
}
