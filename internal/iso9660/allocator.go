package iso9660

// BlocksNeeded returns the number of whole logical blocks required to hold
// n bytes of data.
func BlocksNeeded(n int64) int64 {
	return (n + BlockSize - 1) / BlockSize
}

// Allocator hands out non-overlapping extents from a monotonically
// increasing block cursor. Allocation is strictly sequential and never
// reused, matching a write-once image; there is no failure path. Callers
// are responsible for bounding the final block count against the 32-bit
// block index limit of the format.
type Allocator struct {
	next int64
}

// NewAllocator returns an allocator whose cursor starts at the first data
// block of an image, after the reserved system area and the PVD sector.
func NewAllocator() *Allocator {
	return &Allocator{next: FirstDataBlock}
}

// Allocate returns the starting block for an extent of byteLength bytes and
// advances the cursor past it. A zero byte length consumes no blocks: the
// current cursor is returned unchanged, so empty files and directories do
// not cost an extra block.
func (a *Allocator) Allocate(byteLength int64) int64 {
	start := a.next
	a.next += BlocksNeeded(byteLength)
	return start
}

// Blocks returns the total number of blocks the image occupies so far,
// including the reserved system area and the PVD sector.
func (a *Allocator) Blocks() int64 {
	return a.next
}
