package iso9660

import (
	"testing"

	. "github.com/franela/goblin"
)

func TestBlocksNeeded(t *testing.T) {
	g := Goblin(t)

	g.Describe("BlocksNeeded", func() {
		g.It("returns zero for zero bytes", func() {
			g.Assert(BlocksNeeded(0)).Equal(int64(0))
		})

		g.It("rounds partial blocks up", func() {
			g.Assert(BlocksNeeded(1)).Equal(int64(1))
			g.Assert(BlocksNeeded(BlockSize - 1)).Equal(int64(1))
			g.Assert(BlocksNeeded(BlockSize + 1)).Equal(int64(2))
			g.Assert(BlocksNeeded(5000)).Equal(int64(3))
		})

		g.It("returns exact counts for whole block multiples", func() {
			g.Assert(BlocksNeeded(BlockSize)).Equal(int64(1))
			g.Assert(BlocksNeeded(7 * BlockSize)).Equal(int64(7))
		})
	})
}

func TestAllocator(t *testing.T) {
	g := Goblin(t)

	g.Describe("Allocator", func() {
		g.It("starts at the first data block", func() {
			a := NewAllocator()
			g.Assert(a.Allocate(1)).Equal(int64(FirstDataBlock))
		})

		g.It("hands out non-overlapping sequential extents", func() {
			a := NewAllocator()
			first := a.Allocate(5000)
			second := a.Allocate(BlockSize)
			third := a.Allocate(1)
			g.Assert(second).Equal(first + 3)
			g.Assert(third).Equal(second + 1)
			g.Assert(a.Blocks()).Equal(third + 1)
		})

		g.It("hands out the current cursor for zero-length allocations without advancing", func() {
			a := NewAllocator()
			empty := a.Allocate(0)
			g.Assert(empty).Equal(int64(FirstDataBlock))
			g.Assert(a.Allocate(1)).Equal(empty)
		})
	})
}
