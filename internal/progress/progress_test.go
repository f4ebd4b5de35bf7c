package progress_test

import (
	"bytes"
	"testing"

	"github.com/franela/goblin"

	"github.com/isoforge/isoforge/internal/progress"
)

func TestProgress(t *testing.T) {
	g := goblin.Goblin(t)

	g.Describe("Progress", func() {
		g.It("properly initializes", func() {
			total := uint64(1000)
			p := progress.NewProgress(total)
			g.Assert(p).IsNotNil()
			g.Assert(p.Total()).Equal(total)
			g.Assert(p.Written()).Equal(uint64(0))
		})

		g.It("increments written when Write is called", func() {
			v := []byte("hello")
			p := progress.NewProgress(1000)
			_, err := p.Write(v)
			g.Assert(err).IsNil()
			g.Assert(p.Written()).Equal(uint64(len(v)))
		})

		g.It("never decreases the percentage across writes", func() {
			p := progress.NewProgress(1000)
			last := p.Percentage()
			for i := 0; i < 20; i++ {
				_, err := p.Write(bytes.Repeat([]byte{0}, 100))
				g.Assert(err).IsNil()
				pct := p.Percentage()
				g.Assert(pct >= last).IsTrue()
				last = pct
			}
		})

		g.It("clamps the percentage at 100 when written exceeds total", func() {
			p := progress.NewProgress(100)
			_, err := p.Write(bytes.Repeat([]byte{0}, 250))
			g.Assert(err).IsNil()
			g.Assert(p.Percentage()).Equal(float64(100))
		})

		g.It("reports 100 for a zero total", func() {
			p := progress.NewProgress(0)
			g.Assert(p.Percentage()).Equal(float64(100))
		})

		g.It("renders a progress bar", func() {
			v := bytes.Repeat([]byte{' '}, 100)
			p := progress.NewProgress(1000)
			_, err := p.Write(v)
			g.Assert(err).IsNil()
			g.Assert(p.Written()).Equal(uint64(len(v)))
			g.Assert(p.Progress(25)).Equal("[==                       ] 100 B / 1000 B")
		})

		g.It("renders a full bar when written exceeds total", func() {
			v := bytes.Repeat([]byte{' '}, 1001)
			p := progress.NewProgress(1000)
			_, err := p.Write(v)
			g.Assert(err).IsNil()
			g.Assert(p.Progress(25)).Equal("[=========================] 1001 B / 1000 B")
		})
	})
}
