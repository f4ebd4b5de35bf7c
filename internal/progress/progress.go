// Package progress tracks the number of bytes an I/O operation has pushed
// through against an expected total, and renders that state for a terminal.
package progress

import (
	"io"
	"strings"
	"sync/atomic"

	"github.com/isoforge/isoforge/system"
)

// Progress is used to track the progress of any I/O operation that is being
// performed.
type Progress struct {
	// written is the total number of bytes that have been written so far.
	written uint64
	// total is the expected total size of the operation in bytes.
	total uint64

	// Writer is an optional writer that all writes are forwarded to.
	Writer io.Writer
}

// NewProgress returns a new progress tracker for the given total size.
func NewProgress(total uint64) *Progress {
	return &Progress{total: total}
}

// Written returns the total number of bytes written so far.
func (p *Progress) Written() uint64 {
	return atomic.LoadUint64(&p.written)
}

// Total returns the total size in bytes.
func (p *Progress) Total() uint64 {
	return atomic.LoadUint64(&p.total)
}

// SetTotal sets the expected total size of the operation in bytes. This is
// safe to call concurrently with writes when the total is still being
// computed as data flows through the tracker.
func (p *Progress) SetTotal(total uint64) {
	atomic.StoreUint64(&p.total, total)
}

// Write totals the number of bytes that have been written to the writer.
func (p *Progress) Write(v []byte) (int, error) {
	n := len(v)
	atomic.AddUint64(&p.written, uint64(n))
	if p.Writer != nil {
		return p.Writer.Write(v)
	}
	return n, nil
}

// Percentage returns the completed percentage of the operation, clamped to
// the 0-100 range. Written bytes only ever increase, so successive calls
// within one operation are monotonically non-decreasing even when the total
// turns out to have been an underestimate.
func (p *Progress) Percentage() float64 {
	total := p.Total()
	if total == 0 {
		return 100
	}
	pct := float64(p.Written()) / float64(total) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Progress returns a formatted progress string for the current progress.
func (p *Progress) Progress(width int) string {
	ticks := int(p.Percentage() / (float64(100) / float64(width)))

	// Ensure that we never get a negative number of ticks, this will prevent
	// strings#Repeat from panicking. A negative number of ticks is likely to
	// happen when the total size is inaccurate, such as when we are going off
	// of a rough disk usage calculation.
	if ticks < 0 {
		ticks = 0
	} else if ticks > width {
		ticks = width
	}

	bar := strings.Repeat("=", ticks) + strings.Repeat(" ", width-ticks)
	return "[" + bar + "] " + system.FormatBytes(p.Written()) + " / " + system.FormatBytes(p.Total())
}
