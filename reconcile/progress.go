package reconcile

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker tracks and reports progress of a reconcile pass.
type ProgressTracker struct {
	writer         io.Writer
	label          string
	total          int
	current        int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// label: prefix of every progress line
// total: total number of items to process, or 0 when unknown
// reportInterval: report progress every N items
func NewProgressTracker(writer io.Writer, label string, total, reportInterval int) *ProgressTracker {
	if reportInterval <= 0 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		label:          label,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress from the given count of items already done.
func (p *ProgressTracker) Start(done int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.current = p.clamp(done)
	p.lastReported = p.current
}

// Increment increases the current progress by the specified amount.
func (p *ProgressTracker) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.current = p.clamp(p.current + delta)

	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// Finish prints final progress. With a known total the count is set to it.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	if p.total > 0 {
		p.current = p.total
	}
	p.report()
	fmt.Fprintln(p.writer)
}

// Current returns the number of items counted so far.
func (p *ProgressTracker) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

func (p *ProgressTracker) clamp(n int) int {
	if p.total > 0 && n > p.total {
		return p.total
	}
	return n
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	rate := 0.0
	if elapsed := time.Since(p.startTime).Seconds(); elapsed > 0 {
		rate = float64(p.current) / elapsed
	}

	if p.total <= 0 {
		fmt.Fprintf(p.writer, "\r%s: %d - %.1f records/s", p.label, p.current, rate)
		return
	}

	percentage := float64(p.current) / float64(p.total) * 100.0
	fmt.Fprintf(p.writer, "\r%s: %d/%d (%.1f%%) - %.1f records/s",
		p.label, p.current, p.total, percentage, rate)
}
