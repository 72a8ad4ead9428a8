package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker keeps a single carriage-return line on a terminal up to
// date while talks are ingested. It is safe for concurrent use.
type ProgressTracker struct {
	mu       sync.Mutex
	out      io.Writer
	total    int
	every    int
	done     int
	vectors  int
	reported int
	began    time.Time
	running  bool
}

// NewProgressTracker creates a tracker for total talks that redraws once
// per every talks. Values below 1 redraw on each talk.
func NewProgressTracker(out io.Writer, total, every int) *ProgressTracker {
	return &ProgressTracker{out: out, total: total, every: max(every, 1)}
}

// Start resets the counters and starts the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done, p.vectors, p.reported = 0, 0, 0
	p.began = time.Now()
	p.running = true
}

// Advance records one finished talk and the vectors it produced.
func (p *ProgressTracker) Advance(vectors int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.done = min(p.done+1, p.total)
	p.vectors += vectors
	if p.done-p.reported >= p.every {
		p.draw()
		p.reported = p.done
	}
}

// Finish draws the final state and ends the line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.draw()
	fmt.Fprintln(p.out)
	p.running = false
}

// Elapsed returns the time since Start, or zero once finished.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return 0
	}
	return time.Since(p.began)
}

// draw requires p.mu.
func (p *ProgressTracker) draw() {
	var pct, rate float64
	if p.total > 0 {
		pct = 100 * float64(p.done) / float64(p.total)
	}
	if secs := time.Since(p.began).Seconds(); secs > 0 {
		rate = float64(p.done) / secs
	}
	fmt.Fprintf(p.out, "\rIngested: %d/%d talks (%.1f%%) - %d vectors - %.1f talks/s",
		p.done, p.total, pct, p.vectors, rate)
}
