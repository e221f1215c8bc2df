package scanner

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"gallerydiff/logging"
	"gallerydiff/matching"
)

var _ matching.Observer = (*ProgressTracker)(nil)

// NewProgressTracker creates a tracker drawing its bars on w
func NewProgressTracker(w io.Writer) *ProgressTracker {
	return &ProgressTracker{
		options: []progressbar.Option{
			progressbar.OptionSetWriter(w),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100 * time.Millisecond),
			progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
		},
	}
}

// Start begins a new bar, finishing any previous one
func (p *ProgressTracker) Start(label string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Finish()
	}
	options := append([]progressbar.Option{progressbar.OptionSetDescription(label)}, p.options...)
	p.bar = progressbar.NewOptions64(int64(total), options...)
}

// Advance moves the current bar forward
func (p *ProgressTracker) Advance(n int) {
	p.mu.Lock()
	bar := p.bar
	p.mu.Unlock()

	if bar != nil {
		_ = bar.Add(n)
	}
}

// Finish completes the current bar
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

// RecordResult counts a loaded file and logs its outcome
func (p *ProgressTracker) RecordResult(result LoadImageResult) {
	p.mu.Lock()
	p.processed++
	if !result.Success {
		p.errors++
	}
	p.mu.Unlock()

	errMsg := ""
	if result.Error != nil {
		errMsg = result.Error.Error()
	}
	logging.LogImageProcessed(result.Path, result.Success, errMsg)
}

// Counts returns the number of files recorded and how many of them failed
func (p *ProgressTracker) Counts() (processed, errors int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed, p.errors
}
