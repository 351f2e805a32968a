package persist

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Debouncer runs a save function once writes have been quiet for the
// configured delay. Each Trigger restarts the quiet period.
type Debouncer struct {
	delay  time.Duration
	save   func() error
	logger *zap.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	stopped bool
	runMu   sync.Mutex
}

// NewDebouncer creates a Debouncer. A zero delay saves synchronously on Trigger.
func NewDebouncer(delay time.Duration, save func() error, logger *zap.Logger) *Debouncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Debouncer{delay: delay, save: save, logger: logger}
}

// Trigger schedules a save.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending = true
	if d.delay <= 0 {
		d.mu.Unlock()
		d.run()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.run)
	d.mu.Unlock()
}

// Flush runs a pending save immediately.
func (d *Debouncer) Flush() error {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	pending := d.pending
	d.pending = false
	d.mu.Unlock()

	if !pending {
		return nil
	}
	d.runMu.Lock()
	defer d.runMu.Unlock()
	return d.save()
}

// Close flushes and refuses further triggers.
func (d *Debouncer) Close() error {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	return d.Flush()
}

func (d *Debouncer) run() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.runMu.Lock()
	defer d.runMu.Unlock()
	if err := d.save(); err != nil {
		d.logger.Error("debounced save failed", zap.Error(err))
	}
}
