package datefield

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// debouncer delivers only the last notification of a burst, wait after the
// burst ends.
type debouncer struct {
	clock clockwork.Clock
	wait  time.Duration
	fn    SelectFunc

	mu      sync.Mutex
	timer   clockwork.Timer
	value   string
	valid   bool
	pending bool
}

func newDebouncer(clock clockwork.Clock, wait time.Duration, fn SelectFunc) *debouncer {
	return &debouncer{clock: clock, wait: wait, fn: fn}
}

func (d *debouncer) call(value string, valid bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.value, d.valid, d.pending = value, valid, true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.wait, d.fire)
}

func (d *debouncer) fire() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	value, valid := d.value, d.valid
	d.pending = false
	d.mu.Unlock()

	d.fn(value, valid)
}

// flush delivers a pending notification immediately.
func (d *debouncer) flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	d.fire()
}
