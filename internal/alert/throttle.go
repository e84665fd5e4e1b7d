package alert

import (
	"sync"
	"time"
)

type throttleState int

const (
	stateIdle throttleState = iota
	stateCoolingDown
)

// Throttle lets at most one message through per window. A message submitted
// while idle fires at once and starts a window; messages submitted during a
// window replace the pending one, which fires when the window closes and
// starts the next window.
type Throttle struct {
	mutex   sync.Mutex
	window  time.Duration
	state   throttleState
	pending *string
	timer   *time.Timer
	stopped bool
	fire    func(string)
	dropped func(string)
}

// NewThrottle calls fire for every message let through and dropped (if
// non-nil) for every pending message replaced by a newer one.
func NewThrottle(window time.Duration, fire func(string), dropped func(string)) *Throttle {
	return &Throttle{
		window:  window,
		fire:    fire,
		dropped: dropped,
	}
}

// Submit reports whether msg was fired immediately.
func (t *Throttle) Submit(msg string) bool {
	t.mutex.Lock()

	if t.stopped {
		t.mutex.Unlock()
		return false
	}

	if t.state == stateIdle {
		t.state = stateCoolingDown
		t.timer = time.AfterFunc(t.window, t.expire)
		t.mutex.Unlock()
		t.fire(msg)
		return true
	}

	prev := t.pending
	t.pending = &msg
	t.mutex.Unlock()

	if prev != nil && t.dropped != nil {
		t.dropped(*prev)
	}
	return false
}

func (t *Throttle) expire() {
	t.mutex.Lock()

	if t.stopped {
		t.mutex.Unlock()
		return
	}

	if t.pending == nil {
		t.state = stateIdle
		t.timer = nil
		t.mutex.Unlock()
		return
	}

	msg := *t.pending
	t.pending = nil
	t.timer = time.AfterFunc(t.window, t.expire)
	t.mutex.Unlock()

	t.fire(msg)
}

// Idle reports whether no window is currently open.
func (t *Throttle) Idle() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.state == stateIdle
}

// Stop cancels the current window and discards any pending message.
func (t *Throttle) Stop() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.stopped = true
	t.pending = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
