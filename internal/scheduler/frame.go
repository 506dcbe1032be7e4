package scheduler

import (
	"sync"
	"time"
)

// Frame runs its callback on a timer, one frame after Start
type Frame struct {
	delay time.Duration
	fire  func()

	mu    sync.Mutex
	state State
	gen   uint64
	timer *time.Timer
}

// NewFrame creates a frame task. A non-positive delay uses FrameDelay.
func NewFrame(fire func(), delay time.Duration) *Frame {
	if delay <= 0 {
		delay = FrameDelay
	}
	return &Frame{delay: delay, fire: fire}
}

// FrameFactory returns a Factory producing Frame tasks with delay
func FrameFactory(delay time.Duration) Factory {
	return func(fire func()) Task {
		return NewFrame(fire, delay)
	}
}

// Start implements Task
func (f *Frame) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Scheduled {
		return
	}
	f.gen++
	gen := f.gen
	f.state = Scheduled
	f.timer = time.AfterFunc(f.delay, func() { f.run(gen) })
}

// Clear implements Task
func (f *Frame) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.gen++
	f.state = Idle
}

// State implements Task
func (f *Frame) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Frame) run(gen uint64) {
	f.mu.Lock()
	// a Clear or a later Start invalidated this timer
	if gen != f.gen || f.state != Scheduled {
		f.mu.Unlock()
		return
	}
	f.state = Running
	f.timer = nil
	f.mu.Unlock()

	f.fire()

	f.mu.Lock()
	if f.gen == gen && f.state == Running {
		f.state = Idle
	}
	f.mu.Unlock()
}

var _ Task = (*Frame)(nil)
