package scheduler

import "sync"

// Manual is a Task driven by explicit Fire calls instead of a timer
type Manual struct {
	fire func()

	mu    sync.Mutex
	state State
	runs  int
}

// NewManual creates a manual task
func NewManual(fire func()) *Manual {
	return &Manual{fire: fire}
}

// ManualFactory returns a Factory that also hands every created task to
// capture, so the caller can drive it.
func ManualFactory(capture func(*Manual)) Factory {
	return func(fire func()) Task {
		m := NewManual(fire)
		if capture != nil {
			capture(m)
		}
		return m
	}
}

// Start implements Task
func (m *Manual) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Scheduled {
		return
	}
	m.state = Scheduled
}

// Clear implements Task
func (m *Manual) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Idle
}

// State implements Task
func (m *Manual) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Fire runs the callback if the task is armed and reports whether it ran
func (m *Manual) Fire() bool {
	m.mu.Lock()
	if m.state != Scheduled {
		m.mu.Unlock()
		return false
	}
	m.state = Running
	m.runs++
	m.mu.Unlock()

	m.fire()

	m.mu.Lock()
	if m.state == Running {
		m.state = Idle
	}
	m.mu.Unlock()
	return true
}

// Runs returns how many times the callback ran
func (m *Manual) Runs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}

var _ Task = (*Manual)(nil)
