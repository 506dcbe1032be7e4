// Package scheduler provides the single-slot debounced task used to
// coalesce stylesheet commits onto frame boundaries.
package scheduler

import "time"

// FrameDelay is one frame at 60 Hz
const FrameDelay = time.Second / 60

// State of a scheduled task
type State int

const (
	Idle State = iota
	Scheduled
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Running:
		return "running"
	}
	return "unknown"
}

// Task is a cancellable one-shot. Start arms it and is a no-op while it
// is already armed, Clear disarms it. An armed task runs its callback once.
type Task interface {
	Start()
	Clear()
	State() State
}

// Factory binds a callback to a new Task
type Factory func(fire func()) Task
