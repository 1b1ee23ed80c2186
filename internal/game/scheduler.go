package game

import "time"

// Timer is an armed deferred action. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Scheduler arms phase timeouts.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallScheduler struct{}

func (wallScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
