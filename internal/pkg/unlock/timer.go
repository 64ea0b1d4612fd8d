// Package unlock tracks user inactivity. Every interaction resets the timer;
// when it runs out the session is locked.
package unlock

import (
	"context"
	"time"
)

type Timer struct {
	timeout  time.Duration
	resets   chan struct{}
	onExpire func()
}

func New(timeout time.Duration, onExpire func()) *Timer {
	return &Timer{
		timeout:  timeout,
		resets:   make(chan struct{}, 1),
		onExpire: onExpire,
	}
}

// Reset never blocks. Resets arriving while one is pending collapse into it.
func (t *Timer) Reset() {
	select {
	case t.resets <- struct{}{}:
	default:
	}
}

// Run returns true when the timer expired and false when ctx was cancelled
// first. A zero timeout disables locking.
func (t *Timer) Run(ctx context.Context) bool {
	if t.timeout <= 0 {
		<-ctx.Done()
		return false
	}

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-t.resets:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(t.timeout)
		case <-timer.C:
			if t.onExpire != nil {
				t.onExpire()
			}
			return true
		}
	}
}
