// Package clock provides an injectable time source so that retry,
// heartbeat, and rate-limit code can be tested without wall-clock sleeps.
package clock

import "time"

// Clock abstracts the time operations the library performs. Production
// code uses Real; tests use a fake that advances manually.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	Sleep(d time.Duration)
}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (realClock) Sleep(d time.Duration)                  { time.Sleep(d) }
