package stream

import "time"

// Clock returns the current time in milliseconds. It must never go
// backwards.
type Clock interface {
	Now() int64
}

// SystemClock counts milliseconds on the monotonic clock since it was
// created.
type SystemClock struct {
	start time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Now() int64 {
	return time.Since(c.start).Milliseconds()
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() int64

func (f ClockFunc) Now() int64 {
	return f()
}
