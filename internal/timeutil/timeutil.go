// Package timeutil provides the wall clock and day-boundary arithmetic the
// scheduler runs on.
package timeutil

import (
	"time"

	"github.com/tempodeck/tempo/internal/scheduler"
)

// Clock computes day indexes relative to a collection's creation time. The
// creation timestamp is expected to be anchored at the rollover hour of its
// day, so every day boundary falls exactly a multiple of 24h after it.
type Clock struct {
	crt int64
	// now is replaceable in tests.
	now func() time.Time
}

// New creates a clock anchored at the collection creation timestamp.
func New(crt int64) *Clock {
	return &Clock{crt: crt, now: time.Now}
}

// NewFixed creates a clock whose current time is controlled by the caller.
// Intended for tests.
func NewFixed(crt int64, now func() time.Time) *Clock {
	return &Clock{crt: crt, now: now}
}

// IntTime returns the current epoch second.
func (c *Clock) IntTime() int64 { return c.now().Unix() }

// IntTimeMS returns the current epoch millisecond.
func (c *Clock) IntTimeMS() int64 { return c.now().UnixMilli() }

// TimingToday returns the number of day boundaries crossed since collection
// creation and the epoch second of the next boundary.
func (c *Clock) TimingToday() scheduler.Timing {
	elapsed := c.IntTime() - c.crt
	days := int(elapsed / 86400)
	if days < 0 {
		days = 0
	}
	return scheduler.Timing{
		DaysElapsed: days,
		NextDayAt:   c.crt + int64(days+1)*86400,
	}
}
