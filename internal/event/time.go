package event

import "time"

// processStart anchors the monotonic tick dimension of logical time.
// All ticks are durations since this instant.
var processStart = time.Now()

// Time is the logical timestamp carried by every raw event: the wall-clock
// instant for reporting, plus monotonic ticks since process start for
// duration arithmetic. Wall clocks can jump; ticks cannot.
type Time struct {
	Timestamp time.Time
	Ticks     time.Duration
}

// Now returns the current logical time.
func Now() Time {
	now := time.Now()
	return Time{
		Timestamp: now,
		Ticks:     now.Sub(processStart),
	}
}

// At reconstructs a logical time from its components, e.g. when decoding
// a recorded event stream.
func At(ts time.Time, ticks time.Duration) Time {
	return Time{Timestamp: ts, Ticks: ticks}
}
