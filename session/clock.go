package session

import "time"

// Clock supplies the current time. time.Now readings carry a monotonic
// component, so expiry is immune to wall-clock steps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the default Clock.
var SystemClock Clock = systemClock{}
