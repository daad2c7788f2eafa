package core

import "time"

// Clock supplies the current UTC time. The engine only consults it for the
// stale-session sweep; punch processing is driven by punch timestamps.
type Clock interface {
	Now() time.Time
}

type utcClock struct{}

func (utcClock) Now() time.Time { return time.Now().UTC() }
