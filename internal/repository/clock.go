package repository

import "github.com/jonboulle/clockwork"

// clock stamps LoadedAt/UpdatedAt. Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the repository time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
