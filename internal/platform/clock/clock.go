package clock

import "time"

// Clock abstracts time so expiry rules can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// Fixed always returns the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }
