package mytime

import "time"

// ExampleTime is a fixed moment for use in tests.
var ExampleTime = time.Date(2023, time.February, 27, 23, 58, 59, 0, time.UTC)

//go:generate mockgen -source=api.go -package mytime -destination nower_mock.go Nower
type Nower interface {
	Now() time.Time
}

type RealNower struct{}

// Now is always in UTC, so stored timestamps compare equal across stores.
func (n RealNower) Now() time.Time {
	return time.Now().UTC()
}
