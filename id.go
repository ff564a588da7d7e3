package sitetheory

import "github.com/oklog/ulid/v2"

// IDGenerator provides unique, time-ordered identifiers (invalidation caller references).
type IDGenerator interface {
	NewID() string
}

// ULIDGenerator generates ULIDs from the current time and a process-wide entropy source.
type ULIDGenerator struct{}

func (ULIDGenerator) NewID() string {
	return ulid.Make().String()
}
