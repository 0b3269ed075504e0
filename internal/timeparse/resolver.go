package timeparse

import (
	"context"
	"errors"
	"time"
)

// ErrUnresolvable means the phrase could not be converted into a
// concrete timestamp (e.g. "next week" with no day or time).
var ErrUnresolvable = errors.New("timeparse: phrase cannot be resolved")

// Resolver converts one free-text time phrase into an absolute local
// timestamp, anchored at the given reference instant.
type Resolver interface {
	Resolve(ctx context.Context, phrase string, reference time.Time, loc *time.Location) (time.Time, error)
}
