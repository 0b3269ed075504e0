package timeparse

import (
	"context"
	"time"
)

// NullResolver refuses every phrase. It backs dry-run mode when no
// provider key is configured: scheduling intents land in clarification
// instead of producing fabricated timestamps.
type NullResolver struct{}

func (NullResolver) Resolve(ctx context.Context, phrase string, reference time.Time, loc *time.Location) (time.Time, error) {
	return time.Time{}, ErrUnresolvable
}
