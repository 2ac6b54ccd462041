package out

import "context"

// CountStore keeps per-profile, per-day break tallies by kind.
type CountStore interface {
	Counts(ctx context.Context, profileID, day string) (map[string]int, error)
	Increment(ctx context.Context, profileID, day, kind string) (int, error)
}
