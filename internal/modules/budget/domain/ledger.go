package domain

import "time"

// Entry is one profile's study budget for one calendar day.
type Entry struct {
	ProfileID       string
	Day             string
	AllowedSeconds  int64
	ConsumedSeconds int64
	UpdatedAt       time.Time
}

func NewEntry(profileID, day string, allowed int64, now time.Time) Entry {
	if allowed < 0 {
		allowed = 0
	}
	return Entry{ProfileID: profileID, Day: day, AllowedSeconds: allowed, UpdatedAt: now}
}

func (e Entry) Remaining() int64 {
	remaining := e.AllowedSeconds - e.ConsumedSeconds
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (e Entry) Exhausted() bool {
	return e.Remaining() == 0
}

// Consume charges seconds against the entry. Consumption never exceeds the
// allowance, so remaining+consumed always equals allowed.
func (e Entry) Consume(seconds int64, now time.Time) Entry {
	if seconds <= 0 {
		return e
	}
	if seconds > e.Remaining() {
		seconds = e.Remaining()
	}
	e.ConsumedSeconds += seconds
	e.UpdatedAt = now
	return e
}
