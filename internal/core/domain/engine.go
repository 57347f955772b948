package domain

import "time"

// Decision is the outcome of one eligibility evaluation.
type Decision struct {
	Granted bool

	// Wish is the wish text: the freshly selected one when granted, the
	// previously issued one when denied.
	Wish string

	Streak int
	Total  int

	// Remaining is the time until the next local midnight. Set only on
	// denial.
	Remaining time.Duration

	// Record is the updated record to persist. Set only on grant; a denial
	// must leave the store untouched.
	Record *UserRecord
}

// Evaluate decides whether the user gets a wish at the moment now.
//
// A grant is issued when exempt is true, the record has never been granted,
// or the last grant happened on a calendar date strictly before today.
// Anything else (including a last grant date in the future after a clock
// step) is a denial for the rest of the day.
//
// Evaluate is pure: it never mutates record and never fails on a
// well-formed record.
func Evaluate(record *UserRecord, wish string, now time.Time, loc *time.Location, exempt bool) Decision {
	today := DateOf(now, loc)

	eligible := exempt || record.LastGrantAt == nil || DateOf(*record.LastGrantAt, loc).Before(today)
	if !eligible {
		return Decision{
			Granted:   false,
			Wish:      record.LastGrantWish,
			Streak:    record.Streak,
			Total:     record.TotalGranted,
			Remaining: UntilReset(now, loc),
		}
	}

	// Anchor on yesterday continues the streak; any other anchor (nil, a
	// gap of two or more days, today itself, or a future date) resets it.
	streak := 1
	if record.StreakAnchor != nil && *record.StreakAnchor == today.Prev() {
		streak = record.Streak + 1
	}

	updated := record.Clone()
	grantedAt := now
	updated.LastGrantAt = &grantedAt
	updated.LastGrantWish = wish
	anchor := today
	updated.StreakAnchor = &anchor
	updated.Streak = streak
	updated.TotalGranted = record.TotalGranted + 1

	return Decision{
		Granted: true,
		Wish:    wish,
		Streak:  streak,
		Total:   updated.TotalGranted,
		Record:  updated,
	}
}
