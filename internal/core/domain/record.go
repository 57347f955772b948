package domain

import (
	"errors"
	"time"
)

var (
	ErrNegativeStreak = errors.New("streak cannot be negative")
	ErrNegativeTotal  = errors.New("total_granted cannot be negative")
	ErrTotalRegressed = errors.New("total_granted can never decrease")
)

// UserID identifies a user as supplied by the messaging transport.
type UserID int64

// UserRecord is the per-user persisted state. The zero value is a valid
// never-granted record.
type UserRecord struct {
	// LastGrantAt is the moment of the most recent grant, nil before the
	// first grant.
	LastGrantAt *time.Time `json:"last_grant_at,omitempty"`

	// LastGrantWish is the wish text issued on the most recent grant.
	LastGrantWish string `json:"last_grant_wish,omitempty"`

	// StreakAnchor is the calendar date of the most recent grant, kept
	// separately from LastGrantAt so streak continuation is a pure date
	// comparison.
	StreakAnchor *Date `json:"streak_anchor_date,omitempty"`

	Streak       int `json:"streak"`
	TotalGranted int `json:"total_granted"`
}

// NewUserRecord returns the zero-value record used for a user seen for the
// first time. Callers must not persist it until a grant happens.
func NewUserRecord() *UserRecord {
	return &UserRecord{}
}

// Clone returns a deep copy so engine updates never mutate the caller's
// record in place.
func (r *UserRecord) Clone() *UserRecord {
	clone := *r
	if r.LastGrantAt != nil {
		t := *r.LastGrantAt
		clone.LastGrantAt = &t
	}
	if r.StreakAnchor != nil {
		d := *r.StreakAnchor
		clone.StreakAnchor = &d
	}
	return &clone
}

// Validate checks the stored counters for structural sanity.
func (r *UserRecord) Validate() error {
	if r.Streak < 0 {
		return ErrNegativeStreak
	}
	if r.TotalGranted < 0 {
		return ErrNegativeTotal
	}
	return nil
}
