package domain

import (
	"context"
	"time"
)

// GrantEvent is one successful grant, recorded for operator forensics.
type GrantEvent struct {
	ID        string    `json:"id"`
	UserID    UserID    `json:"user_id"`
	Wish      string    `json:"wish"`
	Streak    int       `json:"streak"`
	Total     int       `json:"total"`
	Exempt    bool      `json:"exempt,omitempty"`
	GrantedAt time.Time `json:"granted_at"`
}

// GrantJournal is an append-only log of grants.
type GrantJournal interface {
	Append(ctx context.Context, event GrantEvent) error

	// Tail returns up to n most recent events, oldest first.
	Tail(ctx context.Context, n int) ([]GrantEvent, error)
}
