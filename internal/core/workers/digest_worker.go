package workers

import (
	"context"
	"log"
	"time"

	"github.com/evkarev/dailywish/internal/core/domain"
)

type RecordLister interface {
	List(ctx context.Context) (map[domain.UserID]*domain.UserRecord, error)
}

// DigestSummary is a point-in-time rollup of the whole record store.
type DigestSummary struct {
	Date          domain.Date `json:"date"`
	Users         int         `json:"users"`
	GrantedToday  int         `json:"granted_today"`
	ActiveStreaks int         `json:"active_streaks"`
	LongestActive int         `json:"longest_active"`
	TotalGranted  int         `json:"total_granted"`
}

type DigestJob struct {
	At time.Time
}

// DigestWorker logs a store rollup once per local midnight and on demand.
// It only reads; grants stay synchronous in the service.
type DigestWorker struct {
	records RecordLister
	loc     *time.Location
	jobs    chan DigestJob
}

func NewDigestWorker(records RecordLister, loc *time.Location) *DigestWorker {
	if loc == nil {
		loc = time.Local
	}
	return &DigestWorker{
		records: records,
		loc:     loc,
		jobs:    make(chan DigestJob, 100),
	}
}

func (w *DigestWorker) Start(ctx context.Context) {
	go func() {
		log.Println("Digest Worker started in background...")
		timer := time.NewTimer(domain.UntilReset(time.Now(), w.loc))
		defer timer.Stop()
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-timer.C:
				// Fires just past midnight, so the rollup covers the day
				// that just ended.
				w.processJob(ctx, DigestJob{At: time.Now().Add(-time.Minute)})
				timer.Reset(domain.UntilReset(time.Now(), w.loc))
			case <-ctx.Done():
				log.Println("Digest Worker shutting down...")
				return
			}
		}
	}()
}

func (w *DigestWorker) Enqueue(at time.Time) {
	select {
	case w.jobs <- DigestJob{At: at}:
	default:
		log.Printf("Digest Worker queue full! Dropping job for %s", at.Format(time.RFC3339))
	}
}

func (w *DigestWorker) processJob(ctx context.Context, job DigestJob) {
	summary, err := w.Snapshot(ctx, job.At)
	if err != nil {
		log.Printf("Digest Worker error: %v", err)
		return
	}
	log.Printf("Digest %s: users=%d granted_today=%d active_streaks=%d longest_active=%d total_granted=%d",
		summary.Date, summary.Users, summary.GrantedToday, summary.ActiveStreaks,
		summary.LongestActive, summary.TotalGranted)
}

// Snapshot computes the rollup for the calendar day of at. A streak counts
// as active while the anchor is today or yesterday, mirroring how the next
// grant would extend it.
func (w *DigestWorker) Snapshot(ctx context.Context, at time.Time) (DigestSummary, error) {
	records, err := w.records.List(ctx)
	if err != nil {
		return DigestSummary{}, err
	}

	today := domain.DateOf(at, w.loc)
	summary := DigestSummary{
		Date:  today,
		Users: len(records),
	}

	for _, record := range records {
		summary.TotalGranted += record.TotalGranted

		if record.LastGrantAt != nil && domain.DateOf(*record.LastGrantAt, w.loc) == today {
			summary.GrantedToday++
		}

		if record.StreakAnchor == nil {
			continue
		}
		anchor := *record.StreakAnchor
		if anchor == today || anchor == today.Prev() {
			summary.ActiveStreaks++
			if record.Streak > summary.LongestActive {
				summary.LongestActive = record.Streak
			}
		}
	}

	return summary, nil
}
