package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/evkarev/dailywish/internal/core/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var _ domain.RecordRepository = (*PostgresRecordRepository)(nil)

// PostgresRecordRepository is the keyed-storage variant of the store: one
// row per user instead of one rewritten document, atomic per user via the
// row upsert. Expected schema:
//
//	CREATE TABLE user_records (
//	    user_id            BIGINT PRIMARY KEY,
//	    last_grant_at      TIMESTAMPTZ,
//	    last_grant_wish    TEXT,
//	    streak_anchor_date DATE,
//	    streak             INT NOT NULL DEFAULT 0,
//	    total_granted      INT NOT NULL DEFAULT 0,
//	    updated_at         TIMESTAMPTZ NOT NULL
//	);
type PostgresRecordRepository struct {
	db *sqlx.DB
}

func NewPostgresRecordRepository(db *sqlx.DB) *PostgresRecordRepository {
	return &PostgresRecordRepository{db: db}
}

func (r *PostgresRecordRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.UserRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
		SELECT last_grant_at, last_grant_wish, streak_anchor_date, streak, total_granted
		FROM user_records
		WHERE user_id = $1
	`

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, wrapPgError(fmt.Errorf("repository: get record for user %d: %w", id, err))
	}
	return record, nil
}

func (r *PostgresRecordRepository) Upsert(ctx context.Context, id domain.UserID, record *domain.UserRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
		INSERT INTO user_records (
			user_id, last_grant_at, last_grant_wish, streak_anchor_date,
			streak, total_granted, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			last_grant_at      = EXCLUDED.last_grant_at,
			last_grant_wish    = EXCLUDED.last_grant_wish,
			streak_anchor_date = EXCLUDED.streak_anchor_date,
			streak             = EXCLUDED.streak,
			total_granted      = EXCLUDED.total_granted,
			updated_at         = EXCLUDED.updated_at
	`

	var anchor interface{}
	if record.StreakAnchor != nil {
		anchor = record.StreakAnchor.Time(time.UTC)
	}
	var wish interface{}
	if record.LastGrantWish != "" {
		wish = record.LastGrantWish
	}

	_, err := r.db.ExecContext(ctx, query,
		int64(id), record.LastGrantAt, wish, anchor,
		record.Streak, record.TotalGranted, time.Now().UTC(),
	)
	if err != nil {
		return wrapPgError(fmt.Errorf("repository: upsert record for user %d: %w", id, err))
	}
	return nil
}

func (r *PostgresRecordRepository) List(ctx context.Context) (map[domain.UserID]*domain.UserRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		SELECT user_id, last_grant_at, last_grant_wish, streak_anchor_date, streak, total_granted
		FROM user_records
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapPgError(fmt.Errorf("repository: list records: %w", err))
	}
	defer rows.Close()

	out := make(map[domain.UserID]*domain.UserRecord)
	for rows.Next() {
		var (
			userID  int64
			grantAt sql.NullTime
			wish    sql.NullString
			anchor  sql.NullTime
			record  domain.UserRecord
		)
		if err := rows.Scan(&userID, &grantAt, &wish, &anchor, &record.Streak, &record.TotalGranted); err != nil {
			return nil, fmt.Errorf("repository: scan record: %w", err)
		}
		applyNullable(&record, grantAt, wish, anchor)
		out[domain.UserID(userID)] = &record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate records: %w", err)
	}
	return out, nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scannable) (*domain.UserRecord, error) {
	var (
		grantAt sql.NullTime
		wish    sql.NullString
		anchor  sql.NullTime
		record  domain.UserRecord
	)
	if err := row.Scan(&grantAt, &wish, &anchor, &record.Streak, &record.TotalGranted); err != nil {
		return nil, err
	}
	applyNullable(&record, grantAt, wish, anchor)
	return &record, nil
}

func applyNullable(record *domain.UserRecord, grantAt sql.NullTime, wish sql.NullString, anchor sql.NullTime) {
	if grantAt.Valid {
		t := grantAt.Time
		record.LastGrantAt = &t
	}
	if wish.Valid {
		record.LastGrantWish = wish.String
	}
	if anchor.Valid {
		d := domain.DateOf(anchor.Time, time.UTC)
		record.StreakAnchor = &d
	}
}

// wrapPgError turns the most common operational mistake (schema never
// applied) into something actionable instead of a bare SQLSTATE.
func wrapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		return fmt.Errorf("%w (user_records table missing, apply the schema first)", err)
	}
	return err
}
