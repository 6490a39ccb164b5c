package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ScheduleRecord is one row of the schedule ledger: what a run scheduled,
// and whether it created or updated the broadcast.
type ScheduleRecord struct {
	VideoID             string
	Title               string
	ScheduledStartUTC   time.Time
	ScheduledStartLocal string
	Action              string // "created" | "updated"
	StreamID            *string
	RecordedAt          time.Time
}

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	normalizedURL, schema := normalizeDatabaseURL(databaseURL)
	cfg, err := pgxpool.ParseConfig(normalizedURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		if cfg.ConnConfig.RuntimeParams == nil {
			cfg.ConnConfig.RuntimeParams = map[string]string{}
		}
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
	}
	// We intentionally use the SimpleProtocol so we can run multi-statement schema SQL.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return p, nil
}

func normalizeDatabaseURL(databaseURL string) (string, string) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return databaseURL, ""
	}
	q := u.Query()
	schema := q.Get("schema")
	if schema == "" {
		return databaseURL, ""
	}
	q.Del("schema")
	u.RawQuery = q.Encode()
	return u.String(), schema
}

func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("nil pool")
	}
	if _, err := pool.Exec(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func RecordSchedule(ctx context.Context, pool *pgxpool.Pool, r ScheduleRecord) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO yt.scheduled_broadcasts (
			video_id,
			title,
			scheduled_start_utc,
			scheduled_start_local,
			action,
			stream_id,
			recorded_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7
		)
		ON CONFLICT (video_id)
		DO UPDATE SET
			title = EXCLUDED.title,
			scheduled_start_utc = EXCLUDED.scheduled_start_utc,
			scheduled_start_local = EXCLUDED.scheduled_start_local,
			action = EXCLUDED.action,
			stream_id = EXCLUDED.stream_id,
			recorded_at = EXCLUDED.recorded_at
	`, r.VideoID, r.Title, r.ScheduledStartUTC, r.ScheduledStartLocal, r.Action, r.StreamID, r.RecordedAt)
	if err != nil {
		return fmt.Errorf("record schedule (video=%s): %w", r.VideoID, err)
	}
	return nil
}

// LastRecorded returns the most recent ledger rows, newest first.
func LastRecorded(ctx context.Context, pool *pgxpool.Pool, limit int) ([]ScheduleRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := pool.Query(ctx, `
		SELECT video_id, title, scheduled_start_utc, scheduled_start_local, action, stream_id, recorded_at
		FROM yt.scheduled_broadcasts
		ORDER BY recorded_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var out []ScheduleRecord
	for rows.Next() {
		var r ScheduleRecord
		if err := rows.Scan(&r.VideoID, &r.Title, &r.ScheduledStartUTC, &r.ScheduledStartLocal, &r.Action, &r.StreamID, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		out = append(out, r)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", rows.Err())
	}
	return out, nil
}
