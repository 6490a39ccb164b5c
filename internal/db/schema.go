package db

const SchemaSQL = `
CREATE SCHEMA IF NOT EXISTS yt;

CREATE TABLE IF NOT EXISTS yt.scheduled_broadcasts (
	video_id              text PRIMARY KEY,
	title                 text NOT NULL,
	scheduled_start_utc   timestamptz NOT NULL,
	scheduled_start_local text NOT NULL,
	action                text NOT NULL,
	stream_id             text,
	recorded_at           timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS scheduled_broadcasts_recorded_at_idx
	ON yt.scheduled_broadcasts (recorded_at DESC);
`
