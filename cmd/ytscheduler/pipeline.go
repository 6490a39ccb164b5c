package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bethel/streamtools/ytscheduler/internal/broadcast"
	"bethel/streamtools/ytscheduler/internal/db"
	"bethel/streamtools/ytscheduler/internal/thumbnail"
	"bethel/streamtools/ytscheduler/internal/youtube"
)

// run executes one scheduling pass. It is the single decision point for the
// two failure tiers: everything it logs with WARN is soft and execution
// continues on fallbacks; the only error it returns (broadcast insert
// failure) terminates the process.
func run(ctx context.Context, yt *youtube.Client, fetch *http.Client, pool *pgxpool.Pool, cfg Config) error {
	occ := cfg.Slot.Next(time.Now())
	log.Printf("schedule: channel=%s next slot %s (%s UTC)",
		cfg.ChannelID, occ.Local.Format(time.RFC3339), occ.UTC.Format(time.RFC3339))

	settings := inspectLast(ctx, yt, cfg.MaxResults)
	upcoming := inspectUpcoming(ctx, yt, cfg.MaxResults)

	req := youtube.BroadcastRequest{
		Title:              broadcast.NextTitle(settings.Title, occ.Local),
		Description:        settings.Description,
		ScheduledStartTime: occ.UTC,
		PrivacyStatus:      settings.Privacy,
		EnableAutoStart:    settings.AutoStart,
		EnableAutoStop:     settings.AutoStop,
	}

	res, err := broadcast.Reconcile(ctx, yt, upcoming, req)
	if err != nil {
		return err
	}
	if res.SoftErr != nil {
		log.Printf("broadcast: WARN %v", res.SoftErr)
	}
	if res.Created {
		log.Printf("broadcast: created %s title=%q start=%s", res.VideoID, req.Title, req.ScheduledStartTime.Format(time.RFC3339))
	} else {
		log.Printf("broadcast: updated %s title=%q start=%s", res.VideoID, req.Title, req.ScheduledStartTime.Format(time.RFC3339))
	}

	if settings.StreamID != "" {
		if err := yt.BindBroadcast(ctx, res.VideoID, settings.StreamID); err != nil {
			log.Printf("bind: WARN failed to bind stream %s: %v", settings.StreamID, err)
		} else {
			log.Printf("bind: bound broadcast %s to stream %s", res.VideoID, settings.StreamID)
		}
	}

	if settings.ThumbnailURL != "" {
		if err := thumbnail.Copy(ctx, fetch, yt, res.VideoID, settings.ThumbnailURL); err != nil {
			log.Printf("thumbnail: WARN %v", err)
		} else {
			log.Printf("thumbnail: copied to %s", res.VideoID)
		}
	}

	if pool != nil {
		action := "updated"
		if res.Created {
			action = "created"
		}
		var streamID *string
		if settings.StreamID != "" {
			s := settings.StreamID
			streamID = &s
		}
		rec := db.ScheduleRecord{
			VideoID:             res.VideoID,
			Title:               req.Title,
			ScheduledStartUTC:   occ.UTC,
			ScheduledStartLocal: occ.Local.Format(time.RFC3339),
			Action:              action,
			StreamID:            streamID,
			RecordedAt:          time.Now().UTC(),
		}
		if err := db.RecordSchedule(ctx, pool, rec); err != nil {
			log.Printf("ledger: WARN %v", err)
		} else {
			log.Printf("ledger: recorded %s action=%s", rec.VideoID, rec.Action)
		}
	}

	return nil
}

// inspectLast derives reusable settings from the most recent broadcast.
// Lookup failure is soft: the defaults keep the pipeline going.
func inspectLast(ctx context.Context, yt *youtube.Client, maxResults int) broadcast.Settings {
	items, err := yt.ListMyBroadcasts(ctx, maxResults)
	if err != nil {
		log.Printf("inspect: WARN could not fetch previous broadcasts, using defaults: %v", err)
		return broadcast.Default()
	}
	if len(items) == 0 {
		log.Printf("inspect: no previous broadcasts found, using defaults")
	}
	return broadcast.SettingsFrom(items)
}

// inspectUpcoming finds the broadcast to update in place. Lookup failure is
// treated the same as "none found": a new broadcast gets created.
func inspectUpcoming(ctx context.Context, yt *youtube.Client, maxResults int) *youtube.Broadcast {
	items, err := yt.ListMyBroadcasts(ctx, maxResults)
	if err != nil {
		log.Printf("inspect: WARN could not fetch upcoming broadcast: %v", err)
		return nil
	}
	return broadcast.Upcoming(items)
}
