package broadcast

import (
	"sort"
	"strings"
	"time"

	"bethel/streamtools/ytscheduler/internal/youtube"
)

// Settings is the reusable slice of a prior broadcast: everything the next
// broadcast inherits.
type Settings struct {
	Title        string
	Description  string
	ThumbnailURL string
	Privacy      string
	AutoStart    bool
	AutoStop     bool
	StreamID     string
}

// Default returns the settings used when no prior broadcast can be found.
func Default() Settings {
	return Settings{
		Title:       "Bethel Livestream",
		Description: "Join us live this Sunday at 9:20 AM CST!",
		Privacy:     "public",
		AutoStart:   true,
		AutoStop:    true,
	}
}

// SettingsFrom derives settings from the most recently published broadcast
// in items, filling any missing field from Default. Empty input yields the
// defaults unchanged.
func SettingsFrom(items []youtube.Broadcast) Settings {
	s := Default()
	if len(items) == 0 {
		return s
	}

	sorted := make([]youtube.Broadcast, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})
	last := sorted[0]

	if last.Title != "" {
		s.Title = last.Title
	}
	if last.Description != "" {
		s.Description = last.Description
	}
	s.ThumbnailURL = last.ThumbnailURL
	if last.PrivacyStatus != "" {
		s.Privacy = last.PrivacyStatus
	}
	if last.EnableAutoStart != nil {
		s.AutoStart = *last.EnableAutoStart
	}
	if last.EnableAutoStop != nil {
		s.AutoStop = *last.EnableAutoStop
	}
	s.StreamID = last.BoundStreamID
	return s
}

// Upcoming returns the "upcoming" broadcast with the earliest scheduled
// start, or nil when none exists. Broadcasts without a scheduled start sort
// last.
func Upcoming(items []youtube.Broadcast) *youtube.Broadcast {
	var best *youtube.Broadcast
	for i := range items {
		b := &items[i]
		if b.LifeCycleStatus != "upcoming" {
			continue
		}
		if best == nil || earlier(b.ScheduledStartTime, best.ScheduledStartTime) {
			best = b
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}

func earlier(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}

// NextTitle rebuilds the broadcast title from the previous one: the stem
// before the first "-" plus the new local date. A title that already carries
// a date suffix gets it replaced, never stacked.
func NextTitle(lastTitle string, local time.Time) string {
	stem := lastTitle
	if i := strings.Index(lastTitle, "-"); i >= 0 {
		stem = lastTitle[:i]
	}
	return strings.TrimSpace(stem) + " - " + local.Format("2006 01 02")
}
