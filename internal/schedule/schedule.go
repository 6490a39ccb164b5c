package schedule

import "time"

// Slot is a fixed weekly broadcast slot in a named time zone.
type Slot struct {
	Weekday  time.Weekday
	Hour     int
	Minute   int
	Location *time.Location
}

// Occurrence is one concrete instance of a Slot.
type Occurrence struct {
	Local time.Time
	UTC   time.Time
}

// Next returns the slot's next occurrence strictly after today. When run on
// the slot's own weekday the occurrence is a full week out, even if the slot
// time has not yet passed — re-runs on broadcast day must never reschedule
// that day's event.
func (s Slot) Next(now time.Time) Occurrence {
	local := now.In(s.Location)
	days := (int(s.Weekday) - int(local.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	d := local.AddDate(0, 0, days)
	at := time.Date(d.Year(), d.Month(), d.Day(), s.Hour, s.Minute, 0, 0, s.Location)
	return Occurrence{Local: at, UTC: at.UTC()}
}
