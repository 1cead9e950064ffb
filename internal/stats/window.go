package stats

import (
	"fmt"
	"time"
)

// Window is the closed reporting interval covering the most recent complete
// Monday-Sunday week. All bounds are UTC.
type Window struct {
	Start time.Time // Monday 00:00:00
	End   time.Time // Sunday 23:59:59.999999
}

// LastWeek computes the reporting window relative to now: the Monday through
// Sunday of the week immediately preceding the current one. The current,
// in-progress week is never included.
func LastWeek(now time.Time) Window {
	now = now.UTC()
	// Days since this week's Monday (Monday=0 ... Sunday=6).
	sinceMonday := (int(now.Weekday()) + 6) % 7
	thisMonday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -sinceMonday)
	start := thisMonday.AddDate(0, 0, -7)
	end := thisMonday.Add(-time.Microsecond)
	return Window{Start: start, End: end}
}

// Label renders the window bounds for email subjects and bodies.
func (w Window) Label() string {
	return fmt.Sprintf("%s ~ %s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}

// FileSuffix renders the window bounds for the report filename.
func (w Window) FileSuffix() string {
	return fmt.Sprintf("%s-%s", w.Start.Format("20060102"), w.End.Format("20060102"))
}
