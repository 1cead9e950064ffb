package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLastWeek(t *testing.T) {
	wantStart := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)                   // Monday
	wantEnd := time.Date(2024, 1, 14, 23, 59, 59, 999999*1000, time.UTC)       // Sunday

	tests := []struct {
		name string
		now  time.Time
	}{
		{"monday", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"midweek", time.Date(2024, 1, 17, 12, 30, 0, 0, time.UTC)},
		{"sunday late", time.Date(2024, 1, 21, 23, 59, 59, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := LastWeek(tt.now)
			assert.True(t, w.Start.Equal(wantStart), "start %s", w.Start)
			assert.True(t, w.End.Equal(wantEnd), "end %s", w.End)
			assert.Equal(t, time.Monday, w.Start.Weekday())
			assert.Equal(t, time.Sunday, w.End.Weekday())
		})
	}
}

func TestLastWeekNeverIncludesCurrentWeek(t *testing.T) {
	now := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC) // Wednesday
	w := LastWeek(now)
	assert.True(t, w.End.Before(now))
	assert.True(t, w.End.Before(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)),
		"window must end before the current week's Monday")
	assert.Equal(t, 7*24*time.Hour-time.Microsecond, w.End.Sub(w.Start))
}

func TestWindowFormatting(t *testing.T) {
	w := Window{
		Start: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 14, 23, 59, 59, 999999000, time.UTC),
	}
	assert.Equal(t, "2024-01-08 ~ 2024-01-14", w.Label())
	assert.Equal(t, "20240108-20240114", w.FileSuffix())
}
