package calendar_test

import (
	"testing"
	"time"

	"go-leave/internal/calendar"

	"github.com/stretchr/testify/assert"
)

func date(s string) time.Time {
	t, err := time.Parse(calendar.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCalendar_BusinessDays(t *testing.T) {
	cal := calendar.Default()

	tests := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{name: "single weekday", start: "2025-06-03", end: "2025-06-03", want: 1},
		{name: "full working week", start: "2025-06-02", end: "2025-06-06", want: 5},
		{name: "weekend only", start: "2025-06-14", end: "2025-06-15", want: 0},
		{name: "spans weekend", start: "2025-06-05", end: "2025-06-10", want: 4},
		{name: "holiday on weekday excluded", start: "2025-08-14", end: "2025-08-15", want: 1},
		{name: "holiday only", start: "2025-12-25", end: "2025-12-25", want: 0},
		{name: "diwali week", start: "2025-10-20", end: "2025-10-24", want: 2},
		{name: "end before start", start: "2025-06-10", end: "2025-06-09", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.BusinessDays(date(tt.start), date(tt.end)))
		})
	}
}

func TestCalendar_FromDates(t *testing.T) {
	cal, err := calendar.FromDates([]string{"2026-03-02"})
	assert.NoError(t, err)
	assert.True(t, cal.IsHoliday(date("2026-03-02")))
	assert.False(t, cal.IsWorkingDay(date("2026-03-02")))
	assert.True(t, cal.IsWorkingDay(date("2026-03-03")))

	_, err = calendar.FromDates([]string{"02/03/2026"})
	assert.Error(t, err)
}

func TestCalendar_List(t *testing.T) {
	cal, err := calendar.New([]calendar.Holiday{
		{Date: "2026-01-01", Name: "New Year"},
		{Date: "2025-12-25", Name: "Christmas"},
		{Date: "2025-01-01", Name: "New Year"},
	})
	assert.NoError(t, err)

	all := cal.List(0)
	assert.Len(t, all, 3)
	assert.Equal(t, "2025-01-01", all[0].Date)

	only2025 := cal.List(2025)
	assert.Len(t, only2025, 2)
	assert.Equal(t, "2025-12-25", only2025[1].Date)
}
