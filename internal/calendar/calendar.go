// Package calendar knows which dates are working days.
package calendar

import (
	"fmt"
	"sort"
	"time"
)

const DateLayout = "2006-01-02"

type Holiday struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

var defaultHolidays = []Holiday{
	{Date: "2025-01-01", Name: "New Year's Day"},
	{Date: "2025-01-14", Name: "Makar Sankranti / Pongal"},
	{Date: "2025-01-26", Name: "Republic Day"},
	{Date: "2025-03-14", Name: "Holi"},
	{Date: "2025-03-30", Name: "Ugadi / Gudi Padwa"},
	{Date: "2025-04-10", Name: "Mahavir Jayanti"},
	{Date: "2025-04-14", Name: "Dr. B.R. Ambedkar Jayanti"},
	{Date: "2025-04-18", Name: "Good Friday"},
	{Date: "2025-05-01", Name: "Labour Day / May Day"},
	{Date: "2025-05-12", Name: "Buddha Purnima"},
	{Date: "2025-06-07", Name: "Bakrid / Eid al-Adha"},
	{Date: "2025-08-15", Name: "Independence Day"},
	{Date: "2025-08-16", Name: "Janmashtami"},
	{Date: "2025-10-02", Name: "Gandhi Jayanti"},
	{Date: "2025-10-20", Name: "Diwali"},
	{Date: "2025-10-21", Name: "Govardhan Puja"},
	{Date: "2025-10-22", Name: "Bhai Dooj"},
	{Date: "2025-11-05", Name: "Guru Nanak Jayanti"},
	{Date: "2025-12-25", Name: "Christmas Day"},
}

// Calendar is immutable after construction and safe for concurrent use.
type Calendar struct {
	holidays map[string]Holiday
}

func New(holidays []Holiday) (*Calendar, error) {
	c := &Calendar{holidays: make(map[string]Holiday, len(holidays))}
	for _, h := range holidays {
		d, err := time.Parse(DateLayout, h.Date)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", h.Date, err)
		}
		h.Date = d.Format(DateLayout)
		c.holidays[h.Date] = h
	}
	return c, nil
}

func Default() *Calendar {
	c, _ := New(defaultHolidays)
	return c
}

// FromDates builds a calendar from bare dates, as configured through the environment.
func FromDates(dates []string) (*Calendar, error) {
	holidays := make([]Holiday, 0, len(dates))
	for _, d := range dates {
		holidays = append(holidays, Holiday{Date: d, Name: "Holiday"})
	}
	return New(holidays)
}

func (c *Calendar) IsHoliday(day time.Time) bool {
	_, ok := c.holidays[day.Format(DateLayout)]
	return ok
}

func (c *Calendar) IsWorkingDay(day time.Time) bool {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.IsHoliday(day)
}

// BusinessDays counts working days in [start, end], both ends inclusive.
// It returns 0 when end is before start.
func (c *Calendar) BusinessDays(start, end time.Time) int {
	start = truncateDay(start)
	end = truncateDay(end)

	count := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if c.IsWorkingDay(day) {
			count++
		}
	}
	return count
}

// List returns the holidays of a year in date order; year 0 lists everything.
func (c *Calendar) List(year int) []Holiday {
	out := make([]Holiday, 0, len(c.holidays))
	for _, h := range c.holidays {
		if year != 0 && h.Date[:4] != fmt.Sprintf("%04d", year) {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
