package showtime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const WindowDays = 7

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AvailableDates returns WindowDays consecutive days starting today.
func AvailableDates(now time.Time) []time.Time {
	today := Day(now)

	dates := make([]time.Time, WindowDays)
	for i := range dates {
		dates[i] = today.AddDate(0, 0, i)
	}

	return dates
}

// InWindow reports whether date falls within the bookable window.
func InWindow(date, now time.Time) bool {
	today := Day(now)
	day := Day(date.In(now.Location()))

	return !day.Before(today) && day.Before(today.AddDate(0, 0, WindowDays))
}

func parseClock(clock string) (int, int, error) {
	hh, mm, ok := strings.Cut(clock, ":")
	if !ok {
		return 0, 0, fmt.Errorf("malformed time of day %q", clock)
	}

	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("malformed time of day %q", clock)
	}

	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("malformed time of day %q", clock)
	}

	return hour, minute, nil
}

// FormatShowTime converts a 24h "15:04" time of day to "3:04 PM".
func FormatShowTime(clock string) string {
	hour, minute, err := parseClock(clock)
	if err != nil {
		return clock
	}

	period := "AM"
	if hour >= 12 {
		period = "PM"
	}

	displayHour := hour % 12
	if displayHour == 0 {
		displayHour = 12
	}

	return fmt.Sprintf("%d:%02d %s", displayHour, minute, period)
}

// Timestamp combines the calendar date with a time of day. A result that is
// already in the past rolls over to the following day.
func Timestamp(date time.Time, clock string, now time.Time) (time.Time, error) {
	hour, minute, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}

	day := Day(date.In(now.Location()))
	ts := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())

	if ts.Before(now) {
		ts = ts.AddDate(0, 0, 1)
	}

	return ts, nil
}
