package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/deliverydesk/internal/errs"
	"github.com/deliverydesk/internal/models"
)

// TimeOfDay is the hour:minute anchor of a recurring report.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24h clock).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return TimeOfDay{}, errs.Invalid("timeOfDay", "must be HH:MM")
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, errs.Invalid("timeOfDay", "hour must be between 00 and 23")
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, errs.Invalid("timeOfDay", "minute must be between 00 and 59")
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// NextRun returns the first occurrence of the schedule strictly after from.
// It is evaluated in from's location.
//
// A monthly dayOfMonth past the end of a month is clamped to that month's
// last day; the following month uses the configured day again.
func NextRun(freq models.Frequency, tod TimeOfDay, dayOfWeek, dayOfMonth *int, from time.Time) (time.Time, error) {
	y, mo, d := from.Date()
	loc := from.Location()

	switch freq {
	case models.FrequencyDaily:
		next := time.Date(y, mo, d, tod.Hour, tod.Minute, 0, 0, loc)
		if !next.After(from) {
			next = time.Date(y, mo, d+1, tod.Hour, tod.Minute, 0, 0, loc)
		}
		return next, nil

	case models.FrequencyWeekly:
		if dayOfWeek == nil {
			return time.Time{}, errs.Invalid("dayOfWeek", "required for weekly reports")
		}
		if *dayOfWeek < 0 || *dayOfWeek > 6 {
			return time.Time{}, errs.Invalid("dayOfWeek", "must be between 0 and 6")
		}
		ahead := (*dayOfWeek - int(from.Weekday()) + 7) % 7
		next := time.Date(y, mo, d+ahead, tod.Hour, tod.Minute, 0, 0, loc)
		if !next.After(from) {
			next = time.Date(y, mo, d+ahead+7, tod.Hour, tod.Minute, 0, 0, loc)
		}
		return next, nil

	case models.FrequencyMonthly:
		if dayOfMonth == nil {
			return time.Time{}, errs.Invalid("dayOfMonth", "required for monthly reports")
		}
		if *dayOfMonth < 1 || *dayOfMonth > 31 {
			return time.Time{}, errs.Invalid("dayOfMonth", "must be between 1 and 31")
		}
		next := monthlyOccurrence(y, mo, *dayOfMonth, tod, loc)
		if !next.After(from) {
			next = monthlyOccurrence(y, mo+1, *dayOfMonth, tod, loc)
		}
		return next, nil
	}

	return time.Time{}, errs.Invalid("frequency", fmt.Sprintf("unknown frequency %q", freq))
}

func monthlyOccurrence(year int, month time.Month, day int, tod TimeOfDay, loc *time.Location) time.Time {
	// normalize month overflow (December + 1) before clamping
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	if last := daysIn(first.Year(), first.Month(), loc); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, tod.Hour, tod.Minute, 0, 0, loc)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// NextRunFor evaluates NextRun for a stored definition.
func NextRunFor(sr *models.ScheduledReport, from time.Time) (time.Time, error) {
	tod, err := ParseTimeOfDay(sr.TimeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	return NextRun(sr.Frequency, tod, sr.DayOfWeek, sr.DayOfMonth, from)
}

// RunWindow is the period a run of sr covers. It starts at the previous
// successful run so consecutive windows meet, and falls back to
// ReportingWindow on the first run.
func RunWindow(sr *models.ScheduledReport, now time.Time) (time.Time, time.Time) {
	if sr.LastRunAt != nil && sr.LastRunAt.Before(now) {
		return sr.LastRunAt.In(now.Location()), now
	}
	return ReportingWindow(sr.Frequency, now)
}

// ReportingWindow is the nominal period of one run, ending at now.
func ReportingWindow(freq models.Frequency, now time.Time) (time.Time, time.Time) {
	switch freq {
	case models.FrequencyWeekly:
		return now.AddDate(0, 0, -7), now
	case models.FrequencyMonthly:
		// clamp like monthly schedules so Mar 31 goes back to Feb 29, not Mar 2
		first := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
		day := now.Day()
		if last := daysIn(first.Year(), first.Month(), now.Location()); day > last {
			day = last
		}
		start := time.Date(first.Year(), first.Month(), day, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location())
		return start, now
	default:
		return now.AddDate(0, 0, -1), now
	}
}
