package schedule

import (
	"time"

	"github.com/centavo-app/centavo/internal/model"
)

// NextRunDate computes the occurrence that follows current for the given
// schedule. Pure; it never consults stored state.
//
// Monthly schedules with a day-of-month advance to that day in the next
// month, clamped to the month's last day (day 31 in a 30-day month lands on
// day 30; January 31 advances to February 29 in a leap year).
func NextRunDate(rec *model.Recurring, current time.Time) time.Time {
	switch rec.Frequency {
	case model.FrequencyDaily:
		return current.AddDate(0, 0, 1)
	case model.FrequencyWeekly:
		return current.AddDate(0, 0, 7)
	case model.FrequencyMonthly:
		if rec.DayOfMonth > 0 {
			return sameDayNextMonth(current, rec.DayOfMonth)
		}
		return current.AddDate(0, 1, 0)
	case model.FrequencyQuarterly:
		return current.AddDate(0, 3, 0)
	case model.FrequencyYearly:
		return current.AddDate(1, 0, 0)
	}
	return current.AddDate(0, 1, 0)
}

func sameDayNextMonth(current time.Time, dayOfMonth int) time.Time {
	year, month, _ := current.Date()
	month++

	day := dayOfMonth
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, current.Location())
}

// daysInMonth returns the number of days in the given month; day zero of
// the following month normalizes to its last day.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
