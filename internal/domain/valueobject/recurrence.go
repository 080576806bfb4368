// Package valueobject contains domain value objects for the ledger.
package valueobject

import "time"

// RecurringInterval is the cadence of a recurring transaction.
type RecurringInterval string

const (
	IntervalDaily   RecurringInterval = "DAILY"
	IntervalWeekly  RecurringInterval = "WEEKLY"
	IntervalMonthly RecurringInterval = "MONTHLY"
	IntervalYearly  RecurringInterval = "YEARLY"
)

// IsValid reports whether the interval is one of the supported cadences.
func (i RecurringInterval) IsValid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return true
	}
	return false
}

// NextOccurrence projects the next date of a recurring transaction from start.
//
// Monthly and yearly steps clamp the day of month to the last day of the
// target month, so Jan 31 + 1 month is Feb 28 (or 29) and Feb 29 + 1 year is
// Feb 28. The time of day and location of start are preserved. An unknown
// interval returns start unchanged.
func NextOccurrence(start time.Time, interval RecurringInterval) time.Time {
	return NextOccurrenceAnchored(start, interval, start.Day())
}

// NextOccurrenceAnchored steps one interval forward from from, placing monthly
// and yearly results on anchorDay clamped to the target month, so a Jan 31
// series steps to Feb 29 and then back to Mar 31.
func NextOccurrenceAnchored(from time.Time, interval RecurringInterval, anchorDay int) time.Time {
	switch interval {
	case IntervalDaily:
		return from.AddDate(0, 0, 1)
	case IntervalWeekly:
		return from.AddDate(0, 0, 7)
	case IntervalMonthly:
		return addMonthsAnchored(from, 1, anchorDay)
	case IntervalYearly:
		return addMonthsAnchored(from, 12, anchorDay)
	default:
		return from
	}
}

// addMonthsAnchored adds n calendar months and lands on day, or on the last
// day of the target month when it is shorter.
func addMonthsAnchored(t time.Time, n, day int) time.Time {
	year, month, _ := t.Date()
	// time.Date normalises month overflow into the year.
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysInMonth(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	hour, minute, sec := t.Clock()
	return time.Date(first.Year(), first.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
