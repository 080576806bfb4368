// Package dashboard contains dashboard-related use cases.
package dashboard

import "time"

// MonthBounds returns the first instant of the month containing date and the
// first instant of the following month, in date's location.
func MonthBounds(date time.Time) (start, end time.Time) {
	start = time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	end = start.AddDate(0, 1, 0)
	return start, end
}
