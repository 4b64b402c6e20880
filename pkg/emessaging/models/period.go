package models

import (
	"fmt"
	"time"
)

// monthAbbr uses the abbreviations the billing sheets have always used,
// which spell out June, July and Sept in full.
var monthAbbr = map[time.Month]string{
	time.January:   "Jan",
	time.February:  "Feb",
	time.March:     "Mar",
	time.April:     "Apr",
	time.May:       "May",
	time.June:      "June",
	time.July:      "July",
	time.August:    "Aug",
	time.September: "Sept",
	time.October:   "Oct",
	time.November:  "Nov",
	time.December:  "Dec",
}

// PeriodLabel returns the billing period label for a date, e.g. "Jan, 2026".
// The label doubles as the billing-log file name for that period.
func PeriodLabel(t time.Time) string {
	return fmt.Sprintf("%s, %d", monthAbbr[t.Month()], t.Year())
}
