package shared

import "time"

// TimestampLayout is the canonical wire format for stored timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// PeriodLayout formats a year-month billing period.
const PeriodLayout = "2006-01"

// CombineDateTime takes the calendar date from day and the time of day from
// now. Backdated entries keep the "when during the day" component of the
// moment they were actually typed in.
func CombineDateTime(day, now time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(),
		now.Hour(), now.Minute(), now.Second(), 0, now.Location())
}

// Period derives the year-month grouping key from a stored timestamp,
// shifted by the configured fixed local offset. The original deployment runs
// at UTC-3 and stores UTC timestamps; the offset is configuration, not a
// timezone database lookup.
func Period(t time.Time, offset time.Duration) string {
	return t.Add(offset).Format(PeriodLayout)
}

// LocalDate applies the fixed offset for display next to the stored value.
func LocalDate(t time.Time, offset time.Duration) string {
	return t.Add(offset).Format(TimestampLayout)
}
