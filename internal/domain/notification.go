package domain

import "time"

// NotificationLeadDays is how far ahead of the emission date the billing
// team is notified, before rounding back to Monday.
const NotificationLeadDays = 7

// NotificationDate returns the date an item's emission is announced: seven
// days before the emission date, moved back to the preceding Monday (a
// Monday stays put).
func NotificationDate(emission time.Time) time.Time {
	d := DateOf(emission).AddDate(0, 0, -NotificationLeadDays)
	sinceMonday := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -sinceMonday)
}

// EmissionWindow returns the inclusive range of emission dates whose
// notification date is notification. ok is false when notification is not
// a Monday, since no emission date maps to it.
func EmissionWindow(notification time.Time) (from, to time.Time, ok bool) {
	n := DateOf(notification)
	if n.Weekday() != time.Monday {
		return time.Time{}, time.Time{}, false
	}
	from = n.AddDate(0, 0, NotificationLeadDays)
	to = from.AddDate(0, 0, 6)
	return from, to, true
}
