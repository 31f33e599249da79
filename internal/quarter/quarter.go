// Package quarter decides which quarterly preventive-maintenance slot of an
// equipment record is surfaced on the dashboard, and with which status.
//
// Everything here is a pure function of (record, reference date). Nothing is
// persisted and records are never modified, so a Selector may be shared by
// concurrent requests.
package quarter

import "time"

// Key identifies one of the four quarterly slots as stored in equipment records.
type Key string

const (
	KeyQ1 Key = "PPM_Q_I"
	KeyQ2 Key = "PPM_Q_II"
	KeyQ3 Key = "PPM_Q_III"
	KeyQ4 Key = "PPM_Q_IV"
)

// Keys lists the slots in calendar order; Keys[n-1] belongs to quarter n.
var Keys = [4]Key{KeyQ1, KeyQ2, KeyQ3, KeyQ4}

// Names are the human labels shown for each quarter.
var Names = [4]string{"Q1", "Q2", "Q3", "Q4"}

// Status is the display classification of a quarter slot.
type Status string

const (
	StatusUpcoming   Status = "Upcoming"
	StatusOverdue    Status = "Overdue"
	StatusMaintained Status = "Maintained"
)

// GraceDays is how long a completed current-quarter slot keeps being shown
// before the dashboard moves on to the next scheduled quarter.
const GraceDays = 30

// CalendarQuarter maps a date to its calendar quarter (1-4).
func CalendarQuarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// KeyFor returns the slot key of quarter n (1-4).
func KeyFor(n int) Key {
	return Keys[(n-1)%4]
}

// Name returns the label of quarter n (1-4).
func Name(n int) string {
	return Names[(n-1)%4]
}

// Number returns the quarter number of k, or 0 if k is not a slot key.
func (k Key) Number() int {
	for i, key := range Keys {
		if key == k {
			return i + 1
		}
	}
	return 0
}

// Valid reports whether k is one of the four slot keys.
func (k Key) Valid() bool {
	return k.Number() != 0
}

// StatusClass maps a status to the CSS class used by the dashboard.
func StatusClass(s Status) string {
	switch s {
	case StatusOverdue:
		return "danger"
	case StatusUpcoming:
		return "warning"
	case StatusMaintained:
		return "success"
	default:
		return "secondary"
	}
}

// calendarDay drops the clock part of t, keeping the day as seen in t's own
// location, and returns it as midnight UTC so it compares with parsed dates.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
