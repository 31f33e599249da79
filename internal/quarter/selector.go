package quarter

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ppm-tracker-backend/internal/dateparse"
)

// Selection is the quarter chosen for display.
type Selection struct {
	Quarter int
	Key     Key
	Slot    Slot
}

// DisplayPayload is what the dashboard renders for one equipment record.
type DisplayPayload struct {
	DisplayNextMaintenance string `json:"display_next_maintenance"`
	Status                 Status `json:"Status"`
	StatusClass            string `json:"status_class"`
	ActiveQuarter          string `json:"active_quarter"`
	ActiveQuarterKey       Key    `json:"active_quarter_key"`
	ActiveQuarterData      Slot   `json:"active_quarter_data"`
}

// DashboardSummary describes the calendar position of the dashboard.
type DashboardSummary struct {
	CurrentDate            string   `json:"current_date"`
	CurrentCalendarQuarter int      `json:"current_calendar_quarter"`
	CurrentQuarterName     string   `json:"current_quarter_name"`
	QuarterKeys            []Key    `json:"quarter_keys"`
	QuarterNames           []string `json:"quarter_names"`
}

// Selector classifies quarter slots and picks the active quarter of a record.
type Selector struct {
	log zerolog.Logger
	now func() time.Time
}

// NewSelector creates a Selector. A nil now defaults to time.Now; it is only
// consulted when a caller passes a zero reference time.
func NewSelector(logger zerolog.Logger, now func() time.Time) *Selector {
	if now == nil {
		now = time.Now
	}
	return &Selector{
		log: logger.With().Str("component", "quarter").Logger(),
		now: now,
	}
}

func (s *Selector) reference(ref time.Time) time.Time {
	if ref.IsZero() {
		ref = s.now()
	}
	return calendarDay(ref)
}

// slotDate returns the parsed date of a slot, or false when the slot has no
// usable date. Parse failures are logged and never returned.
func (s *Selector) slotDate(k Key, slot Slot) (time.Time, bool) {
	if slot.Malformed() {
		s.log.Warn().Str("quarter_key", string(k)).Msg("malformed quarter slot, treating as empty")
		return time.Time{}, false
	}
	if strings.TrimSpace(slot.QuarterDate) == "" {
		return time.Time{}, false
	}
	d, err := dateparse.ParseFlexible(slot.QuarterDate)
	if err != nil {
		s.log.Warn().Err(err).Str("quarter_key", string(k)).Str("quarter_date", slot.QuarterDate).Msg("invalid date format in quarter slot")
		return time.Time{}, false
	}
	return d, true
}

// Classify returns the status of slot relative to ref. A zero ref means now.
func (s *Selector) Classify(slot Slot, ref time.Time) Status {
	return s.classify("", slot, s.reference(ref))
}

func (s *Selector) classify(k Key, slot Slot, ref time.Time) Status {
	d, ok := s.slotDate(k, slot)
	switch {
	case !ok:
		return StatusUpcoming
	case d.Before(ref):
		if slot.Performed() {
			return StatusMaintained
		}
		return StatusOverdue
	case d.Equal(ref):
		return StatusMaintained
	default:
		return StatusUpcoming
	}
}

// SelectActiveQuarter picks the quarter to show for rec. A zero ref means now.
//
// The current calendar quarter wins when it is overdue, still due, or was
// completed within GraceDays. Otherwise the following three quarters are
// scanned in order (wrapping Q4 -> Q1): the first overdue one is returned at
// once, else the first one dated on or after ref. If nothing qualifies the
// current calendar quarter is returned anyway.
func (s *Selector) SelectActiveQuarter(rec Record, ref time.Time) Selection {
	ref = s.reference(ref)
	current := CalendarQuarter(ref)

	currentKey := KeyFor(current)
	currentSlot := rec.Slot(currentKey)
	fallback := Selection{Quarter: current, Key: currentKey, Slot: currentSlot}

	if d, ok := s.slotDate(currentKey, currentSlot); ok {
		switch {
		case d.Before(ref) && !currentSlot.Performed():
			return fallback
		case !d.Before(ref):
			return fallback
		case daysBetween(d, ref) <= GraceDays:
			return fallback
		}
	}

	var candidate *Selection
	for offset := 1; offset <= 3; offset++ {
		q := (current-1+offset)%4 + 1
		k := KeyFor(q)
		slot := rec.Slot(k)

		d, ok := s.slotDate(k, slot)
		if !ok {
			continue
		}
		if d.Before(ref) && !slot.Performed() {
			return Selection{Quarter: q, Key: k, Slot: slot}
		}
		if !d.Before(ref) && candidate == nil {
			candidate = &Selection{Quarter: q, Key: k, Slot: slot}
		}
	}
	if candidate != nil {
		return *candidate
	}

	return fallback
}

// BuildDisplayPayload selects the active quarter of rec and derives its
// display fields. A zero ref means now.
func (s *Selector) BuildDisplayPayload(rec Record, ref time.Time) DisplayPayload {
	ref = s.reference(ref)
	sel := s.SelectActiveQuarter(rec, ref)
	status := s.classify(sel.Key, sel.Slot, ref)

	next := sel.Slot.QuarterDate
	if next == "" {
		next = "N/A"
	}

	return DisplayPayload{
		DisplayNextMaintenance: next,
		Status:                 status,
		StatusClass:            StatusClass(status),
		ActiveQuarter:          Name(sel.Quarter),
		ActiveQuarterKey:       sel.Key,
		ActiveQuarterData:      sel.Slot,
	}
}

// Summary reports the current calendar quarter for ref. A zero ref means now.
func (s *Selector) Summary(ref time.Time) DashboardSummary {
	ref = s.reference(ref)
	current := CalendarQuarter(ref)
	return DashboardSummary{
		CurrentDate:            ref.Format("2006-01-02"),
		CurrentCalendarQuarter: current,
		CurrentQuarterName:     Name(current),
		QuarterKeys:            append([]Key(nil), Keys[:]...),
		QuarterNames:           append([]string(nil), Names[:]...),
	}
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
