package quarter

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestSelector() *Selector {
	return NewSelector(zerolog.Nop(), nil)
}

func TestCalendarQuarter(t *testing.T) {
	expected := map[time.Month]int{
		time.January: 1, time.February: 1, time.March: 1,
		time.April: 2, time.May: 2, time.June: 2,
		time.July: 3, time.August: 3, time.September: 3,
		time.October: 4, time.November: 4, time.December: 4,
	}
	for month, q := range expected {
		assert.Equal(t, q, CalendarQuarter(day(2025, month, 1)), month.String())
		assert.Equal(t, q, CalendarQuarter(time.Date(2025, month, 28, 23, 59, 59, 0, time.UTC)), month.String())
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, KeyQ3, KeyFor(3))
	assert.Equal(t, "Q4", Name(4))
	assert.Equal(t, 2, KeyQ2.Number())
	assert.Equal(t, 0, Key("PPM_Q_V").Number())
	assert.True(t, KeyQ4.Valid())
	assert.False(t, Key("").Valid())
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "danger", StatusClass(StatusOverdue))
	assert.Equal(t, "warning", StatusClass(StatusUpcoming))
	assert.Equal(t, "success", StatusClass(StatusMaintained))
	assert.Equal(t, "secondary", StatusClass(Status("Retired")))
}

func TestClassify(t *testing.T) {
	ref := day(2025, time.July, 15)
	s := newTestSelector()

	testCases := []struct {
		name     string
		slot     Slot
		expected Status
	}{
		{name: "no date", slot: Slot{Engineer: "JOHN"}, expected: StatusUpcoming},
		{name: "past with engineer", slot: Slot{QuarterDate: "01/07/2025", Engineer: "JOHN"}, expected: StatusMaintained},
		{name: "past without engineer", slot: Slot{QuarterDate: "01/07/2025"}, expected: StatusOverdue},
		{name: "past with blank engineer", slot: Slot{QuarterDate: "01/07/2025", Engineer: "   "}, expected: StatusOverdue},
		{name: "due today", slot: Slot{QuarterDate: "15/07/2025"}, expected: StatusMaintained},
		{name: "future", slot: Slot{QuarterDate: "2025-08-15", Engineer: "JOHN"}, expected: StatusUpcoming},
		{name: "unparseable", slot: Slot{QuarterDate: "invalid-date", Engineer: "John"}, expected: StatusUpcoming},
		{name: "malformed", slot: Slot{malformed: true}, expected: StatusUpcoming},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, s.Classify(tc.slot, ref))
		})
	}
}

func TestClassify_ReferenceTimeOfDayIgnored(t *testing.T) {
	s := newTestSelector()
	ref := time.Date(2025, time.July, 15, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, StatusMaintained, s.Classify(Slot{QuarterDate: "15/07/2025"}, ref))
}

func TestClassify_ZeroReferenceUsesClock(t *testing.T) {
	s := NewSelector(zerolog.Nop(), func() time.Time { return day(2025, time.July, 20) })
	assert.Equal(t, StatusOverdue, s.Classify(Slot{QuarterDate: "19/07/2025"}, time.Time{}))
	assert.Equal(t, StatusUpcoming, s.Classify(Slot{QuarterDate: "21/07/2025"}, time.Time{}))
}

func TestSelectActiveQuarter_Scenarios(t *testing.T) {
	testCases := []struct {
		name           string
		ref            time.Time
		record         Record
		expectedKey    Key
		expectedStatus Status
	}{
		{
			name: "current quarter upcoming",
			ref:  day(2025, time.July, 4),
			record: Record{
				KeyQ2: {QuarterDate: "15/05/2025", Engineer: "JOHN"},
				KeyQ3: {QuarterDate: "15/08/2025"},
			},
			expectedKey:    KeyQ3,
			expectedStatus: StatusUpcoming,
		},
		{
			name: "current quarter overdue",
			ref:  day(2025, time.July, 15),
			record: Record{
				KeyQ3: {QuarterDate: "01/07/2025"},
				KeyQ4: {QuarterDate: "15/10/2025"},
			},
			expectedKey:    KeyQ3,
			expectedStatus: StatusOverdue,
		},
		{
			name: "completed current quarter inside grace window",
			ref:  day(2025, time.September, 30),
			record: Record{
				KeyQ3: {QuarterDate: "15/09/2025", Engineer: "JOHN"},
				KeyQ4: {QuarterDate: "15/10/2025"},
			},
			expectedKey:    KeyQ3,
			expectedStatus: StatusMaintained,
		},
		{
			name: "new calendar quarter starts",
			ref:  day(2025, time.October, 1),
			record: Record{
				KeyQ3: {QuarterDate: "15/09/2025", Engineer: "JOHN"},
				KeyQ4: {QuarterDate: "15/10/2025"},
			},
			expectedKey:    KeyQ4,
			expectedStatus: StatusUpcoming,
		},
		{
			name: "year end rollover",
			ref:  day(2026, time.January, 5),
			record: Record{
				KeyQ4: {QuarterDate: "15/12/2025", Engineer: "MIKE"},
				KeyQ1: {QuarterDate: "15/03/2026"},
			},
			expectedKey:    KeyQ1,
			expectedStatus: StatusUpcoming,
		},
		{
			name: "recent maintenance keeps current quarter",
			ref:  day(2025, time.July, 20),
			record: Record{
				KeyQ3: {QuarterDate: "05/07/2025", Engineer: "SARAH"},
				KeyQ4: {QuarterDate: "15/10/2025"},
			},
			expectedKey:    KeyQ3,
			expectedStatus: StatusMaintained,
		},
		{
			name: "old maintenance progresses to next quarter",
			ref:  day(2025, time.August, 15),
			record: Record{
				KeyQ3: {QuarterDate: "05/07/2025", Engineer: "SARAH"},
				KeyQ4: {QuarterDate: "15/10/2025"},
			},
			expectedKey:    KeyQ4,
			expectedStatus: StatusUpcoming,
		},
		{
			name: "several overdue quarters prefer the current one",
			ref:  day(2025, time.August, 1),
			record: Record{
				KeyQ2: {QuarterDate: "15/05/2025"},
				KeyQ3: {QuarterDate: "15/07/2025"},
				KeyQ4: {QuarterDate: "15/10/2025"},
			},
			expectedKey:    KeyQ3,
			expectedStatus: StatusOverdue,
		},
		{
			name: "missing current quarter falls forward",
			ref:  day(2025, time.July, 10),
			record: Record{
				KeyQ2: {QuarterDate: "15/05/2025", Engineer: "JOHN"},
				KeyQ4: {QuarterDate: "15/10/2025"},
			},
			expectedKey:    KeyQ4,
			expectedStatus: StatusUpcoming,
		},
		{
			name: "all quarters complete",
			ref:  day(2025, time.November, 1),
			record: Record{
				KeyQ1: {QuarterDate: "15/03/2025", Engineer: "ALICE"},
				KeyQ2: {QuarterDate: "15/06/2025", Engineer: "BOB"},
				KeyQ3: {QuarterDate: "15/09/2025", Engineer: "CHARLIE"},
				KeyQ4: {QuarterDate: "15/10/2025", Engineer: "DIANA"},
			},
			expectedKey:    KeyQ4,
			expectedStatus: StatusMaintained,
		},
		{
			name: "overdue found while scanning beats nearer candidate",
			ref:  day(2025, time.August, 15),
			record: Record{
				KeyQ3: {QuarterDate: "05/07/2025", Engineer: "SARAH"},
				KeyQ4: {QuarterDate: "15/10/2025"},
				KeyQ2: {QuarterDate: "15/05/2025"},
			},
			expectedKey:    KeyQ2,
			expectedStatus: StatusOverdue,
		},
		{
			name: "completed quarters while scanning are skipped",
			ref:  day(2025, time.August, 15),
			record: Record{
				KeyQ3: {QuarterDate: "05/07/2025", Engineer: "SARAH"},
				KeyQ4: {QuarterDate: "01/08/2025", Engineer: "TOM"},
				KeyQ1: {QuarterDate: "15/01/2026"},
			},
			expectedKey:    KeyQ1,
			expectedStatus: StatusUpcoming,
		},
		{
			name:           "empty record falls back to current quarter",
			ref:            day(2025, time.May, 2),
			record:         Record{},
			expectedKey:    KeyQ2,
			expectedStatus: StatusUpcoming,
		},
		{
			name: "nothing eligible falls back to current quarter",
			ref:  day(2025, time.December, 20),
			record: Record{
				KeyQ1: {QuarterDate: "15/03/2025", Engineer: "ALICE"},
				KeyQ2: {QuarterDate: "15/06/2025", Engineer: "BOB"},
				KeyQ3: {QuarterDate: "15/09/2025", Engineer: "CHARLIE"},
				KeyQ4: {QuarterDate: "01/10/2025", Engineer: "DIANA"},
			},
			expectedKey:    KeyQ4,
			expectedStatus: StatusMaintained,
		},
		{
			name: "malformed current date",
			ref:  day(2025, time.February, 1),
			record: Record{
				KeyQ1: {QuarterDate: "invalid-date", Engineer: "John"},
			},
			expectedKey:    KeyQ1,
			expectedStatus: StatusUpcoming,
		},
	}

	s := newTestSelector()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sel := s.SelectActiveQuarter(tc.record, tc.ref)
			assert.Equal(t, tc.expectedKey, sel.Key)
			assert.Equal(t, tc.expectedKey.Number(), sel.Quarter)
			assert.Equal(t, tc.record.Slot(tc.expectedKey), sel.Slot)

			payload := s.BuildDisplayPayload(tc.record, tc.ref)
			assert.Equal(t, tc.expectedKey, payload.ActiveQuarterKey)
			assert.Equal(t, tc.expectedStatus, payload.Status)
			assert.Equal(t, StatusClass(tc.expectedStatus), payload.StatusClass)
			assert.Equal(t, Name(tc.expectedKey.Number()), payload.ActiveQuarter)
		})
	}
}

func TestSelectActiveQuarter_GraceWindowBoundary(t *testing.T) {
	s := newTestSelector()
	record := Record{
		KeyQ3: {QuarterDate: "01/08/2025", Engineer: "JOHN"},
		KeyQ4: {QuarterDate: "15/10/2025"},
	}
	maintained := day(2025, time.August, 1)

	atLimit := s.BuildDisplayPayload(record, maintained.AddDate(0, 0, GraceDays))
	assert.Equal(t, KeyQ3, atLimit.ActiveQuarterKey)
	assert.Equal(t, StatusMaintained, atLimit.Status)

	pastLimit := s.BuildDisplayPayload(record, maintained.AddDate(0, 0, GraceDays+1))
	assert.Equal(t, KeyQ4, pastLimit.ActiveQuarterKey)
	assert.Equal(t, StatusUpcoming, pastLimit.Status)
}

func TestSelectActiveQuarter_OverdueCurrentAlwaysWins(t *testing.T) {
	s := newTestSelector()
	ref := day(2025, time.May, 20)
	others := []Slot{
		{},
		{QuarterDate: "01/01/2025"},
		{QuarterDate: "01/01/2025", Engineer: "X"},
		{QuarterDate: "01/12/2025"},
		{QuarterDate: "garbage"},
	}
	for _, other := range others {
		record := Record{
			KeyQ1: other,
			KeyQ2: {QuarterDate: "10/05/2025"},
			KeyQ3: other,
			KeyQ4: other,
		}
		payload := s.BuildDisplayPayload(record, ref)
		assert.Equal(t, KeyQ2, payload.ActiveQuarterKey)
		assert.Equal(t, StatusOverdue, payload.Status)
	}
}

func TestBuildDisplayPayload(t *testing.T) {
	s := newTestSelector()
	ref := day(2025, time.July, 4)

	payload := s.BuildDisplayPayload(Record{KeyQ3: {QuarterDate: "15/08/2025"}}, ref)
	assert.Equal(t, DisplayPayload{
		DisplayNextMaintenance: "15/08/2025",
		Status:                 StatusUpcoming,
		StatusClass:            "warning",
		ActiveQuarter:          "Q3",
		ActiveQuarterKey:       KeyQ3,
		ActiveQuarterData:      Slot{QuarterDate: "15/08/2025"},
	}, payload)

	empty := s.BuildDisplayPayload(nil, ref)
	assert.Equal(t, "N/A", empty.DisplayNextMaintenance)
	assert.Equal(t, KeyQ3, empty.ActiveQuarterKey)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"display_next_maintenance": "15/08/2025",
		"Status": "Upcoming",
		"status_class": "warning",
		"active_quarter": "Q3",
		"active_quarter_key": "PPM_Q_III",
		"active_quarter_data": {"quarter_date": "15/08/2025"}
	}`, string(data))
}

func TestBuildDisplayPayload_IdempotentAndNonMutating(t *testing.T) {
	s := newTestSelector()
	ref := day(2025, time.September, 30)
	record := Record{
		KeyQ3: {QuarterDate: "15/09/2025", Engineer: "JOHN"},
		KeyQ4: {QuarterDate: "15/10/2025"},
		KeyQ1: {QuarterDate: "not a date"},
	}
	original := record.Clone()

	first := s.BuildDisplayPayload(record, ref)

	var wg sync.WaitGroup
	results := make([]DisplayPayload, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.BuildDisplayPayload(record, ref)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, first, r)
	}
	assert.Equal(t, original, record)
}

func TestSelector_LogsInvalidDates(t *testing.T) {
	var buf bytes.Buffer
	s := NewSelector(zerolog.New(&buf), nil)

	payload := s.BuildDisplayPayload(Record{KeyQ1: {QuarterDate: "invalid-date", Engineer: "John"}}, day(2025, time.February, 1))
	assert.Equal(t, StatusUpcoming, payload.Status)
	assert.Equal(t, "invalid-date", payload.DisplayNextMaintenance)

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"quarter_key":"PPM_Q_I"`)
	assert.Contains(t, out, "invalid-date")
}

func TestSummary(t *testing.T) {
	s := newTestSelector()
	summary := s.Summary(day(2025, time.October, 17))
	assert.Equal(t, "2025-10-17", summary.CurrentDate)
	assert.Equal(t, 4, summary.CurrentCalendarQuarter)
	assert.Equal(t, "Q4", summary.CurrentQuarterName)
	assert.Equal(t, []Key{KeyQ1, KeyQ2, KeyQ3, KeyQ4}, summary.QuarterKeys)
	assert.Equal(t, []string{"Q1", "Q2", "Q3", "Q4"}, summary.QuarterNames)
}
