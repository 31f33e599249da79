package notification

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ppm-tracker-backend/internal/dateparse"
	"ppm-tracker-backend/internal/model"
	"ppm-tracker-backend/internal/quarter"
)

// NoTasksMessage is the summary used when nothing is due.
const NoTasksMessage = "No upcoming maintenance tasks."

// Task is one quarterly maintenance visit that falls due soon.
type Task struct {
	Serial     string      `json:"serial"`
	Name       string      `json:"name"`
	Department string      `json:"department"`
	Quarter    quarter.Key `json:"quarter"`
	DueDate    string      `json:"due_date"`
	Engineer   string      `json:"engineer"`
	DaysUntil  int         `json:"days_until"`

	due time.Time
}

// UpcomingTasks lists every dated quarter slot due between now and daysAhead
// days later, both ends inclusive, ordered by due date. Slots with dates that
// cannot be parsed are logged and skipped.
func UpcomingTasks(log zerolog.Logger, items []model.Equipment, now time.Time, daysAhead int) []Task {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var tasks []Task
	for _, e := range items {
		for _, k := range quarter.Keys {
			slot := e.Quarters.Slot(k)
			if slot.Malformed() || strings.TrimSpace(slot.QuarterDate) == "" {
				continue
			}
			due, err := dateparse.ParseFlexible(slot.QuarterDate)
			if err != nil {
				log.Warn().Err(err).Str("serial", e.Serial).Str("quarter_key", string(k)).Msg("skipping slot with invalid date")
				continue
			}
			days := int(due.Sub(today).Hours() / 24)
			if days < 0 || days > daysAhead {
				continue
			}
			tasks = append(tasks, Task{
				Serial:     e.Serial,
				Name:       e.Name,
				Department: e.Department,
				Quarter:    k,
				DueDate:    slot.QuarterDate,
				Engineer:   slot.Engineer,
				DaysUntil:  days,
				due:        due,
			})
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].due.Before(tasks[j].due) })
	return tasks
}

// Summarize renders the one-line push notification body for tasks.
func Summarize(tasks []Task) string {
	switch n := len(tasks); n {
	case 0:
		return NoTasksMessage
	case 1:
		return "1 PPM task due soon."
	default:
		return fmt.Sprintf("%d PPM tasks due soon.", n)
	}
}
