package schedule

import (
	"fmt"
	"time"
)

// dateLayout is the ISO calendar-date form used everywhere in the store.
const dateLayout = "2006-01-02"

// GenerateDates expands [start, end] into the ascending list of dates
// whose weekday (0=Sunday..6=Saturday) is in weekdays and which are not
// in skip. Start after end, or an empty weekday set, yields an empty
// list rather than an error. The walk is stateless: identical inputs
// always produce the identical sequence.
func GenerateDates(start, end string, weekdays []int, skip []string) ([]string, error) {
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("start date: %w", err)
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("end date: %w", err)
	}

	wanted := make(map[time.Weekday]bool, len(weekdays))
	for _, d := range weekdays {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("weekday out of range: %d", d)
		}
		wanted[time.Weekday(d)] = true
	}
	skipped := make(map[string]bool, len(skip))
	for _, d := range skip {
		skipped[d] = true
	}

	var out []string
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		iso := day.Format(dateLayout)
		if wanted[day.Weekday()] && !skipped[iso] {
			out = append(out, iso)
		}
	}
	return out, nil
}
