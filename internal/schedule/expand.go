// Package schedule expands a facility's weekly recurrence rule into
// concrete (date, time) slot candidates.
package schedule

import (
	"aquavik/internal/model"
)

// Expand walks each calendar day in [fromDate, toDate] and emits a slot key
// for every active grid entry, skipping the facility's day off and dates
// with a closed exception. It is a pure function of its inputs.
//
// fromDate after toDate yields an empty result, not an error. A grid with
// no active entries yields an empty result for every open day.
func Expand(sched *model.Schedule, fromDate, toDate string) ([]model.SlotKey, error) {
	from, err := model.ParseDate(fromDate)
	if err != nil {
		return nil, err
	}
	to, err := model.ParseDate(toDate)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, nil
	}

	closed := make(map[string]bool, len(sched.Exceptions))
	for _, exc := range sched.Exceptions {
		if exc.Closed {
			closed[exc.Date] = true
		}
	}

	var keys []model.SlotKey
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if model.WeekdayName(d.Weekday()) == sched.DayOff {
			continue
		}
		date := d.Format(model.DateLayout)
		if closed[date] {
			continue
		}
		for _, entry := range sched.TimeGrid {
			if !entry.Active {
				continue
			}
			keys = append(keys, model.SlotKey{Date: date, Time: entry.Time})
		}
	}
	return keys, nil
}
