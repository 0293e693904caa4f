package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSchedule() *Schedule {
	return &Schedule{
		FacilityID: "pool-1",
		DayOff:     "Friday",
		OpenTime:   "08:00",
		CloseTime:  "18:00",
		TimeGrid: []GridEntry{
			{Time: "09:00", Active: true},
			{Time: "11:00", Active: true},
			{Time: "13:00", Active: false},
		},
		Exceptions: []ExceptionDate{
			{Date: "2026-03-17", Closed: true, Reason: "maintenance"},
		},
	}
}

func TestValidateOK(t *testing.T) {
	assert.NoError(t, validSchedule().Validate())
}

func TestValidateDefaultSchedule(t *testing.T) {
	sched := DefaultSchedule("pool-1")
	assert.NoError(t, sched.Validate())
	assert.Equal(t, "Sunday", sched.DayOff)
	assert.Empty(t, sched.TimeGrid)
}

func TestValidateFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Schedule)
		field  string
	}{
		{
			name:   "bad day off",
			mutate: func(s *Schedule) { s.DayOff = "Caturday" },
			field:  "day_off",
		},
		{
			name:   "bad open time",
			mutate: func(s *Schedule) { s.OpenTime = "8:00" },
			field:  "open_time",
		},
		{
			name:   "bad close time",
			mutate: func(s *Schedule) { s.CloseTime = "25:00" },
			field:  "close_time",
		},
		{
			name:   "malformed grid time",
			mutate: func(s *Schedule) { s.TimeGrid[1].Time = "eleven" },
			field:  "time_grid[1].time",
		},
		{
			name:   "duplicate grid time",
			mutate: func(s *Schedule) { s.TimeGrid[2].Time = "09:00" },
			field:  "time_grid[2].time",
		},
		{
			name: "malformed exception date",
			mutate: func(s *Schedule) {
				s.Exceptions = append(s.Exceptions, ExceptionDate{Date: "17.03.2026", Closed: true})
			},
			field: "exceptions[1].date",
		},
		{
			name: "duplicate exception date",
			mutate: func(s *Schedule) {
				s.Exceptions = append(s.Exceptions, ExceptionDate{Date: "2026-03-17", Closed: false})
			},
			field: "exceptions[1].date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := validSchedule()
			tt.mutate(sched)

			err := sched.Validate()
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}

func TestValidateCollectsAllFields(t *testing.T) {
	sched := validSchedule()
	sched.DayOff = "Someday"
	sched.OpenTime = "soon"

	var ve *ValidationError
	require.True(t, errors.As(sched.Validate(), &ve))
	assert.Len(t, ve.Fields, 2)
}

func TestValidationErrorMessageIsStable(t *testing.T) {
	ve := &ValidationError{Fields: map[string]string{
		"open_time": `"soon" is not a valid HH:MM time`,
		"day_off":   `"Someday" is not a weekday name`,
	}}
	assert.Equal(t,
		`invalid schedule: day_off: "Someday" is not a weekday name; open_time: "soon" is not a valid HH:MM time`,
		ve.Error())
}

func TestIsClock(t *testing.T) {
	assert.True(t, IsClock("00:00"))
	assert.True(t, IsClock("23:59"))
	assert.False(t, IsClock("24:00"))
	assert.False(t, IsClock("12:60"))
	assert.False(t, IsClock("9:00"))
	assert.False(t, IsClock("09:00:00"))
	assert.False(t, IsClock("ab:cd"))
}
