package audit

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"aquavik/internal/model"
	"aquavik/internal/store"
)

type fakeScheduleReader struct {
	sched *model.Schedule
	err   error
}

func (f *fakeScheduleReader) Get(context.Context, string) (*model.Schedule, error) {
	return f.sched, f.err
}

type fakeSlotReader struct {
	slots []model.Slot
}

func (f *fakeSlotReader) Find(context.Context, string, string, string) ([]model.Slot, error) {
	return f.slots, nil
}

func TestExportWritesThreeSheets(t *testing.T) {
	sched := &model.Schedule{
		FacilityID: "pool-1",
		DayOff:     "Friday",
		OpenTime:   "08:00",
		CloseTime:  "18:00",
		TimeGrid: []model.GridEntry{
			{Time: "09:00", Active: true},
			{Time: "11:00", Active: true},
		},
		Exceptions: []model.ExceptionDate{
			{Date: "2026-03-17", Closed: true, Reason: "maintenance"},
		},
	}
	slots := []model.Slot{
		{FacilityID: "pool-1", Date: "2026-03-02", Time: "09:00", Taken: true, StaffID: "staff-7"},
		{FacilityID: "pool-1", Date: "2026-03-02", Time: "11:00"},
	}

	exp := NewExporter(&fakeScheduleReader{sched: sched}, &fakeSlotReader{slots: slots})

	var buf bytes.Buffer
	require.NoError(t, exp.Export(context.Background(), "pool-1", "2026-03-02", "2026-03-08", &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{"Schedule", "Exceptions", "Slots"}, book.GetSheetList())

	rows, err := book.GetRows("Schedule")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Facility", "Day Off", "Open", "Close", "Grid Time", "Active"}, rows[0])
	assert.Equal(t, "09:00", rows[1][4])

	rows, err = book.GetRows("Exceptions")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-03-17", rows[1][0])
	assert.Equal(t, "maintenance", rows[1][2])

	rows, err = book.GetRows("Slots")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "staff-7", rows[1][3])
}

func TestExportMissingScheduleUsesDefault(t *testing.T) {
	exp := NewExporter(&fakeScheduleReader{err: store.ErrNotFound}, &fakeSlotReader{})

	var buf bytes.Buffer
	require.NoError(t, exp.Export(context.Background(), "pool-9", "2026-03-02", "2026-03-08", &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Schedule")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Sunday", rows[1][1])
}
