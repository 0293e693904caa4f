package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquavik/internal/database"
	"aquavik/internal/model"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testSchedule(facilityID string) *model.Schedule {
	return &model.Schedule{
		FacilityID: facilityID,
		DayOff:     "Friday",
		OpenTime:   "08:00",
		CloseTime:  "18:00",
		TimeGrid: []model.GridEntry{
			{Time: "14:00", Active: true},
			{Time: "09:00", Active: true},
			{Time: "11:00", Active: false},
		},
		Exceptions: []model.ExceptionDate{
			{Date: "2026-03-17", Closed: true, Reason: "maintenance"},
		},
	}
}

func TestScheduleStoreGetNotFound(t *testing.T) {
	s := NewScheduleStore(newTestDB(t))

	_, err := s.Get(context.Background(), "pool-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScheduleStorePutGetRoundtrip(t *testing.T) {
	s := NewScheduleStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testSchedule("pool-1")))

	got, err := s.Get(ctx, "pool-1")
	require.NoError(t, err)
	assert.Equal(t, "Friday", got.DayOff)
	assert.Equal(t, "08:00", got.OpenTime)
	assert.Equal(t, "18:00", got.CloseTime)

	// Grid comes back in the order it was written, not sorted by time.
	require.Len(t, got.TimeGrid, 3)
	assert.Equal(t, "14:00", got.TimeGrid[0].Time)
	assert.Equal(t, "09:00", got.TimeGrid[1].Time)
	assert.Equal(t, "11:00", got.TimeGrid[2].Time)
	assert.False(t, got.TimeGrid[2].Active)

	require.Len(t, got.Exceptions, 1)
	assert.Equal(t, "2026-03-17", got.Exceptions[0].Date)
	assert.True(t, got.Exceptions[0].Closed)
	assert.Equal(t, "maintenance", got.Exceptions[0].Reason)
}

func TestScheduleStorePutReplaces(t *testing.T) {
	s := NewScheduleStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testSchedule("pool-1")))

	update := testSchedule("pool-1")
	update.DayOff = "Monday"
	update.TimeGrid = []model.GridEntry{{Time: "10:00", Active: true}}
	update.Exceptions = nil
	require.NoError(t, s.Put(ctx, update))

	got, err := s.Get(ctx, "pool-1")
	require.NoError(t, err)
	assert.Equal(t, "Monday", got.DayOff)
	require.Len(t, got.TimeGrid, 1)
	assert.Equal(t, "10:00", got.TimeGrid[0].Time)
	assert.Empty(t, got.Exceptions)
}

func TestScheduleStorePutRejectsInvalid(t *testing.T) {
	s := NewScheduleStore(newTestDB(t))

	bad := testSchedule("pool-1")
	bad.DayOff = "Neverday"

	err := s.Put(context.Background(), bad)
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "day_off")

	// Nothing persisted
	_, err = s.Get(context.Background(), "pool-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScheduleStoreCreateDefault(t *testing.T) {
	s := NewScheduleStore(newTestDB(t))

	sched, err := s.CreateDefault(context.Background(), "pool-1")
	require.NoError(t, err)
	assert.Equal(t, "Sunday", sched.DayOff)
	assert.Empty(t, sched.TimeGrid)
}

func TestScheduleStoreExceptions(t *testing.T) {
	s := NewScheduleStore(newTestDB(t))
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, testSchedule("pool-1")))

	require.NoError(t, s.SetException(ctx, "pool-1", model.ExceptionDate{
		Date: "2026-04-01", Closed: true, Reason: "filter change",
	}))
	// Upsert on the same date
	require.NoError(t, s.SetException(ctx, "pool-1", model.ExceptionDate{
		Date: "2026-04-01", Closed: false,
	}))

	got, err := s.Get(ctx, "pool-1")
	require.NoError(t, err)
	require.Len(t, got.Exceptions, 2)
	assert.Equal(t, "2026-04-01", got.Exceptions[1].Date)
	assert.False(t, got.Exceptions[1].Closed)

	require.NoError(t, s.ClearException(ctx, "pool-1", "2026-04-01"))
	got, err = s.Get(ctx, "pool-1")
	require.NoError(t, err)
	assert.Len(t, got.Exceptions, 1)
}

func TestScheduleStoreSetExceptionBadDate(t *testing.T) {
	s := NewScheduleStore(newTestDB(t))

	err := s.SetException(context.Background(), "pool-1", model.ExceptionDate{Date: "01.04.2026"})
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "date")
}

func TestScheduleStoreListFacilities(t *testing.T) {
	s := NewScheduleStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testSchedule("pool-b")))
	require.NoError(t, s.Put(ctx, testSchedule("pool-a")))

	ids, err := s.ListFacilities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pool-a", "pool-b"}, ids)
}

func TestSlotStoreInsertAndFind(t *testing.T) {
	s := NewSlotStore(newTestDB(t))
	ctx := context.Background()

	keys := []model.SlotKey{
		{Date: "2026-03-02", Time: "09:00"},
		{Date: "2026-03-02", Time: "11:00"},
		{Date: "2026-03-03", Time: "09:00"},
	}
	n, err := s.Insert(ctx, "pool-1", keys)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	slots, err := s.Find(ctx, "pool-1", "2026-03-02", "2026-03-02")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "09:00", slots[0].Time)
	assert.Equal(t, "11:00", slots[1].Time)
	assert.False(t, slots[0].Taken)

	// Other facilities are invisible
	slots, err = s.Find(ctx, "pool-2", "2026-03-02", "2026-03-03")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlotStoreInsertDuplicateIsConflict(t *testing.T) {
	s := NewSlotStore(newTestDB(t))
	ctx := context.Background()

	key := model.SlotKey{Date: "2026-03-02", Time: "09:00"}
	_, err := s.Insert(ctx, "pool-1", []model.SlotKey{key})
	require.NoError(t, err)

	_, err = s.Insert(ctx, "pool-1", []model.SlotKey{key})
	assert.ErrorIs(t, err, ErrConflict)

	// The same position under another facility is fine
	_, err = s.Insert(ctx, "pool-2", []model.SlotKey{key})
	assert.NoError(t, err)
}

func TestSlotStoreDeleteIfFreeSkipsTaken(t *testing.T) {
	s := NewSlotStore(newTestDB(t))
	ctx := context.Background()

	keys := []model.SlotKey{
		{Date: "2026-03-02", Time: "09:00"},
		{Date: "2026-03-02", Time: "11:00"},
	}
	_, err := s.Insert(ctx, "pool-1", keys)
	require.NoError(t, err)
	require.NoError(t, s.MarkTaken(ctx, "pool-1", "2026-03-02", "09:00", "staff-7"))

	deleted, err := s.DeleteIfFree(ctx, "pool-1", keys)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	slots, err := s.Find(ctx, "pool-1", "2026-03-02", "2026-03-02")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "09:00", slots[0].Time)
	assert.True(t, slots[0].Taken)
	assert.Equal(t, "staff-7", slots[0].StaffID)
}

func TestSlotStoreMarkTransitions(t *testing.T) {
	s := NewSlotStore(newTestDB(t))
	ctx := context.Background()

	_, err := s.Insert(ctx, "pool-1", []model.SlotKey{{Date: "2026-03-02", Time: "09:00"}})
	require.NoError(t, err)

	// Missing slot
	err = s.MarkTaken(ctx, "pool-1", "2026-03-02", "13:00", "staff-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.MarkTaken(ctx, "pool-1", "2026-03-02", "09:00", "staff-1"))

	// Already taken
	err = s.MarkTaken(ctx, "pool-1", "2026-03-02", "09:00", "staff-2")
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, s.MarkFree(ctx, "pool-1", "2026-03-02", "09:00"))

	// Already free
	err = s.MarkFree(ctx, "pool-1", "2026-03-02", "09:00")
	assert.ErrorIs(t, err, ErrConflict)

	slots, err := s.Find(ctx, "pool-1", "2026-03-02", "2026-03-02")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.False(t, slots[0].Taken)
	assert.Empty(t, slots[0].StaffID)
}

func TestLockFacilityIsPerFacility(t *testing.T) {
	s := NewSlotStore(newTestDB(t))

	unlock := s.LockFacility("pool-1")

	// A different facility is not blocked.
	done := make(chan struct{})
	go func() {
		other := s.LockFacility("pool-2")
		other()
		close(done)
	}()
	<-done

	unlock()
	again := s.LockFacility("pool-1")
	again()
}
