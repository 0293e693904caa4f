package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"aquavik/internal/database"
	"aquavik/internal/model"
)

// ScheduleStore owns the one recurrence rule per facility.
type ScheduleStore struct {
	db *database.DB
}

// NewScheduleStore creates a schedule store over db.
func NewScheduleStore(db *database.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// Get returns the schedule for a facility, or ErrNotFound. It never creates
// anything; default creation is an explicit, separate call.
func (s *ScheduleStore) Get(ctx context.Context, facilityID string) (*model.Schedule, error) {
	sched := &model.Schedule{FacilityID: facilityID}
	err := s.db.QueryRowContext(ctx, `
		SELECT day_off, open_time, close_time, created_at, updated_at
		FROM schedules WHERE facility_id = ?`,
		facilityID,
	).Scan(&sched.DayOff, &sched.OpenTime, &sched.CloseTime, &sched.CreatedAt, &sched.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT time, active FROM schedule_grid
		WHERE facility_id = ? ORDER BY position`,
		facilityID,
	)
	if err != nil {
		return nil, fmt.Errorf("get schedule grid: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var entry model.GridEntry
		if err := rows.Scan(&entry.Time, &entry.Active); err != nil {
			return nil, fmt.Errorf("scan grid entry: %w", err)
		}
		sched.TimeGrid = append(sched.TimeGrid, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}

	excRows, err := s.db.QueryContext(ctx, `
		SELECT date, closed, reason FROM schedule_exceptions
		WHERE facility_id = ? ORDER BY date`,
		facilityID,
	)
	if err != nil {
		return nil, fmt.Errorf("get schedule exceptions: %w", err)
	}
	defer excRows.Close()
	for excRows.Next() {
		var exc model.ExceptionDate
		var reason sql.NullString
		if err := excRows.Scan(&exc.Date, &exc.Closed, &reason); err != nil {
			return nil, fmt.Errorf("scan exception: %w", err)
		}
		if reason.Valid {
			exc.Reason = reason.String
		}
		sched.Exceptions = append(sched.Exceptions, exc)
	}
	if err := excRows.Err(); err != nil {
		return nil, fmt.Errorf("read exceptions: %w", err)
	}

	return sched, nil
}

// CreateDefault persists the default schedule for a facility and returns it.
func (s *ScheduleStore) CreateDefault(ctx context.Context, facilityID string) (*model.Schedule, error) {
	sched := model.DefaultSchedule(facilityID)
	if err := s.Put(ctx, sched); err != nil {
		return nil, err
	}
	return s.Get(ctx, facilityID)
}

// Put validates and persists a schedule wholesale, replacing the grid and
// exception rows. Last write wins on concurrent edits.
func (s *ScheduleStore) Put(ctx context.Context, sched *model.Schedule) error {
	if err := sched.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO schedules (facility_id, day_off, open_time, close_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(facility_id) DO UPDATE SET
			day_off = excluded.day_off,
			open_time = excluded.open_time,
			close_time = excluded.close_time,
			updated_at = excluded.updated_at`,
		sched.FacilityID, sched.DayOff, sched.OpenTime, sched.CloseTime, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM schedule_grid WHERE facility_id = ?", sched.FacilityID,
	); err != nil {
		return fmt.Errorf("clear grid: %w", err)
	}
	for i, entry := range sched.TimeGrid {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schedule_grid (facility_id, position, time, active) VALUES (?, ?, ?, ?)",
			sched.FacilityID, i, entry.Time, entry.Active,
		); err != nil {
			return fmt.Errorf("insert grid entry %q: %w", entry.Time, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM schedule_exceptions WHERE facility_id = ?", sched.FacilityID,
	); err != nil {
		return fmt.Errorf("clear exceptions: %w", err)
	}
	for _, exc := range sched.Exceptions {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schedule_exceptions (facility_id, date, closed, reason) VALUES (?, ?, ?, ?)",
			sched.FacilityID, exc.Date, exc.Closed, exc.Reason,
		); err != nil {
			return fmt.Errorf("insert exception %q: %w", exc.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schedule: %w", err)
	}
	return nil
}

// SetException creates or updates a single exception date.
func (s *ScheduleStore) SetException(ctx context.Context, facilityID string, exc model.ExceptionDate) error {
	if _, err := model.ParseDate(exc.Date); err != nil {
		return &model.ValidationError{Fields: map[string]string{
			"date": fmt.Sprintf("%q is not a valid YYYY-MM-DD date", exc.Date),
		}}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedule_exceptions (facility_id, date, closed, reason)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(facility_id, date) DO UPDATE SET
			closed = excluded.closed,
			reason = excluded.reason`,
		facilityID, exc.Date, exc.Closed, exc.Reason,
	)
	if err != nil {
		return fmt.Errorf("set exception: %w", err)
	}
	return nil
}

// ClearException removes an exception date.
func (s *ScheduleStore) ClearException(ctx context.Context, facilityID, date string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM schedule_exceptions WHERE facility_id = ? AND date = ?",
		facilityID, date,
	)
	if err != nil {
		return fmt.Errorf("clear exception: %w", err)
	}
	return nil
}

// ListFacilities returns every facility that has a schedule.
func (s *ScheduleStore) ListFacilities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT facility_id FROM schedules ORDER BY facility_id")
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan facility: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
