package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"aquavik/internal/database"
	"aquavik/internal/model"
)

// SlotStore owns the materialized (date, time) slots per facility.
type SlotStore struct {
	db    *database.DB
	locks *facilityLocks
}

// NewSlotStore creates a slot store over db.
func NewSlotStore(db *database.DB) *SlotStore {
	return &SlotStore{db: db, locks: newFacilityLocks()}
}

// LockFacility serializes slot mutations for one facility. The caller must
// hold the lock across a find/delete/insert sequence and call the returned
// unlock when done.
func (s *SlotStore) LockFacility(facilityID string) func() {
	return s.locks.acquire(facilityID)
}

// Find returns all slots for a facility with date in [fromDate, toDate],
// ordered by date then time.
func (s *SlotStore) Find(ctx context.Context, facilityID, fromDate, toDate string) ([]model.Slot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, facility_id, date, time, taken, staff_id, created_at, updated_at
		FROM slots
		WHERE facility_id = ? AND date >= ? AND date <= ?
		ORDER BY date, time`,
		facilityID, fromDate, toDate,
	)
	if err != nil {
		return nil, fmt.Errorf("find slots: %w", err)
	}
	defer rows.Close()

	var slots []model.Slot
	for rows.Next() {
		var slot model.Slot
		var staffID sql.NullString
		if err := rows.Scan(
			&slot.ID, &slot.FacilityID, &slot.Date, &slot.Time,
			&slot.Taken, &staffID, &slot.CreatedAt, &slot.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		if staffID.Valid {
			slot.StaffID = staffID.String
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// DeleteIfFree deletes the given slot positions unless they are taken.
// A concurrently taken slot is silently skipped; the count of rows actually
// deleted is returned.
func (s *SlotStore) DeleteIfFree(ctx context.Context, facilityID string, keys []model.SlotKey) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	deleted := 0
	for _, key := range keys {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM slots WHERE facility_id = ? AND date = ? AND time = ? AND taken = 0",
			facilityID, key.Date, key.Time,
		)
		if err != nil {
			return 0, fmt.Errorf("delete slot %s %s: %w", key.Date, key.Time, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		deleted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}
	return deleted, nil
}

// Insert creates free slots at the given positions. A duplicate
// (facility, date, time) means another reconcile raced ahead; the whole
// batch is rolled back and ErrConflict returned so the caller can retry.
func (s *SlotStore) Insert(ctx context.Context, facilityID string, keys []model.SlotKey) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, key := range keys {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO slots (facility_id, date, time, taken, created_at, updated_at)
			VALUES (?, ?, ?, 0, ?, ?)`,
			facilityID, key.Date, key.Time, now, now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return 0, fmt.Errorf("insert slot %s %s: %w", key.Date, key.Time, ErrConflict)
			}
			return 0, fmt.Errorf("insert slot %s %s: %w", key.Date, key.Time, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return len(keys), nil
}

// MarkTaken flips a free slot to taken, recording the staff member if any.
// Returns ErrNotFound if the slot does not exist and ErrConflict if it is
// already taken, so a booking racing a reconcile fails cleanly.
func (s *SlotStore) MarkTaken(ctx context.Context, facilityID, date, timeOfDay, staffID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE slots SET taken = 1, staff_id = ?, updated_at = ?
		WHERE facility_id = ? AND date = ? AND time = ? AND taken = 0`,
		staffID, time.Now(), facilityID, date, timeOfDay,
	)
	if err != nil {
		return fmt.Errorf("mark taken: %w", err)
	}
	return s.checkTransition(ctx, res, facilityID, date, timeOfDay)
}

// MarkFree releases a taken slot, e.g. when a booking is cancelled.
func (s *SlotStore) MarkFree(ctx context.Context, facilityID, date, timeOfDay string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE slots SET taken = 0, staff_id = NULL, updated_at = ?
		WHERE facility_id = ? AND date = ? AND time = ? AND taken = 1`,
		time.Now(), facilityID, date, timeOfDay,
	)
	if err != nil {
		return fmt.Errorf("mark free: %w", err)
	}
	return s.checkTransition(ctx, res, facilityID, date, timeOfDay)
}

// checkTransition distinguishes "slot gone" from "slot already in the target
// state" when a conditional update touched no rows.
func (s *SlotStore) checkTransition(ctx context.Context, res sql.Result, facilityID, date, timeOfDay string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var count int
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM slots WHERE facility_id = ? AND date = ? AND time = ?",
		facilityID, date, timeOfDay,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check slot: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
