// Package audit produces admin-facing xlsx snapshots of a facility's
// schedule and materialized slots.
package audit

import (
	"context"
	"errors"
	"fmt"
	"io"

	"aquavik/internal/model"
	"aquavik/internal/store"
)

// ScheduleReader is the schedule access the exporter needs.
type ScheduleReader interface {
	Get(ctx context.Context, facilityID string) (*model.Schedule, error)
}

// SlotReader is the slot access the exporter needs.
type SlotReader interface {
	Find(ctx context.Context, facilityID, fromDate, toDate string) ([]model.Slot, error)
}

// Exporter writes one facility's schedule, exceptions and slots as a
// three-sheet workbook.
type Exporter struct {
	schedules ScheduleReader
	slots     SlotReader
}

// NewExporter creates an exporter over the given stores.
func NewExporter(schedules ScheduleReader, slots SlotReader) *Exporter {
	return &Exporter{schedules: schedules, slots: slots}
}

// Export writes the workbook for facilityID covering [fromDate, toDate].
func (e *Exporter) Export(ctx context.Context, facilityID, fromDate, toDate string, wr io.Writer) error {
	sched, err := e.schedules.Get(ctx, facilityID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sched = model.DefaultSchedule(facilityID)
		} else {
			return fmt.Errorf("get schedule: %w", err)
		}
	}

	slots, err := e.slots.Find(ctx, facilityID, fromDate, toDate)
	if err != nil {
		return fmt.Errorf("find slots: %w", err)
	}

	w := newSheetWriter()
	defer w.close()

	if err := e.writeScheduleSheet(w, sched); err != nil {
		return err
	}
	if err := e.writeExceptionsSheet(w, sched); err != nil {
		return err
	}
	if err := e.writeSlotsSheet(w, slots); err != nil {
		return err
	}

	if err := w.save(wr); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func (e *Exporter) writeScheduleSheet(w *sheetWriter, sched *model.Schedule) error {
	if err := w.addSheet("Schedule"); err != nil {
		return err
	}
	if err := w.writeHeader([]string{"Facility", "Day Off", "Open", "Close", "Grid Time", "Active"}); err != nil {
		return err
	}
	if len(sched.TimeGrid) == 0 {
		return w.writeRow([]interface{}{sched.FacilityID, sched.DayOff, sched.OpenTime, sched.CloseTime, "", ""})
	}
	for _, entry := range sched.TimeGrid {
		if err := w.writeRow([]interface{}{
			sched.FacilityID, sched.DayOff, sched.OpenTime, sched.CloseTime,
			entry.Time, entry.Active,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) writeExceptionsSheet(w *sheetWriter, sched *model.Schedule) error {
	if err := w.addSheet("Exceptions"); err != nil {
		return err
	}
	if err := w.writeHeader([]string{"Date", "Closed", "Reason"}); err != nil {
		return err
	}
	for _, exc := range sched.Exceptions {
		if err := w.writeRow([]interface{}{exc.Date, exc.Closed, exc.Reason}); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) writeSlotsSheet(w *sheetWriter, slots []model.Slot) error {
	if err := w.addSheet("Slots"); err != nil {
		return err
	}
	if err := w.writeHeader([]string{"Date", "Time", "Taken", "Staff"}); err != nil {
		return err
	}
	for _, slot := range slots {
		if err := w.writeRow([]interface{}{slot.Date, slot.Time, slot.Taken, slot.StaffID}); err != nil {
			return err
		}
	}
	return nil
}
