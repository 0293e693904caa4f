// Package reconcile brings the materialized slot table in line with what a
// facility's schedule implies, without discarding taken slots.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"aquavik/internal/events"
	"aquavik/internal/metrics"
	"aquavik/internal/model"
	"aquavik/internal/schedule"
	"aquavik/internal/store"
)

// DefaultBatchDays is the chunk size for long date ranges.
const DefaultBatchDays = 31

// ScheduleSource reads the authoritative schedule for a facility.
type ScheduleSource interface {
	Get(ctx context.Context, facilityID string) (*model.Schedule, error)
}

// SlotStore is the slot persistence contract the reconciler needs. The
// store must make DeleteIfFree conditional on the taken flag and reject
// duplicate inserts with store.ErrConflict.
type SlotStore interface {
	Find(ctx context.Context, facilityID, fromDate, toDate string) ([]model.Slot, error)
	DeleteIfFree(ctx context.Context, facilityID string, keys []model.SlotKey) (int, error)
	Insert(ctx context.Context, facilityID string, keys []model.SlotKey) (int, error)
	LockFacility(facilityID string) func()
}

// Bus publishes domain events.
type Bus interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Reconciler diffs the expanded schedule against persisted slots and
// applies the minimal delete/insert set.
type Reconciler struct {
	schedules ScheduleSource
	slots     SlotStore
	bus       Bus
	batchDays int
	logger    *zerolog.Logger
}

// New creates a reconciler. batchDays <= 0 falls back to DefaultBatchDays.
func New(schedules ScheduleSource, slots SlotStore, bus Bus, batchDays int, logger *zerolog.Logger) *Reconciler {
	if batchDays <= 0 {
		batchDays = DefaultBatchDays
	}
	return &Reconciler{
		schedules: schedules,
		slots:     slots,
		bus:       bus,
		batchDays: batchDays,
		logger:    logger,
	}
}

// Reconcile regenerates availability for a facility over [fromDate, toDate].
// The range is processed in day-batches so a caller can cancel a long run
// between chunks; because each chunk converges to the same target set,
// re-running after a partial application is safe.
func (r *Reconciler) Reconcile(ctx context.Context, facilityID, fromDate, toDate string) (model.ReconcileResult, error) {
	var result model.ReconcileResult

	from, err := model.ParseDate(fromDate)
	if err != nil {
		return result, err
	}
	to, err := model.ParseDate(toDate)
	if err != nil {
		return result, err
	}
	if from.After(to) {
		return result, nil
	}

	started := time.Now()
	jobID := uuid.NewString()

	// Fail closed: no store mutation without the authoritative schedule.
	// A facility with no persisted schedule gets the in-memory default,
	// whose empty grid implies an empty target set.
	sched, err := r.schedules.Get(ctx, facilityID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sched = model.DefaultSchedule(facilityID)
		} else {
			metrics.IncReconcile("schedule_error")
			return result, fmt.Errorf("fetch schedule: %w", err)
		}
	}

	for chunkFrom := from; !chunkFrom.After(to); chunkFrom = chunkFrom.AddDate(0, 0, r.batchDays) {
		select {
		case <-ctx.Done():
			metrics.IncReconcile("cancelled")
			return result, ctx.Err()
		default:
		}

		chunkTo := chunkFrom.AddDate(0, 0, r.batchDays-1)
		if chunkTo.After(to) {
			chunkTo = to
		}

		chunk, err := r.reconcileChunk(ctx, facilityID, sched,
			chunkFrom.Format(model.DateLayout), chunkTo.Format(model.DateLayout))
		if err != nil {
			metrics.IncReconcile("error")
			return result, err
		}
		result.Add(chunk)
	}

	metrics.IncReconcile("ok")
	metrics.ObserveReconcileDuration(time.Since(started).Seconds())
	metrics.AddSlotCounts(result.Created, result.Deleted, result.Preserved)

	if r.bus != nil {
		_ = r.bus.PublishJSON(events.TypeSlotsReconciled, events.SlotsReconciledPayload{
			JobID:      jobID,
			FacilityID: facilityID,
			FromDate:   fromDate,
			ToDate:     toDate,
			Created:    result.Created,
			Deleted:    result.Deleted,
			Preserved:  result.Preserved,
		})
	}

	if r.logger != nil {
		r.logger.Info().
			Str("job_id", jobID).
			Str("facility_id", facilityID).
			Str("from", fromDate).
			Str("to", toDate).
			Int("created", result.Created).
			Int("deleted", result.Deleted).
			Int("preserved", result.Preserved).
			Msg("reconciliation finished")
	}

	return result, nil
}

// reconcileChunk handles one date window under the facility lock so the
// read/diff/apply sequence cannot interleave with another reconcile.
func (r *Reconciler) reconcileChunk(ctx context.Context, facilityID string, sched *model.Schedule, fromDate, toDate string) (model.ReconcileResult, error) {
	var result model.ReconcileResult

	unlock := r.slots.LockFacility(facilityID)
	defer unlock()

	target, err := schedule.Expand(sched, fromDate, toDate)
	if err != nil {
		return result, fmt.Errorf("expand schedule: %w", err)
	}
	targetSet := make(map[model.SlotKey]struct{}, len(target))
	for _, key := range target {
		targetSet[key] = struct{}{}
	}

	existing, err := r.slots.Find(ctx, facilityID, fromDate, toDate)
	if err != nil {
		return result, fmt.Errorf("find slots: %w", err)
	}
	existingSet := make(map[model.SlotKey]struct{}, len(existing))

	var toDelete []model.SlotKey
	for _, slot := range existing {
		key := slot.Key()
		existingSet[key] = struct{}{}
		if _, ok := targetSet[key]; ok {
			continue
		}
		if slot.Taken {
			// Never delete a taken slot; surface it so a human can decide
			// about the underlying booking.
			result.Preserved++
			continue
		}
		toDelete = append(toDelete, key)
	}

	var toCreate []model.SlotKey
	for _, key := range target {
		if _, ok := existingSet[key]; !ok {
			toCreate = append(toCreate, key)
		}
	}

	// Deletions first. A key in the target is never deleted, so the two
	// bulk operations cannot touch the same row.
	deleted, err := r.slots.DeleteIfFree(ctx, facilityID, toDelete)
	if err != nil {
		return result, fmt.Errorf("delete slots: %w", err)
	}
	result.Deleted = deleted

	created, err := r.slots.Insert(ctx, facilityID, toCreate)
	if err != nil {
		return result, fmt.Errorf("insert slots: %w", err)
	}
	result.Created = created

	return result, nil
}
