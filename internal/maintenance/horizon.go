// Package maintenance keeps the availability horizon rolled forward: a
// scheduled job reconciles every known facility over [today, today+N].
package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"aquavik/internal/model"
)

// Reconciler runs a reconciliation for one facility and range.
type Reconciler interface {
	Reconcile(ctx context.Context, facilityID, fromDate, toDate string) (model.ReconcileResult, error)
}

// FacilityLister enumerates facilities with a configured schedule.
type FacilityLister interface {
	ListFacilities(ctx context.Context) ([]string, error)
}

// Horizon is the rolling-window regeneration job.
type Horizon struct {
	cron        *cron.Cron
	reconciler  Reconciler
	facilities  FacilityLister
	horizonDays int
	spec        string
	logger      *zerolog.Logger
}

// New creates the job; spec is a standard 5-field cron expression.
func New(reconciler Reconciler, facilities FacilityLister, horizonDays int, spec string, logger *zerolog.Logger) *Horizon {
	return &Horizon{
		cron:        cron.New(),
		reconciler:  reconciler,
		facilities:  facilities,
		horizonDays: horizonDays,
		spec:        spec,
		logger:      logger,
	}
}

// Start schedules the job and begins the cron loop.
func (h *Horizon) Start(ctx context.Context) error {
	_, err := h.cron.AddFunc(h.spec, func() {
		h.RunOnce(ctx)
	})
	if err != nil {
		return err
	}
	h.cron.Start()
	h.logger.Info().Str("spec", h.spec).Int("horizon_days", h.horizonDays).Msg("horizon maintenance scheduled")
	return nil
}

// Stop stops the cron loop, waiting for a running job to finish.
func (h *Horizon) Stop() {
	<-h.cron.Stop().Done()
}

// RunOnce reconciles the horizon window for every facility immediately.
// One failing facility does not stop the sweep.
func (h *Horizon) RunOnce(ctx context.Context) {
	ids, err := h.facilities.ListFacilities(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("horizon sweep: list facilities failed")
		return
	}

	today := time.Now()
	fromDate := today.Format(model.DateLayout)
	toDate := today.AddDate(0, 0, h.horizonDays).Format(model.DateLayout)

	for _, id := range ids {
		result, err := h.reconciler.Reconcile(ctx, id, fromDate, toDate)
		if err != nil {
			h.logger.Error().Err(err).Str("facility_id", id).Msg("horizon sweep: reconcile failed")
			continue
		}
		if result.Created > 0 || result.Deleted > 0 || result.Preserved > 0 {
			h.logger.Info().
				Str("facility_id", id).
				Int("created", result.Created).
				Int("deleted", result.Deleted).
				Int("preserved", result.Preserved).
				Msg("horizon sweep: facility updated")
		}
	}
}
