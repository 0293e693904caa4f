package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"aquavik/internal/events"
	"aquavik/internal/metrics"
	"aquavik/internal/model"
	"aquavik/internal/store"
)

// SchedulePayload is the request body for PUT schedule.
type SchedulePayload struct {
	DayOff     string                `json:"day_off"`
	OpenTime   string                `json:"open_time"`
	CloseTime  string                `json:"close_time"`
	TimeGrid   []model.GridEntry     `json:"time_grid"`
	Exceptions []model.ExceptionDate `json:"exceptions"`
}

// handleGetSchedule returns the facility schedule, creating the default on
// first read. Default creation is an explicit second store call, so the
// plain read path stays side-effect free.
// GET /api/v1/facilities/{facilityID}/schedule
func (s *HTTPServer) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_schedule")
	facilityID := mux.Vars(r)["facilityID"]

	sched, err := s.schedules.Get(r.Context(), facilityID)
	if errors.Is(err, store.ErrNotFound) {
		sched, err = s.schedules.CreateDefault(r.Context(), facilityID)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("facility_id", facilityID).Msg("get schedule failed")
		writeError(w, http.StatusInternalServerError, "schedule store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, sched)
}

// handlePutSchedule validates and persists a schedule wholesale.
// PUT /api/v1/facilities/{facilityID}/schedule
func (s *HTTPServer) handlePutSchedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("put_schedule")
	facilityID := mux.Vars(r)["facilityID"]

	var payload SchedulePayload
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sched := &model.Schedule{
		FacilityID: facilityID,
		DayOff:     payload.DayOff,
		OpenTime:   payload.OpenTime,
		CloseTime:  payload.CloseTime,
		TimeGrid:   payload.TimeGrid,
		Exceptions: payload.Exceptions,
	}

	if err := s.schedules.Put(r.Context(), sched); err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			writeValidationError(w, ve)
			return
		}
		s.logger.Error().Err(err).Str("facility_id", facilityID).Msg("put schedule failed")
		writeError(w, http.StatusInternalServerError, "schedule store unavailable")
		return
	}

	s.cache.Invalidate(r.Context(), facilityID)
	if s.bus != nil {
		_ = s.bus.PublishJSON(events.TypeScheduleUpdated, events.ScheduleUpdatedPayload{
			FacilityID: facilityID,
		})
	}

	stored, err := s.schedules.Get(r.Context(), facilityID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "schedule store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stored)
}
