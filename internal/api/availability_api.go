package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"aquavik/internal/metrics"
	"aquavik/internal/model"
	"aquavik/internal/schedule"
	"aquavik/internal/store"
)

const maxAvailabilityDays = 90

// AvailabilitySlot is one time-of-day entry in the availability view.
// Stale marks a taken slot the current schedule no longer implies.
type AvailabilitySlot struct {
	Time  string `json:"time"`
	Taken bool   `json:"taken"`
	Stale bool   `json:"stale,omitempty"`
}

// AvailabilityDay groups slots for one calendar date.
type AvailabilityDay struct {
	Date  string             `json:"date"`
	Slots []AvailabilitySlot `json:"slots"`
}

// AvailabilityResponse is the response for GET availability.
type AvailabilityResponse struct {
	FacilityID string            `json:"facility_id"`
	Period     struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"period"`
	Days []AvailabilityDay `json:"days"`
}

// handleAvailability returns the expanded per-day slot view with persisted
// taken flags overlaid. Responses are cached per facility and range.
// GET /api/v1/facilities/{facilityID}/availability?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")
	facilityID := mux.Vars(r)["facilityID"]

	fromDate, toDate, ok := s.availabilityRange(w, r)
	if !ok {
		return
	}

	var resp AvailabilityResponse
	if s.cache.Get(r.Context(), facilityID, fromDate, toDate, &resp) {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	sched, err := s.schedules.Get(r.Context(), facilityID)
	if errors.Is(err, store.ErrNotFound) {
		sched = model.DefaultSchedule(facilityID)
		err = nil
	}
	if err != nil {
		s.logger.Error().Err(err).Str("facility_id", facilityID).Msg("availability: get schedule failed")
		writeError(w, http.StatusInternalServerError, "schedule store unavailable")
		return
	}

	target, err := schedule.Expand(sched, fromDate, toDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	slots, err := s.slots.Find(r.Context(), facilityID, fromDate, toDate)
	if err != nil {
		s.logger.Error().Err(err).Str("facility_id", facilityID).Msg("availability: find slots failed")
		writeError(w, http.StatusInternalServerError, "slot store unavailable")
		return
	}

	resp = buildAvailability(facilityID, fromDate, toDate, target, slots)
	s.cache.Set(r.Context(), facilityID, fromDate, toDate, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) availabilityRange(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	fromDate := r.URL.Query().Get("from")
	toDate := r.URL.Query().Get("to")
	if fromDate == "" || toDate == "" {
		writeError(w, http.StatusBadRequest, "from and to query parameters are required")
		return "", "", false
	}

	from, err := model.ParseDate(fromDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from; expected YYYY-MM-DD")
		return "", "", false
	}
	to, err := model.ParseDate(toDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to; expected YYYY-MM-DD")
		return "", "", false
	}
	if to.Sub(from) > maxAvailabilityDays*24*time.Hour {
		writeError(w, http.StatusBadRequest, "date range exceeds maximum of 90 days")
		return "", "", false
	}
	return fromDate, toDate, true
}

func buildAvailability(facilityID, fromDate, toDate string, target []model.SlotKey, slots []model.Slot) AvailabilityResponse {
	byKey := make(map[model.SlotKey]model.Slot, len(slots))
	for _, slot := range slots {
		byKey[slot.Key()] = slot
	}

	targetSet := make(map[model.SlotKey]struct{}, len(target))
	days := make(map[string][]AvailabilitySlot)
	var order []string

	for _, key := range target {
		targetSet[key] = struct{}{}
		if _, seen := days[key.Date]; !seen {
			order = append(order, key.Date)
		}
		entry := AvailabilitySlot{Time: key.Time}
		if slot, ok := byKey[key]; ok {
			entry.Taken = slot.Taken
		}
		days[key.Date] = append(days[key.Date], entry)
	}

	// Taken slots the schedule no longer implies still show up, flagged
	// stale, so the admin sees the orphaned bookings.
	for _, slot := range slots {
		if !slot.Taken {
			continue
		}
		if _, ok := targetSet[slot.Key()]; ok {
			continue
		}
		if _, seen := days[slot.Date]; !seen {
			order = append(order, slot.Date)
		}
		days[slot.Date] = append(days[slot.Date], AvailabilitySlot{Time: slot.Time, Taken: true, Stale: true})
	}

	resp := AvailabilityResponse{FacilityID: facilityID}
	resp.Period.Start = fromDate
	resp.Period.End = toDate
	for _, date := range order {
		resp.Days = append(resp.Days, AvailabilityDay{Date: date, Slots: days[date]})
	}
	return resp
}
