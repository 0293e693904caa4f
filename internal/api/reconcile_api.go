package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"aquavik/internal/metrics"
	"aquavik/internal/model"
	"aquavik/internal/store"
)

// ReconcileRequest is the request body for POST reconcile.
type ReconcileRequest struct {
	FromDate string `json:"from_date"` // YYYY-MM-DD
	ToDate   string `json:"to_date"`   // YYYY-MM-DD
}

// ReconcileResponse reports what the run changed. Preserved slots are
// occupied positions the schedule no longer implies; the admin UI must
// show them so a human can decide about the bookings.
type ReconcileResponse struct {
	Created   int `json:"created"`
	Deleted   int `json:"deleted"`
	Preserved int `json:"preserved"`
}

// handleReconcile regenerates availability for a date range.
// POST /api/v1/facilities/{facilityID}/reconcile
func (s *HTTPServer) handleReconcile(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reconcile")
	facilityID := mux.Vars(r)["facilityID"]

	var req ReconcileRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.FromDate == "" || req.ToDate == "" {
		writeError(w, http.StatusBadRequest, "from_date and to_date are required")
		return
	}
	if _, err := model.ParseDate(req.FromDate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid from_date; expected YYYY-MM-DD")
		return
	}
	if _, err := model.ParseDate(req.ToDate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid to_date; expected YYYY-MM-DD")
		return
	}

	result, err := s.reconciler.Reconcile(r.Context(), facilityID, req.FromDate, req.ToDate)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "concurrent reconciliation detected; retry the request")
			return
		}
		s.logger.Error().Err(err).Str("facility_id", facilityID).Msg("reconcile failed")
		writeError(w, http.StatusInternalServerError, "reconciliation failed")
		return
	}

	s.cache.Invalidate(r.Context(), facilityID)

	writeJSON(w, http.StatusOK, ReconcileResponse{
		Created:   result.Created,
		Deleted:   result.Deleted,
		Preserved: result.Preserved,
	})
}
