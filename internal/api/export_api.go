package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"aquavik/internal/metrics"
	"aquavik/internal/model"
)

const defaultExportDays = 30

// handleExport streams an xlsx snapshot of the facility's schedule,
// exceptions and slots. Without query parameters the range defaults to
// [today, today+30].
// GET /api/v1/facilities/{facilityID}/export?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export")
	facilityID := mux.Vars(r)["facilityID"]

	fromDate := r.URL.Query().Get("from")
	toDate := r.URL.Query().Get("to")
	if fromDate == "" {
		fromDate = time.Now().Format(model.DateLayout)
	}
	if toDate == "" {
		toDate = time.Now().AddDate(0, 0, defaultExportDays).Format(model.DateLayout)
	}
	if _, err := model.ParseDate(fromDate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid from; expected YYYY-MM-DD")
		return
	}
	if _, err := model.ParseDate(toDate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid to; expected YYYY-MM-DD")
		return
	}

	filename := fmt.Sprintf("availability_%s_%s.xlsx", facilityID, time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := s.exporter.Export(r.Context(), facilityID, fromDate, toDate, w); err != nil {
		s.logger.Error().Err(err).Str("facility_id", facilityID).Msg("export failed")
		// Headers are already written; nothing more we can do here.
	}
}
