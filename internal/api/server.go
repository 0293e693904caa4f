// Package api exposes the admin-facing HTTP surface: schedule read/write,
// slot reconciliation, availability views and workbook export.
//
// Authorization is the deployment's concern; callers are trusted to have
// checked that the admin may edit the facility before these endpoints run.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"aquavik/internal/cache"
	"aquavik/internal/model"
)

// ScheduleStore is the schedule persistence the handlers need.
type ScheduleStore interface {
	Get(ctx context.Context, facilityID string) (*model.Schedule, error)
	CreateDefault(ctx context.Context, facilityID string) (*model.Schedule, error)
	Put(ctx context.Context, sched *model.Schedule) error
}

// SlotStore is the slot read access the handlers need.
type SlotStore interface {
	Find(ctx context.Context, facilityID, fromDate, toDate string) ([]model.Slot, error)
}

// Reconciler runs the slot regeneration protocol.
type Reconciler interface {
	Reconcile(ctx context.Context, facilityID, fromDate, toDate string) (model.ReconcileResult, error)
}

// Exporter writes a facility workbook.
type Exporter interface {
	Export(ctx context.Context, facilityID, fromDate, toDate string, wr io.Writer) error
}

// Bus publishes domain events.
type Bus interface {
	PublishJSON(eventType string, payload interface{}) error
}

// HTTPServer holds handler dependencies.
type HTTPServer struct {
	schedules  ScheduleStore
	slots      SlotStore
	reconciler Reconciler
	exporter   Exporter
	cache      *cache.AvailabilityCache
	bus        Bus
	limiter    *rate.Limiter
	logger     *zerolog.Logger
}

// NewHTTPServer wires the handlers.
func NewHTTPServer(
	schedules ScheduleStore,
	slots SlotStore,
	reconciler Reconciler,
	exporter Exporter,
	availCache *cache.AvailabilityCache,
	bus Bus,
	limiter *rate.Limiter,
	logger *zerolog.Logger,
) *HTTPServer {
	return &HTTPServer{
		schedules:  schedules,
		slots:      slots,
		reconciler: reconciler,
		exporter:   exporter,
		cache:      availCache,
		bus:        bus,
		limiter:    limiter,
		logger:     logger,
	}
}

// Router builds the HTTP routes.
func (s *HTTPServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)
	r.Use(s.rateLimitMiddleware)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/facilities/{facilityID}/schedule", s.handleGetSchedule).Methods(http.MethodGet)
	v1.HandleFunc("/facilities/{facilityID}/schedule", s.handlePutSchedule).Methods(http.MethodPut)
	v1.HandleFunc("/facilities/{facilityID}/reconcile", s.handleReconcile).Methods(http.MethodPost)
	v1.HandleFunc("/facilities/{facilityID}/availability", s.handleAvailability).Methods(http.MethodGet)
	v1.HandleFunc("/facilities/{facilityID}/export", s.handleExport).Methods(http.MethodGet)

	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeValidationError(w http.ResponseWriter, ve *model.ValidationError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":  "validation failed",
		"fields": ve.Fields,
	})
}
