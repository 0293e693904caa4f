package model

import "time"

// Slot is one materialized bookable (date, time) unit for a facility.
// (facility_id, date, time) is unique in the store.
type Slot struct {
	ID         int64     `json:"id"`
	FacilityID string    `json:"facility_id"`
	Date       string    `json:"date"` // "2026-03-17"
	Time       string    `json:"time"` // "09:00"
	Taken      bool      `json:"taken"`
	StaffID    string    `json:"staff_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SlotKey identifies a slot position within one facility.
type SlotKey struct {
	Date string
	Time string
}

// Key returns the slot's position key.
func (s Slot) Key() SlotKey {
	return SlotKey{Date: s.Date, Time: s.Time}
}

// ReconcileResult summarizes one reconciliation run. Preserved counts slots
// that are taken but no longer implied by the schedule; they were kept and
// the caller must surface them so a human can decide about the booking.
type ReconcileResult struct {
	Created   int `json:"created"`
	Deleted   int `json:"deleted"`
	Preserved int `json:"preserved"`
}

// Add accumulates counts from a partial (chunked) run.
func (r *ReconcileResult) Add(other ReconcileResult) {
	r.Created += other.Created
	r.Deleted += other.Deleted
	r.Preserved += other.Preserved
}
