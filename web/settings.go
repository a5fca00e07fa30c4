// ABOUTME: Account settings handlers: follow-up defaults and calendar rules
// ABOUTME: Calendar writes accept partial field sets and reject off-preset or invalid schedules
package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/harperreed/engage/calendar"
	"github.com/harperreed/engage/coerce"
	"github.com/harperreed/engage/db"
	"github.com/harperreed/engage/models"
)

func (s *Server) handleGetDefaults(w http.ResponseWriter, r *http.Request) {
	cfg, err := db.GetFollowupDefaults(s.db)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DefaultsResponse{Config: cfg})
}

func (s *Server) handlePutDefaults(w http.ResponseWriter, r *http.Request) {
	var req models.DefaultsRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cfg, updated, err := db.SaveFollowupDefaults(s.db, req.Config, req.ApplyToAll)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DefaultsResponse{Config: cfg, Updated: updated})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	rules, err := db.GetCalendarRules(s.db)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SettingsMap(rules))
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := decodeJSON(r, &fields); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := checkSettingsFields(fields); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	current, err := db.GetCalendarRules(s.db)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	next := models.ApplySettingsFields(current, fields)
	if v := calendar.ValidateBlockout(next.Blockout()); !v.CanSave() {
		http.Error(w, strings.Join(v.Messages(), " "), http.StatusBadRequest)
		return
	}

	rules, err := db.SaveCalendarFields(s.db, fields)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SettingsMap(rules))
}

// checkSettingsFields rejects unknown keys and booking values outside the presets.
// Normalization would silently snap them, which hides client bugs.
func checkSettingsFields(fields map[string]any) error {
	known := make(map[string]bool)
	for _, k := range models.BookingFields {
		known[k] = true
	}
	for _, k := range models.BlockoutFields {
		known[k] = true
	}
	for k := range fields {
		if !known[k] {
			return fmt.Errorf("unknown settings field %q", k)
		}
	}
	for _, k := range []string{models.FieldBlockoutStart, models.FieldBlockoutEnd} {
		if v, ok := fields[k]; ok && !calendar.ValidHHMM(coerce.ToTrimmedString(v)) {
			return fmt.Errorf("%s must be a 24-hour HH:MM time", k)
		}
	}

	booking := calendar.Booking{
		MaxConcurrentBookings: calendar.DefaultMaxConcurrent,
		OverlapWindowMinutes:  calendar.DefaultOverlapWindow,
	}
	if v, ok := fields[models.FieldMaxConcurrent]; ok {
		n, ok := coerce.ToIntOK(v)
		if !ok {
			return fmt.Errorf("%s must be a number", models.FieldMaxConcurrent)
		}
		booking.MaxConcurrentBookings = n
	}
	if v, ok := fields[models.FieldOverlapWindow]; ok {
		n, ok := coerce.ToIntOK(v)
		if !ok {
			return fmt.Errorf("%s must be a number", models.FieldOverlapWindow)
		}
		booking.OverlapWindowMinutes = n
	}
	return calendar.ValidateBooking(booking)
}
