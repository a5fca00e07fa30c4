// ABOUTME: Lead handlers: CRUD, follow-up and reminder sections, AI controls, threads and graphs
// ABOUTME: Writes are normalized before storage and respond with the stored values
package web

import (
	"net/http"
	"strings"

	"github.com/harperreed/engage/aistate"
	"github.com/harperreed/engage/codec"
	"github.com/harperreed/engage/db"
	"github.com/harperreed/engage/followup"
	"github.com/harperreed/engage/models"
)

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := db.ListLeads(s.db)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLeadRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	lead := &models.Lead{
		Name:      name,
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		AIEnabled: true,
	}
	if err := db.CreateLead(s.db, lead); err != nil {
		writeStoreError(w, err)
		return
	}
	stored, err := db.GetLead(s.db, lead.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	lead, err := db.GetLead(s.db, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if lead == nil {
		http.Error(w, "Lead not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handlePutAutoFollowup(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	var req models.AutoFollowupRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	lead, err := db.UpdateLeadAutoFollowup(s.db, id, req.Enabled, followup.NormalizeConfig(req.Config))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.AutoFollowupResponse{
		Enabled: lead.AutoFollowupEnabled,
		Config:  lead.AutoFollowupConfig,
	})
}

func (s *Server) handlePutReminders(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	var req models.RemindersRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tokens, err := codec.ParseReminderEntries(req.Times)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	lead, err := db.UpdateLeadReminders(s.db, id, req.Enabled, tokens)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead.Reminders())
}

func (s *Server) handlePutAI(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	var req models.AIRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	lead, err := db.UpdateLeadAI(s.db, id, req.Enabled, req.Paused)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleResumeAI(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	lead, pending, err := db.ResumeLeadAI(s.db, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ResumeResponse{Lead: *lead, PendingInbound: pending})
}

func (s *Server) handleInbound(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	var req models.InboundRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		http.Error(w, "Message body is required", http.StatusBadRequest)
		return
	}

	lead, err := db.RecordInbound(s.db, id, req.Body, s.cooldown, s.now())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	lead, err := db.GetLead(s.db, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if lead == nil {
		http.Error(w, "Lead not found", http.StatusNotFound)
		return
	}
	msgs, err := db.ListMessages(s.db, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleSyncHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	res, err := db.SyncHistory(s.db, id, s.now())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	lead, err := db.GetLead(s.db, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if lead == nil {
		http.Error(w, "Lead not found", http.StatusNotFound)
		return
	}

	var dot string
	switch r.URL.Query().Get("type") {
	case "", "followups":
		dot, err = s.generator.GenerateFollowupGraph(r.Context(), lead.Name, lead.AutoFollowupEnabled, lead.AutoFollowupConfig)
	case "ai":
		sig := aistate.Evaluate(lead.AIInputs(), s.now())
		dot, err = s.generator.GenerateAIStateGraph(r.Context(), sig.State, sig.Countdown)
	default:
		http.Error(w, "Invalid graph type", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(dot))
}
