package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"examdash/internal/dashboard"
	"examdash/internal/detail"
)

// APIHandler handles JSON API requests.
type APIHandler struct {
	Site *Site
}

// StudentResponse is the API form of a student's comparison.
type StudentResponse struct {
	Projection detail.Projection `json:"projection"`
	Counts     detail.Tally      `json:"counts"`
	Tooltips   []string          `json:"tooltips"`
}

// Overview returns every chart-ready aggregate.
func (h *APIHandler) Overview(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Site.Overview)
}

// Summary returns the descriptive statistics of both sittings.
func (h *APIHandler) Summary(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Site.Overview.Summary)
}

// Leaderboards returns the top and bottom boards.
func (h *APIHandler) Leaderboards(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"top":    h.Site.Overview.Top,
		"bottom": h.Site.Overview.Bottom,
	})
}

// Search handles API search requests.
func (h *APIHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	results := h.Site.Matcher.Match(query)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
		"query":   query,
	})
}

// GetStudent handles API requests for a single student.
func (h *APIHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	p, err := h.Site.Project(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusNotFound, map[string]string{
			"error": "Student not found",
		})
		return
	}

	tooltips := make([]string, p.Len())
	for i := range tooltips {
		tooltips[i] = p.Tooltip(i)
	}
	respondJSON(w, http.StatusOK, StudentResponse{
		Projection: p,
		Counts:     p.Counts(),
		Tooltips:   tooltips,
	})
}

// Insight handles API requests for an AI narrative.
func (h *APIHandler) Insight(w http.ResponseWriter, r *http.Request) {
	p, err := h.Site.Project(chi.URLParam(r, "id"))
	if errors.Is(err, dashboard.ErrUnknownStudent) {
		respondJSON(w, http.StatusNotFound, map[string]string{
			"error": "Student not found",
		})
		return
	}

	if h.Site.Insight == nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "AI insight not available: ANTHROPIC_API_KEY not set",
		})
		return
	}

	narrative, err := h.Site.Insight.Narrate(r.Context(), p)
	if err != nil {
		log.Printf("Insight error: %v", err)
		respondJSON(w, http.StatusBadGateway, map[string]string{
			"error": "AI insight failed: " + err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"student_id": p.StudentID,
		"narrative":  strings.TrimSpace(narrative),
	})
}

// respondJSON is a helper function to send JSON responses.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		log.Printf("JSON encoding error: %v", err)
	}
}
