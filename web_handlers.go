package main

import (
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"examdash/internal/dashboard"
	"examdash/internal/report"
	"examdash/internal/search"
)

//go:embed templates/*.html
var templateFS embed.FS

// WebHandler handles HTML requests.
type WebHandler struct {
	Site      *Site
	templates *template.Template
}

// NewWebHandler creates a new WebHandler with parsed templates.
func NewWebHandler(site *Site) *WebHandler {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/*.html"))
	return &WebHandler{
		Site:      site,
		templates: tmpl,
	}
}

// Dashboard renders the overview page, with search results when ?q= is set.
func (h *WebHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var results []search.Result
	if query != "" {
		results = h.Site.Matcher.Match(query)
	}

	data := map[string]interface{}{
		"Title":    "考试成绩对比",
		"Overview": h.Site.Overview,
		"Summary":  h.Site.Overview.Summary,
		"Query":    query,
		"Results":  results,
		"Count":    len(results),
	}

	if err := h.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// StudentDetail renders one student's comparison page.
func (h *WebHandler) StudentDetail(w http.ResponseWriter, r *http.Request) {
	p, err := h.Site.Project(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, dashboard.ErrUnknownStudent) {
			http.NotFound(w, r)
			return
		}
		log.Printf("Projection error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	tooltips := make([]string, p.Len())
	for i := range tooltips {
		tooltips[i] = p.Tooltip(i)
	}

	data := map[string]interface{}{
		"Title":      p.Name,
		"Student":    p,
		"Report":     template.HTML(report.HTML(report.Student(p))),
		"Tooltips":   tooltips,
		"Counts":     p.Counts(),
		"HasInsight": h.Site.Insight != nil,
	}

	if err := h.templates.ExecuteTemplate(w, "student.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
