package api

import (
	"net/http"
	"time"

	"github.com/mklimuk/kai/pkg/daily"
)

// HandleListDaily handles GET /daily
func (h *Handler) HandleListDaily(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": h.App.Daily.AllNotes()})
}

// HandleEnsureToday handles POST /daily/today/ensure: creates today's note
// from the template unless it already exists.
func (h *Handler) HandleEnsureToday(w http.ResponseWriter, r *http.Request) {
	n, created := h.App.Daily.EnsureToday()
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, n)
}

// HandleGetDaily handles GET /daily/{date}
func (h *Handler) HandleGetDaily(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDay(w, r)
	if !ok {
		return
	}
	n, found := h.App.Daily.Note(day)
	if !found {
		http.Error(w, "no note for "+daily.DateKey(day), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// HandleDailyStatus handles GET /daily/{date}/status
func (h *Handler) HandleDailyStatus(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDay(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":   daily.DateKey(day),
		"status": h.App.Daily.DayStatus(day),
	})
}

type dailyContentRequest struct {
	Content string `json:"content"`
}

// HandleCreateDaily handles POST /daily/{date}. The note replaces any existing
// one for the day; an empty content starts it from the template.
func (h *Handler) HandleCreateDaily(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDay(w, r)
	if !ok {
		return
	}
	var req dailyContentRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusCreated, h.App.Daily.CreateNote(day, req.Content))
}

// HandleUpdateDaily handles PUT /daily/{date}
func (h *Handler) HandleUpdateDaily(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDay(w, r)
	if !ok {
		return
	}
	var req dailyContentRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.App.Daily.UpdateNote(day, req.Content)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

type dailyLineRequest struct {
	Line string `json:"line"`
}

// HandleAppendDaily handles POST /daily/{date}/lines
func (h *Handler) HandleAppendDaily(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDay(w, r)
	if !ok {
		return
	}
	var req dailyLineRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Line == "" {
		http.Error(w, "line is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.App.Daily.AppendLine(day, req.Line))
}

type templateRequest struct {
	Template string `json:"template"`
}

// HandleGetTemplate handles GET /daily/template
func (h *Handler) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, templateRequest{Template: h.App.Daily.Template()})
}

// HandleSetTemplate handles PUT /daily/template
func (h *Handler) HandleSetTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.App.Daily.UpdateTemplate(req.Template); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// parseDay reads the {date} path value; "today" is accepted as an alias.
func parseDay(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.PathValue("date")
	if raw == "today" {
		return time.Now(), true
	}
	day, err := daily.ParseDateKey(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return time.Time{}, false
	}
	return day, true
}
