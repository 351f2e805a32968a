package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mklimuk/kai/pkg/app"
	"github.com/mklimuk/kai/pkg/auth"
	"github.com/mklimuk/kai/pkg/automation"
	"github.com/mklimuk/kai/pkg/chat"
	"github.com/mklimuk/kai/pkg/comments"
	"github.com/mklimuk/kai/pkg/daily"
	"github.com/mklimuk/kai/pkg/feed"
	"github.com/mklimuk/kai/pkg/goals"
	"github.com/mklimuk/kai/pkg/notes"
	"go.uber.org/zap"
)

// Handler holds dependencies for API handlers
type Handler struct {
	App    *app.App
	logger *zap.Logger
}

// HandleHealth handles GET /healthz
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Repo.Ping(); err != nil {
		http.Error(w, "database unavailable: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Password string `json:"password"`
}

// HandleAuthStatus handles GET /auth/status
func (h *Handler) HandleAuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"enabled":       h.App.Auth.Enabled(),
		"authenticated": h.App.Auth.Authenticated(),
	})
}

// HandleLogin handles POST /auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.App.Auth.Login(req.Password); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

// HandleLogout handles POST /auth/logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Auth.Logout(); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListJobs handles GET /automation/jobs
func (h *Handler) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": h.App.Scheduler.Jobs()})
}

// HandleRunJob handles POST /automation/jobs/{name}/run
func (h *Handler) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	st, err := h.App.Scheduler.RunNow(r.Context(), r.PathValue("name"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleExport handles POST /export
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	sum, err := h.App.Export(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// statusFor maps store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, goals.ErrNotFound),
		errors.Is(err, notes.ErrNotFound),
		errors.Is(err, feed.ErrNotFound),
		errors.Is(err, chat.ErrNotFound),
		errors.Is(err, daily.ErrNotFound),
		errors.Is(err, automation.ErrUnknownJob):
		return http.StatusNotFound
	case errors.Is(err, goals.ErrInvalid),
		errors.Is(err, notes.ErrInvalid),
		errors.Is(err, feed.ErrInvalid),
		errors.Is(err, chat.ErrInvalid),
		errors.Is(err, comments.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidPassword):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrExportDisabled):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}

// decode reads a JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func queryBool(r *http.Request, name string) (bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	return v, err == nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
