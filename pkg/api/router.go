package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/mklimuk/kai/pkg/app"
	"github.com/mklimuk/kai/pkg/metrics"
	"go.uber.org/zap"
)

// NewRouter creates the HTTP router over a running App.
func NewRouter(a *app.App, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	h := &Handler{App: a, logger: logger}

	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /auth/status", h.HandleAuthStatus)
	mux.HandleFunc("POST /auth/login", h.HandleLogin)
	mux.HandleFunc("POST /auth/logout", h.HandleLogout)

	mux.HandleFunc("GET /goals", h.HandleListGoals)
	mux.HandleFunc("POST /goals", h.HandleCreateGoal)
	mux.HandleFunc("GET /goals/{id}", h.HandleGetGoal)
	mux.HandleFunc("PATCH /goals/{id}", h.HandleUpdateGoal)
	mux.HandleFunc("POST /goals/{id}/archive", h.HandleArchiveGoal)
	mux.HandleFunc("GET /goals/{id}/projects", h.HandleGoalProjects)
	mux.HandleFunc("GET /goals/{id}/feed", h.HandleGoalFeed)

	mux.HandleFunc("GET /projects", h.HandleListProjects)
	mux.HandleFunc("POST /projects", h.HandleCreateProject)
	mux.HandleFunc("GET /projects/{id}", h.HandleGetProject)
	mux.HandleFunc("PATCH /projects/{id}", h.HandleUpdateProject)
	mux.HandleFunc("POST /projects/{id}/archive", h.HandleArchiveProject)
	mux.HandleFunc("POST /projects/{id}/results", h.HandleAddResult)
	mux.HandleFunc("POST /projects/{id}/results/{rid}/toggle", h.HandleToggleResult)
	mux.HandleFunc("POST /projects/{id}/results/{rid}/achieve", h.HandleAchieveResult)
	mux.HandleFunc("DELETE /projects/{id}/results/{rid}", h.HandleRemoveResult)
	mux.HandleFunc("POST /projects/{id}/results/{rid}/checkins", h.HandleAddCheckIn)
	mux.HandleFunc("GET /projects/{id}/milestones", h.HandleProjectMilestones)
	mux.HandleFunc("GET /projects/{id}/tasks", h.HandleProjectTasks)
	mux.HandleFunc("GET /projects/{id}/notes", h.HandleProjectNotes)
	mux.HandleFunc("GET /projects/{id}/feed", h.HandleProjectFeed)

	mux.HandleFunc("GET /milestones", h.HandleListMilestones)
	mux.HandleFunc("POST /milestones", h.HandleCreateMilestone)
	mux.HandleFunc("GET /milestones/{id}", h.HandleGetMilestone)
	mux.HandleFunc("PATCH /milestones/{id}", h.HandleUpdateMilestone)
	mux.HandleFunc("POST /milestones/{id}/archive", h.HandleArchiveMilestone)
	mux.HandleFunc("GET /milestones/{id}/tasks", h.HandleMilestoneTasks)
	mux.HandleFunc("GET /milestones/{id}/notes", h.HandleMilestoneNotes)

	mux.HandleFunc("GET /tasks", h.HandleListTasks)
	mux.HandleFunc("GET /tasks/uncategorized", h.HandleUncategorizedTasks)
	mux.HandleFunc("POST /tasks", h.HandleCreateTask)
	mux.HandleFunc("GET /tasks/{id}", h.HandleGetTask)
	mux.HandleFunc("PATCH /tasks/{id}", h.HandleUpdateTask)
	mux.HandleFunc("POST /tasks/{id}/toggle", h.HandleToggleTask)
	mux.HandleFunc("POST /tasks/{id}/archive", h.HandleArchiveTask)
	mux.HandleFunc("POST /tasks/{id}/unarchive", h.HandleUnarchiveTask)
	mux.HandleFunc("POST /tasks/{id}/urgent", h.HandleToggleTaskUrgent)
	mux.HandleFunc("PUT /tasks/{id}/impact", h.HandleSetTaskImpact)
	mux.HandleFunc("PUT /tasks/{id}/notes", h.HandleSetTaskNotes)

	mux.HandleFunc("GET /notes", h.HandleListNotes)
	mux.HandleFunc("POST /notes", h.HandleCreateNote)
	mux.HandleFunc("GET /notes/tags", h.HandleNoteTags)
	mux.HandleFunc("GET /notes/filter", h.HandleGetNoteFilter)
	mux.HandleFunc("PUT /notes/filter", h.HandleSetNoteFilter)
	mux.HandleFunc("DELETE /notes/filter", h.HandleResetNoteFilter)
	mux.HandleFunc("POST /notes/filter/tags/{tag}", h.HandleToggleNoteFilterTag)
	mux.HandleFunc("GET /notes/{id}", h.HandleGetNote)
	mux.HandleFunc("PATCH /notes/{id}", h.HandleUpdateNote)
	mux.HandleFunc("DELETE /notes/{id}", h.HandleDeleteNote)
	mux.HandleFunc("POST /notes/{id}/pin", h.HandleTogglePin)
	mux.HandleFunc("POST /notes/{id}/archive", h.HandleArchiveNote)
	mux.HandleFunc("POST /notes/{id}/unarchive", h.HandleUnarchiveNote)

	mux.HandleFunc("GET /feed", h.HandleFeed)
	mux.HandleFunc("GET /feed/bookmarks", h.HandleFeedBookmarks)
	mux.HandleFunc("GET /feed/projects", h.HandleFeedProjects)
	mux.HandleFunc("GET /feed/{id}", h.HandleFeedItem)
	mux.HandleFunc("POST /feed/{id}/bookmark", h.HandleToggleBookmark)
	mux.HandleFunc("POST /feed/{id}/read", h.HandleToggleRead)

	mux.HandleFunc("GET /comments/{entityId}", h.HandleListComments)
	mux.HandleFunc("POST /comments/{entityId}", h.HandleAddComment)

	mux.HandleFunc("GET /daily", h.HandleListDaily)
	mux.HandleFunc("POST /daily/today/ensure", h.HandleEnsureToday)
	mux.HandleFunc("GET /daily/template", h.HandleGetTemplate)
	mux.HandleFunc("PUT /daily/template", h.HandleSetTemplate)
	mux.HandleFunc("GET /daily/{date}", h.HandleGetDaily)
	mux.HandleFunc("GET /daily/{date}/status", h.HandleDailyStatus)
	mux.HandleFunc("POST /daily/{date}", h.HandleCreateDaily)
	mux.HandleFunc("PUT /daily/{date}", h.HandleUpdateDaily)
	mux.HandleFunc("POST /daily/{date}/lines", h.HandleAppendDaily)

	mux.HandleFunc("GET /chat/threads", h.HandleListThreads)
	mux.HandleFunc("POST /chat/threads", h.HandleCreateThread)
	mux.HandleFunc("GET /chat/threads/{id}", h.HandleGetThread)
	mux.HandleFunc("PATCH /chat/threads/{id}", h.HandleRenameThread)
	mux.HandleFunc("DELETE /chat/threads/{id}", h.HandleDeleteThread)
	mux.HandleFunc("POST /chat/threads/{id}/star", h.HandleStarThread)
	mux.HandleFunc("POST /chat/threads/{id}/messages", h.HandleSendMessage)

	mux.HandleFunc("GET /automation/jobs", h.HandleListJobs)
	mux.HandleFunc("POST /automation/jobs/{name}/run", h.HandleRunJob)
	mux.HandleFunc("POST /export", h.HandleExport)

	return h.observe(h.requireAuth(mux))
}

// publicPaths are reachable without logging in.
var publicPaths = []string{"/healthz", "/metrics", "/auth/"}

func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, p := range publicPaths {
			if r.URL.Path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(r.URL.Path, p)) {
				next.ServeHTTP(w, r)
				return
			}
		}
		if !h.App.Auth.Authenticated() {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// observe logs every request and records it in the HTTP metrics.
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		d := time.Since(start)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		h.App.Metrics.RecordRequest(r.Method, route, rec.status, d)
		h.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", d))
	})
}
