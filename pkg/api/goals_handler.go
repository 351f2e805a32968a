package api

import (
	"net/http"

	"github.com/mklimuk/kai/pkg/goals"
)

// HandleListGoals handles GET /goals
func (h *Handler) HandleListGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"goals": h.App.Goals.Goals()})
}

// HandleCreateGoal handles POST /goals
func (h *Handler) HandleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goals.GoalInput
	if !decode(w, r, &req) {
		return
	}
	g, err := h.App.Goals.AddGoal(req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// HandleGetGoal handles GET /goals/{id}
func (h *Handler) HandleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := h.App.Goals.Goal(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleUpdateGoal handles PATCH /goals/{id}
func (h *Handler) HandleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goals.GoalUpdate
	if !decode(w, r, &req) {
		return
	}
	g, err := h.App.Goals.UpdateGoal(r.PathValue("id"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleArchiveGoal handles POST /goals/{id}/archive
func (h *Handler) HandleArchiveGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Goals.ArchiveGoal(r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGoalProjects handles GET /goals/{id}/projects
func (h *Handler) HandleGoalProjects(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.App.Goals.Goal(id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": h.App.Goals.ProjectsByGoal(id)})
}

// HandleGoalFeed handles GET /goals/{id}/feed: bookmarked items linked to
// the goal.
func (h *Handler) HandleGoalFeed(w http.ResponseWriter, r *http.Request) {
	g, err := h.App.Goals.Goal(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": h.App.Feed.RelatedItems(g.Title, "")})
}

// HandleListProjects handles GET /projects. ?live=true keeps only projects
// that are not archived and whose goal is not archived, paired with the goal.
func (h *Handler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	live, ok := queryBool(r, "live")
	if !ok {
		http.Error(w, "invalid live flag", http.StatusBadRequest)
		return
	}
	if live {
		type liveProject struct {
			Project goals.Project `json:"project"`
			Goal    goals.Goal    `json:"goal"`
		}
		pairs := h.App.Goals.LiveProjects()
		out := make([]liveProject, 0, len(pairs))
		for _, pg := range pairs {
			out = append(out, liveProject{Project: pg.Project, Goal: pg.Goal})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"projects": out})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": h.App.Goals.Projects()})
}

// HandleCreateProject handles POST /projects
func (h *Handler) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req goals.ProjectInput
	if !decode(w, r, &req) {
		return
	}
	p, err := h.App.Goals.AddProject(req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleGetProject handles GET /projects/{id}
func (h *Handler) HandleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.App.Goals.Project(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleUpdateProject handles PATCH /projects/{id}
func (h *Handler) HandleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req goals.ProjectUpdate
	if !decode(w, r, &req) {
		return
	}
	p, err := h.App.Goals.UpdateProject(r.PathValue("id"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleArchiveProject handles POST /projects/{id}/archive
func (h *Handler) HandleArchiveProject(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Goals.ArchiveProject(r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resultRequest struct {
	Description string `json:"description"`
}

// HandleAddResult handles POST /projects/{id}/results
func (h *Handler) HandleAddResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.App.Goals.AddProjectResult(r.PathValue("id"), req.Description)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleToggleResult handles POST /projects/{id}/results/{rid}/toggle
func (h *Handler) HandleToggleResult(w http.ResponseWriter, r *http.Request) {
	res, err := h.App.Goals.ToggleProjectResult(r.PathValue("id"), r.PathValue("rid"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleAchieveResult handles POST /projects/{id}/results/{rid}/achieve.
// Unlike toggle, achieving records a closing check-in.
func (h *Handler) HandleAchieveResult(w http.ResponseWriter, r *http.Request) {
	p, err := h.App.Goals.AchieveResult(r.PathValue("id"), r.PathValue("rid"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleRemoveResult handles DELETE /projects/{id}/results/{rid}
func (h *Handler) HandleRemoveResult(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Goals.RemoveProjectResult(r.PathValue("id"), r.PathValue("rid")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddCheckIn handles POST /projects/{id}/results/{rid}/checkins
func (h *Handler) HandleAddCheckIn(w http.ResponseWriter, r *http.Request) {
	var req goals.CheckInInput
	if !decode(w, r, &req) {
		return
	}
	p, err := h.App.Goals.AddCheckIn(r.PathValue("id"), r.PathValue("rid"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleProjectMilestones handles GET /projects/{id}/milestones
func (h *Handler) HandleProjectMilestones(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.App.Goals.Project(id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"milestones": h.App.Goals.MilestonesByProject(id)})
}

// HandleProjectTasks handles GET /projects/{id}/tasks: the project's tasks
// that belong to no milestone.
func (h *Handler) HandleProjectTasks(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.App.Goals.Project(id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": h.App.Goals.UncategorizedTasksByProject(id)})
}

// HandleProjectNotes handles GET /projects/{id}/notes
func (h *Handler) HandleProjectNotes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.App.Goals.Project(id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": h.App.Notes.NotesByProject(id)})
}

// HandleProjectFeed handles GET /projects/{id}/feed
func (h *Handler) HandleProjectFeed(w http.ResponseWriter, r *http.Request) {
	p, err := h.App.Goals.Project(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	items := h.App.Feed.RelatedItems(h.App.Goals.GoalTitle(p.GoalID), p.Title)
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// HandleListMilestones handles GET /milestones
func (h *Handler) HandleListMilestones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"milestones": h.App.Goals.Milestones()})
}

// HandleCreateMilestone handles POST /milestones
func (h *Handler) HandleCreateMilestone(w http.ResponseWriter, r *http.Request) {
	var req goals.MilestoneInput
	if !decode(w, r, &req) {
		return
	}
	m, err := h.App.Goals.AddMilestone(req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// HandleGetMilestone handles GET /milestones/{id}
func (h *Handler) HandleGetMilestone(w http.ResponseWriter, r *http.Request) {
	m, err := h.App.Goals.Milestone(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleUpdateMilestone handles PATCH /milestones/{id}
func (h *Handler) HandleUpdateMilestone(w http.ResponseWriter, r *http.Request) {
	var req goals.MilestoneUpdate
	if !decode(w, r, &req) {
		return
	}
	m, err := h.App.Goals.UpdateMilestone(r.PathValue("id"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleArchiveMilestone handles POST /milestones/{id}/archive
func (h *Handler) HandleArchiveMilestone(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Goals.ArchiveMilestone(r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMilestoneTasks handles GET /milestones/{id}/tasks
func (h *Handler) HandleMilestoneTasks(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.App.Goals.Milestone(id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": h.App.Goals.TasksByMilestone(id)})
}

// HandleMilestoneNotes handles GET /milestones/{id}/notes
func (h *Handler) HandleMilestoneNotes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.App.Goals.Milestone(id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": h.App.Notes.NotesByMilestone(id)})
}

// HandleListTasks handles GET /tasks. Query parameters: q, status
// (all|completed|archived), urgent, impact, project, milestone, sort.
func (h *Handler) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	urgent, ok := queryBool(r, "urgent")
	if !ok {
		http.Error(w, "invalid urgent flag", http.StatusBadRequest)
		return
	}
	f := goals.TaskFilter{
		Search:      q.Get("q"),
		Status:      goals.TaskStatus(q.Get("status")),
		UrgentOnly:  urgent,
		Impact:      goals.Impact(q.Get("impact")),
		ProjectID:   q.Get("project"),
		MilestoneID: q.Get("milestone"),
	}
	tasks, err := h.App.Goals.FilterTasks(f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := goals.SortTasks(tasks, goals.TaskSort(q.Get("sort"))); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

// HandleUncategorizedTasks handles GET /tasks/uncategorized: tasks with no
// project.
func (h *Handler) HandleUncategorizedTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": h.App.Goals.GlobalUncategorizedTasks()})
}

// HandleCreateTask handles POST /tasks
func (h *Handler) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req goals.TaskInput
	if !decode(w, r, &req) {
		return
	}
	t, err := h.App.Goals.AddTask(req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// HandleGetTask handles GET /tasks/{id}
func (h *Handler) HandleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.App.Goals.Task(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// HandleUpdateTask handles PATCH /tasks/{id}
func (h *Handler) HandleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req goals.TaskUpdate
	if !decode(w, r, &req) {
		return
	}
	t, err := h.App.Goals.UpdateTask(r.PathValue("id"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// HandleToggleTask handles POST /tasks/{id}/toggle
func (h *Handler) HandleToggleTask(w http.ResponseWriter, r *http.Request) {
	h.taskAction(w, r, h.App.Goals.ToggleTask)
}

// HandleArchiveTask handles POST /tasks/{id}/archive
func (h *Handler) HandleArchiveTask(w http.ResponseWriter, r *http.Request) {
	h.taskAction(w, r, h.App.Goals.ArchiveTask)
}

// HandleUnarchiveTask handles POST /tasks/{id}/unarchive
func (h *Handler) HandleUnarchiveTask(w http.ResponseWriter, r *http.Request) {
	h.taskAction(w, r, h.App.Goals.UnarchiveTask)
}

// HandleToggleTaskUrgent handles POST /tasks/{id}/urgent
func (h *Handler) HandleToggleTaskUrgent(w http.ResponseWriter, r *http.Request) {
	h.taskAction(w, r, h.App.Goals.ToggleTaskUrgent)
}

type impactRequest struct {
	Impact goals.Impact `json:"impact"`
}

// HandleSetTaskImpact handles PUT /tasks/{id}/impact
func (h *Handler) HandleSetTaskImpact(w http.ResponseWriter, r *http.Request) {
	var req impactRequest
	if !decode(w, r, &req) {
		return
	}
	h.taskAction(w, r, func(id string) (goals.Task, error) {
		return h.App.Goals.UpdateTaskImpact(id, req.Impact)
	})
}

type taskNotesRequest struct {
	Notes string `json:"notes"`
}

// HandleSetTaskNotes handles PUT /tasks/{id}/notes
func (h *Handler) HandleSetTaskNotes(w http.ResponseWriter, r *http.Request) {
	var req taskNotesRequest
	if !decode(w, r, &req) {
		return
	}
	h.taskAction(w, r, func(id string) (goals.Task, error) {
		return h.App.Goals.UpdateTaskNotes(id, req.Notes)
	})
}

func (h *Handler) taskAction(w http.ResponseWriter, r *http.Request, fn func(id string) (goals.Task, error)) {
	t, err := fn(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
