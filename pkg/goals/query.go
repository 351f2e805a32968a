package goals

import (
	"sort"
	"strings"
)

// Labels used when a reference cannot be resolved.
const (
	UnknownLabel = "Unknown"
	NoneLabel    = "None"
)

// Goals returns every goal, archived ones included.
func (s *Store) Goals() []Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Goal(nil), s.goals...)
}

// Projects returns every project, archived ones included.
func (s *Store) Projects() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProjects(s.projects, func(Project) bool { return true })
}

// Milestones returns every milestone, archived ones included.
func (s *Store) Milestones() []Milestone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMilestones(s.milestones, func(Milestone) bool { return true })
}

// Tasks returns every task, archived ones included.
func (s *Store) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks, func(Task) bool { return true })
}

// Goal returns the goal with the given id.
func (s *Store) Goal(id string) (Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOf(s.goals, func(g Goal) bool { return g.ID == id })
	if i < 0 {
		return Goal{}, notFound("goal", id)
	}
	return s.goals[i], nil
}

// Project returns the project with the given id.
func (s *Store) Project(id string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.projectIndex(id)
	if i < 0 {
		return Project{}, notFound("project", id)
	}
	return s.projects[i].clone(), nil
}

// Milestone returns the milestone with the given id.
func (s *Store) Milestone(id string) (Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOf(s.milestones, func(m Milestone) bool { return m.ID == id })
	if i < 0 {
		return Milestone{}, notFound("milestone", id)
	}
	return s.milestones[i].clone(), nil
}

// Task returns the task with the given id.
func (s *Store) Task(id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.taskIndex(id)
	if i < 0 {
		return Task{}, notFound("task", id)
	}
	return s.tasks[i].clone(), nil
}

// ProjectsByGoal returns the live projects of a goal.
func (s *Store) ProjectsByGoal(goalID string) []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProjects(s.projects, func(p Project) bool {
		return p.GoalID == goalID && !p.Archived
	})
}

// MilestonesByProject returns the live milestones of a project.
func (s *Store) MilestonesByProject(projectID string) []Milestone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMilestones(s.milestones, func(m Milestone) bool {
		return m.ProjectID == projectID && !m.Archived
	})
}

// TasksByMilestone returns the live tasks assigned to a milestone.
func (s *Store) TasksByMilestone(milestoneID string) []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks, func(t Task) bool {
		return t.MilestoneID == milestoneID && !t.Archived
	})
}

// UncategorizedTasksByProject returns live tasks of a project that have no milestone.
func (s *Store) UncategorizedTasksByProject(projectID string) []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks, func(t Task) bool {
		return t.ProjectID == projectID && t.MilestoneID == "" && !t.Archived
	})
}

// GlobalUncategorizedTasks returns live tasks with neither project nor milestone.
func (s *Store) GlobalUncategorizedTasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks, func(t Task) bool {
		return t.ProjectID == "" && t.MilestoneID == "" && !t.Archived
	})
}

// ProjectGoal pairs a live project with its live goal.
type ProjectGoal struct {
	Project Project
	Goal    Goal
}

// LiveProjects joins every non-archived goal with its non-archived projects,
// in goal order.
func (s *Store) LiveProjects() []ProjectGoal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ProjectGoal
	for _, g := range s.goals {
		if g.Archived {
			continue
		}
		for _, p := range s.projects {
			if p.GoalID == g.ID && !p.Archived {
				out = append(out, ProjectGoal{Project: p.clone(), Goal: g})
			}
		}
	}
	return out
}

// ProjectTitle resolves a project id for display.
func (s *Store) ProjectTitle(id string) string {
	if id == "" {
		return NoneLabel
	}
	p, err := s.Project(id)
	if err != nil {
		return UnknownLabel
	}
	return p.Title
}

// MilestoneTitle resolves a milestone id for display.
func (s *Store) MilestoneTitle(id string) string {
	if id == "" {
		return NoneLabel
	}
	m, err := s.Milestone(id)
	if err != nil {
		return UnknownLabel
	}
	return m.Title
}

// GoalTitle resolves a goal id for display.
func (s *Store) GoalTitle(id string) string {
	g, err := s.Goal(id)
	if err != nil {
		return UnknownLabel
	}
	return g.Title
}

// =============================================================================
// Task view
// =============================================================================

// TaskStatus selects which tasks a TaskFilter keeps.
type TaskStatus string

const (
	StatusAll       TaskStatus = "all"
	StatusCompleted TaskStatus = "completed"
	StatusArchived  TaskStatus = "archived"
)

// TaskSort orders a task list.
type TaskSort string

const (
	SortDateAsc   TaskSort = "date-asc"
	SortDateDesc  TaskSort = "date-desc"
	SortAlphaAsc  TaskSort = "alpha-asc"
	SortAlphaDesc TaskSort = "alpha-desc"
)

// TaskFilter describes the task list view. Zero values disable a criterion;
// an empty Status means StatusAll.
type TaskFilter struct {
	Search      string
	Status      TaskStatus
	UrgentOnly  bool
	Impact      Impact
	ProjectID   string
	MilestoneID string
}

// Validate rejects unknown enum values.
func (f TaskFilter) Validate() error {
	switch f.Status {
	case "", StatusAll, StatusCompleted, StatusArchived:
	default:
		return invalid("unknown task status %q", f.Status)
	}
	if f.Impact != "" && !f.Impact.Valid() {
		return invalid("unknown impact %q", f.Impact)
	}
	return nil
}

func (f TaskFilter) match(t Task) bool {
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) {
			return false
		}
	}
	switch f.Status {
	case StatusCompleted:
		if !t.Completed {
			return false
		}
	case StatusArchived:
		if !t.Archived {
			return false
		}
	default:
		if t.Archived {
			return false
		}
	}
	if f.UrgentOnly && !t.Urgent {
		return false
	}
	if f.Impact != "" && t.Impact != f.Impact {
		return false
	}
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if f.MilestoneID != "" && t.MilestoneID != f.MilestoneID {
		return false
	}
	return true
}

// FilterTasks returns the tasks matching f, in store order.
func (s *Store) FilterTasks(f TaskFilter) ([]Task, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks, f.match), nil
}

// SortTasks orders tasks in place. An empty order means SortDateDesc.
func SortTasks(tasks []Task, order TaskSort) error {
	var less func(a, b Task) bool
	switch order {
	case SortDateAsc:
		less = func(a, b Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "", SortDateDesc:
		less = func(a, b Task) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortAlphaAsc:
		less = func(a, b Task) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case SortAlphaDesc:
		less = func(a, b Task) bool { return strings.ToLower(a.Title) > strings.ToLower(b.Title) }
	default:
		return invalid("unknown task sort %q", order)
	}
	sort.SliceStable(tasks, func(i, j int) bool { return less(tasks[i], tasks[j]) })
	return nil
}

func cloneProjects(items []Project, keep func(Project) bool) []Project {
	out := []Project{}
	for _, p := range items {
		if keep(p) {
			out = append(out, p.clone())
		}
	}
	return out
}

func cloneMilestones(items []Milestone, keep func(Milestone) bool) []Milestone {
	out := []Milestone{}
	for _, m := range items {
		if keep(m) {
			out = append(out, m.clone())
		}
	}
	return out
}

func cloneTasks(items []Task, keep func(Task) bool) []Task {
	out := []Task{}
	for _, t := range items {
		if keep(t) {
			out = append(out, t.clone())
		}
	}
	return out
}
