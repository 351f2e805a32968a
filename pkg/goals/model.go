package goals

import (
	"fmt"
	"time"
)

// Impact ranks how much a task moves its project forward.
type Impact string

const (
	ImpactHigh   Impact = "High"
	ImpactMedium Impact = "Medium"
	ImpactLow    Impact = "Low"
)

// Valid reports whether i is one of the known impact levels.
func (i Impact) Valid() bool {
	switch i {
	case ImpactHigh, ImpactMedium, ImpactLow:
		return true
	}
	return false
}

// Icon is the glyph shown next to a goal.
type Icon string

const (
	IconTarget        Icon = "target"
	IconBriefcase     Icon = "briefcase"
	IconGraduationCap Icon = "graduation-cap"
)

func (i Icon) Valid() bool {
	switch i {
	case IconTarget, IconBriefcase, IconGraduationCap:
		return true
	}
	return false
}

// Goal is a top-level aspiration grouping projects.
type Goal struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Icon        Icon      `json:"icon"`
	Color       string    `json:"color"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CheckIn is an append-only progress entry recorded against a result.
type CheckIn struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Progress  int       `json:"progress"` // delta
	CreatedAt time.Time `json:"createdAt"`
}

// ProjectResult is an expected outcome of a project, advanced by check-ins.
type ProjectResult struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Achieved    bool      `json:"achieved"`
	Progress    int       `json:"progress"`
	CheckIns    []CheckIn `json:"checkIns"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Project is a body of work under a goal. Progress is derived from its results.
type Project struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	GoalID      string          `json:"goalId"`
	Progress    int             `json:"progress"`
	Results     []ProjectResult `json:"results"`
	Archived    bool            `json:"archived"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Milestone is a dated checkpoint inside a project.
type Milestone struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ProjectID   string     `json:"projectId"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Progress    int        `json:"progress"`
	Archived    bool       `json:"archived"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Task is an actionable item. An empty ProjectID means the task is
// uncategorized; an empty MilestoneID means it is not assigned to a milestone.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	MilestoneID string     `json:"milestoneId,omitempty"`
	ProjectID   string     `json:"projectId,omitempty"`
	Impact      Impact     `json:"impact"`
	Urgent      bool       `json:"urgent"`
	Notes       string     `json:"notes,omitempty"`
	Archived    bool       `json:"archived"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (p Project) clone() Project {
	out := p
	out.Results = make([]ProjectResult, len(p.Results))
	for i, r := range p.Results {
		out.Results[i] = r.clone()
	}
	return out
}

func (r ProjectResult) clone() ProjectResult {
	out := r
	out.CheckIns = append([]CheckIn(nil), r.CheckIns...)
	if out.CheckIns == nil {
		out.CheckIns = []CheckIn{}
	}
	return out
}

func (m Milestone) clone() Milestone {
	out := m
	if m.Deadline != nil {
		d := *m.Deadline
		out.Deadline = &d
	}
	return out
}

func (t Task) clone() Task {
	out := t
	if t.Deadline != nil {
		d := *t.Deadline
		out.Deadline = &d
	}
	return out
}

// aggregateProgress is floor(mean(results.progress)), 0 with no results.
func aggregateProgress(results []ProjectResult) int {
	if len(results) == 0 {
		return 0
	}
	sum := 0
	for _, r := range results {
		sum += r.Progress
	}
	return sum / len(results)
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}
