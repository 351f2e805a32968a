// Package goals owns goals, projects, results, check-ins, milestones and
// tasks, together with the aggregates and lookups derived from them.
package goals

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a mutation targets an unknown id.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned when input fails validation.
	ErrInvalid = errors.New("invalid input")
)

// achievedCheckIn is the content of the implicit check-in recorded by AchieveResult.
const achievedCheckIn = "Marked as completed"

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for mutation tracing.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the uuid-based id generator.
func WithIDGenerator(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// WithMutationHook registers a callback invoked after every successful mutation.
func WithMutationHook(f func(op string)) Option {
	return func(s *Store) { s.onMutation = f }
}

// Store is the single source of truth for the goals domain. Mutations replace
// whole slices, so a snapshot handed out earlier is never modified.
type Store struct {
	mu         sync.RWMutex
	goals      []Goal
	projects   []Project
	milestones []Milestone
	tasks      []Task

	now        func() time.Time
	newID      func() string
	logger     *zap.Logger
	onMutation func(op string)
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) mutated(op string, fields ...zap.Field) {
	s.logger.Debug("goals mutation", append([]zap.Field{zap.String("op", op)}, fields...)...)
	if s.onMutation != nil {
		s.onMutation(op)
	}
}

// =============================================================================
// Goals
// =============================================================================

// GoalInput carries the fields of a new goal.
type GoalInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        Icon   `json:"icon"`
	Color       string `json:"color"`
}

// GoalUpdate is a partial update; nil fields are left untouched.
type GoalUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Icon        *Icon   `json:"icon"`
	Color       *string `json:"color"`
}

// AddGoal creates a goal. An empty icon defaults to target.
func (s *Store) AddGoal(in GoalInput) (Goal, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Goal{}, invalid("goal title is required")
	}
	if in.Icon == "" {
		in.Icon = IconTarget
	}
	if !in.Icon.Valid() {
		return Goal{}, invalid("unknown goal icon %q", in.Icon)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := Goal{
		ID:          s.newID(),
		Title:       title,
		Description: in.Description,
		Icon:        in.Icon,
		Color:       in.Color,
		CreatedAt:   s.now().UTC(),
	}
	s.goals = appendCopy(s.goals, g)
	s.mutated("add_goal", zap.String("goal_id", g.ID))
	return g, nil
}

// UpdateGoal merges the non-nil fields of upd into the goal.
func (s *Store) UpdateGoal(id string, upd GoalUpdate) (Goal, error) {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return Goal{}, invalid("goal title cannot be empty")
	}
	if upd.Icon != nil && !upd.Icon.Valid() {
		return Goal{}, invalid("unknown goal icon %q", *upd.Icon)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.goals, func(g Goal) bool { return g.ID == id })
	if i < 0 {
		return Goal{}, notFound("goal", id)
	}
	g := s.goals[i]
	if upd.Title != nil {
		g.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		g.Description = *upd.Description
	}
	if upd.Icon != nil {
		g.Icon = *upd.Icon
	}
	if upd.Color != nil {
		g.Color = *upd.Color
	}
	s.goals = replaceAt(s.goals, i, g)
	s.mutated("update_goal", zap.String("goal_id", id))
	return g, nil
}

// ArchiveGoal soft-deletes a goal. Its projects are left as they are.
func (s *Store) ArchiveGoal(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.goals, func(g Goal) bool { return g.ID == id })
	if i < 0 {
		return notFound("goal", id)
	}
	g := s.goals[i]
	g.Archived = true
	s.goals = replaceAt(s.goals, i, g)
	s.mutated("archive_goal", zap.String("goal_id", id))
	return nil
}

// =============================================================================
// Projects and results
// =============================================================================

// ResultInput describes a result supplied by a project form. ID and CreatedAt
// are generated when empty.
type ResultInput struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Achieved    bool      `json:"achieved"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProjectInput carries the fields of a new project.
type ProjectInput struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	GoalID      string        `json:"goalId"`
	Results     []ResultInput `json:"results"`
}

// ProjectUpdate is a partial update. A non-nil Results replaces the result
// list, keeping progress and check-ins of results whose id already existed.
type ProjectUpdate struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Results     *[]ResultInput `json:"results"`
}

// AddProject creates a project under an existing goal. Supplied results start
// with zero progress and no check-ins.
func (s *Store) AddProject(in ProjectInput) (Project, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Project{}, invalid("project title is required")
	}
	if in.GoalID == "" {
		return Project{}, invalid("project goalId is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if indexOf(s.goals, func(g Goal) bool { return g.ID == in.GoalID }) < 0 {
		return Project{}, invalid("unknown goal %q", in.GoalID)
	}

	now := s.now().UTC()
	results := make([]ProjectResult, 0, len(in.Results))
	for _, r := range in.Results {
		results = append(results, s.seedResult(r, now))
	}
	p := Project{
		ID:          s.newID(),
		Title:       title,
		Description: in.Description,
		GoalID:      in.GoalID,
		Results:     results,
		CreatedAt:   now,
	}
	p.Progress = aggregateProgress(p.Results)
	s.projects = appendCopy(s.projects, p)
	s.mutated("add_project", zap.String("project_id", p.ID))
	return p.clone(), nil
}

func (s *Store) seedResult(r ResultInput, now time.Time) ProjectResult {
	out := ProjectResult{
		ID:          r.ID,
		Description: r.Description,
		Achieved:    r.Achieved,
		CheckIns:    []CheckIn{},
		CreatedAt:   r.CreatedAt,
	}
	if out.ID == "" {
		out.ID = s.newID()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	return out
}

// UpdateProject merges upd into the project.
func (s *Store) UpdateProject(id string, upd ProjectUpdate) (Project, error) {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return Project{}, invalid("project title cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.projectIndex(id)
	if i < 0 {
		return Project{}, notFound("project", id)
	}
	p := s.projects[i].clone()
	if upd.Title != nil {
		p.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Results != nil {
		now := s.now().UTC()
		merged := make([]ProjectResult, 0, len(*upd.Results))
		for _, r := range *upd.Results {
			next := s.seedResult(r, now)
			for _, existing := range p.Results {
				if existing.ID == next.ID {
					next.Progress = existing.Progress
					next.CheckIns = append([]CheckIn(nil), existing.CheckIns...)
					break
				}
			}
			merged = append(merged, next)
		}
		p.Results = merged
		p.Progress = aggregateProgress(p.Results)
	}
	s.projects = replaceAt(s.projects, i, p)
	s.mutated("update_project", zap.String("project_id", id))
	return p.clone(), nil
}

// ArchiveProject soft-deletes a project.
func (s *Store) ArchiveProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.projectIndex(id)
	if i < 0 {
		return notFound("project", id)
	}
	p := s.projects[i].clone()
	p.Archived = true
	s.projects = replaceAt(s.projects, i, p)
	s.mutated("archive_project", zap.String("project_id", id))
	return nil
}

// AddProjectResult appends a zero-progress result to the project.
func (s *Store) AddProjectResult(projectID, description string) (ProjectResult, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return ProjectResult{}, invalid("result description is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.projectIndex(projectID)
	if i < 0 {
		return ProjectResult{}, notFound("project", projectID)
	}
	p := s.projects[i].clone()
	r := s.seedResult(ResultInput{Description: description}, s.now().UTC())
	p.Results = append(p.Results, r)
	p.Progress = aggregateProgress(p.Results)
	s.projects = replaceAt(s.projects, i, p)
	s.mutated("add_result", zap.String("project_id", projectID), zap.String("result_id", r.ID))
	return r.clone(), nil
}

// ToggleProjectResult flips the achieved flag of a result. Progress is not
// touched; see AchieveResult.
func (s *Store) ToggleProjectResult(projectID, resultID string) (ProjectResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ri, err := s.resultLocked(projectID, resultID)
	if err != nil {
		return ProjectResult{}, err
	}
	p.Results[ri].Achieved = !p.Results[ri].Achieved
	s.projects = replaceAt(s.projects, s.projectIndex(projectID), p)
	s.mutated("toggle_result", zap.String("project_id", projectID), zap.String("result_id", resultID))
	return p.Results[ri].clone(), nil
}

// RemoveProjectResult drops a result and recomputes the project's progress.
func (s *Store) RemoveProjectResult(projectID, resultID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ri, err := s.resultLocked(projectID, resultID)
	if err != nil {
		return err
	}
	p.Results = append(p.Results[:ri], p.Results[ri+1:]...)
	p.Progress = aggregateProgress(p.Results)
	s.projects = replaceAt(s.projects, s.projectIndex(projectID), p)
	s.mutated("remove_result", zap.String("project_id", projectID), zap.String("result_id", resultID))
	return nil
}

// CheckInInput is the payload of a check-in. Progress is a non-negative delta.
type CheckInInput struct {
	Content  string `json:"content"`
	Progress int    `json:"progress"`
}

// AddCheckIn appends a check-in to a result, advances the result's progress
// by the delta (capped at 100) and recomputes the project aggregate.
func (s *Store) AddCheckIn(projectID, resultID string, in CheckInInput) (Project, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return Project{}, invalid("check-in content is required")
	}
	if in.Progress < 0 {
		return Project{}, invalid("check-in progress must not be negative, got %d", in.Progress)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.checkInLocked(projectID, resultID, content, in.Progress)
	if err != nil {
		return Project{}, err
	}
	return p.clone(), nil
}

func (s *Store) checkInLocked(projectID, resultID, content string, delta int) (Project, error) {
	p, ri, err := s.resultLocked(projectID, resultID)
	if err != nil {
		return Project{}, err
	}
	r := &p.Results[ri]
	r.Progress = clampPercent(r.Progress + delta)
	r.CheckIns = append(r.CheckIns, CheckIn{
		ID:        s.newID(),
		Content:   content,
		Progress:  delta,
		CreatedAt: s.now().UTC(),
	})
	p.Progress = aggregateProgress(p.Results)
	s.projects = replaceAt(s.projects, s.projectIndex(projectID), p)
	s.mutated("add_check_in",
		zap.String("project_id", projectID),
		zap.String("result_id", resultID),
		zap.Int("delta", delta),
		zap.Int("project_progress", p.Progress),
	)
	return p, nil
}

// AchieveResult toggles a result's achieved flag the way the results panel
// does: a result that becomes achieved first receives a full check-in so its
// progress reaches 100.
func (s *Store) AchieveResult(projectID, resultID string) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ri, err := s.resultLocked(projectID, resultID)
	if err != nil {
		return Project{}, err
	}
	if !p.Results[ri].Achieved {
		if p, err = s.checkInLocked(projectID, resultID, achievedCheckIn, 100); err != nil {
			return Project{}, err
		}
		p = p.clone()
	}
	p.Results[ri].Achieved = !p.Results[ri].Achieved
	s.projects = replaceAt(s.projects, s.projectIndex(projectID), p)
	s.mutated("achieve_result", zap.String("project_id", projectID), zap.String("result_id", resultID))
	return p.clone(), nil
}

// resultLocked returns a private copy of the project and the index of the
// result inside it.
func (s *Store) resultLocked(projectID, resultID string) (Project, int, error) {
	i := s.projectIndex(projectID)
	if i < 0 {
		return Project{}, -1, notFound("project", projectID)
	}
	p := s.projects[i].clone()
	ri := indexOf(p.Results, func(r ProjectResult) bool { return r.ID == resultID })
	if ri < 0 {
		return Project{}, -1, notFound("result", resultID)
	}
	return p, ri, nil
}

func (s *Store) projectIndex(id string) int {
	return indexOf(s.projects, func(p Project) bool { return p.ID == id })
}

// =============================================================================
// Milestones
// =============================================================================

// MilestoneInput carries the fields of a new milestone.
type MilestoneInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ProjectID   string     `json:"projectId"`
	Deadline    *time.Time `json:"deadline"`
}

// MilestoneUpdate is a partial update. ClearDeadline removes the deadline.
type MilestoneUpdate struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	ProjectID     *string    `json:"projectId"`
	Deadline      *time.Time `json:"deadline"`
	ClearDeadline bool       `json:"clearDeadline"`
	Progress      *int       `json:"progress"`
}

// AddMilestone creates a milestone inside an existing project.
func (s *Store) AddMilestone(in MilestoneInput) (Milestone, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Milestone{}, invalid("milestone title is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.projectIndex(in.ProjectID) < 0 {
		return Milestone{}, invalid("unknown project %q", in.ProjectID)
	}
	m := Milestone{
		ID:          s.newID(),
		Title:       title,
		Description: in.Description,
		ProjectID:   in.ProjectID,
		Deadline:    in.Deadline,
		CreatedAt:   s.now().UTC(),
	}
	s.milestones = appendCopy(s.milestones, m)
	s.mutated("add_milestone", zap.String("milestone_id", m.ID))
	return m.clone(), nil
}

// UpdateMilestone merges upd into the milestone. Progress is clamped to [0,100].
// Moving a milestone to another project moves its tasks with it.
func (s *Store) UpdateMilestone(id string, upd MilestoneUpdate) (Milestone, error) {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return Milestone{}, invalid("milestone title cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.milestones, func(m Milestone) bool { return m.ID == id })
	if i < 0 {
		return Milestone{}, notFound("milestone", id)
	}
	m := s.milestones[i].clone()
	if upd.Title != nil {
		m.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		m.Description = *upd.Description
	}
	if upd.ProjectID != nil {
		if s.projectIndex(*upd.ProjectID) < 0 {
			return Milestone{}, invalid("unknown project %q", *upd.ProjectID)
		}
		m.ProjectID = *upd.ProjectID
	}
	if upd.ClearDeadline {
		m.Deadline = nil
	} else if upd.Deadline != nil {
		d := *upd.Deadline
		m.Deadline = &d
	}
	if upd.Progress != nil {
		m.Progress = clampPercent(*upd.Progress)
	}
	s.milestones = replaceAt(s.milestones, i, m)
	moved := s.moveMilestoneTasks(id, m.ProjectID)
	s.mutated("update_milestone", zap.String("milestone_id", id), zap.Int("tasks_moved", moved))
	return m.clone(), nil
}

// moveMilestoneTasks keeps every task of the milestone in the milestone's
// project. Caller holds the lock.
func (s *Store) moveMilestoneTasks(milestoneID, projectID string) int {
	var out []Task
	moved := 0
	for i, t := range s.tasks {
		if t.MilestoneID != milestoneID || t.ProjectID == projectID {
			continue
		}
		if out == nil {
			out = make([]Task, len(s.tasks))
			copy(out, s.tasks)
		}
		t = t.clone()
		t.ProjectID = projectID
		out[i] = t
		moved++
	}
	if out != nil {
		s.tasks = out
	}
	return moved
}

// ArchiveMilestone soft-deletes a milestone.
func (s *Store) ArchiveMilestone(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.milestones, func(m Milestone) bool { return m.ID == id })
	if i < 0 {
		return notFound("milestone", id)
	}
	m := s.milestones[i].clone()
	m.Archived = true
	s.milestones = replaceAt(s.milestones, i, m)
	s.mutated("archive_milestone", zap.String("milestone_id", id))
	return nil
}

// =============================================================================
// Tasks
// =============================================================================

// TaskInput carries the fields of a new task. An empty impact means Medium.
type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	ProjectID   string     `json:"projectId"`
	MilestoneID string     `json:"milestoneId"`
	Impact      Impact     `json:"impact"`
	Urgent      bool       `json:"urgent"`
	Notes       string     `json:"notes"`
}

// TaskUpdate is a shallow partial update. Setting ProjectID without
// MilestoneID detaches the task from its milestone; an empty string clears
// either reference.
type TaskUpdate struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Completed     *bool      `json:"completed"`
	Deadline      *time.Time `json:"deadline"`
	ClearDeadline bool       `json:"clearDeadline"`
	ProjectID     *string    `json:"projectId"`
	MilestoneID   *string    `json:"milestoneId"`
	Impact        *Impact    `json:"impact"`
	Urgent        *bool      `json:"urgent"`
	Notes         *string    `json:"notes"`
}

// AddTask creates an open task.
func (s *Store) AddTask(in TaskInput) (Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Task{}, invalid("task title is required")
	}
	if in.Impact == "" {
		in.Impact = ImpactMedium
	}
	if !in.Impact.Valid() {
		return Task{}, invalid("unknown impact %q", in.Impact)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTaskRefs(in.ProjectID, in.MilestoneID); err != nil {
		return Task{}, err
	}
	t := Task{
		ID:          s.newID(),
		Title:       title,
		Description: in.Description,
		Deadline:    in.Deadline,
		ProjectID:   in.ProjectID,
		MilestoneID: in.MilestoneID,
		Impact:      in.Impact,
		Urgent:      in.Urgent,
		Notes:       in.Notes,
		CreatedAt:   s.now().UTC(),
	}
	s.tasks = appendCopy(s.tasks, t)
	s.mutated("add_task", zap.String("task_id", t.ID))
	return t.clone(), nil
}

// UpdateTask merges upd into the task. A task that ends up completed is never
// left archived.
func (s *Store) UpdateTask(id string, upd TaskUpdate) (Task, error) {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return Task{}, invalid("task title cannot be empty")
	}
	if upd.Impact != nil && !upd.Impact.Valid() {
		return Task{}, invalid("unknown impact %q", *upd.Impact)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return Task{}, notFound("task", id)
	}
	t := s.tasks[i].clone()
	if upd.Title != nil {
		t.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Completed != nil {
		t.Completed = *upd.Completed
	}
	if upd.ClearDeadline {
		t.Deadline = nil
	} else if upd.Deadline != nil {
		d := *upd.Deadline
		t.Deadline = &d
	}
	if upd.ProjectID != nil && *upd.ProjectID != t.ProjectID {
		t.ProjectID = *upd.ProjectID
		if upd.MilestoneID == nil {
			t.MilestoneID = ""
		}
	}
	if upd.MilestoneID != nil {
		t.MilestoneID = *upd.MilestoneID
	}
	if upd.Impact != nil {
		t.Impact = *upd.Impact
	}
	if upd.Urgent != nil {
		t.Urgent = *upd.Urgent
	}
	if upd.Notes != nil {
		t.Notes = *upd.Notes
	}
	if t.Completed {
		t.Archived = false
	}
	if err := s.checkTaskRefs(t.ProjectID, t.MilestoneID); err != nil {
		return Task{}, err
	}
	s.tasks = replaceAt(s.tasks, i, t)
	s.mutated("update_task", zap.String("task_id", id))
	return t.clone(), nil
}

// checkTaskRefs enforces that a task's milestone belongs to the task's project.
func (s *Store) checkTaskRefs(projectID, milestoneID string) error {
	if projectID != "" && s.projectIndex(projectID) < 0 {
		return invalid("unknown project %q", projectID)
	}
	if milestoneID == "" {
		return nil
	}
	mi := indexOf(s.milestones, func(m Milestone) bool { return m.ID == milestoneID })
	if mi < 0 {
		return invalid("unknown milestone %q", milestoneID)
	}
	if s.milestones[mi].ProjectID != projectID {
		return invalid("milestone %q does not belong to project %q", milestoneID, projectID)
	}
	return nil
}

// ToggleTask flips completion. Completing an archived task unarchives it.
func (s *Store) ToggleTask(id string) (Task, error) {
	return s.modifyTask(id, "toggle_task", func(t *Task) {
		t.Completed = !t.Completed
		if t.Completed {
			t.Archived = false
		}
	})
}

// ArchiveTask soft-deletes an open task. Completed tasks are left unchanged.
func (s *Store) ArchiveTask(id string) (Task, error) {
	return s.modifyTask(id, "archive_task", func(t *Task) {
		if !t.Completed {
			t.Archived = true
		}
	})
}

// UnarchiveTask restores an archived task.
func (s *Store) UnarchiveTask(id string) (Task, error) {
	return s.modifyTask(id, "unarchive_task", func(t *Task) { t.Archived = false })
}

// UpdateTaskImpact sets the task's impact level.
func (s *Store) UpdateTaskImpact(id string, impact Impact) (Task, error) {
	if !impact.Valid() {
		return Task{}, invalid("unknown impact %q", impact)
	}
	return s.modifyTask(id, "update_task_impact", func(t *Task) { t.Impact = impact })
}

// ToggleTaskUrgent flips the urgent flag.
func (s *Store) ToggleTaskUrgent(id string) (Task, error) {
	return s.modifyTask(id, "toggle_task_urgent", func(t *Task) { t.Urgent = !t.Urgent })
}

// UpdateTaskNotes replaces the task's free-form notes.
func (s *Store) UpdateTaskNotes(id, notes string) (Task, error) {
	return s.modifyTask(id, "update_task_notes", func(t *Task) { t.Notes = notes })
}

func (s *Store) modifyTask(id, op string, fn func(*Task)) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return Task{}, notFound("task", id)
	}
	t := s.tasks[i].clone()
	fn(&t)
	s.tasks = replaceAt(s.tasks, i, t)
	s.mutated(op, zap.String("task_id", id))
	return t.clone(), nil
}

func (s *Store) taskIndex(id string) int {
	return indexOf(s.tasks, func(t Task) bool { return t.ID == id })
}

// =============================================================================
// Slice helpers
// =============================================================================

func indexOf[T any](items []T, match func(T) bool) int {
	for i, it := range items {
		if match(it) {
			return i
		}
	}
	return -1
}

func replaceAt[T any](items []T, i int, v T) []T {
	out := make([]T, len(items))
	copy(out, items)
	out[i] = v
	return out
}

func appendCopy[T any](items []T, v T) []T {
	out := make([]T, len(items), len(items)+1)
	copy(out, items)
	return append(out, v)
}
