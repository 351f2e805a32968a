package goals

// State is the serializable form of the store.
type State struct {
	Goals      []Goal      `json:"goals"`
	Projects   []Project   `json:"projects"`
	Milestones []Milestone `json:"milestones"`
	Tasks      []Task      `json:"tasks"`
}

// Snapshot returns a deep copy of the whole store.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Goals:      append([]Goal{}, s.goals...),
		Projects:   cloneProjects(s.projects, func(Project) bool { return true }),
		Milestones: cloneMilestones(s.milestones, func(Milestone) bool { return true }),
		Tasks:      cloneTasks(s.tasks, func(Task) bool { return true }),
	}
}

// Restore replaces the store contents with st. Project progress is
// recomputed from the results so a stale aggregate cannot survive a reload.
func (s *Store) Restore(st State) {
	projects := cloneProjects(st.Projects, func(Project) bool { return true })
	for i := range projects {
		projects[i].Progress = aggregateProgress(projects[i].Results)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = append([]Goal(nil), st.Goals...)
	s.projects = projects
	s.milestones = cloneMilestones(st.Milestones, func(Milestone) bool { return true })
	s.tasks = cloneTasks(st.Tasks, func(Task) bool { return true })
}
