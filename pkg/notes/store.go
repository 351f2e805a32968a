// Package notes stores free-form notes and the filter state of the notes list.
package notes

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("note not found")
	ErrInvalid  = errors.New("invalid note input")
)

// Option configures a Store.
type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// WithMutationHook registers a callback invoked after every note mutation.
// Filter changes are view state and do not trigger it.
func WithMutationHook(f func(op string)) Option {
	return func(s *Store) { s.onMutation = f }
}

// Store holds notes newest-first plus the current list filter.
type Store struct {
	mu     sync.RWMutex
	notes  []Note
	filter Filter

	now        func() time.Time
	newID      func() string
	logger     *zap.Logger
	onMutation func(op string)
}

// NewStore creates an empty Store showing the "all" view.
func NewStore(opts ...Option) *Store {
	s := &Store{
		filter: Filter{View: ViewAll, SelectedTags: []Tag{}},
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Input carries the user-editable fields of a note.
type Input struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	ProjectID   string `json:"projectId"`
	MilestoneID string `json:"milestoneId"`
	Tags        []Tag  `json:"tags"`
}

// Update is a partial update; nil fields are left untouched.
type Update struct {
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	ProjectID   *string `json:"projectId"`
	MilestoneID *string `json:"milestoneId"`
	Tags        *[]Tag  `json:"tags"`
	Pinned      *bool   `json:"pinned"`
	Archived    *bool   `json:"archived"`
}

// AddNote puts a new note at the front of the list.
func (s *Store) AddNote(in Input) (Note, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Note{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	n := Note{
		ID:          s.newID(),
		Title:       title,
		Content:     in.Content,
		ProjectID:   in.ProjectID,
		MilestoneID: in.MilestoneID,
		Tags:        normalizeTags(in.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	next := make([]Note, 0, len(s.notes)+1)
	next = append(next, n)
	s.notes = append(next, s.notes...)
	s.mutated("add_note", n.ID)
	return n.clone(), nil
}

// UpdateNote merges upd into the note and stamps updatedAt.
func (s *Store) UpdateNote(id string, upd Update) (Note, error) {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return Note{}, fmt.Errorf("%w: title cannot be empty", ErrInvalid)
	}
	return s.modify(id, "update_note", func(n *Note) {
		if upd.Title != nil {
			n.Title = strings.TrimSpace(*upd.Title)
		}
		if upd.Content != nil {
			n.Content = *upd.Content
		}
		if upd.ProjectID != nil {
			n.ProjectID = *upd.ProjectID
		}
		if upd.MilestoneID != nil {
			n.MilestoneID = *upd.MilestoneID
		}
		if upd.Tags != nil {
			n.Tags = normalizeTags(*upd.Tags)
		}
		if upd.Pinned != nil {
			n.Pinned = *upd.Pinned
		}
		if upd.Archived != nil {
			n.Archived = *upd.Archived
		}
	})
}

// DeleteNote removes a note permanently.
func (s *Store) DeleteNote(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("note %q: %w", id, ErrNotFound)
	}
	next := make([]Note, 0, len(s.notes)-1)
	next = append(next, s.notes[:i]...)
	s.notes = append(next, s.notes[i+1:]...)
	s.mutated("delete_note", id)
	return nil
}

func (s *Store) ArchiveNote(id string) (Note, error) {
	return s.modify(id, "archive_note", func(n *Note) { n.Archived = true })
}

func (s *Store) UnarchiveNote(id string) (Note, error) {
	return s.modify(id, "unarchive_note", func(n *Note) { n.Archived = false })
}

func (s *Store) TogglePinned(id string) (Note, error) {
	return s.modify(id, "toggle_pinned", func(n *Note) { n.Pinned = !n.Pinned })
}

func (s *Store) modify(id, op string, fn func(*Note)) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return Note{}, fmt.Errorf("note %q: %w", id, ErrNotFound)
	}
	n := s.notes[i].clone()
	fn(&n)
	n.UpdatedAt = s.now().UTC()

	next := make([]Note, len(s.notes))
	copy(next, s.notes)
	next[i] = n
	s.notes = next
	s.mutated(op, id)
	return n.clone(), nil
}

func (s *Store) index(id string) int {
	for i, n := range s.notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) mutated(op, id string) {
	s.logger.Debug("notes mutation", zap.String("op", op), zap.String("note_id", id))
	if s.onMutation != nil {
		s.onMutation(op)
	}
}

// normalizeTags trims tags and drops blanks and duplicates, keeping order.
func normalizeTags(tags []Tag) []Tag {
	out := make([]Tag, 0, len(tags))
	seen := make(map[Tag]bool, len(tags))
	for _, t := range tags {
		t = Tag(strings.TrimSpace(string(t)))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// =============================================================================
// Reads
// =============================================================================

// Notes returns every note, newest first.
func (s *Store) Notes() []Note {
	return s.collect(func(Note) bool { return true })
}

// Note returns the note with the given id.
func (s *Store) Note(id string) (Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return Note{}, fmt.Errorf("note %q: %w", id, ErrNotFound)
	}
	return s.notes[i].clone(), nil
}

// NotesByProject returns the live notes attached to a project.
func (s *Store) NotesByProject(projectID string) []Note {
	return s.collect(func(n Note) bool { return n.ProjectID == projectID && !n.Archived })
}

// NotesByMilestone returns the live notes attached to a milestone.
func (s *Store) NotesByMilestone(milestoneID string) []Note {
	return s.collect(func(n Note) bool { return n.MilestoneID == milestoneID && !n.Archived })
}

// AllTags counts tags over live notes, in order of first appearance.
func (s *Store) AllTags() []TagCount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []TagCount{}
	pos := make(map[Tag]int)
	for _, n := range s.notes {
		if n.Archived {
			continue
		}
		for _, t := range n.Tags {
			if i, ok := pos[t]; ok {
				out[i].Count++
				continue
			}
			pos[t] = len(out)
			out = append(out, TagCount{Tag: t, Kind: t.Kind(), Count: 1})
		}
	}
	return out
}

func (s *Store) collect(keep func(Note) bool) []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Note{}
	for _, n := range s.notes {
		if keep(n) {
			out = append(out, n.clone())
		}
	}
	return out
}

// =============================================================================
// Filter state
// =============================================================================

func (s *Store) SetSearchTerm(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.SearchTerm = term
}

// ToggleTag adds tag to the selected tags, or removes it if already selected.
func (s *Store) ToggleTag(tag Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tags := make([]Tag, 0, len(s.filter.SelectedTags)+1)
	found := false
	for _, t := range s.filter.SelectedTags {
		if t == tag {
			found = true
			continue
		}
		tags = append(tags, t)
	}
	if !found {
		tags = append(tags, tag)
	}
	s.filter.SelectedTags = tags
}

// SetSelectedProjectID selects a project ("" for any, Uncategorized for none).
// Changing the project clears the milestone selection.
func (s *Store) SetSelectedProjectID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter.SelectedProjectID != id {
		s.filter.SelectedMilestoneID = ""
	}
	s.filter.SelectedProjectID = id
}

func (s *Store) SetSelectedMilestoneID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.SelectedMilestoneID = id
}

// SetFilteredView switches between the all, pinned and archived lists.
func (s *Store) SetFilteredView(v View) error {
	if !v.Valid() {
		return fmt.Errorf("%w: unknown view %q", ErrInvalid, v)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.View = v
	return nil
}

// ResetFilters restores the default filter.
func (s *Store) ResetFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = Filter{View: ViewAll, SelectedTags: []Tag{}}
}

// Filter returns the current filter state.
func (s *Store) Filter() Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter.clone()
}

// FilteredNotes applies the current filter state.
func (s *Store) FilteredNotes() []Note {
	f := s.Filter()
	return s.collect(f.Match)
}

// Match reports whether n passes the filter. Gates apply in order: view,
// project, tags (any selected tag), search term, milestone.
func (f Filter) Match(n Note) bool {
	switch f.View {
	case ViewPinned:
		if !n.Pinned {
			return false
		}
	case ViewArchived:
		if !n.Archived {
			return false
		}
	default:
		if n.Archived {
			return false
		}
	}

	if f.SelectedProjectID != "" {
		if f.SelectedProjectID == Uncategorized {
			if n.ProjectID != "" {
				return false
			}
		} else if n.ProjectID != f.SelectedProjectID {
			return false
		}
	}

	if len(f.SelectedTags) > 0 {
		matched := false
		for _, t := range f.SelectedTags {
			if n.hasTag(t) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.SearchTerm != "" {
		term := strings.ToLower(f.SearchTerm)
		if !strings.Contains(strings.ToLower(n.Title), term) &&
			!strings.Contains(strings.ToLower(n.Content), term) {
			return false
		}
	}

	if f.SelectedMilestoneID != "" && n.MilestoneID != f.SelectedMilestoneID {
		return false
	}
	return true
}

// =============================================================================
// Sorting
// =============================================================================

// SortOrder orders the notes list.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
	SortAZ     SortOrder = "az"
	SortZA     SortOrder = "za"
)

// SortNotes orders notes in place. An empty order means SortNewest.
func SortNotes(notes []Note, order SortOrder) error {
	var less func(a, b Note) bool
	switch order {
	case "", SortNewest:
		less = func(a, b Note) bool { return a.UpdatedAt.After(b.UpdatedAt) }
	case SortOldest:
		less = func(a, b Note) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case SortAZ:
		less = func(a, b Note) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case SortZA:
		less = func(a, b Note) bool { return strings.ToLower(a.Title) > strings.ToLower(b.Title) }
	default:
		return fmt.Errorf("%w: unknown sort %q", ErrInvalid, order)
	}
	sort.SliceStable(notes, func(i, j int) bool { return less(notes[i], notes[j]) })
	return nil
}

// =============================================================================
// Persistence
// =============================================================================

// Snapshot returns a copy of every note.
func (s *Store) Snapshot() []Note {
	return s.Notes()
}

// Restore replaces the stored notes. The filter is left untouched.
func (s *Store) Restore(notes []Note) {
	next := make([]Note, 0, len(notes))
	for _, n := range notes {
		next = append(next, n.clone())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = next
}
