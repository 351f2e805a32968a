// Package feed serves a read-only content catalog together with the user's
// bookmark set and read flags.
package feed

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("feed item not found")
	ErrInvalid  = errors.New("invalid feed query")
)

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithProjectSource sets the source of AvailableProjects.
func WithProjectSource(src ProjectSource) Option {
	return func(s *Store) { s.projects = src }
}

func WithMutationHook(f func(op string)) Option {
	return func(s *Store) { s.onMutation = f }
}

// Store holds the catalog in display order. Bookmarks live in a separate id
// set and never affect the read flag, and vice versa.
type Store struct {
	mu        sync.RWMutex
	items     []Item
	bookmarks map[string]bool

	projects   ProjectSource
	now        func() time.Time
	logger     *zap.Logger
	onMutation func(op string)
}

// NewStore creates a Store over the given catalog.
func NewStore(items []Item, opts ...Option) *Store {
	s := &Store{
		bookmarks: make(map[string]bool),
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.items = cloneItems(items, func(Item) bool { return true })
	return s
}

// Items returns the whole catalog.
func (s *Store) Items() []Item {
	return s.collect(func(Item) bool { return true })
}

// Item returns a single catalog entry.
func (s *Store) Item(id string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return Item{}, fmt.Errorf("item %q: %w", id, ErrNotFound)
	}
	return s.items[i].clone(), nil
}

// ToggleBookmark adds or removes id from the bookmark set and reports the
// new state.
func (s *Store) ToggleBookmark(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index(id) < 0 {
		return false, fmt.Errorf("item %q: %w", id, ErrNotFound)
	}
	next := make(map[string]bool, len(s.bookmarks)+1)
	for k := range s.bookmarks {
		next[k] = true
	}
	on := !next[id]
	if on {
		next[id] = true
	} else {
		delete(next, id)
	}
	s.bookmarks = next
	s.mutated("toggle_bookmark", id)
	return on, nil
}

func (s *Store) IsBookmarked(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bookmarks[id]
}

// BookmarkedItems returns bookmarked items in catalog order.
func (s *Store) BookmarkedItems() []Item {
	s.mu.RLock()
	marks := s.bookmarks
	s.mu.RUnlock()
	return s.collect(func(it Item) bool { return marks[it.ID] })
}

// ToggleRead flips an item's read flag.
func (s *Store) ToggleRead(id string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return Item{}, fmt.Errorf("item %q: %w", id, ErrNotFound)
	}
	next := make([]Item, len(s.items))
	copy(next, s.items)
	it := next[i].clone()
	it.Read = !it.Read
	next[i] = it
	s.items = next
	s.mutated("toggle_read", id)
	return it.clone(), nil
}

// FilterByProject returns items linked to the project title; All disables
// the filter.
func (s *Store) FilterByProject(project string) []Item {
	return s.collect(func(it Item) bool { return project == All || it.Project == project })
}

// FilterByGoal returns items linked to the goal title; All disables the filter.
func (s *Store) FilterByGoal(goal string) []Item {
	return s.collect(func(it Item) bool { return goal == All || it.Goal == goal })
}

// FilterByReadStatus narrows items by their read flag.
func FilterByReadStatus(status ReadStatus, items []Item) ([]Item, error) {
	var keep func(Item) bool
	switch status {
	case "", ReadAll:
		keep = func(Item) bool { return true }
	case ReadRead:
		keep = func(it Item) bool { return it.Read }
	case ReadUnread:
		keep = func(it Item) bool { return !it.Read }
	default:
		return nil, fmt.Errorf("%w: unknown read status %q", ErrInvalid, status)
	}
	return cloneItems(items, keep), nil
}

// AvailableProjects lists the live project/goal pairs items can be filtered
// by. Without a project source the list is empty.
func (s *Store) AvailableProjects() []AvailableProject {
	if s.projects == nil {
		return []AvailableProject{}
	}
	return s.projects.AvailableProjects()
}

// Query is the combined feed view: bookmarks only, project, goal, read
// status, then chronological order.
type Query struct {
	BookmarksOnly bool
	Project       string
	Goal          string
	Status        ReadStatus
	Sort          SortOrder
}

// View applies q to the catalog.
func (s *Store) View(q Query) ([]Item, error) {
	switch q.Sort {
	case "", SortNewest, SortOldest:
	default:
		return nil, fmt.Errorf("%w: unknown sort %q", ErrInvalid, q.Sort)
	}

	var items []Item
	if q.BookmarksOnly {
		items = s.BookmarkedItems()
	} else {
		items = s.Items()
	}
	items = cloneItems(items, func(it Item) bool {
		if q.Project != "" && q.Project != All && it.Project != q.Project {
			return false
		}
		if q.Goal != "" && q.Goal != All && it.Goal != q.Goal {
			return false
		}
		return true
	})
	items, err := FilterByReadStatus(q.Status, items)
	if err != nil {
		return nil, err
	}
	SortItems(items, q.Sort, s.now())
	return items, nil
}

// RelatedItems returns bookmarked items linked to a goal, or to one of its
// projects when projectTitle is set.
func (s *Store) RelatedItems(goalTitle, projectTitle string) []Item {
	return cloneItems(s.BookmarkedItems(), func(it Item) bool {
		if projectTitle != "" {
			return it.Project == projectTitle
		}
		return it.Goal == goalTitle
	})
}

// Replace swaps in a new catalog. Read flags of items that survive by id are
// kept, and bookmarks of removed items are dropped.
func (s *Store) Replace(items []Item) {
	next := cloneItems(items, func(Item) bool { return true })

	s.mu.Lock()
	defer s.mu.Unlock()

	read := make(map[string]bool, len(s.items))
	for _, it := range s.items {
		read[it.ID] = it.Read
	}
	marks := make(map[string]bool, len(s.bookmarks))
	for i := range next {
		if r, ok := read[next[i].ID]; ok {
			next[i].Read = r
		}
		if s.bookmarks[next[i].ID] {
			marks[next[i].ID] = true
		}
	}
	s.items = next
	s.bookmarks = marks
	s.logger.Info("feed catalog replaced", zap.Int("items", len(next)), zap.Int("bookmarks", len(marks)))
}

// State is the user-owned part of the feed: which items are bookmarked and
// which are read.
type State struct {
	Bookmarks []string `json:"bookmarks"`
	Read      []string `json:"read"`
}

// Snapshot captures bookmarks and read flags.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{Bookmarks: []string{}, Read: []string{}}
	for id := range s.bookmarks {
		st.Bookmarks = append(st.Bookmarks, id)
	}
	sort.Strings(st.Bookmarks)
	for _, it := range s.items {
		if it.Read {
			st.Read = append(st.Read, it.ID)
		}
	}
	return st
}

// Restore applies saved bookmarks and read flags to the current catalog.
// Ids no longer in the catalog are ignored.
func (s *Store) Restore(st State) {
	read := make(map[string]bool, len(st.Read))
	for _, id := range st.Read {
		read[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneItems(s.items, func(Item) bool { return true })
	known := make(map[string]bool, len(next))
	for i := range next {
		known[next[i].ID] = true
		next[i].Read = read[next[i].ID]
	}
	marks := make(map[string]bool, len(st.Bookmarks))
	for _, id := range st.Bookmarks {
		if known[id] {
			marks[id] = true
		}
	}
	s.items = next
	s.bookmarks = marks
}

func (s *Store) index(id string) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) collect(keep func(Item) bool) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items, keep)
}

func (s *Store) mutated(op, id string) {
	s.logger.Debug("feed mutation", zap.String("op", op), zap.String("item_id", id))
	if s.onMutation != nil {
		s.onMutation(op)
	}
}

func cloneItems(items []Item, keep func(Item) bool) []Item {
	out := []Item{}
	for _, it := range items {
		if keep(it) {
			out = append(out, it.clone())
		}
	}
	return out
}
