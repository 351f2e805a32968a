// Package comments keeps an append-only comment log per entity.
package comments

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

// DefaultAuthor is attributed to comments when no author is configured.
const DefaultAuthor = "John"

var ErrInvalid = errors.New("invalid comment")

// Comment is a remark attached to any entity id (task, project, note...).
type Comment struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entityId"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

type Option func(*Store)

func WithAuthor(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.author = name
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithMutationHook(f func(op string)) Option {
	return func(s *Store) { s.onMutation = f }
}

// Store maps entity ids to their comments in insertion order.
type Store struct {
	mu       sync.RWMutex
	comments map[string][]Comment

	author     string
	now        func() time.Time
	logger     *zap.Logger
	onMutation func(op string)
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		comments: make(map[string][]Comment),
		author:   DefaultAuthor,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddComment appends a comment to the entity's log.
func (s *Store) AddComment(entityID, content string) (Comment, error) {
	content = strings.TrimSpace(content)
	if entityID == "" {
		return Comment{}, fmt.Errorf("%w: entity id is required", ErrInvalid)
	}
	if content == "" {
		return Comment{}, fmt.Errorf("%w: content is required", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := Comment{
		ID:        uuid.New().String(),
		EntityID:  entityID,
		Content:   content,
		Author:    s.author,
		CreatedAt: s.now().UTC(),
	}
	prev := s.comments[entityID]
	next := make([]Comment, len(prev), len(prev)+1)
	copy(next, prev)
	s.comments[entityID] = append(next, c)

	s.logger.Debug("comment added", zap.String("entity_id", entityID), zap.String("comment_id", c.ID))
	if s.onMutation != nil {
		s.onMutation("add_comment")
	}
	return c, nil
}

// Comments returns the entity's comments oldest first. Unknown entities
// yield an empty list.
func (s *Store) Comments(entityID string) []Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Comment{}, s.comments[entityID]...)
}

// Newest returns the entity's comments newest first.
func (s *Store) Newest(entityID string) []Comment {
	out := s.Comments(entityID)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Snapshot returns a copy of every comment log.
func (s *Store) Snapshot() map[string][]Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]Comment, len(s.comments))
	for k, v := range s.comments {
		out[k] = append([]Comment{}, v...)
	}
	return out
}

// Restore replaces every comment log.
func (s *Store) Restore(all map[string][]Comment) {
	next := make(map[string][]Comment, len(all))
	for k, v := range all {
		next[k] = append([]Comment{}, v...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = next
}
