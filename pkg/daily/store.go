// Package daily keeps one note per calendar day plus the template new days
// start from.
package daily

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mklimuk/kai/pkg/persist"
	"github.com/mklimuk/kai/pkg/vault"
	"go.uber.org/zap"
)

// DateLayout is the format of day keys.
const DateLayout = "2006-01-02"

// DefaultDebounce is the quiet period before notes are written out.
const DefaultDebounce = time.Second

var ErrNotFound = errors.New("daily note not found")

// Note is the note of a single day.
type Note struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DayStatus tells whether a day has a note.
type DayStatus string

const (
	StatusExists DayStatus = "exists"
	StatusEmpty  DayStatus = "empty"
)

// DateKey formats a day key in the local calendar of t.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateKey parses a yyyy-MM-dd key.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", key, err)
	}
	return t, nil
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithDebounce overrides the quiet period before notes are persisted.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// WithMutationHook registers a callback invoked after every change.
func WithMutationHook(f func(op string)) Option {
	return func(s *Store) { s.onMutation = f }
}

// Store maps day keys to notes. The notes map is written to the KV store
// after a quiet period; the template is written immediately.
type Store struct {
	mu       sync.RWMutex
	notes    map[string]Note
	template string

	kv         persist.KV
	saver      *persist.Debouncer
	debounce   time.Duration
	now        func() time.Time
	logger     *zap.Logger
	onMutation func(op string)
}

// NewStore loads persisted notes and template from kv. When nothing was
// persisted the store starts with an empty note for today.
func NewStore(kv persist.KV, opts ...Option) *Store {
	s := &Store{
		kv:       kv,
		debounce: DefaultDebounce,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.saver = persist.NewDebouncer(s.debounce, s.saveNotes, s.logger)

	var saved map[string]Note
	if persist.LoadJSON(kv, persist.KeyDailyNotes, &saved, s.logger) && saved != nil {
		s.notes = saved
	} else {
		now := s.now()
		key := DateKey(now)
		s.notes = map[string]Note{key: s.newNote(key, "", now)}
	}
	if tmpl, err := kv.Get(persist.KeyNotesTemplate); err == nil {
		s.template = tmpl
	}
	return s
}

func (s *Store) newNote(key, content string, now time.Time) Note {
	return Note{
		ID:        uuid.New().String(),
		Date:      key,
		Content:   content,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// Note returns the note of the given day.
func (s *Store) Note(day time.Time) (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[DateKey(day)]
	return n, ok
}

// CreateNote creates the note of a day, replacing any existing one. Empty
// content falls back to the rendered template.
func (s *Store) CreateNote(day time.Time, content string) Note {
	key := DateKey(day)

	s.mu.Lock()
	if content == "" && s.template != "" {
		content = vault.Render(s.template, key, day)
	}
	n := s.newNote(key, content, s.now())
	s.notes = s.withNote(n)
	s.mu.Unlock()

	s.changed("create_note", key)
	return n
}

// UpdateNote replaces the content of an existing day's note.
func (s *Store) UpdateNote(day time.Time, content string) (Note, error) {
	key := DateKey(day)

	s.mu.Lock()
	n, ok := s.notes[key]
	if !ok {
		s.mu.Unlock()
		return Note{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	n.Content = content
	n.UpdatedAt = s.now().UTC()
	s.notes = s.withNote(n)
	s.mu.Unlock()

	s.changed("update_note", key)
	return n, nil
}

// AppendLine adds line to the end of the day's note, creating the note from
// the template first when the day has none.
func (s *Store) AppendLine(day time.Time, line string) Note {
	key := DateKey(day)
	now := s.now()

	s.mu.Lock()
	n, ok := s.notes[key]
	if !ok {
		content := ""
		if s.template != "" {
			content = vault.Render(s.template, key, day)
		}
		n = s.newNote(key, content, now)
	}
	switch {
	case n.Content == "":
		n.Content = line
	case strings.HasSuffix(n.Content, "\n"):
		n.Content += line
	default:
		n.Content += "\n" + line
	}
	n.UpdatedAt = now.UTC()
	s.notes = s.withNote(n)
	s.mu.Unlock()

	s.changed("append_line", key)
	return n
}

// EnsureToday creates today's note from the template unless it exists.
func (s *Store) EnsureToday() (Note, bool) {
	today := s.now()
	if n, ok := s.Note(today); ok {
		return n, false
	}
	return s.CreateNote(today, ""), true
}

// withNote returns a copy of the notes map with n set. Callers hold mu.
func (s *Store) withNote(n Note) map[string]Note {
	next := make(map[string]Note, len(s.notes)+1)
	for k, v := range s.notes {
		next[k] = v
	}
	next[n.Date] = n
	return next
}

// DayStatus reports whether the day has a note.
func (s *Store) DayStatus(day time.Time) DayStatus {
	if _, ok := s.Note(day); ok {
		return StatusExists
	}
	return StatusEmpty
}

// AllNotes returns every note ordered by day.
func (s *Store) AllNotes() []Note {
	s.mu.RLock()
	out := make([]Note, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, n)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Template returns the template new notes start from.
func (s *Store) Template() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.template
}

// UpdateTemplate persists the template and then makes it current. A failed
// write leaves the previous template in place.
func (s *Store) UpdateTemplate(tmpl string) error {
	s.mu.Lock()
	if err := s.kv.Put(persist.KeyNotesTemplate, tmpl); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to persist template: %w", err)
	}
	s.template = tmpl
	s.mu.Unlock()

	if s.onMutation != nil {
		s.onMutation("update_template")
	}
	return nil
}

// Flush writes pending notes immediately.
func (s *Store) Flush() error {
	return s.saver.Flush()
}

// Close flushes pending notes and stops accepting writes.
func (s *Store) Close() error {
	return s.saver.Close()
}

func (s *Store) changed(op, key string) {
	s.logger.Debug("daily note mutation", zap.String("op", op), zap.String("date", key))
	s.saver.Trigger()
	if s.onMutation != nil {
		s.onMutation(op)
	}
}

func (s *Store) saveNotes() error {
	s.mu.RLock()
	snapshot := s.notes
	s.mu.RUnlock()
	return persist.SaveJSON(s.kv, persist.KeyDailyNotes, snapshot)
}
