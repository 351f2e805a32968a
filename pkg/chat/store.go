// Package chat stores assistant conversations and produces the assistant's
// replies through an ai.Generator.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mklimuk/kai/pkg/ai"
	"github.com/mklimuk/kai/pkg/persist"
	"go.uber.org/zap"
)

const (
	// NewThreadTitle is the title of a thread created without a question.
	NewThreadTitle = "New conversation"
	// DefaultReplyDelay is how long the assistant "thinks" before answering.
	DefaultReplyDelay = time.Second

	titleLimit = 30
)

var (
	ErrNotFound = errors.New("thread not found")
	ErrInvalid  = errors.New("invalid chat input")
)

// MessageType tells who wrote a message.
type MessageType string

const (
	MessageUser      MessageType = "user"
	MessageAssistant MessageType = "assistant"
)

// Message is a single chat message.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// Thread is a conversation.
type Thread struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	LastActive time.Time `json:"lastActive"`
	Messages   []Message `json:"messages"`
	Starred    bool      `json:"starred"`
}

func (t Thread) clone() Thread {
	out := t
	out.Messages = append([]Message{}, t.Messages...)
	return out
}

// TruncateTitle shortens s to the thread title limit, marking the cut with "...".
func TruncateTitle(s string) string {
	if utf8.RuneCountInString(s) <= titleLimit {
		return s
	}
	return string([]rune(s)[:titleLimit]) + "..."
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithReplyDelay overrides DefaultReplyDelay.
func WithReplyDelay(d time.Duration) Option {
	return func(s *Store) { s.replyDelay = d }
}

func WithMutationHook(f func(op string)) Option {
	return func(s *Store) { s.onMutation = f }
}

// Store holds threads newest first and persists them after every change.
type Store struct {
	mu      sync.RWMutex
	threads []Thread

	kv         persist.KV
	gen        ai.Generator
	replyDelay time.Duration
	now        func() time.Time
	logger     *zap.Logger
	onMutation func(op string)

	saveMu  sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	pending sync.WaitGroup
}

// NewStore loads persisted threads from kv.
func NewStore(kv persist.KV, gen ai.Generator, opts ...Option) *Store {
	s := &Store{
		kv:         kv,
		gen:        gen,
		replyDelay: DefaultReplyDelay,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	var saved []Thread
	if persist.LoadJSON(kv, persist.KeyChatThreads, &saved, s.logger) {
		s.threads = saved
	}
	return s
}

// NewThread starts an empty conversation.
func (s *Store) NewThread() (Thread, error) {
	t := Thread{
		ID:         uuid.New().String(),
		Title:      NewThreadTitle,
		LastActive: s.now().UTC(),
		Messages:   []Message{},
	}
	if err := s.prepend(t, "new_thread"); err != nil {
		return Thread{}, err
	}
	return t.clone(), nil
}

// Ask opens a conversation with a question, usually about a feed item or
// another entity described by subject. The assistant answers after the
// reply delay.
func (s *Store) Ask(subject, question string) (Thread, error) {
	if strings.TrimSpace(question) == "" {
		return Thread{}, fmt.Errorf("%w: question is required", ErrInvalid)
	}
	now := s.now().UTC()
	t := Thread{
		ID:         uuid.New().String(),
		Title:      TruncateTitle(question),
		LastActive: now,
		Messages: []Message{{
			ID:        uuid.New().String(),
			Type:      MessageUser,
			Content:   question,
			Timestamp: now,
		}},
	}
	if err := s.prepend(t, "ask"); err != nil {
		return Thread{}, err
	}
	s.reply(t.ID, ai.AnalyzePrompt(subject, question))
	return t.clone(), nil
}

// Send adds a user message to a thread. The first message of an empty
// thread also becomes its title.
func (s *Store) Send(threadID, content string) (Thread, error) {
	if strings.TrimSpace(content) == "" {
		return Thread{}, fmt.Errorf("%w: message is required", ErrInvalid)
	}

	var history []string
	t, err := s.modify(threadID, "send", func(t *Thread) {
		for _, m := range t.Messages {
			history = append(history, fmt.Sprintf("%s: %s", m.Type, m.Content))
		}
		if len(t.Messages) == 0 {
			t.Title = TruncateTitle(content)
		}
		now := s.now().UTC()
		t.Messages = append(t.Messages, Message{
			ID:        uuid.New().String(),
			Type:      MessageUser,
			Content:   content,
			Timestamp: now,
		})
		t.LastActive = now
	})
	if err != nil {
		return Thread{}, err
	}
	s.reply(threadID, ai.FollowUpPrompt(history, content))
	return t, nil
}

// Rename sets a thread's title. A blank title leaves the thread unchanged.
func (s *Store) Rename(threadID, title string) (Thread, error) {
	if strings.TrimSpace(title) == "" {
		return s.Thread(threadID)
	}
	return s.modify(threadID, "rename", func(t *Thread) { t.Title = title })
}

// ToggleStar flips a thread's starred flag.
func (s *Store) ToggleStar(threadID string) (Thread, error) {
	return s.modify(threadID, "toggle_star", func(t *Thread) { t.Starred = !t.Starred })
}

// Delete removes a thread. Replies still pending for it are dropped.
func (s *Store) Delete(threadID string) error {
	s.mu.Lock()
	i := s.index(threadID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("thread %q: %w", threadID, ErrNotFound)
	}
	next := make([]Thread, 0, len(s.threads)-1)
	next = append(next, s.threads[:i]...)
	s.threads = append(next, s.threads[i+1:]...)
	s.mu.Unlock()

	return s.changed("delete", threadID)
}

// Threads returns every thread, newest first.
func (s *Store) Threads() []Thread {
	return s.Search("")
}

// Thread returns a single thread.
func (s *Store) Thread(threadID string) (Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(threadID)
	if i < 0 {
		return Thread{}, fmt.Errorf("thread %q: %w", threadID, ErrNotFound)
	}
	return s.threads[i].clone(), nil
}

// Search returns threads whose title or any message contains term,
// ignoring case. An empty term matches every thread.
func (s *Store) Search(term string) []Thread {
	term = strings.ToLower(term)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Thread{}
	for _, t := range s.threads {
		if term == "" || matches(t, term) {
			out = append(out, t.clone())
		}
	}
	return out
}

func matches(t Thread, term string) bool {
	if strings.Contains(strings.ToLower(t.Title), term) {
		return true
	}
	for _, m := range t.Messages {
		if strings.Contains(strings.ToLower(m.Content), term) {
			return true
		}
	}
	return false
}

// Wait blocks until every scheduled assistant reply has been delivered.
func (s *Store) Wait() {
	s.pending.Wait()
}

// Close cancels pending replies and waits for them to stop.
func (s *Store) Close() error {
	s.cancel()
	s.pending.Wait()
	return nil
}

func (s *Store) reply(threadID, prompt string) {
	if s.gen == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		timer := time.NewTimer(s.replyDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			return
		}

		text, err := s.gen.GenerateText(s.ctx, prompt)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				s.logger.Warn("assistant reply failed", zap.String("thread_id", threadID), zap.Error(err))
			}
			return
		}
		_, err = s.modify(threadID, "assistant_reply", func(t *Thread) {
			now := s.now().UTC()
			t.Messages = append(t.Messages, Message{
				ID:        uuid.New().String(),
				Type:      MessageAssistant,
				Content:   text,
				Timestamp: now,
			})
			t.LastActive = now
		})
		if err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.Warn("failed to store assistant reply", zap.String("thread_id", threadID), zap.Error(err))
		}
	}()
}

func (s *Store) prepend(t Thread, op string) error {
	s.mu.Lock()
	next := make([]Thread, 0, len(s.threads)+1)
	next = append(next, t)
	s.threads = append(next, s.threads...)
	s.mu.Unlock()
	return s.changed(op, t.ID)
}

func (s *Store) modify(threadID, op string, fn func(*Thread)) (Thread, error) {
	s.mu.Lock()
	i := s.index(threadID)
	if i < 0 {
		s.mu.Unlock()
		return Thread{}, fmt.Errorf("thread %q: %w", threadID, ErrNotFound)
	}
	t := s.threads[i].clone()
	fn(&t)
	next := make([]Thread, len(s.threads))
	copy(next, s.threads)
	next[i] = t
	s.threads = next
	s.mu.Unlock()

	if err := s.changed(op, threadID); err != nil {
		return Thread{}, err
	}
	return t.clone(), nil
}

func (s *Store) index(id string) int {
	for i, t := range s.threads {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) changed(op, threadID string) error {
	s.logger.Debug("chat mutation", zap.String("op", op), zap.String("thread_id", threadID))
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.RLock()
	snapshot := s.threads
	s.mu.RUnlock()
	if err := persist.SaveJSON(s.kv, persist.KeyChatThreads, snapshot); err != nil {
		return fmt.Errorf("failed to persist threads: %w", err)
	}
	if s.onMutation != nil {
		s.onMutation(op)
	}
	return nil
}
