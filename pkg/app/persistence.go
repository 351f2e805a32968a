package app

import (
	"time"

	"github.com/mklimuk/kai/pkg/comments"
	"github.com/mklimuk/kai/pkg/feed"
	"github.com/mklimuk/kai/pkg/goals"
	"github.com/mklimuk/kai/pkg/metrics"
	"github.com/mklimuk/kai/pkg/notes"
	"github.com/mklimuk/kai/pkg/persist"
	"go.uber.org/zap"
)

// Store names used in logs and metrics.
const (
	storeGoals    = "goals"
	storeNotes    = "notes"
	storeComments = "comments"
	storeFeed     = "feed"
	storeDaily    = "daily"
	storeChat     = "chat"
)

// minSaveDelay keeps saves off the mutating goroutine: store hooks run while
// the store lock is held.
const minSaveDelay = 10 * time.Millisecond

// saver writes one store's snapshot after mutations settle.
type saver struct {
	*persist.Debouncer
	name string
	save func() error
}

func (a *App) newSaver(name string) *saver {
	s := &saver{name: name}
	delay := a.Config.Storage.Debounce
	if delay < minSaveDelay {
		delay = minSaveDelay
	}
	s.Debouncer = persist.NewDebouncer(delay, func() error {
		if s.save == nil {
			return nil
		}
		return s.save()
	}, a.logger.Named(name))
	a.savers = append(a.savers, s)
	return s
}

// hook counts the mutation and schedules a save.
func (s *saver) hook(m *metrics.Metrics) func(op string) {
	record := m.MutationHook(s.name)
	return func(op string) {
		record(op)
		s.Trigger()
	}
}

// Flush writes every pending store snapshot now.
func (a *App) Flush() error {
	var first error
	for _, s := range a.savers {
		if err := s.Flush(); err != nil && first == nil {
			first = err
		}
	}
	if err := a.Daily.Flush(); err != nil && first == nil {
		first = err
	}
	return first
}

func (a *App) saveGoals() error {
	return persist.SaveJSON(a.Repo, persist.KeyGoals, a.Goals.Snapshot())
}

func (a *App) restoreGoals() {
	var st goals.State
	if persist.LoadJSON(a.Repo, persist.KeyGoals, &st, a.logger) {
		a.Goals.Restore(st)
		a.logger.Debug("restored goals",
			zap.Int("goals", len(st.Goals)),
			zap.Int("projects", len(st.Projects)),
			zap.Int("tasks", len(st.Tasks)))
	}
}

func (a *App) saveNotes() error {
	return persist.SaveJSON(a.Repo, persist.KeyNotes, a.Notes.Snapshot())
}

func (a *App) restoreNotes() {
	var saved []notes.Note
	if persist.LoadJSON(a.Repo, persist.KeyNotes, &saved, a.logger) {
		a.Notes.Restore(saved)
	}
}

func (a *App) saveComments() error {
	return persist.SaveJSON(a.Repo, persist.KeyComments, a.Comments.Snapshot())
}

func (a *App) restoreComments() {
	var saved map[string][]comments.Comment
	if persist.LoadJSON(a.Repo, persist.KeyComments, &saved, a.logger) {
		a.Comments.Restore(saved)
	}
}

func (a *App) saveFeed() error {
	return persist.SaveJSON(a.Repo, persist.KeyFeed, a.Feed.Snapshot())
}

func (a *App) restoreFeed() {
	var st feed.State
	if persist.LoadJSON(a.Repo, persist.KeyFeed, &st, a.logger) {
		a.Feed.Restore(st)
	}
}
