package notes

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	base := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	tick, seq := 0, 0
	return NewStore(
		WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("n%d", seq)
		}),
	)
}

func mustAdd(t *testing.T, s *Store, in Input) Note {
	t.Helper()
	n, err := s.AddNote(in)
	require.NoError(t, err)
	return n
}

func ids(notes []Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

func TestAddNotePrependsAndDefaults(t *testing.T) {
	s := newTestStore(t)
	first := mustAdd(t, s, Input{Title: "First", Tags: []Tag{"idea", " idea ", ""}})
	second := mustAdd(t, s, Input{Title: "Second"})

	assert.Equal(t, []string{second.ID, first.ID}, ids(s.Notes()))
	assert.False(t, first.Pinned)
	assert.False(t, first.Archived)
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)
	assert.Equal(t, []Tag{TagIdea}, first.Tags)

	_, err := s.AddNote(Input{Title: "  "})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMutationsStampUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	n := mustAdd(t, s, Input{Title: "Draft"})

	steps := []struct {
		name string
		run  func() (Note, error)
	}{
		{"update", func() (Note, error) {
			content := "body"
			return s.UpdateNote(n.ID, Update{Content: &content})
		}},
		{"pin", func() (Note, error) { return s.TogglePinned(n.ID) }},
		{"archive", func() (Note, error) { return s.ArchiveNote(n.ID) }},
		{"unarchive", func() (Note, error) { return s.UnarchiveNote(n.ID) }},
	}
	last := n.UpdatedAt
	for _, step := range steps {
		got, err := step.run()
		require.NoError(t, err, step.name)
		assert.True(t, got.UpdatedAt.After(last), step.name)
		assert.Equal(t, n.CreatedAt, got.CreatedAt, step.name)
		last = got.UpdatedAt
	}

	got, err := s.Note(n.ID)
	require.NoError(t, err)
	assert.Equal(t, "body", got.Content)
	assert.True(t, got.Pinned)
	assert.False(t, got.Archived)
}

func TestDeleteNote(t *testing.T) {
	s := newTestStore(t)
	a := mustAdd(t, s, Input{Title: "a"})
	b := mustAdd(t, s, Input{Title: "b"})

	require.NoError(t, s.DeleteNote(a.ID))
	assert.Equal(t, []string{b.ID}, ids(s.Notes()))
	assert.ErrorIs(t, s.DeleteNote(a.ID), ErrNotFound)

	_, err := s.TogglePinned(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPinnedViewShowsOnlyPinned(t *testing.T) {
	s := newTestStore(t)
	idea := mustAdd(t, s, Input{Title: "Idea", Tags: []Tag{TagIdea}})
	mustAdd(t, s, Input{Title: "Todo", Tags: []Tag{TagTodo}})
	_, err := s.TogglePinned(idea.ID)
	require.NoError(t, err)

	require.NoError(t, s.SetFilteredView(ViewPinned))
	assert.Equal(t, []string{idea.ID}, ids(s.FilteredNotes()))
}

func TestFilterViews(t *testing.T) {
	s := newTestStore(t)
	live := mustAdd(t, s, Input{Title: "live"})
	pinnedArchived := mustAdd(t, s, Input{Title: "pinned archived"})
	_, err := s.TogglePinned(pinnedArchived.ID)
	require.NoError(t, err)
	_, err = s.ArchiveNote(pinnedArchived.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{live.ID}, ids(s.FilteredNotes()))

	require.NoError(t, s.SetFilteredView(ViewPinned))
	assert.Equal(t, []string{pinnedArchived.ID}, ids(s.FilteredNotes()), "pinned view ignores archived")

	require.NoError(t, s.SetFilteredView(ViewArchived))
	assert.Equal(t, []string{pinnedArchived.ID}, ids(s.FilteredNotes()))

	assert.ErrorIs(t, s.SetFilteredView("trash"), ErrInvalid)
}

func TestFilterProjectTagsSearchMilestone(t *testing.T) {
	s := newTestStore(t)
	meeting := mustAdd(t, s, Input{Title: "Kickoff", Content: "timeline", ProjectID: "p1", MilestoneID: "m1", Tags: []Tag{TagMeeting, TagImportant}})
	research := mustAdd(t, s, Input{Title: "Ideas", Content: "meditation app", ProjectID: "p1", Tags: []Tag{TagIdea, TagResearch}})
	loose := mustAdd(t, s, Input{Title: "Reflection", Content: "morning TIMELINE", Tags: []Tag{TagPersonal}})

	s.SetSelectedProjectID(Uncategorized)
	assert.Equal(t, []string{loose.ID}, ids(s.FilteredNotes()))

	s.SetSelectedProjectID("p1")
	assert.Equal(t, []string{research.ID, meeting.ID}, ids(s.FilteredNotes()))

	s.SetSelectedMilestoneID("m1")
	assert.Equal(t, []string{meeting.ID}, ids(s.FilteredNotes()))

	s.SetSelectedProjectID("")
	assert.Empty(t, s.Filter().SelectedMilestoneID, "project change clears milestone")

	s.ToggleTag(TagIdea)
	s.ToggleTag(TagPersonal)
	assert.Equal(t, []string{loose.ID, research.ID}, ids(s.FilteredNotes()), "any selected tag matches")

	s.ToggleTag(TagPersonal)
	assert.Equal(t, []Tag{TagIdea}, s.Filter().SelectedTags)

	s.ResetFilters()
	s.SetSearchTerm("timeline")
	assert.Equal(t, []string{loose.ID, meeting.ID}, ids(s.FilteredNotes()))
}

func TestFilterRoundTrip(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, Input{Title: "a", Tags: []Tag{TagWork}})
	mustAdd(t, s, Input{Title: "b", ProjectID: "p"})
	before := ids(s.FilteredNotes())

	s.SetSearchTerm("zzz")
	s.ToggleTag(TagWork)
	s.SetSelectedProjectID("p")
	require.NoError(t, s.SetFilteredView(ViewArchived))
	assert.Empty(t, s.FilteredNotes())

	s.SetSearchTerm("")
	s.ToggleTag(TagWork)
	s.SetSelectedProjectID("")
	require.NoError(t, s.SetFilteredView(ViewAll))
	assert.Equal(t, before, ids(s.FilteredNotes()))
}

func TestAllTagsCountsLiveNotesInFirstSeenOrder(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, Input{Title: "1", Tags: []Tag{TagIdea, "bookclub"}})
	mustAdd(t, s, Input{Title: "2", Tags: []Tag{TagTodo, TagIdea}})
	gone := mustAdd(t, s, Input{Title: "3", Tags: []Tag{TagQuestion}})
	_, err := s.ArchiveNote(gone.ID)
	require.NoError(t, err)

	assert.Equal(t, []TagCount{
		{Tag: TagTodo, Kind: KindPredefined, Count: 1},
		{Tag: TagIdea, Kind: KindPredefined, Count: 2},
		{Tag: "bookclub", Kind: KindCustom, Count: 1},
	}, s.AllTags())
}

func TestNotesByProjectAndMilestone(t *testing.T) {
	s := newTestStore(t)
	a := mustAdd(t, s, Input{Title: "a", ProjectID: "p", MilestoneID: "m"})
	b := mustAdd(t, s, Input{Title: "b", ProjectID: "p"})
	_, err := s.ArchiveNote(b.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{a.ID}, ids(s.NotesByProject("p")))
	assert.Equal(t, []string{a.ID}, ids(s.NotesByMilestone("m")))
}

func TestSortNotes(t *testing.T) {
	s := newTestStore(t)
	b := mustAdd(t, s, Input{Title: "beta"})
	a := mustAdd(t, s, Input{Title: "Alpha"})
	_, err := s.TogglePinned(b.ID)
	require.NoError(t, err)

	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortNewest, []string{b.ID, a.ID}},
		{SortOldest, []string{a.ID, b.ID}},
		{SortAZ, []string{a.ID, b.ID}},
		{SortZA, []string{b.ID, a.ID}},
	}
	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			notes := s.Notes()
			require.NoError(t, SortNotes(notes, tt.order))
			assert.Equal(t, tt.want, ids(notes))
		})
	}
	assert.ErrorIs(t, SortNotes(nil, "size"), ErrInvalid)
}

func TestTagKind(t *testing.T) {
	assert.Equal(t, KindPredefined, TagChecklist.Kind())
	assert.Equal(t, KindCustom, Tag("groceries").Kind())
}

func TestSnapshotRestore(t *testing.T) {
	s := newTestStore(t)
	n := mustAdd(t, s, Input{Title: "keep", Tags: []Tag{TagWork}})

	other := newTestStore(t)
	other.Restore(s.Snapshot())
	got, err := other.Note(n.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}
