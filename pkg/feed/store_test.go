package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 4, 2, 12, 0, 0, 0, time.UTC)

func sampleItems() []Item {
	return []Item{
		{ID: "1", Type: TypeArticle, Title: "Leadership", Time: "2 hours ago", Project: "Mindfulness Practice", Goal: "Personal Growth"},
		{ID: "2", Type: TypeVideo, Title: "Mindfulness", Time: "4 hours ago", Project: "Mindfulness Practice", Goal: "Personal Growth", Read: true},
		{ID: "3", Type: TypeBlog, Title: "TypeScript", Time: "Yesterday", Project: "Advanced TypeScript", Goal: "Learning"},
	}
}

func newTestStore(opts ...Option) *Store {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewStore(sampleItems(), opts...)
}

func itemIDs(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestBookmarkAndReadAreIndependent(t *testing.T) {
	s := newTestStore()

	on, err := s.ToggleBookmark("1")
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, s.IsBookmarked("1"))

	it, err := s.Item("1")
	require.NoError(t, err)
	assert.False(t, it.Read, "bookmarking does not mark read")

	it, err = s.ToggleRead("1")
	require.NoError(t, err)
	assert.True(t, it.Read)
	assert.True(t, s.IsBookmarked("1"), "reading does not unbookmark")

	on, err = s.ToggleBookmark("1")
	require.NoError(t, err)
	assert.False(t, on)
	it, err = s.Item("1")
	require.NoError(t, err)
	assert.True(t, it.Read)

	_, err = s.ToggleBookmark("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.ToggleRead("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookmarkedItemsKeepCatalogOrder(t *testing.T) {
	s := newTestStore()
	_, err := s.ToggleBookmark("3")
	require.NoError(t, err)
	_, err = s.ToggleBookmark("1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, itemIDs(s.BookmarkedItems()))
}

func TestFilters(t *testing.T) {
	s := newTestStore()
	assert.Len(t, s.FilterByProject(All), 3)
	assert.Equal(t, []string{"1", "2"}, itemIDs(s.FilterByProject("Mindfulness Practice")))
	assert.Equal(t, []string{"3"}, itemIDs(s.FilterByGoal("Learning")))
	assert.Len(t, s.FilterByGoal(All), 3)

	unread, err := FilterByReadStatus(ReadUnread, s.Items())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, itemIDs(unread))

	read, err := FilterByReadStatus(ReadRead, s.Items())
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, itemIDs(read))

	_, err = FilterByReadStatus("skimmed", nil)
	assert.ErrorIs(t, err, ErrInvalid)
}

type staticProjects []AvailableProject

func (p staticProjects) AvailableProjects() []AvailableProject { return p }

func TestAvailableProjects(t *testing.T) {
	assert.Empty(t, newTestStore().AvailableProjects())

	src := staticProjects{{Project: "Advanced TypeScript", Goal: "Learning"}}
	s := newTestStore(WithProjectSource(src))
	assert.Equal(t, []AvailableProject(src), s.AvailableProjects())
}

func TestViewComposesFiltersAndSorts(t *testing.T) {
	s := newTestStore()
	_, err := s.ToggleBookmark("2")
	require.NoError(t, err)
	_, err = s.ToggleBookmark("3")
	require.NoError(t, err)

	got, err := s.View(Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, itemIDs(got))

	got, err = s.View(Query{Sort: SortOldest})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2", "1"}, itemIDs(got))

	got, err = s.View(Query{BookmarksOnly: true, Status: ReadUnread})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, itemIDs(got))

	got, err = s.View(Query{Project: "Mindfulness Practice", Goal: All, Status: ReadAll})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, itemIDs(got))

	_, err = s.View(Query{Sort: "random"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRelatedItems(t *testing.T) {
	s := newTestStore()
	for _, id := range []string{"1", "3"} {
		_, err := s.ToggleBookmark(id)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"1"}, itemIDs(s.RelatedItems("Personal Growth", "")))
	assert.Equal(t, []string{"3"}, itemIDs(s.RelatedItems("Learning", "Advanced TypeScript")))
	assert.Empty(t, s.RelatedItems("Personal Growth", "Other"))
}

func TestReplaceKeepsUserStateByID(t *testing.T) {
	s := newTestStore()
	_, err := s.ToggleBookmark("1")
	require.NoError(t, err)
	_, err = s.ToggleBookmark("3")
	require.NoError(t, err)
	_, err = s.ToggleRead("1")
	require.NoError(t, err)

	s.Replace([]Item{
		{ID: "1", Title: "Leadership, revised", Time: "3 hours ago"},
		{ID: "4", Title: "New", Time: "just now"},
	})

	it, err := s.Item("1")
	require.NoError(t, err)
	assert.Equal(t, "Leadership, revised", it.Title)
	assert.True(t, it.Read)
	assert.Equal(t, []string{"1"}, itemIDs(s.BookmarkedItems()))
	assert.False(t, s.IsBookmarked("3"))
}

func TestSnapshotRestore(t *testing.T) {
	s := newTestStore()
	_, err := s.ToggleBookmark("3")
	require.NoError(t, err)
	_, err = s.ToggleRead("1")
	require.NoError(t, err)

	st := s.Snapshot()
	assert.Equal(t, []string{"3"}, st.Bookmarks)
	assert.Equal(t, []string{"1", "2"}, st.Read)

	fresh := newTestStore()
	st.Bookmarks = append(st.Bookmarks, "gone")
	fresh.Restore(st)
	assert.Equal(t, []string{"3"}, itemIDs(fresh.BookmarkedItems()))
	read, err := FilterByReadStatus(ReadRead, fresh.Items())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, itemIDs(read))
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"just now", 0, true},
		{"Yesterday", 24 * time.Hour, true},
		{"2 hours ago", 2 * time.Hour, true},
		{"an hour ago", time.Hour, true},
		{"1 minute ago", time.Minute, true},
		{"3 days ago", 72 * time.Hour, true},
		{"2 weeks ago", 14 * 24 * time.Hour, true},
		{"last spring", 0, false},
		{"x hours ago", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAge(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortItemsPrefersPublishedAt(t *testing.T) {
	old := testNow.Add(-72 * time.Hour)
	items := []Item{
		{ID: "a", Time: "someday"},
		{ID: "b", Time: "2 hours ago"},
		{ID: "c", Time: "just now", PublishedAt: &old},
		{ID: "d", Time: "10 minutes ago"},
	}
	SortItems(items, SortNewest, testNow)
	assert.Equal(t, []string{"d", "b", "c", "a"}, itemIDs(items))

	SortItems(items, SortOldest, testNow)
	assert.Equal(t, []string{"c", "b", "d", "a"}, itemIDs(items))
}

func TestParseCatalog(t *testing.T) {
	items, err := ParseCatalog([]byte(`
items:
  - id: "1"
    title: The Future of Leadership
    time: 2 hours ago
    project: Mindfulness Practice
    goal: Personal Growth
    tags: [leadership, innovation]
    defaultQuestions:
      - What skills should I prioritize developing?
  - id: "2"
    type: video
    title: Mindfulness
`))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, TypeArticle, items[0].Type)
	assert.Equal(t, []Tag{TagLeadership, TagInnovation}, items[0].Tags)
	assert.Len(t, items[0].DefaultQuestions, 1)
	assert.Equal(t, TypeVideo, items[1].Type)

	_, err = ParseCatalog([]byte("items:\n  - title: no id\n"))
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = ParseCatalog([]byte("items:\n  - id: a\n  - id: a\n"))
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = ParseCatalog([]byte("items:\n  - id: a\n    type: podcast\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestWatcherReloadsCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("items:\n  - id: a\n    title: First\n"), 0o644))

	items, err := LoadCatalog(path)
	require.NoError(t, err)
	s := NewStore(items)
	_, err = s.ToggleBookmark("a")
	require.NoError(t, err)

	w, err := NewWatcher(path, s, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("items:\n  - id: a\n    title: First\n  - id: b\n    title: Second\n"), 0o644))

	require.Eventually(t, func() bool { return len(s.Items()) == 2 }, 5*time.Second, 20*time.Millisecond)
	assert.True(t, s.IsBookmarked("a"))
}
