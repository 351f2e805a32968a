package comments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCommentAppendsInOrder(t *testing.T) {
	base := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	n := 0
	s := NewStore(WithClock(func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}))

	first, err := s.AddComment("t1", "Making good progress")
	require.NoError(t, err)
	second, err := s.AddComment("t1", "Almost there")
	require.NoError(t, err)
	_, err = s.AddComment("p1", "Other entity")
	require.NoError(t, err)

	got := s.Comments("t1")
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
	assert.Equal(t, DefaultAuthor, got[0].Author)
	assert.Equal(t, "t1", got[0].EntityID)

	newest := s.Newest("t1")
	assert.Equal(t, second.ID, newest[0].ID)
	assert.Equal(t, first.ID, s.Comments("t1")[0].ID, "Newest does not reorder the log")
}

func TestCommentsForUnknownEntityIsEmpty(t *testing.T) {
	s := NewStore()
	got := s.Comments("nobody")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAddCommentValidation(t *testing.T) {
	s := NewStore(WithAuthor("Ada"))
	_, err := s.AddComment("t1", "  ")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = s.AddComment("", "hi")
	assert.ErrorIs(t, err, ErrInvalid)

	c, err := s.AddComment("t1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Ada", c.Author)
}

func TestEarlierReadsAreNotMutated(t *testing.T) {
	s := NewStore()
	_, err := s.AddComment("t1", "one")
	require.NoError(t, err)
	before := s.Comments("t1")
	_, err = s.AddComment("t1", "two")
	require.NoError(t, err)
	assert.Len(t, before, 1)

	restored := NewStore()
	restored.Restore(s.Snapshot())
	assert.Len(t, restored.Comments("t1"), 2)
}
