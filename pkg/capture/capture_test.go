package capture

import (
	"strings"
	"testing"
	"time"

	"github.com/mklimuk/kai/pkg/daily"
	"github.com/mklimuk/kai/pkg/goals"
	"github.com/mklimuk/kai/pkg/notes"
	"github.com/mklimuk/kai/pkg/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		prefix string
		want   Command
		wantOK bool
	}{
		{name: "task with content", input: "/task Buy groceries", prefix: "/", want: Command{Name: "task", Args: "Buy groceries"}, wantOK: true},
		{name: "status", input: "/status", prefix: "/", want: Command{Name: "status"}, wantOK: true},
		{name: "bot suffix", input: "/note@kai_bot idea #work", prefix: "/", want: Command{Name: "note", Args: "idea #work"}, wantOK: true},
		{name: "discord prefix", input: "!today shipped it", prefix: "!", want: Command{Name: "today", Args: "shipped it"}, wantOK: true},
		{name: "case insensitive", input: "!TASK call mom", prefix: "!", want: Command{Name: "task", Args: "call mom"}, wantOK: true},
		{name: "wrong prefix", input: "/task x", prefix: "!", wantOK: false},
		{name: "unknown command", input: "/inbox x", prefix: "/", wantOK: false},
		{name: "plain text", input: "hello world", prefix: "/", wantOK: false},
		{name: "no separator", input: "/taskfoo", prefix: "/", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCommand(tt.input, tt.prefix)
			if ok != tt.wantOK {
				t.Fatalf("ParseCommand(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncateTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "short content unchanged", content: "Buy groceries", want: "Buy groceries"},
		{name: "exactly 20 chars unchanged", content: "12345678901234567890", want: "12345678901234567890"},
		{name: "21 chars truncated", content: "123456789012345678901", want: "12345678901234567890..."},
		{name: "first line only", content: "Title line\nbody", want: "Title line"},
		{name: "empty string", content: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateTitle(tt.content); got != tt.want {
				t.Errorf("TruncateTitle(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestSplitTags(t *testing.T) {
	text, tags := SplitTags("Read the #Research paper #work #")
	assert.Equal(t, "Read the paper #", text)
	assert.Equal(t, []notes.Tag{"research", "work"}, tags)
}

var now = time.Date(2024, 3, 15, 9, 30, 0, 0, time.Local)

func newCapturer(t *testing.T) (*Capturer, *goals.Store, *notes.Store, *daily.Store) {
	t.Helper()
	clock := func() time.Time { return now }
	g := goals.NewStore(goals.WithClock(clock))
	n := notes.NewStore(notes.WithClock(clock))
	d := daily.NewStore(persist.NewMemoryKV(), daily.WithClock(clock), daily.WithDebounce(time.Hour))
	t.Cleanup(func() { _ = d.Close() })
	return New(g, n, d, WithClock(clock)), g, n, d
}

func TestHandleTask(t *testing.T) {
	c, g, _, _ := newCapturer(t)

	reply, err := c.Handle(Command{Name: CmdTask, Args: "Call the bank"}, "/")
	require.NoError(t, err)
	assert.Equal(t, "Added task: Call the bank", reply)

	reply, err = c.Handle(Command{Name: CmdTask, Args: "Pay rent !"}, "/")
	require.NoError(t, err)
	assert.Equal(t, "Added urgent task: Pay rent", reply)

	tasks := g.GlobalUncategorizedTasks()
	require.Len(t, tasks, 2)
	assert.False(t, tasks[0].Urgent)
	assert.True(t, tasks[1].Urgent)
	assert.Equal(t, goals.ImpactMedium, tasks[1].Impact)

	reply, err = c.Handle(Command{Name: CmdTask}, "!")
	require.NoError(t, err)
	assert.Equal(t, "Usage: !task <title>", reply)
}

func TestHandleNote(t *testing.T) {
	c, _, n, _ := newCapturer(t)

	reply, err := c.Handle(Command{Name: CmdNote, Args: "Interesting pattern for retries #idea"}, "/")
	require.NoError(t, err)
	assert.Equal(t, "Added note: Interesting pattern ...", reply)

	all := n.Notes()
	require.Len(t, all, 1)
	assert.Equal(t, "Interesting pattern for retries", all[0].Content)
	assert.Equal(t, []notes.Tag{notes.TagIdea}, all[0].Tags)

	reply, err = c.Handle(Command{Name: CmdNote, Args: "#only-tags"}, "/")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply, "Usage:"))
}

func TestHandleToday(t *testing.T) {
	c, _, _, d := newCapturer(t)

	reply, err := c.Handle(Command{Name: CmdToday}, "/")
	require.NoError(t, err)
	assert.Equal(t, "Nothing in today's note yet.", reply)

	reply, err = c.Handle(Command{Name: CmdToday, Args: "shipped the release"}, "/")
	require.NoError(t, err)
	assert.Equal(t, "Added to 2024-03-15", reply)

	note, ok := d.Note(now)
	require.True(t, ok)
	assert.Equal(t, "- shipped the release", note.Content)

	reply, err = c.Handle(Command{Name: CmdToday}, "/")
	require.NoError(t, err)
	assert.Equal(t, "- shipped the release", reply)
}

func TestHandleStatusAndHelp(t *testing.T) {
	c, g, _, _ := newCapturer(t)
	_, err := g.AddTask(goals.TaskInput{Title: "a", Urgent: true})
	require.NoError(t, err)
	done, err := g.AddTask(goals.TaskInput{Title: "b"})
	require.NoError(t, err)
	_, err = g.ToggleTask(done.ID)
	require.NoError(t, err)

	reply, err := c.Handle(Command{Name: CmdStatus}, "/")
	require.NoError(t, err)
	assert.Contains(t, reply, "Open tasks: 1 (1 urgent)")
	assert.Contains(t, reply, "Today's note: exists")

	reply, err = c.Handle(Command{Name: CmdHelp}, "!")
	require.NoError(t, err)
	assert.Contains(t, reply, "!task <title>")

	_, err = c.Handle(Command{Name: "dance"}, "/")
	assert.Error(t, err)
}
