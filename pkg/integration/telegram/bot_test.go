package telegram

import (
	"testing"
	"time"

	"github.com/mklimuk/kai/pkg/capture"
	"github.com/mklimuk/kai/pkg/daily"
	"github.com/mklimuk/kai/pkg/goals"
	"github.com/mklimuk/kai/pkg/notes"
	"github.com/mklimuk/kai/pkg/persist"
)

func newTestBot(t *testing.T) (*Bot, *goals.Store) {
	t.Helper()
	g := goals.NewStore()
	d := daily.NewStore(persist.NewMemoryKV(), daily.WithDebounce(time.Hour))
	t.Cleanup(func() { _ = d.Close() })
	return newBot(nil, capture.New(g, notes.NewStore(), d), nil), g
}

func TestRespond(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantReply string
		wantOK    bool
	}{
		{
			name:      "task command with content",
			input:     "/task Buy groceries",
			wantReply: "Added task: Buy groceries",
			wantOK:    true,
		},
		{
			name:      "task without content shows usage",
			input:     "/task",
			wantReply: "Usage: /task <title>",
			wantOK:    true,
		},
		{
			name:   "unknown command",
			input:  "/inbox hello",
			wantOK: false,
		},
		{
			name:   "plain text",
			input:  "hello world",
			wantOK: false,
		},
		{
			name:   "discord style prefix is ignored",
			input:  "!task nope",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBot(t)
			reply, ok := b.respond(1, tt.input)
			if ok != tt.wantOK {
				t.Fatalf("respond(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if reply != tt.wantReply {
				t.Errorf("respond(%q) = %q, want %q", tt.input, reply, tt.wantReply)
			}
		})
	}
}

func TestRespondCapturesTask(t *testing.T) {
	b, g := newTestBot(t)
	var seen []string
	b.OnCommand = func(cmd string) { seen = append(seen, cmd) }

	if _, ok := b.respond(1, "/task Renew passport"); !ok {
		t.Fatal("expected a reply")
	}
	tasks := g.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Renew passport" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
	if len(seen) != 1 || seen[0] != "task" {
		t.Errorf("OnCommand saw %v", seen)
	}
}

func TestRespondHonoursAllowedChats(t *testing.T) {
	b, g := newTestBot(t)
	b.AllowedChats = map[int64]bool{42: true}

	if _, ok := b.respond(7, "/task sneaky"); ok {
		t.Error("expected command from unknown chat to be ignored")
	}
	if _, ok := b.respond(42, "/task allowed"); !ok {
		t.Error("expected command from allowed chat to be handled")
	}
	if n := len(g.Tasks()); n != 1 {
		t.Errorf("expected 1 task, got %d", n)
	}
}
