package discord

import (
	"strings"
	"testing"
	"time"

	"github.com/mklimuk/kai/pkg/capture"
	"github.com/mklimuk/kai/pkg/daily"
	"github.com/mklimuk/kai/pkg/goals"
	"github.com/mklimuk/kai/pkg/notes"
	"github.com/mklimuk/kai/pkg/persist"
	"go.uber.org/zap"
)

func TestRespond(t *testing.T) {
	n := notes.NewStore()
	d := daily.NewStore(persist.NewMemoryKV(), daily.WithDebounce(time.Hour))
	t.Cleanup(func() { _ = d.Close() })
	b := &Bot{Capturer: capture.New(goals.NewStore(), n, d), logger: zap.NewNop()}

	if _, ok := b.respond("/note slash style"); ok {
		t.Error("telegram-style command should be ignored")
	}

	reply, ok := b.respond("!note Standup moved to 10am #meeting")
	if !ok {
		t.Fatal("expected a reply")
	}
	if reply != "Added note: Standup moved to 10a..." {
		t.Errorf("unexpected reply %q", reply)
	}
	all := n.Notes()
	if len(all) != 1 || len(all[0].Tags) != 1 || all[0].Tags[0] != notes.TagMeeting {
		t.Fatalf("unexpected notes: %+v", all)
	}

	reply, ok = b.respond("!status")
	if !ok || !strings.Contains(reply, "Notes: 1") {
		t.Errorf("unexpected status reply %q", reply)
	}
}
