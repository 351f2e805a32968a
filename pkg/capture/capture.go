// Package capture turns short chat commands into tasks, notes and daily
// note entries. The chat bots share it so every bot speaks the same commands.
package capture

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mklimuk/kai/pkg/daily"
	"github.com/mklimuk/kai/pkg/goals"
	"github.com/mklimuk/kai/pkg/notes"
	"go.uber.org/zap"
)

// Command names.
const (
	CmdTask   = "task"
	CmdNote   = "note"
	CmdToday  = "today"
	CmdStatus = "status"
	CmdHelp   = "help"
)

const titleLimit = 20

// Command is a parsed chat command.
type Command struct {
	Name string
	Args string
}

// ParseCommand recognises "<prefix><name>" optionally followed by a space and
// arguments. Unknown commands and plain text return ok=false.
func ParseCommand(text, prefix string) (cmd Command, ok bool) {
	text = strings.TrimSpace(text)
	rest, found := strings.CutPrefix(text, prefix)
	if !found {
		return Command{}, false
	}
	name, args, _ := strings.Cut(rest, " ")
	// Telegram appends the bot name in groups: /task@kai_bot
	name, _, _ = strings.Cut(name, "@")
	name = strings.ToLower(name)

	switch name {
	case CmdTask, CmdNote, CmdToday, CmdStatus, CmdHelp:
		return Command{Name: name, Args: strings.TrimSpace(args)}, true
	default:
		return Command{}, false
	}
}

// TruncateTitle derives a title from content, cut to 20 characters with "...".
func TruncateTitle(content string) string {
	content = strings.TrimSpace(content)
	if first, _, found := strings.Cut(content, "\n"); found {
		content = strings.TrimSpace(first)
	}
	if utf8.RuneCountInString(content) > titleLimit {
		return string([]rune(content)[:titleLimit]) + "..."
	}
	return content
}

// SplitTags removes #hashtags from text and returns them as tags.
func SplitTags(text string) (string, []notes.Tag) {
	var (
		words []string
		tags  []notes.Tag
	)
	for _, w := range strings.Fields(text) {
		if len(w) > 1 && strings.HasPrefix(w, "#") {
			tags = append(tags, notes.Tag(strings.ToLower(w[1:])))
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " "), tags
}

type Option func(*Capturer)

func WithLogger(l *zap.Logger) Option {
	return func(c *Capturer) { c.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Capturer) { c.now = now }
}

// Capturer executes commands against the stores.
type Capturer struct {
	goals  *goals.Store
	notes  *notes.Store
	daily  *daily.Store
	now    func() time.Time
	logger *zap.Logger
}

func New(g *goals.Store, n *notes.Store, d *daily.Store, opts ...Option) *Capturer {
	c := &Capturer{
		goals:  g,
		notes:  n,
		daily:  d,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle runs cmd and returns the reply for the chat. prefix is the bot's
// command prefix, used in usage hints.
func (c *Capturer) Handle(cmd Command, prefix string) (string, error) {
	switch cmd.Name {
	case CmdTask:
		return c.task(cmd.Args, prefix)
	case CmdNote:
		return c.note(cmd.Args, prefix)
	case CmdToday:
		return c.today(cmd.Args), nil
	case CmdStatus:
		return c.status(), nil
	case CmdHelp:
		return Help(prefix), nil
	}
	return "", fmt.Errorf("unknown command %q", cmd.Name)
}

// Help lists the supported commands.
func Help(prefix string) string {
	lines := []string{
		prefix + "task <title> - add a task (add ! for urgent)",
		prefix + "note <text> #tag - add a note",
		prefix + "today [text] - append to or show today's note",
		prefix + "status - show a summary",
	}
	return strings.Join(lines, "\n")
}

func (c *Capturer) task(args, prefix string) (string, error) {
	if args == "" {
		return "Usage: " + prefix + "task <title>", nil
	}
	urgent := false
	if trimmed, ok := strings.CutSuffix(args, "!"); ok && strings.TrimSpace(trimmed) != "" {
		urgent = true
		args = strings.TrimSpace(trimmed)
	}
	t, err := c.goals.AddTask(goals.TaskInput{Title: args, Urgent: urgent})
	if err != nil {
		return "", fmt.Errorf("failed to add task: %w", err)
	}
	c.logger.Info("captured task", zap.String("task_id", t.ID))
	if urgent {
		return "Added urgent task: " + t.Title, nil
	}
	return "Added task: " + t.Title, nil
}

func (c *Capturer) note(args, prefix string) (string, error) {
	content, tags := SplitTags(args)
	if content == "" {
		return "Usage: " + prefix + "note <text>", nil
	}
	n, err := c.notes.AddNote(notes.Input{
		Title:   TruncateTitle(content),
		Content: content,
		Tags:    tags,
	})
	if err != nil {
		return "", fmt.Errorf("failed to add note: %w", err)
	}
	c.logger.Info("captured note", zap.String("note_id", n.ID))
	return "Added note: " + n.Title, nil
}

func (c *Capturer) today(args string) string {
	now := c.now()
	if args == "" {
		n, ok := c.daily.Note(now)
		if !ok || strings.TrimSpace(n.Content) == "" {
			return "Nothing in today's note yet."
		}
		return n.Content
	}
	n := c.daily.AppendLine(now, "- "+args)
	return "Added to " + n.Date
}

func (c *Capturer) status() string {
	open, urgent := 0, 0
	for _, t := range c.goals.Tasks() {
		if t.Completed || t.Archived {
			continue
		}
		open++
		if t.Urgent {
			urgent++
		}
	}
	projects := c.goals.LiveProjects()
	live := 0
	for _, n := range c.notes.Notes() {
		if !n.Archived {
			live++
		}
	}
	return fmt.Sprintf("kai is online.\nOpen tasks: %d (%d urgent)\nActive projects: %d\nNotes: %d\nToday's note: %s",
		open, urgent, len(projects), live, c.daily.DayStatus(c.now()))
}
