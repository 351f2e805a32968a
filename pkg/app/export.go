package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mklimuk/kai/pkg/comments"
	"github.com/mklimuk/kai/pkg/daily"
	"github.com/mklimuk/kai/pkg/goals"
	"github.com/mklimuk/kai/pkg/notes"
	"github.com/mklimuk/kai/pkg/vault"
	"go.uber.org/zap"
)

// ExportSummary reports the outcome of one vault export.
type ExportSummary struct {
	Written   int       `json:"written"`
	Unchanged int       `json:"unchanged"`
	Removed   int       `json:"removed"`
	Commit    string    `json:"commit,omitempty"`
	At        time.Time `json:"at"`
}

func (s ExportSummary) String() string {
	out := fmt.Sprintf("%d written, %d unchanged, %d removed", s.Written, s.Unchanged, s.Removed)
	if s.Commit != "" {
		out += ", commit " + s.Commit
	}
	return out
}

// Export writes notes, daily notes and projects into the vault as markdown
// and, when configured, commits the result.
func (a *App) Export(ctx context.Context) (ExportSummary, error) {
	if a.exporter == nil {
		return ExportSummary{}, ErrExportDisabled
	}
	if err := ctx.Err(); err != nil {
		return ExportSummary{}, err
	}
	a.exportMu.Lock()
	defer a.exportMu.Unlock()

	res, err := a.exporter.Export(a.documents())
	if err != nil {
		return ExportSummary{}, fmt.Errorf("vault export failed: %w", err)
	}
	sum := ExportSummary{
		Written:   res.Written,
		Unchanged: res.Unchanged,
		Removed:   res.Removed,
		At:        time.Now(),
	}

	if a.git != nil && res.Changed() {
		hash, err := a.git.Commit("")
		if err != nil {
			return sum, err
		}
		sum.Commit = hash
	}

	a.Metrics.RecordExport(res.Written, res.Unchanged, res.Removed)
	if err := a.Repo.LogExport(a.exporter.VaultPath, res.Written+res.Unchanged, sum.Commit); err != nil {
		a.logger.Warn("failed to record export", zap.Error(err))
	}
	a.logger.Info("vault exported",
		zap.Int("written", sum.Written),
		zap.Int("unchanged", sum.Unchanged),
		zap.Int("removed", sum.Removed),
		zap.String("commit", sum.Commit))
	return sum, nil
}

func (a *App) documents() []vault.Document {
	var docs []vault.Document

	names := newNameSet()
	for _, n := range a.Notes.Notes() {
		docs = append(docs, a.noteDocument(n, names.unique(noteName(n))))
	}
	for _, n := range a.Daily.AllNotes() {
		if strings.TrimSpace(n.Content) == "" {
			continue
		}
		docs = append(docs, dailyDocument(n))
	}
	names = newNameSet()
	for _, p := range a.Goals.Projects() {
		docs = append(docs, a.projectDocument(p, names.unique(p.Title)))
	}
	return docs
}

func noteName(n notes.Note) string {
	if n.Title != "" {
		return n.Title
	}
	return n.ID
}

func (a *App) noteDocument(n notes.Note, name string) vault.Document {
	fm := vault.NoteFrontmatter{
		CommonFrontmatter: vault.CommonFrontmatter{
			ID:      n.ID,
			Type:    "note",
			Created: formatTime(n.CreatedAt),
			Updated: formatTime(n.UpdatedAt),
			Tags:    tagStrings(n.Tags),
		},
		Pinned:   n.Pinned,
		Archived: n.Archived,
	}
	if n.ProjectID != "" {
		fm.Project = a.Goals.ProjectTitle(n.ProjectID)
	}
	if n.MilestoneID != "" {
		fm.Milestone = a.Goals.MilestoneTitle(n.MilestoneID)
	}
	return vault.Document{ID: n.ID, Dir: vault.NotesDir, Name: name, Frontmatter: fm, Body: n.Content}
}

func dailyDocument(n daily.Note) vault.Document {
	fm := vault.DailyFrontmatter{
		CommonFrontmatter: vault.CommonFrontmatter{
			ID:      n.ID,
			Type:    "daily",
			Created: formatTime(n.CreatedAt),
			Updated: formatTime(n.UpdatedAt),
		},
		Date: n.Date,
	}
	return vault.Document{ID: n.ID, Dir: vault.DailyDir, Name: n.Date, Frontmatter: fm, Body: n.Content}
}

func (a *App) projectDocument(p goals.Project, name string) vault.Document {
	fm := vault.ProjectFrontmatter{
		CommonFrontmatter: vault.CommonFrontmatter{
			ID:      p.ID,
			Type:    "project",
			Created: formatTime(p.CreatedAt),
		},
		Goal:     a.Goals.GoalTitle(p.GoalID),
		Progress: p.Progress,
		Archived: p.Archived,
	}
	return vault.Document{ID: p.ID, Dir: vault.ProjectsDir, Name: name, Frontmatter: fm, Body: a.projectBody(p)}
}

func (a *App) projectBody(p goals.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", p.Title)
	if p.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", p.Description)
	}

	if len(p.Results) > 0 {
		b.WriteString("\n## Results\n\n")
		for _, r := range p.Results {
			fmt.Fprintf(&b, "- %s %s (%d%%)\n", checkbox(r.Achieved), r.Description, r.Progress)
			for _, c := range r.CheckIns {
				fmt.Fprintf(&b, "  - %s %s (%+d)\n", c.CreatedAt.Format(daily.DateLayout), c.Content, c.Progress)
			}
		}
	}

	for _, m := range a.Goals.MilestonesByProject(p.ID) {
		fmt.Fprintf(&b, "\n## %s (%d%%)", m.Title, m.Progress)
		if m.Deadline != nil {
			fmt.Fprintf(&b, " due %s", m.Deadline.Format(daily.DateLayout))
		}
		b.WriteString("\n\n")
		writeTasks(&b, a.Goals.TasksByMilestone(m.ID))
	}

	if tasks := a.Goals.UncategorizedTasksByProject(p.ID); len(tasks) > 0 {
		b.WriteString("\n## Tasks\n\n")
		writeTasks(&b, tasks)
	}

	if cs := a.Comments.Comments(p.ID); len(cs) > 0 {
		b.WriteString("\n## Comments\n\n")
		writeComments(&b, cs)
	}
	return b.String()
}

func writeTasks(b *strings.Builder, tasks []goals.Task) {
	for _, t := range tasks {
		if t.Archived {
			continue
		}
		fmt.Fprintf(b, "- %s %s", checkbox(t.Completed), t.Title)
		if t.Urgent {
			b.WriteString(" !urgent")
		}
		if t.Deadline != nil {
			fmt.Fprintf(b, " (due %s)", t.Deadline.Format(daily.DateLayout))
		}
		b.WriteString("\n")
	}
}

func writeComments(b *strings.Builder, cs []comments.Comment) {
	for _, c := range cs {
		fmt.Fprintf(b, "- %s %s: %s\n", c.CreatedAt.Format(time.RFC3339), c.Author, c.Content)
	}
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func tagStrings(tags []notes.Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// nameSet hands out file names that are unique ignoring case.
type nameSet map[string]int

func newNameSet() nameSet { return nameSet{} }

func (s nameSet) unique(name string) string {
	key := strings.ToLower(vault.SanitizeFilename(name))
	s[key]++
	if n := s[key]; n > 1 {
		return fmt.Sprintf("%s (%d)", name, n)
	}
	return name
}
