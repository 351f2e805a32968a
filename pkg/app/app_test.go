package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mklimuk/kai/pkg/config"
	"github.com/mklimuk/kai/pkg/goals"
	"github.com/mklimuk/kai/pkg/notes"
	"github.com/mklimuk/kai/pkg/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testCatalog = `items:
  - id: "1"
    type: article
    source: Blog
    title: Scaling teams
    time: 2 hours ago
    project: Launch
    goal: Career
    url: https://example.com/1
  - id: "2"
    type: video
    source: Tube
    title: Deep work
    time: 1 day ago
    project: Other
    url: https://example.com/2
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "kai.db")
	cfg.Storage.Debounce = 0
	cfg.Chat.ReplyDelay = 0
	cfg.Automation.Timezone = "UTC"
	return &cfg
}

func newApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return a
}

func TestStateSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	a := newApp(t, cfg)

	g, err := a.Goals.AddGoal(goals.GoalInput{Title: "Career"})
	require.NoError(t, err)
	p, err := a.Goals.AddProject(goals.ProjectInput{Title: "Launch", GoalID: g.ID, Results: []goals.ResultInput{{Description: "Ship v1"}}})
	require.NoError(t, err)
	_, err = a.Goals.AddCheckIn(p.ID, p.Results[0].ID, goals.CheckInInput{Content: "beta out", Progress: 40})
	require.NoError(t, err)
	n, err := a.Notes.AddNote(notes.Input{Title: "Kickoff", Content: "agenda", Tags: []notes.Tag{notes.TagMeeting}})
	require.NoError(t, err)
	_, err = a.Notes.TogglePinned(n.ID)
	require.NoError(t, err)
	_, err = a.Comments.AddComment(p.ID, "looking good")
	require.NoError(t, err)
	require.NoError(t, a.Daily.UpdateTemplate("# {{date}}"))
	require.NoError(t, a.Close())

	b := newApp(t, cfg)
	defer b.Close()

	restored, err := b.Goals.Project(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, restored.Progress)
	require.Len(t, restored.Results[0].CheckIns, 1)

	note, err := b.Notes.Note(n.ID)
	require.NoError(t, err)
	assert.True(t, note.Pinned)

	cs := b.Comments.Comments(p.ID)
	require.Len(t, cs, 1)
	assert.Equal(t, "John", cs[0].Author)
	assert.Equal(t, "# {{date}}", b.Daily.Template())
}

func TestFeedUsesCatalogAndGoals(t *testing.T) {
	cfg := testConfig(t)
	cfg.Feed.Catalog = filepath.Join(t.TempDir(), "feed.yaml")
	cfg.Feed.Watch = false
	require.NoError(t, os.WriteFile(cfg.Feed.Catalog, []byte(testCatalog), 0o644))

	a := newApp(t, cfg)
	g, err := a.Goals.AddGoal(goals.GoalInput{Title: "Career"})
	require.NoError(t, err)
	_, err = a.Goals.AddProject(goals.ProjectInput{Title: "Launch", GoalID: g.ID})
	require.NoError(t, err)

	assert.Len(t, a.Feed.Items(), 2)
	projects := a.Feed.AvailableProjects()
	require.Len(t, projects, 1)
	assert.Equal(t, "Launch", projects[0].Project)
	assert.Equal(t, "Career", projects[0].Goal)

	on, err := a.Feed.ToggleBookmark("2")
	require.NoError(t, err)
	assert.True(t, on)
	require.NoError(t, a.Close())

	b := newApp(t, cfg)
	defer b.Close()
	assert.True(t, b.Feed.IsBookmarked("2"))
}

func TestBadCatalogFailsStartup(t *testing.T) {
	cfg := testConfig(t)
	cfg.Feed.Catalog = filepath.Join(t.TempDir(), "feed.yaml")
	require.NoError(t, os.WriteFile(cfg.Feed.Catalog, []byte("items:\n  - title: no id\n"), 0o644))

	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestDailyTemplateSeededFromVault(t *testing.T) {
	cfg := testConfig(t)
	cfg.Vault.TemplateDir = t.TempDir()
	tmpl := "# {{date:YYYY-MM-DD}}\n\n## Tasks\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Vault.TemplateDir, "Daily Note.md"), []byte(tmpl), 0o644))

	a := newApp(t, cfg)
	defer a.Close()
	assert.Equal(t, tmpl, a.Daily.Template())
}

func TestMissingDailyTemplateIsIgnored(t *testing.T) {
	cfg := testConfig(t)
	cfg.Vault.TemplateDir = t.TempDir()

	a := newApp(t, cfg)
	defer a.Close()
	assert.Empty(t, a.Daily.Template())
}

func TestExportWritesVaultAndCommits(t *testing.T) {
	cfg := testConfig(t)
	cfg.Vault.Path = t.TempDir()
	cfg.Vault.Commit = true

	a := newApp(t, cfg)
	defer a.Close()

	g, err := a.Goals.AddGoal(goals.GoalInput{Title: "Health"})
	require.NoError(t, err)
	p, err := a.Goals.AddProject(goals.ProjectInput{Title: "Marathon", GoalID: g.ID, Results: []goals.ResultInput{{Description: "Run 42k"}}})
	require.NoError(t, err)
	m, err := a.Goals.AddMilestone(goals.MilestoneInput{Title: "Half", ProjectID: p.ID})
	require.NoError(t, err)
	_, err = a.Goals.AddTask(goals.TaskInput{Title: "Buy shoes", ProjectID: p.ID, MilestoneID: m.ID, Urgent: true})
	require.NoError(t, err)
	_, err = a.Comments.AddComment(p.ID, "knee is fine")
	require.NoError(t, err)
	_, err = a.Notes.AddNote(notes.Input{Title: "Plan", Content: "3x a week"})
	require.NoError(t, err)
	_, err = a.Notes.AddNote(notes.Input{Title: "plan", Content: "rest days"})
	require.NoError(t, err)
	a.Daily.AppendLine(time.Now(), "- ran 5k")

	sum, err := a.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Written)
	assert.NotEmpty(t, sum.Commit)

	project, err := vault.ReadNote(filepath.Join(cfg.Vault.Path, vault.ProjectsDir, "Marathon.md"))
	require.NoError(t, err)
	assert.Contains(t, project.Content, "- [ ] Run 42k (0%)")
	assert.Contains(t, project.Content, "## Half (0%)")
	assert.Contains(t, project.Content, "- [ ] Buy shoes !urgent")
	assert.Contains(t, project.Content, "John: knee is fine")

	_, err = os.Stat(filepath.Join(cfg.Vault.Path, vault.NotesDir, "Plan (2).md"))
	assert.NoError(t, err)

	again, err := a.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Written)
	assert.Equal(t, 4, again.Unchanged)
	assert.Empty(t, again.Commit)

	last, err := a.Repo.GetLatestExport()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 4, last.Files)
}

func TestExportDisabledWithoutVault(t *testing.T) {
	a := newApp(t, testConfig(t))
	defer a.Close()

	_, err := a.Export(context.Background())
	assert.ErrorIs(t, err, ErrExportDisabled)
}

func TestJobs(t *testing.T) {
	cfg := testConfig(t)
	cfg.Vault.Path = t.TempDir()
	cfg.Automation.ExportInterval = time.Hour

	a := newApp(t, cfg)
	defer a.Close()

	jobs := a.Scheduler.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, JobDailyRollover, jobs[0].Name)
	assert.Equal(t, JobVaultExport, jobs[1].Name)

	st, err := a.Scheduler.RunNow(context.Background(), JobDailyRollover)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(st.LastOutput, "already exists"), st.LastOutput)

	st, err = a.Scheduler.RunNow(context.Background(), JobVaultExport)
	require.NoError(t, err)
	assert.Empty(t, st.LastError)
}

func TestInvalidTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Automation.Timezone = "Mars/Olympus"

	_, err := New(cfg, nil)
	assert.Error(t, err)
}
