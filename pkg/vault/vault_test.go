package vault

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTemplateEngine(t *testing.T) {
	tmpDir := t.TempDir()

	tmplContent := "---\ncreated: {{date:YYYY-MM-DD}}\n---\n# {{title}}"
	if err := os.WriteFile(filepath.Join(tmpDir, "Daily Note.md"), []byte(tmplContent), 0644); err != nil {
		t.Fatal(err)
	}

	engine := NewTemplateEngine(tmpDir)

	content, err := engine.LoadTemplate("Daily Note")
	if err != nil {
		t.Fatalf("Failed to load template: %v", err)
	}
	if content != tmplContent {
		t.Errorf("Expected content %q, got %q", tmplContent, content)
	}

	if _, err := engine.LoadTemplate("Missing"); err == nil {
		t.Error("expected error for missing template")
	}
}

func TestRender(t *testing.T) {
	day := time.Date(2024, time.January, 3, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"title", "# {{title}}", "# Wednesday"},
		{"default date", "{{date}}", "2024-01-03"},
		{"date format", "{{date:YYYY-MM-DD}}", "2024-01-03"},
		{"long names", "{{date:dddd, MMMM DD}}", "Wednesday, January 03"},
		{"iso week", "{{date:YYYY-[W]WW}}", "2024-W01"},
		{"time", "{{date:HH:mm}}", "09:30"},
		{"untouched", "no placeholders", "no placeholders"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.in, "Wednesday", day); got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestReadWriteNote(t *testing.T) {
	tmpDir := t.TempDir()
	notePath := filepath.Join(tmpDir, "test_note.md")

	note := &Note{
		Path: notePath,
		Frontmatter: NoteFrontmatter{
			CommonFrontmatter: CommonFrontmatter{ID: "n1", Type: "note", Created: "2024-01-03", Tags: []string{"idea"}},
			Project:           "Launch",
			Pinned:            true,
		},
		Content: "\n# Hello World\nThis is a test.",
	}

	if err := WriteNote(note); err != nil {
		t.Fatalf("Failed to write note: %v", err)
	}

	readNote, err := ReadNote(notePath)
	if err != nil {
		t.Fatalf("Failed to read note: %v", err)
	}

	fm, err := ParseFrontmatter[NoteFrontmatter](readNote)
	if err != nil {
		t.Fatalf("parse frontmatter: %v", err)
	}
	if fm.ID != "n1" || fm.Project != "Launch" || !fm.Pinned {
		t.Errorf("unexpected frontmatter %+v", fm)
	}
	if len(fm.Tags) != 1 || fm.Tags[0] != "idea" {
		t.Errorf("tags = %v", fm.Tags)
	}
	if !strings.Contains(readNote.Content, "# Hello World") {
		t.Errorf("Content mismatch. Got: %s", readNote.Content)
	}
}

func TestExporter(t *testing.T) {
	vaultDir := t.TempDir()
	exp := NewExporter(vaultDir)

	docs := []Document{
		{ID: "n1", Dir: NotesDir, Name: "Plan: Q1", Frontmatter: CommonFrontmatter{ID: "n1", Type: "note"}, Body: "body"},
		{ID: "d1", Dir: DailyDir, Name: "2024-01-03", Frontmatter: DailyFrontmatter{CommonFrontmatter: CommonFrontmatter{ID: "d1", Type: "daily"}, Date: "2024-01-03"}, Body: "today"},
	}

	res, err := exp.Export(docs)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Written != 2 || !res.Changed() {
		t.Fatalf("first export = %+v", res)
	}
	if _, err := os.Stat(filepath.Join(vaultDir, NotesDir, "Plan- Q1.md")); err != nil {
		t.Errorf("sanitized note file missing: %v", err)
	}

	res, err = exp.Export(docs)
	if err != nil {
		t.Fatalf("second export: %v", err)
	}
	if res.Changed() || res.Unchanged != 2 {
		t.Errorf("second export should be a no-op, got %+v", res)
	}

	// Hand-written files without an id are never pruned.
	manual := filepath.Join(vaultDir, NotesDir, "scratch.md")
	if err := os.WriteFile(manual, []byte("# mine\n"), 0644); err != nil {
		t.Fatal(err)
	}

	docs[0].Name = "Plan Q1"
	res, err = exp.Export(docs)
	if err != nil {
		t.Fatalf("rename export: %v", err)
	}
	if res.Written != 1 || res.Removed != 1 {
		t.Errorf("rename export = %+v", res)
	}
	if _, err := os.Stat(filepath.Join(vaultDir, NotesDir, "Plan- Q1.md")); !os.IsNotExist(err) {
		t.Errorf("stale file should be removed, stat err = %v", err)
	}
	if _, err := os.Stat(manual); err != nil {
		t.Errorf("manual file removed: %v", err)
	}
}
