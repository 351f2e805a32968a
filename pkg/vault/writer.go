package vault

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WriteNote writes a note to the specified path
func WriteNote(note *Note) error {
	content, err := encodeNote(note)
	if err != nil {
		return err
	}

	dir := filepath.Dir(note.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	if err := os.WriteFile(note.Path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", note.Path, err)
	}
	return nil
}

func encodeNote(note *Note) ([]byte, error) {
	fmData, err := yaml.Marshal(note.Frontmatter)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frontmatter: %w", err)
	}
	return []byte(fmt.Sprintf("---\n%s---\n%s", string(fmData), note.Content)), nil
}

// SanitizeFilename removes characters invalid in filenames.
func SanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	for _, char := range invalid {
		name = strings.ReplaceAll(name, char, "-")
	}
	return strings.TrimSpace(name)
}

// Document is one file of an export: Dir is one of the vault folders and
// Name the file name without extension.
type Document struct {
	ID          string
	Dir         string
	Name        string
	Frontmatter interface{}
	Body        string
}

// Exporter writes documents into a vault directory.
type Exporter struct {
	VaultPath string
}

func NewExporter(vaultPath string) *Exporter {
	return &Exporter{VaultPath: vaultPath}
}

// ExportResult summarizes what an export changed on disk.
type ExportResult struct {
	Written   int
	Unchanged int
	Removed   int
}

// Changed reports whether the export touched any file.
func (r ExportResult) Changed() bool {
	return r.Written > 0 || r.Removed > 0
}

// Export writes docs and removes files in the managed folders whose
// frontmatter id no longer belongs to any document. Files that already hold
// the exact content are left alone.
func (e *Exporter) Export(docs []Document) (ExportResult, error) {
	var res ExportResult
	keep := make(map[string]bool, len(docs))
	dirs := map[string]bool{}

	for _, d := range docs {
		name := SanitizeFilename(d.Name)
		if name == "" {
			name = d.ID
		}
		path := filepath.Join(e.VaultPath, d.Dir, name+".md")
		keep[path] = true
		dirs[d.Dir] = true

		note := &Note{Path: path, Frontmatter: d.Frontmatter, Content: d.Body}
		want, err := encodeNote(note)
		if err != nil {
			return res, fmt.Errorf("failed to encode %s: %w", path, err)
		}
		if have, err := os.ReadFile(path); err == nil && bytes.Equal(have, want) {
			res.Unchanged++
			continue
		}
		if err := WriteNote(note); err != nil {
			return res, err
		}
		res.Written++
	}

	for _, dir := range []string{NotesDir, DailyDir, ProjectsDir} {
		removed, err := e.prune(filepath.Join(e.VaultPath, dir), keep)
		if err != nil {
			return res, err
		}
		res.Removed += removed
	}
	return res, nil
}

// prune deletes exported files that are no longer produced. Only files with
// an id in their frontmatter are considered ours.
func (e *Exporter) prune(dir string, keep map[string]bool) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if keep[path] {
			continue
		}
		note, err := ReadNote(path)
		if err != nil {
			continue
		}
		common, err := ParseFrontmatter[CommonFrontmatter](note)
		if err != nil || common.ID == "" {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}
