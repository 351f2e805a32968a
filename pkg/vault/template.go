package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var datePlaceholder = regexp.MustCompile(`\{\{date(?::(.*?))?\}\}`)

// TemplateEngine loads templates from a directory and renders them
type TemplateEngine struct {
	TemplateDir string
}

// NewTemplateEngine creates a new TemplateEngine
func NewTemplateEngine(templateDir string) *TemplateEngine {
	return &TemplateEngine{
		TemplateDir: templateDir,
	}
}

// LoadTemplate reads a template file from the template directory
func (e *TemplateEngine) LoadTemplate(templateName string) (string, error) {
	if !strings.HasSuffix(templateName, ".md") {
		templateName += ".md"
	}

	content, err := os.ReadFile(filepath.Join(e.TemplateDir, templateName))
	if err != nil {
		return "", fmt.Errorf("failed to load template %s: %w", templateName, err)
	}
	return string(content), nil
}

// Render replaces placeholders in the template content
// Supported placeholders:
// {{title}} - Replaced with the provided title
// {{date}} - Replaced with the day as YYYY-MM-DD
// {{date:FORMAT}} - Replaced with the day formatted according to FORMAT (e.g. YYYY-MM-DD)
func Render(content, title string, at time.Time) string {
	content = strings.ReplaceAll(content, "{{title}}", title)

	return datePlaceholder.ReplaceAllStringFunc(content, func(match string) string {
		parts := datePlaceholder.FindStringSubmatch(match)
		format := "YYYY-MM-DD"
		if len(parts) > 1 && parts[1] != "" {
			format = parts[1]
		}
		return formatMoment(format, at)
	})
}

var momentTokens = []struct {
	token  string
	layout string
}{
	{"YYYY", "2006"},
	{"dddd", "Monday"},
	{"ddd", "Mon"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"DD", "02"},
	{"HH", "15"},
	{"mm", "04"},
	{"ss", "05"},
}

// formatMoment formats t with a Moment.js style format. Text in square
// brackets is copied literally and WW is the ISO week number.
func formatMoment(format string, t time.Time) string {
	var b strings.Builder
	for len(format) > 0 {
		if format[0] == '[' {
			if end := strings.IndexByte(format, ']'); end > 0 {
				b.WriteString(format[1:end])
				format = format[end+1:]
				continue
			}
		}
		if strings.HasPrefix(format, "WW") {
			_, w := t.ISOWeek()
			fmt.Fprintf(&b, "%02d", w)
			format = format[2:]
			continue
		}
		matched := false
		for _, mt := range momentTokens {
			if strings.HasPrefix(format, mt.token) {
				b.WriteString(t.Format(mt.layout))
				format = format[len(mt.token):]
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(format[0])
			format = format[1:]
		}
	}
	return b.String()
}
