package vault

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadNote reads a markdown file and parses its frontmatter and content
func ReadNote(path string) (*Note, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var frontmatterLines []string
	var contentLines []string
	inFrontmatter := false
	lineCount := 0

	for scanner.Scan() {
		line := scanner.Text()
		lineCount++

		if lineCount == 1 && line == "---" {
			inFrontmatter = true
			continue
		}

		if inFrontmatter {
			if line == "---" {
				inFrontmatter = false
				continue
			}
			frontmatterLines = append(frontmatterLines, line)
		} else {
			contentLines = append(contentLines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var rawFM map[string]interface{}
	if fmData := strings.Join(frontmatterLines, "\n"); len(fmData) > 0 {
		if err := yaml.Unmarshal([]byte(fmData), &rawFM); err != nil {
			return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
		}
	}

	return &Note{
		Path:        path,
		Frontmatter: rawFM,
		Content:     strings.Join(contentLines, "\n"),
	}, nil
}

// ParseFrontmatter decodes the note's frontmatter into T
func ParseFrontmatter[T any](n *Note) (*T, error) {
	data, err := yaml.Marshal(n.Frontmatter)
	if err != nil {
		return nil, err
	}
	var out T
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
