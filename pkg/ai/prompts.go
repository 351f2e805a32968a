package ai

import (
	"fmt"
	"strings"
)

const (
	analyzeHeader  = "You are a personal productivity assistant. The user opened a new conversation."
	followUpHeader = "You are a personal productivity assistant continuing a conversation."
)

// AnalyzePrompt returns the prompt for the first question of a conversation,
// optionally grounded in the feed item or entity it was asked about.
func AnalyzePrompt(subject, question string) string {
	var b strings.Builder
	b.WriteString(analyzeHeader)
	b.WriteString("\n")
	if subject != "" {
		fmt.Fprintf(&b, "\nContext: %s\n", subject)
	}
	fmt.Fprintf(&b, "\nQuestion: %q\n", question)
	b.WriteString(`
Instructions:
1. Restate what the user wants to understand.
2. Relate it to their goals and projects when the context allows.
3. Suggest one concrete next step.
`)
	return b.String()
}

// FollowUpPrompt returns the prompt for a message in an ongoing conversation.
// history holds earlier messages prefixed with their speaker.
func FollowUpPrompt(history []string, question string) string {
	var b strings.Builder
	b.WriteString(followUpHeader)
	b.WriteString("\n")
	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, h := range history {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	fmt.Fprintf(&b, "\nQuestion: %q\n", question)
	b.WriteString("\nAnswer briefly and point to a next step.\n")
	return b.String()
}

// promptQuestion extracts the question embedded by the prompt builders.
func promptQuestion(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		rest, ok := strings.CutPrefix(line, "Question: ")
		if !ok {
			continue
		}
		var q string
		if _, err := fmt.Sscanf(rest, "%q", &q); err == nil {
			return q
		}
		return strings.Trim(rest, `"`)
	}
	return ""
}
