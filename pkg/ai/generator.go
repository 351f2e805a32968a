package ai

import (
	"context"
	"fmt"
	"strings"
)

// Generator defines the interface for text generation
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// SimulatedGenerator answers the prompts built by this package with fixed
// placeholder replies. No model is contacted.
type SimulatedGenerator struct{}

func NewSimulatedGenerator() *SimulatedGenerator {
	return &SimulatedGenerator{}
}

// GenerateText returns the canned reply for the prompt kind.
func (g *SimulatedGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch {
	case strings.HasPrefix(prompt, analyzeHeader):
		return fmt.Sprintf("I'll help you analyze this. Let me think about %q...", promptQuestion(prompt)), nil
	default:
		return "I'm analyzing your question and will provide a thoughtful response...", nil
	}
}

// Close releases nothing; it lets SimulatedGenerator stand in for real clients.
func (g *SimulatedGenerator) Close() error {
	return nil
}
