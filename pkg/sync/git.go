// Package sync keeps a local git history of vault exports.
package sync

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"
)

// GitManager commits the vault directory. It never pushes.
type GitManager struct {
	RepoPath string
	Name     string
	Email    string

	now    func() time.Time
	logger *zap.Logger
}

type Option func(*GitManager)

func WithLogger(l *zap.Logger) Option {
	return func(g *GitManager) { g.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(g *GitManager) { g.now = now }
}

// WithAuthor overrides the commit signature.
func WithAuthor(name, email string) Option {
	return func(g *GitManager) {
		g.Name = name
		g.Email = email
	}
}

// NewGitManager creates a GitManager for repoPath.
func NewGitManager(repoPath string, opts ...Option) *GitManager {
	g := &GitManager{
		RepoPath: repoPath,
		Name:     "kai",
		Email:    "kai@localhost",
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Commit stages every change under RepoPath and commits it, initialising the
// repository on first use. It returns the new commit hash, or "" when the
// worktree was already clean.
func (g *GitManager) Commit(message string) (string, error) {
	r, err := g.open()
	if err != nil {
		return "", err
	}

	w, err := r.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := w.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("failed to add changes: %w", err)
	}

	status, err := w.Status()
	if err != nil {
		return "", fmt.Errorf("failed to read status: %w", err)
	}
	if status.IsClean() {
		return "", nil
	}

	now := g.now()
	if message == "" {
		message = fmt.Sprintf("Vault export: %s", now.Format(time.RFC3339))
	}
	hash, err := w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  g.Name,
			Email: g.Email,
			When:  now,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	g.logger.Info("committed vault changes", zap.String("hash", hash.String()), zap.String("message", message))
	return hash.String(), nil
}

func (g *GitManager) open() (*git.Repository, error) {
	r, err := git.PlainOpen(g.RepoPath)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		g.logger.Info("initialising vault repository", zap.String("path", g.RepoPath))
		r, err = git.PlainInit(g.RepoPath, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repo: %w", err)
	}
	return r, nil
}
