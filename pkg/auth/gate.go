// Package auth implements kai's single-password gate. A successful login
// sets a persisted flag that keeps the gate open until Logout.
package auth

import (
	"errors"
	"fmt"

	"github.com/mklimuk/kai/pkg/db"
	"github.com/mklimuk/kai/pkg/persist"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const authenticatedValue = "true"

var ErrInvalidPassword = errors.New("invalid password")

// HashPassword returns a bcrypt hash suitable for auth.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Gate checks passwords against a bcrypt hash. A Gate without a hash is
// disabled and always reports the user as authenticated.
type Gate struct {
	kv     persist.KV
	hash   []byte
	logger *zap.Logger
}

// NewGate builds a gate from a bcrypt hash or, when hash is empty, a plain
// password that is hashed here. Both empty disables the gate.
func NewGate(kv persist.KV, hash, password string, logger *zap.Logger) (*Gate, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gate{kv: kv, logger: logger}
	switch {
	case hash != "":
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid password hash: %w", err)
		}
		g.hash = []byte(hash)
	case password != "":
		h, err := HashPassword(password)
		if err != nil {
			return nil, err
		}
		g.hash = []byte(h)
	}
	return g, nil
}

// Enabled reports whether a password is configured.
func (g *Gate) Enabled() bool {
	return len(g.hash) > 0
}

// Authenticated reports whether the persisted auth flag is set.
func (g *Gate) Authenticated() bool {
	if !g.Enabled() {
		return true
	}
	v, err := g.kv.Get(persist.KeyAuth)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			g.logger.Warn("failed to read auth flag", zap.Error(err))
		}
		return false
	}
	return v == authenticatedValue
}

// Login compares password with the configured hash and sets the auth flag.
func (g *Gate) Login(password string) error {
	if !g.Enabled() {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil {
		g.logger.Info("rejected login attempt")
		return ErrInvalidPassword
	}
	if err := g.kv.Put(persist.KeyAuth, authenticatedValue); err != nil {
		return fmt.Errorf("failed to store auth flag: %w", err)
	}
	return nil
}

// Logout clears the auth flag.
func (g *Gate) Logout() error {
	if err := g.kv.Delete(persist.KeyAuth); err != nil && !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("failed to clear auth flag: %w", err)
	}
	return nil
}
