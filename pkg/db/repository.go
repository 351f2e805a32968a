package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("key not found")

// Repository handles data access
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Ping checks the database connection.
func (r *Repository) Ping() error {
	return r.db.Ping()
}

// Get returns the raw value stored under key.
func (r *Repository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

// Put stores value under key, replacing any previous value.
func (r *Repository) Put(key, value string) error {
	query := `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := r.db.Exec(query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *Repository) Delete(key string) error {
	if _, err := r.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// ExportLog represents a row in the exports table
type ExportLog struct {
	ID         int64
	VaultPath  string
	Files      int
	CommitHash string
	CreatedAt  time.Time
}

// LogExport records a finished vault export.
func (r *Repository) LogExport(vaultPath string, files int, commitHash string) error {
	query := `INSERT INTO exports (vault_path, files, commit_hash, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.Exec(query, vaultPath, files, commitHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to log export: %w", err)
	}
	return nil
}

// GetLatestExport returns the most recent export log, or nil if there is none.
func (r *Repository) GetLatestExport() (*ExportLog, error) {
	query := `SELECT id, vault_path, files, COALESCE(commit_hash, ''), created_at FROM exports ORDER BY id DESC LIMIT 1`
	row := r.db.QueryRow(query)

	var log ExportLog
	err := row.Scan(&log.ID, &log.VaultPath, &log.Files, &log.CommitHash, &log.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest export: %w", err)
	}
	return &log, nil
}
