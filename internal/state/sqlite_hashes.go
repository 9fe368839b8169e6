package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetContentHash retrieves the content hash for a file path.
// A path with no recorded hash returns "".
func (s *SQLiteStore) GetContentHash(filePath string) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("database not opened")
	}

	var hash string
	err := s.db.QueryRow(`SELECT content_hash FROM content_hashes WHERE file_path = ?`, filePath).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get content hash: %w", err)
	}
	return hash, nil
}

// SetContentHash stores the content hash for a file path. runID may be empty.
func (s *SQLiteStore) SetContentHash(filePath, hash, runID string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var run sql.NullString
	if runID != "" {
		run = sql.NullString{String: runID, Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO content_hashes (file_path, content_hash, run_id, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(file_path) DO UPDATE SET content_hash = excluded.content_hash,
		     run_id = excluded.run_id, updated_at = excluded.updated_at`,
		filePath, hash, run, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to set content hash: %w", err)
	}
	return nil
}

// DeleteContentHash removes the content hash for a file path.
func (s *SQLiteStore) DeleteContentHash(filePath string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if _, err := s.db.Exec(`DELETE FROM content_hashes WHERE file_path = ?`, filePath); err != nil {
		return fmt.Errorf("failed to delete content hash: %w", err)
	}
	return nil
}

// ListContentHashes returns every recorded hash keyed by file path.
func (s *SQLiteStore) ListContentHashes() (map[string]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(`SELECT file_path, content_hash FROM content_hashes`)
	if err != nil {
		return nil, fmt.Errorf("failed to list content hashes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan content hash: %w", err)
		}
		hashes[path] = hash
	}
	return hashes, rows.Err()
}

// Clear removes every recorded hash. Runs are kept.
func (s *SQLiteStore) Clear() error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if _, err := s.db.Exec(`DELETE FROM content_hashes`); err != nil {
		return fmt.Errorf("failed to clear content hashes: %w", err)
	}
	return nil
}
