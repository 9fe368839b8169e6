// Package state persists the incremental build cache in SQLite.
// It records a content hash per generated unit and one row per build run.
package state

import "time"

// RunStatus is the lifecycle state of a build run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one invocation of the build driver.
type Run struct {
	ID          string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Stats       RunStats
	Error       string
}

// RunStats counts what a run did with each discovered file.
type RunStats struct {
	Files  int
	Built  int
	Cached int
	Failed int
}

// Cache is what the build driver needs from a store.
type Cache interface {
	GetContentHash(filePath string) (string, error)
	SetContentHash(filePath, hash, runID string) error
	DeleteContentHash(filePath string) error
	CreateRun() (*Run, error)
	CompleteRun(id string, status RunStatus, stats RunStats, errMsg string) error
}

var _ Cache = (*SQLiteStore)(nil)
