// Package state persists pipeline run history and per-relation quality
// reports in SQLite, so rejection counts survive the run that produced
// them and can be audited later.
package state

import "time"

// RunStatus represents the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one full pipeline execution.
type Run struct {
	ID          string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// RelationReport records enforcement counts for one relation in one
// run. Every rejected row is counted; none are silently dropped.
type RelationReport struct {
	ID           int64
	RunID        string
	Stage        string
	Relation     string
	InputRows    int
	RejectedRows int
	OutputRows   int
}

// FactRejection records how many fact rows a run rejected for one
// specific reason code.
type FactRejection struct {
	ID     int64
	RunID  string
	Reason string
	Count  int
}

// Store is the persistence interface for run history.
type Store interface {
	CreateRun() (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetRun(id string) (*Run, error)
	LatestRun() (*Run, error)

	SaveRelationReport(report RelationReport) error
	ReportsForRun(runID string) ([]RelationReport, error)

	SaveFactRejections(runID string, rejections map[string]int) error
	RejectionsForRun(runID string) ([]FactRejection, error)

	Close() error
}
