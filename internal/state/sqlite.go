package state

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite state store instance. A nil
// logger uses a discard logger.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database and runs pending
// migrations. Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path

	if err := s.Migrate(); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateRun creates a new pipeline run in running state.
func (s *SQLiteStore) CreateRun() (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state store not opened")
	}

	run := &Run{
		ID:        uuid.New().String(),
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run finished with the given status.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("state store not opened")
	}

	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		status, time.Now().UTC(), errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state store not opened")
	}
	return s.scanRun(s.db.QueryRow(
		`SELECT id, status, started_at, completed_at, error FROM runs WHERE id = ?`, id))
}

// LatestRun retrieves the most recently started run, or nil if no runs
// have been recorded.
func (s *SQLiteStore) LatestRun() (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state store not opened")
	}
	run, err := s.scanRun(s.db.QueryRow(
		`SELECT id, status, started_at, completed_at, error FROM runs ORDER BY started_at DESC LIMIT 1`))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

func (s *SQLiteStore) scanRun(row *sql.Row) (*Run, error) {
	run := &Run{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(&run.ID, &run.Status, &run.StartedAt, &completedAt, &errMsg)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return run, nil
}

// SaveRelationReport persists one relation's quality counts.
func (s *SQLiteStore) SaveRelationReport(report RelationReport) error {
	if s.db == nil {
		return fmt.Errorf("state store not opened")
	}

	_, err := s.db.Exec(
		`INSERT INTO relation_reports (run_id, stage, relation, input_rows, rejected_rows, output_rows)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Stage, report.Relation,
		report.InputRows, report.RejectedRows, report.OutputRows,
	)
	if err != nil {
		return fmt.Errorf("failed to save relation report: %w", err)
	}
	return nil
}

// ReportsForRun returns the relation reports recorded for a run.
func (s *SQLiteStore) ReportsForRun(runID string) ([]RelationReport, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state store not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, stage, relation, input_rows, rejected_rows, output_rows
		 FROM relation_reports WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query relation reports: %w", err)
	}
	defer rows.Close()

	var reports []RelationReport
	for rows.Next() {
		var r RelationReport
		if err := rows.Scan(&r.ID, &r.RunID, &r.Stage, &r.Relation,
			&r.InputRows, &r.RejectedRows, &r.OutputRows); err != nil {
			return nil, fmt.Errorf("failed to scan relation report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// SaveFactRejections persists the per-reason fact rejection counts.
func (s *SQLiteStore) SaveFactRejections(runID string, rejections map[string]int) error {
	if s.db == nil {
		return fmt.Errorf("state store not opened")
	}

	for reason, count := range rejections {
		_, err := s.db.Exec(
			`INSERT INTO fact_rejections (run_id, reason, count) VALUES (?, ?, ?)`,
			runID, reason, count,
		)
		if err != nil {
			return fmt.Errorf("failed to save fact rejection %q: %w", reason, err)
		}
	}
	return nil
}

// RejectionsForRun returns the fact rejection counts recorded for a run.
func (s *SQLiteStore) RejectionsForRun(runID string) ([]FactRejection, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state store not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, reason, count FROM fact_rejections WHERE run_id = ? ORDER BY reason`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fact rejections: %w", err)
	}
	defer rows.Close()

	var rejections []FactRejection
	for rows.Next() {
		var r FactRejection
		if err := rows.Scan(&r.ID, &r.RunID, &r.Reason, &r.Count); err != nil {
			return nil, fmt.Errorf("failed to scan fact rejection: %w", err)
		}
		rejections = append(rejections, r)
	}
	return rejections, rows.Err()
}
