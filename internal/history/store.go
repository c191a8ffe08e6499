// internal/history/store.go
package history

import (
	"context"
	"sync"
	"time"

	"diagnosis-pipeline/internal/common/database"
	"diagnosis-pipeline/internal/common/errors"
	"diagnosis-pipeline/internal/common/logger"
	"diagnosis-pipeline/internal/models"
)

// Store persists one row per external-call attempt for later inspection.
// The table is append-only and keyed by execution ID plus attempt number,
// so concurrent pipeline runs never contend on the same key.
type Store interface {
	Record(ctx context.Context, result *models.WorkflowExecutionResult) error
	ListByExecution(ctx context.Context, executionID string) ([]models.WorkflowExecutionResult, error)
}

// SQLStore writes execution records to PostgreSQL.
type SQLStore struct {
	db  *database.PostgresClient
	log logger.Logger
}

func NewSQLStore(db *database.PostgresClient, log logger.Logger) *SQLStore {
	return &SQLStore{db: db, log: log}
}

// Record appends a single attempt row. It never updates existing rows.
func (s *SQLStore) Record(ctx context.Context, result *models.WorkflowExecutionResult) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO workflow_executions
		 (execution_id, operation, attempt, status, data, error, start_time, end_time, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		result.ExecutionID,
		result.Operation,
		result.Attempt,
		string(result.Status),
		result.Data,
		result.Error,
		result.StartTime,
		result.EndTime,
		result.Duration.Milliseconds(),
	)
	if err != nil {
		return errors.NewHistoryWriteFailedError(err)
	}
	return nil
}

// ListByExecution returns all recorded attempts for one execution,
// oldest first.
func (s *SQLStore) ListByExecution(ctx context.Context, executionID string) ([]models.WorkflowExecutionResult, error) {
	rows, err := s.db.Query(ctx,
		`SELECT execution_id, operation, attempt, status, data, error, start_time, end_time, duration_ms
		 FROM workflow_executions
		 WHERE execution_id = $1
		 ORDER BY attempt ASC`,
		executionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.WorkflowExecutionResult
	for rows.Next() {
		var r models.WorkflowExecutionResult
		var status string
		var durationMs int64
		if err := rows.Scan(&r.ExecutionID, &r.Operation, &r.Attempt, &status,
			&r.Data, &r.Error, &r.StartTime, &r.EndTime, &durationMs); err != nil {
			return nil, err
		}
		r.Status = models.ExecutionStatus(status)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		results = append(results, r)
	}
	return results, rows.Err()
}

// MemoryStore keeps records in process memory. It backs tests and
// honors the same contract as SQLStore: safe for concurrent Record
// calls from parallel pipeline runs.
type MemoryStore struct {
	mu      sync.Mutex
	records []models.WorkflowExecutionResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(_ context.Context, result *models.WorkflowExecutionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *result)
	return nil
}

func (s *MemoryStore) ListByExecution(_ context.Context, executionID string) ([]models.WorkflowExecutionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WorkflowExecutionResult
	for _, r := range s.records {
		if r.ExecutionID == executionID {
			out = append(out, r)
		}
	}
	return out, nil
}

// All returns every record in insertion order.
func (s *MemoryStore) All() []models.WorkflowExecutionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.WorkflowExecutionResult, len(s.records))
	copy(out, s.records)
	return out
}
