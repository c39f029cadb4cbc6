package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const (
	runLogTable     = "cdm_run_log"
	taskRunLogTable = "cdm_task_run_log"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ` + runLogTable + ` (
	run_id VARCHAR(36) NOT NULL PRIMARY KEY,
	total_tasks INT NOT NULL DEFAULT 0,
	skipped_entries INT NOT NULL DEFAULT 0,
	status VARCHAR(50) NOT NULL,
	err_msg TEXT,
	created_at DATETIME(3) NOT NULL,
	updated_at DATETIME(3) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS ` + taskRunLogTable + ` (
	parent_run_id VARCHAR(36) NOT NULL,
	seq INT NOT NULL,
	origin_table VARCHAR(255) NOT NULL,
	target_table VARCHAR(255) NOT NULL,
	condition_text TEXT NOT NULL,
	log_file VARCHAR(512) NOT NULL,
	exit_code INT NULL,
	status VARCHAR(50) NOT NULL,
	err_msg TEXT,
	created_at DATETIME(3) NOT NULL,
	updated_at DATETIME(3) NOT NULL,
	PRIMARY KEY (parent_run_id, seq)
)`,
}

// SQLManager : ledger stored in mysql
type SQLManager struct {
	DB *sql.DB
}

// NewSQLManager : wraps db and creates the ledger tables when they are missing
func NewSQLManager(ctx context.Context, db *sql.DB) (*SQLManager, error) {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("Could not migrate ledger schema %w", err)
		}
	}
	return &SQLManager{DB: db}, nil
}

func (m *SQLManager) InitRunLog(ctx context.Context, runID string) error {
	now := currentTime()
	_, err := m.DB.ExecContext(ctx,
		`INSERT INTO `+runLogTable+` (run_id, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		runID, Started, now, now)
	return err
}

func (m *SQLManager) PlanRunLog(ctx context.Context, runID string, totalTasks int, skippedEntries int) error {
	_, err := m.DB.ExecContext(ctx,
		`UPDATE `+runLogTable+` SET total_tasks = ?, skipped_entries = ?, updated_at = ? WHERE run_id = ?`,
		totalTasks, skippedEntries, currentTime(), runID)
	return err
}

func (m *SQLManager) PassedRunLog(ctx context.Context, runID string) error {
	return m.updateRunStatus(ctx, runID, Success, nil)
}

func (m *SQLManager) FailedRunLog(ctx context.Context, runID string, err error) error {
	return m.updateRunStatus(ctx, runID, Failed, err)
}

func (m *SQLManager) AbortedRunLog(ctx context.Context, runID string, err error) error {
	return m.updateRunStatus(ctx, runID, Aborted, err)
}

func (m *SQLManager) InitTaskRunLog(ctx context.Context, runID string, t *TaskRunLog) error {
	now := currentTime()
	_, err := m.DB.ExecContext(ctx,
		`INSERT INTO `+taskRunLogTable+` (parent_run_id, seq, origin_table, target_table, condition_text, log_file, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, t.Seq, t.OriginTable, t.TargetTable, t.Condition, t.LogFile, Started, now, now)
	return err
}

func (m *SQLManager) PassedTaskRun(ctx context.Context, runID string, seq int) error {
	zero := 0
	return m.updateTaskRunStatus(ctx, runID, seq, Success, &zero, nil)
}

func (m *SQLManager) FailedTaskRun(ctx context.Context, runID string, seq int, exitCode *int, err error) error {
	return m.updateTaskRunStatus(ctx, runID, seq, Failed, exitCode, err)
}

func (m *SQLManager) GetRunLog(ctx context.Context, runID string) (*RunLog, error) {
	var (
		run    RunLog
		errMsg sql.NullString
	)
	err := m.DB.QueryRowContext(ctx,
		`SELECT run_id, total_tasks, skipped_entries, status, err_msg, created_at, updated_at FROM `+runLogTable+` WHERE run_id = ?`,
		runID).Scan(&run.RunID, &run.TotalTasks, &run.SkippedEntries, &run.Status, &errMsg, &run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.ErrMsg = errMsg.String
	return &run, nil
}

func (m *SQLManager) GetTaskRunLogs(ctx context.Context, runID string) ([]*TaskRunLog, error) {
	rows, err := m.DB.QueryContext(ctx,
		`SELECT parent_run_id, seq, origin_table, target_table, condition_text, log_file, exit_code, status, err_msg, created_at, updated_at FROM `+taskRunLogTable+` WHERE parent_run_id = ? ORDER BY seq`,
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*TaskRunLog
	for rows.Next() {
		var (
			t        TaskRunLog
			exitCode sql.NullInt64
			errMsg   sql.NullString
		)
		if err := rows.Scan(&t.ParentRunID, &t.Seq, &t.OriginTable, &t.TargetTable, &t.Condition, &t.LogFile, &exitCode, &t.Status, &errMsg, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if exitCode.Valid {
			code := int(exitCode.Int64)
			t.ExitCode = &code
		}
		t.ErrMsg = errMsg.String
		res = append(res, &t)
	}
	return res, rows.Err()
}

func (m *SQLManager) Close() error {
	return m.DB.Close()
}

func (m *SQLManager) updateRunStatus(ctx context.Context, runID string, status RunLogState, err error) error {
	tx, txErr := m.DB.BeginTx(ctx, nil)
	if txErr != nil {
		return txErr
	}
	if _, txErr = tx.ExecContext(ctx,
		`UPDATE `+runLogTable+` SET status = ?, err_msg = ?, updated_at = ? WHERE run_id = ?`,
		status, errMsg(err), currentTime(), runID); txErr != nil {
		tx.Rollback()
		return txErr
	}
	if status == Failed || status == Aborted {
		if _, txErr = tx.ExecContext(ctx,
			`UPDATE `+taskRunLogTable+` SET status = ?, updated_at = ? WHERE parent_run_id = ? AND status = ?`,
			Aborted, currentTime(), runID, Started); txErr != nil {
			tx.Rollback()
			return txErr
		}
	}
	return tx.Commit()
}

func (m *SQLManager) updateTaskRunStatus(ctx context.Context, runID string, seq int, status RunLogState, exitCode *int, err error) error {
	var code sql.NullInt64
	if exitCode != nil {
		code = sql.NullInt64{Int64: int64(*exitCode), Valid: true}
	}
	_, execErr := m.DB.ExecContext(ctx,
		`UPDATE `+taskRunLogTable+` SET status = ?, exit_code = ?, err_msg = ?, updated_at = ? WHERE parent_run_id = ? AND seq = ?`,
		status, code, errMsg(err), currentTime(), runID, seq)
	return execErr
}
