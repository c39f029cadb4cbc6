package state

import (
	"context"
	"time"
)

type RunLogState string

const (
	Started RunLogState = "STARTED"
	Success RunLogState = "SUCCESS"
	Aborted RunLogState = "ABORTED"
	Failed  RunLogState = "FAILED"
)

type Base struct {
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

type RunLog struct {
	RunID          string      `json:"run_id" db:"run_id"`
	TotalTasks     int         `json:"total_tasks" db:"total_tasks"`
	SkippedEntries int         `json:"skipped_entries" db:"skipped_entries"`
	Status         RunLogState `json:"status" db:"status"`
	ErrMsg         string      `json:"err_msg" db:"err_msg"`
	Base
}

type TaskRunLog struct {
	ParentRunID string      `json:"parent_run_id" db:"parent_run_id"`
	Seq         int         `json:"seq" db:"seq"`
	OriginTable string      `json:"origin_table" db:"origin_table"`
	TargetTable string      `json:"target_table" db:"target_table"`
	Condition   string      `json:"condition" db:"condition_text"`
	LogFile     string      `json:"log_file" db:"log_file"`
	ExitCode    *int        `json:"exit_code" db:"exit_code"`
	Status      RunLogState `json:"status" db:"status"`
	ErrMsg      string      `json:"err_msg" db:"err_msg"`
	Base
}

// Manager : durable record of runs and their tasks. a ledger failure never changes the
// outcome of a run, callers log it and carry on
type Manager interface {
	// InitRunLog : start a run log
	InitRunLog(ctx context.Context, runID string) error
	// PlanRunLog : record how many tasks the run expanded to and how many entries it skipped
	PlanRunLog(ctx context.Context, runID string, totalTasks int, skippedEntries int) error
	PassedRunLog(ctx context.Context, runID string) error
	FailedRunLog(ctx context.Context, runID string, err error) error
	// AbortedRunLog : the run stopped early, any task still STARTED is moved to ABORTED too
	AbortedRunLog(ctx context.Context, runID string, err error) error
	InitTaskRunLog(ctx context.Context, runID string, t *TaskRunLog) error
	PassedTaskRun(ctx context.Context, runID string, seq int) error
	// FailedTaskRun : exitCode is nil when the process was never spawned
	FailedTaskRun(ctx context.Context, runID string, seq int, exitCode *int, err error) error
	// GetRunLog : GetRunLog get a specific run log, nil when it does not exist
	GetRunLog(ctx context.Context, runID string) (*RunLog, error)
	// GetTaskRunLogs : task logs of a run ordered by seq
	GetTaskRunLogs(ctx context.Context, runID string) ([]*TaskRunLog, error)
	Close() error
}

func currentTime() *time.Time {
	now := time.Now()
	return &now
}

func errMsg(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
