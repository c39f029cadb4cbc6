package state

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryManager : ledger kept for the life of the process, used when no database is set
type MemoryManager struct {
	mu    sync.Mutex
	runs  map[string]*RunLog
	tasks map[string]map[int]*TaskRunLog
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		runs:  make(map[string]*RunLog),
		tasks: make(map[string]map[int]*TaskRunLog),
	}
}

func (m *MemoryManager) InitRunLog(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[runID]; ok {
		return fmt.Errorf("run %s already exists", runID)
	}
	m.runs[runID] = &RunLog{RunID: runID, Status: Started, Base: Base{CreatedAt: currentTime(), UpdatedAt: currentTime()}}
	m.tasks[runID] = make(map[int]*TaskRunLog)
	return nil
}

func (m *MemoryManager) PlanRunLog(_ context.Context, runID string, totalTasks int, skippedEntries int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, err := m.run(runID)
	if err != nil {
		return err
	}
	run.TotalTasks = totalTasks
	run.SkippedEntries = skippedEntries
	run.UpdatedAt = currentTime()
	return nil
}

func (m *MemoryManager) PassedRunLog(_ context.Context, runID string) error {
	return m.updateRunStatus(runID, Success, nil)
}

func (m *MemoryManager) FailedRunLog(_ context.Context, runID string, err error) error {
	return m.updateRunStatus(runID, Failed, err)
}

func (m *MemoryManager) AbortedRunLog(_ context.Context, runID string, err error) error {
	return m.updateRunStatus(runID, Aborted, err)
}

func (m *MemoryManager) InitTaskRunLog(_ context.Context, runID string, t *TaskRunLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.run(runID); err != nil {
		return err
	}
	cp := *t
	cp.ParentRunID = runID
	cp.Status = Started
	cp.Base = Base{CreatedAt: currentTime(), UpdatedAt: currentTime()}
	m.tasks[runID][t.Seq] = &cp
	return nil
}

func (m *MemoryManager) PassedTaskRun(_ context.Context, runID string, seq int) error {
	zero := 0
	return m.updateTaskRunStatus(runID, seq, Success, &zero, nil)
}

func (m *MemoryManager) FailedTaskRun(_ context.Context, runID string, seq int, exitCode *int, err error) error {
	return m.updateTaskRunStatus(runID, seq, Failed, exitCode, err)
}

func (m *MemoryManager) GetRunLog(_ context.Context, runID string) (*RunLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil, nil
	}
	cp := *run
	return &cp, nil
}

func (m *MemoryManager) GetTaskRunLogs(_ context.Context, runID string) ([]*TaskRunLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []*TaskRunLog
	for _, t := range m.tasks[runID] {
		cp := *t
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Seq < res[j].Seq })
	return res, nil
}

func (m *MemoryManager) Close() error {
	return nil
}

func (m *MemoryManager) run(runID string) (*RunLog, error) {
	run, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s does not exist", runID)
	}
	return run, nil
}

func (m *MemoryManager) updateRunStatus(runID string, status RunLogState, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, lookupErr := m.run(runID)
	if lookupErr != nil {
		return lookupErr
	}
	run.Status = status
	run.ErrMsg = errMsg(err)
	run.UpdatedAt = currentTime()
	if status == Aborted || status == Failed {
		for _, t := range m.tasks[runID] {
			if t.Status == Started {
				t.Status = Aborted
				t.UpdatedAt = currentTime()
			}
		}
	}
	return nil
}

func (m *MemoryManager) updateTaskRunStatus(runID string, seq int, status RunLogState, exitCode *int, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[runID][seq]
	if !ok {
		return fmt.Errorf("task %d of run %s does not exist", seq, runID)
	}
	t.Status = status
	t.ExitCode = exitCode
	t.ErrMsg = errMsg(err)
	t.UpdatedAt = currentTime()
	return nil
}
