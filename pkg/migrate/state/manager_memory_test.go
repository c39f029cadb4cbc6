package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager()

	require.NoError(t, m.InitRunLog(ctx, "r1"))
	assert.Error(t, m.InitRunLog(ctx, "r1"), "duplicate run ids are rejected")
	require.NoError(t, m.PlanRunLog(ctx, "r1", 3, 1))

	require.NoError(t, m.InitTaskRunLog(ctx, "r1", &TaskRunLog{Seq: 2, OriginTable: "ks.b", TargetTable: "ks.b_copy", Condition: "= 2"}))
	require.NoError(t, m.InitTaskRunLog(ctx, "r1", &TaskRunLog{Seq: 1, OriginTable: "ks.a", TargetTable: "ks.a_copy", Condition: "= 1"}))
	require.NoError(t, m.PassedTaskRun(ctx, "r1", 1))
	code := 4
	require.NoError(t, m.FailedTaskRun(ctx, "r1", 2, &code, errors.New("exit 4")))
	require.NoError(t, m.FailedRunLog(ctx, "r1", errors.New("1 of 2 tasks failed")))

	run, err := m.GetRunLog(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, Failed, run.Status)
	assert.Equal(t, 3, run.TotalTasks)
	assert.Equal(t, 1, run.SkippedEntries)
	assert.Equal(t, "1 of 2 tasks failed", run.ErrMsg)

	tasks, err := m.GetTaskRunLogs(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, 1, tasks[0].Seq)
	assert.Equal(t, Success, tasks[0].Status)
	assert.Equal(t, 0, *tasks[0].ExitCode)
	assert.Equal(t, "r1", tasks[0].ParentRunID)
	assert.Equal(t, Failed, tasks[1].Status)
	assert.Equal(t, 4, *tasks[1].ExitCode)
	assert.Equal(t, "exit 4", tasks[1].ErrMsg)
}

func TestMemoryManagerAbortMovesStartedTasks(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager()
	require.NoError(t, m.InitRunLog(ctx, "r1"))
	require.NoError(t, m.InitTaskRunLog(ctx, "r1", &TaskRunLog{Seq: 1}))
	require.NoError(t, m.PassedTaskRun(ctx, "r1", 1))
	require.NoError(t, m.InitTaskRunLog(ctx, "r1", &TaskRunLog{Seq: 2}))

	require.NoError(t, m.AbortedRunLog(ctx, "r1", errors.New("interrupted")))

	tasks, err := m.GetTaskRunLogs(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, Success, tasks[0].Status)
	assert.Equal(t, Aborted, tasks[1].Status)
	assert.Nil(t, tasks[1].ExitCode)
}

func TestMemoryManagerUnknownIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager()

	run, err := m.GetRunLog(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, run)
	assert.Error(t, m.PassedRunLog(ctx, "nope"))
	assert.Error(t, m.PlanRunLog(ctx, "nope", 1, 0))
	assert.Error(t, m.InitTaskRunLog(ctx, "nope", &TaskRunLog{Seq: 1}))

	require.NoError(t, m.InitRunLog(ctx, "r1"))
	assert.Error(t, m.PassedTaskRun(ctx, "r1", 9))
	assert.NoError(t, m.Close())
}
