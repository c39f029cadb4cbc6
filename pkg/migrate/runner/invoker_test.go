package runner

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/baderkha/cdm-runner/pkg/migrate/command"
	"github.com/baderkha/cdm-runner/pkg/migrate/errs"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shell(script string) command.Descriptor {
	return command.Descriptor{Executable: "/bin/sh", Args: []string{"-c", script}}
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
}

func fixedClock(ts ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := ts[i]
		if i < len(ts)-1 {
			i++
		}
		return t
	}
}

func TestInvokeSuccessWritesCombinedOutput(t *testing.T) {
	skipWithoutShell(t)
	fs := afero.NewOsFs()
	logPath := filepath.Join(t.TempDir(), "task.log")

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	inv := NewProcessInvoker(fs, zerolog.Nop())
	inv.Now = fixedClock(start, start.Add(3*time.Second))

	res := inv.Invoke(context.Background(), shell("echo out; echo err 1>&2"), logPath)
	require.NoError(t, res.Err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, logPath, res.LogPath)
	assert.Equal(t, 3*time.Second, res.Duration())

	b, err := afero.ReadFile(fs, logPath)
	require.NoError(t, err)
	assert.Equal(t, "out\nerr\n", string(b))
}

func TestInvokeNonZeroExit(t *testing.T) {
	skipWithoutShell(t)
	fs := afero.NewMemMapFs()

	res := NewProcessInvoker(fs, zerolog.Nop()).Invoke(context.Background(), shell("echo failing; exit 3"), "/logs/task.log")
	assert.NoError(t, res.Err)
	assert.False(t, res.Succeeded())
	assert.Equal(t, 3, res.ExitCode)

	b, err := afero.ReadFile(fs, "/logs/task.log")
	require.NoError(t, err)
	assert.Equal(t, "failing\n", string(b))
}

func TestInvokeKilledBySignal(t *testing.T) {
	skipWithoutShell(t)
	fs := afero.NewMemMapFs()

	res := NewProcessInvoker(fs, zerolog.Nop()).Invoke(context.Background(), shell("echo dying; kill -9 $$"), "/logs/task.log")
	assert.NoError(t, res.Err)
	assert.False(t, res.Succeeded())
	assert.Equal(t, -9, res.ExitCode)

	b, err := afero.ReadFile(fs, "/logs/task.log")
	require.NoError(t, err)
	assert.Equal(t, "dying\n", string(b))
}

func TestInvokeOverwritesExistingLog(t *testing.T) {
	skipWithoutShell(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/logs/task.log", []byte("stale content from before\n"), 0644))

	res := NewProcessInvoker(fs, zerolog.Nop()).Invoke(context.Background(), shell("echo fresh"), "/logs/task.log")
	require.True(t, res.Succeeded())

	b, err := afero.ReadFile(fs, "/logs/task.log")
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", string(b))
}

func TestInvokeSpawnFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	d := command.Descriptor{Executable: "/definitely/not/here/spark-submit"}

	res := NewProcessInvoker(fs, zerolog.Nop()).Invoke(context.Background(), d, "/logs/task.log")
	require.Error(t, res.Err)
	assert.True(t, errs.Is(res.Err, errs.Execution))
	assert.Equal(t, NoExitCode, res.ExitCode)
	assert.False(t, res.Succeeded())
}

func TestInvokeLogOpenFailure(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	res := NewProcessInvoker(fs, zerolog.Nop()).Invoke(context.Background(), shell("true"), "/logs/task.log")
	require.Error(t, res.Err)
	assert.True(t, errs.Is(res.Err, errs.Execution))
	assert.ErrorContains(t, res.Err, "could not open /logs/task.log")
}

func TestInvokeArgumentsAreNotShellInterpreted(t *testing.T) {
	skipWithoutShell(t)
	fs := afero.NewMemMapFs()
	// $1 is printed verbatim, the payload is never evaluated
	d := command.Descriptor{Executable: "/bin/sh", Args: []string{"-c", `printf '%s' "$1"`, "sh", "= '1'; echo pwned $(id)"}}

	res := NewProcessInvoker(fs, zerolog.Nop()).Invoke(context.Background(), d, "/t.log")
	require.True(t, res.Succeeded())
	b, err := afero.ReadFile(fs, "/t.log")
	require.NoError(t, err)
	assert.Equal(t, "= '1'; echo pwned $(id)", string(b))
}
