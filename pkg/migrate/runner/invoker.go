package runner

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/baderkha/cdm-runner/pkg/migrate/command"
	"github.com/baderkha/cdm-runner/pkg/migrate/errs"
	"github.com/baderkha/cdm-runner/pkg/migrate/job"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// NoExitCode : ExitCode of a result whose process never ran
const NoExitCode = -1

// waitDelay : how long Wait keeps copying output once the run is cancelled and the
// launcher is killed. children of the launcher may still hold the log open
const waitDelay = 5 * time.Second

// Result : outcome of one invocation. Err is set only when the process could not be
// spawned, a non zero exit is reported through ExitCode alone
type Result struct {
	Task       job.Task
	ExitCode   int
	Err        error
	LogPath    string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Succeeded : spawned and exited 0
func (r Result) Succeeded() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Duration : wall time of the invocation
func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Invoker : runs one descriptor to completion. implementations block until the
// process ends and never retry
type Invoker interface {
	Invoke(ctx context.Context, d command.Descriptor, logPath string) Result
}

// ProcessInvoker : runs the descriptor as a child process with stdout and stderr
// interleaved into the log file. on the os fs the file is handed to the child directly,
// any other fs gets the output through a copy goroutine owned by exec
type ProcessInvoker struct {
	Fs  afero.Fs
	Now func() time.Time
	Log zerolog.Logger
}

// NewProcessInvoker : invoker writing logs through fsys
func NewProcessInvoker(fsys afero.Fs, log zerolog.Logger) *ProcessInvoker {
	return &ProcessInvoker{Fs: fsys, Now: time.Now, Log: log}
}

// Invoke : no deadline is applied, ctx only ends the process when the run is interrupted
func (p *ProcessInvoker) Invoke(ctx context.Context, d command.Descriptor, logPath string) Result {
	res := Result{LogPath: logPath, ExitCode: NoExitCode, StartedAt: p.Now()}

	f, err := p.Fs.OpenFile(logPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		res.Err = errs.Newf(errs.Execution, "open task log", "could not open %s due to : %w", logPath, err)
		res.FinishedAt = p.Now()
		return res
	}
	defer f.Close()

	cmd := exec.CommandContext(ctx, d.Executable, d.Args...)
	cmd.Stdout = f
	cmd.Stderr = f
	cmd.WaitDelay = waitDelay

	p.Log.Debug().Str("executable", d.Executable).Strs("args", d.Args).Str("log", logPath).Msg("spawning")
	err = cmd.Run()
	res.FinishedAt = p.Now()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitCode(exitErr)
	default:
		res.Err = errs.Newf(errs.Execution, "spawn", "could not start %s due to : %w", d.Executable, err)
	}
	return res
}

// exitCode : the exit status, or the negated signal number when the process was killed
func exitCode(exitErr *exec.ExitError) int {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return -int(ws.Signal())
	}
	return exitErr.ExitCode()
}
