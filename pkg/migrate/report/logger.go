// package report
//
// classifies invocation outcomes and keeps the append only run summary
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/baderkha/cdm-runner/pkg/migrate/command"
	"github.com/baderkha/cdm-runner/pkg/migrate/errs"
	"github.com/baderkha/cdm-runner/pkg/migrate/job"
	"github.com/baderkha/cdm-runner/pkg/migrate/runner"
	"github.com/spf13/afero"
)

const (
	StatusSuccess = "SUCCESS"
	StatusSkipped = "SKIPPED"
	StatusError   = "ERROR"
)

// Status : SUCCESS, FAILED (exit N) or FAILED (error)
func Status(res runner.Result) string {
	switch {
	case res.Err != nil:
		return "FAILED (error)"
	case res.ExitCode == 0:
		return StatusSuccess
	default:
		return fmt.Sprintf("FAILED (exit %d)", res.ExitCode)
	}
}

// Logger : writes one line per event to the summary and echoes it to the console. the
// summary is opened once and only ever appended to
type Logger struct {
	summary         afero.File
	path            string
	console         io.Writer
	partitionColumn string
	lines           int
	Now             func() time.Time
}

// Open : creates dir if needed and opens the summary for a run started at runStart
func Open(fsys afero.Fs, dir string, runStart time.Time, partitionColumn string, console io.Writer) (*Logger, error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, errs.Newf(errs.Config, "open summary", "could not create log dir %s due to : %w", dir, err)
	}
	path := filepath.Join(dir, SummaryName(runStart))
	f, err := fsys.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errs.Newf(errs.Config, "open summary", "could not open %s due to : %w", path, err)
	}
	return &Logger{
		summary:         f,
		path:            path,
		console:         console,
		partitionColumn: partitionColumn,
		Now:             time.Now,
	}, nil
}

// Path : location of the summary file
func (l *Logger) Path() string {
	return l.path
}

// Lines : lines appended so far
func (l *Logger) Lines() int {
	return l.lines
}

// Starting : console only progress line printed before a task runs
func (l *Logger) Starting(t job.Task) {
	fmt.Fprintf(l.console, "%s Starting: %s → %s | WHERE %s\n", l.stamp(), t.Origin, t.Target, command.Predicate(l.partitionColumn, t.Condition))
}

// Result : appends the outcome of an executed task
func (l *Logger) Result(res runner.Result) error {
	line := fmt.Sprintf("%s %s: %s → %s | %s | Log: %s",
		l.stamp(), Status(res), res.Task.Origin, res.Task.Target,
		command.Predicate(l.partitionColumn, res.Task.Condition), filepath.Base(res.LogPath))
	if res.Err != nil {
		line += " | Error: " + message(res.Err)
	}
	return l.write(line)
}

// Skipped : appends a validation diagnostic for an entry that contributes no tasks
func (l *Logger) Skipped(s job.SkippedEntry) error {
	return l.write(fmt.Sprintf("%s %s: Incomplete entry #%d: %s (%s)", l.stamp(), StatusSkipped, s.Index, s.Raw, s.Reason))
}

// Error : appends a fatal or run level diagnostic
func (l *Logger) Error(err error) error {
	return l.write(fmt.Sprintf("%s %s: %s", l.stamp(), StatusError, message(err)))
}

// Close : closes the summary file
func (l *Logger) Close() error {
	return l.summary.Close()
}

func (l *Logger) write(line string) error {
	fmt.Fprintln(l.console, line)
	l.lines++
	if _, err := io.WriteString(l.summary, line+"\n"); err != nil {
		return fmt.Errorf("could not append to summary %s due to : %w", l.path, err)
	}
	return nil
}

func (l *Logger) stamp() string {
	return l.Now().Format(lineStampLayout)
}

// message : the inner message of a tagged error, without the kind/op prefix
func message(err error) string {
	var e *errs.Error
	if errors.As(err, &e) {
		return e.Err.Error()
	}
	return err.Error()
}
