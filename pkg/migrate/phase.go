package migrate

import (
	"time"

	"github.com/baderkha/cdm-runner/pkg/migrate/command"
	"github.com/baderkha/cdm-runner/pkg/migrate/job"
	"github.com/baderkha/cdm-runner/pkg/migrate/runner"
)

// Phase : where a run is, or where it ended
type Phase string

const (
	PhaseLoading            Phase = "LOADING"
	PhaseResolving          Phase = "RESOLVING"
	PhaseExpanding          Phase = "EXPANDING"
	PhaseExecuting          Phase = "EXECUTING"
	PhaseDone               Phase = "DONE"
	PhaseAbortedBeforeStart Phase = "ABORTED_BEFORE_START"
	PhaseInterrupted        Phase = "INTERRUPTED"
)

// Report : what a run did. with a fatal abort Err is set and no task ran
type Report struct {
	RunID       string
	Phase       Phase
	StartedAt   time.Time
	SummaryPath string
	Skipped     []job.SkippedEntry
	Tasks       []job.Task
	Results     []runner.Result
	Err         error
}

// Succeeded : tasks that exited 0
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Succeeded() {
			n++
		}
	}
	return n
}

// Failed : tasks that were invoked and did not succeed
func (r *Report) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// NotStarted : tasks never invoked because the run was interrupted
func (r *Report) NotStarted() int {
	return len(r.Tasks) - len(r.Results)
}

// Plan : the tasks and descriptors a run would execute
type Plan struct {
	Skipped     []job.SkippedEntry
	Tasks       []job.Task
	Descriptors []command.Descriptor
}
