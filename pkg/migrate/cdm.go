package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/baderkha/cdm-runner/pkg/migrate/archive"
	"github.com/baderkha/cdm-runner/pkg/migrate/command"
	"github.com/baderkha/cdm-runner/pkg/migrate/config"
	"github.com/baderkha/cdm-runner/pkg/migrate/job"
	"github.com/baderkha/cdm-runner/pkg/migrate/report"
	"github.com/baderkha/cdm-runner/pkg/migrate/runner"
	"github.com/baderkha/cdm-runner/pkg/migrate/state"
	"github.com/davecgh/go-spew/spew"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// finalizeTimeout : bound on ledger and archive work done after the run context is gone
const finalizeTimeout = 30 * time.Second

// ErrInterrupted : the run context was cancelled while tasks were executing
var ErrInterrupted = errors.New("run interrupted")

// LauncherResolver : finds the engine launcher once per run
type LauncherResolver interface {
	Resolve() (string, error)
}

// Option : overrides a collaborator of CDM
type Option func(*CDM)

func WithFs(fsys afero.Fs) Option                   { return func(c *CDM) { c.fs = fsys } }
func WithResolver(r LauncherResolver) Option        { return func(c *CDM) { c.resolver = r } }
func WithInvoker(i runner.Invoker) Option           { return func(c *CDM) { c.invoker = i } }
func WithLedger(m state.Manager) Option             { return func(c *CDM) { c.ledger = m } }
func WithArchiver(a archive.Archiver) Option        { return func(c *CDM) { c.archiver = a } }
func WithConsole(w io.Writer) Option                { return func(c *CDM) { c.console = w } }
func WithLogger(l zerolog.Logger) Option            { return func(c *CDM) { c.log = l } }
func WithClock(now func() time.Time) Option         { return func(c *CDM) { c.now = now } }
func WithRunID(newID func() (string, error)) Option { return func(c *CDM) { c.newRunID = newID } }

// CDM : drives the cassandra data migrator through every (table, condition) of a job
// file, one invocation at a time
type CDM struct {
	cfg      *config.Config
	fs       afero.Fs
	resolver LauncherResolver
	invoker  runner.Invoker
	ledger   state.Manager
	archiver archive.Archiver
	console  io.Writer
	log      zerolog.Logger
	now      func() time.Time
	newRunID func() (string, error)
}

// NewCDM : runner over the os filesystem with an in memory ledger unless overridden
func NewCDM(cfg *config.Config, opts ...Option) *CDM {
	c := &CDM{
		cfg:     cfg,
		fs:      afero.NewOsFs(),
		ledger:  state.NewMemoryManager(),
		console: os.Stdout,
		log:     zerolog.Nop(),
		now:     time.Now,
		newRunID: func() (string, error) {
			uid, err := uuid.NewV4()
			if err != nil {
				return "", err
			}
			return uid.String(), nil
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.resolver == nil {
		c.resolver = runner.NewResolver(c.fs, cfg.Engine)
	}
	if c.invoker == nil {
		c.invoker = runner.NewProcessInvoker(c.fs, c.log)
	}
	return c
}

// Run : LOADING -> RESOLVING -> EXPANDING -> EXECUTING -> DONE. a fatal error while
// loading or resolving ends the run in ABORTED_BEFORE_START and is returned. failed tasks
// are not an error, they are in the report
func (c *CDM) Run(ctx context.Context) (*Report, error) {
	rep := &Report{Phase: PhaseLoading, StartedAt: c.now()}
	runID, err := c.newRunID()
	if err != nil {
		return c.abortWithoutSummary(rep, fmt.Errorf("could not generate run id : %w", err))
	}
	rep.RunID = runID
	log := c.log.With().Str("run_id", runID).Logger()

	summary, err := report.Open(c.fs, c.cfg.LogDir, rep.StartedAt, c.cfg.Engine.PartitionColumn, c.console)
	if err != nil {
		return c.abortWithoutSummary(rep, err)
	}
	defer summary.Close()
	summary.Now = c.now
	rep.SummaryPath = summary.Path()
	c.ledgerWarn(log, "init run", c.ledger.InitRunLog(ctx, runID))

	loaded, err := job.NewLoader(c.fs, c.cfg.Naming()).Load(c.cfg.InputFile)
	if err != nil {
		return c.abort(log, rep, summary, err)
	}
	rep.Skipped = loaded.Skipped
	if err := loaded.Err(); err != nil {
		log.Warn().Err(err).Int("skipped_entries", len(loaded.Skipped)).Msg("job file has incomplete entries")
	}
	for _, s := range loaded.Skipped {
		c.summaryWarn(log, summary.Skipped(s))
	}

	rep.Phase = PhaseResolving
	launcher, err := c.resolver.Resolve()
	if err != nil {
		return c.abort(log, rep, summary, err)
	}
	log.Info().Str("launcher", launcher).Msg("resolved launcher")

	rep.Phase = PhaseExpanding
	rep.Tasks = job.Expand(loaded.Specs, c.cfg.Naming())
	c.ledgerWarn(log, "plan run", c.ledger.PlanRunLog(ctx, runID, len(rep.Tasks), len(rep.Skipped)))
	log.Info().Int("tasks", len(rep.Tasks)).Int("skipped_entries", len(rep.Skipped)).Msg("expanded job file")

	rep.Phase = PhaseExecuting
	for _, t := range rep.Tasks {
		if ctx.Err() != nil {
			break
		}
		rep.Results = append(rep.Results, c.runTask(ctx, log, runID, launcher, t, summary))
	}
	if ctx.Err() != nil {
		return c.interrupt(log, rep, summary)
	}

	rep.Phase = PhaseDone
	fctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()
	if failed := rep.Failed(); failed > 0 {
		c.ledgerWarn(log, "finish run", c.ledger.FailedRunLog(fctx, runID, fmt.Errorf("%d of %d tasks failed", failed, len(rep.Results))))
	} else {
		c.ledgerWarn(log, "finish run", c.ledger.PassedRunLog(fctx, runID))
	}
	log.Info().Int("succeeded", rep.Succeeded()).Int("failed", rep.Failed()).
		Int("summary_lines", summary.Lines()).Str("summary", rep.SummaryPath).Msg("run done")
	c.archive(fctx, log, rep)
	return rep, nil
}

// Plan : loads and expands the job file. nothing is resolved or executed, descriptors
// name the launcher as configured
func (c *CDM) Plan() (*Plan, error) {
	loaded, err := job.NewLoader(c.fs, c.cfg.Naming()).Load(c.cfg.InputFile)
	if err != nil {
		return nil, err
	}
	p := &Plan{Skipped: loaded.Skipped, Tasks: job.Expand(loaded.Specs, c.cfg.Naming())}
	for _, t := range p.Tasks {
		p.Descriptors = append(p.Descriptors, command.Build(c.cfg.Engine.Launcher, t, c.cfg.Engine))
	}
	return p, nil
}

func (c *CDM) runTask(ctx context.Context, log zerolog.Logger, runID string, launcher string, t job.Task, summary *report.Logger) runner.Result {
	logPath := filepath.Join(c.cfg.LogDir, report.TaskLogName(t.Target, c.now(), t.Seq))
	desc := command.Build(launcher, t, c.cfg.Engine)
	if e := log.Debug(); e.Enabled() {
		e.Int("seq", t.Seq).Str("descriptor", spew.Sdump(desc)).Msg("built invocation")
	}

	summary.Starting(t)
	c.ledgerWarn(log, "init task", c.ledger.InitTaskRunLog(ctx, runID, &state.TaskRunLog{
		Seq:         t.Seq,
		OriginTable: t.Origin.String(),
		TargetTable: t.Target.String(),
		Condition:   t.Condition,
		LogFile:     filepath.Base(logPath),
	}))

	res := c.invoker.Invoke(ctx, desc, logPath)
	res.Task = t
	c.summaryWarn(log, summary.Result(res))

	ev := log.Info()
	if !res.Succeeded() {
		ev = log.Warn().Err(res.Err)
	}
	ev.Int("seq", t.Seq).
		Str("origin", t.Origin.String()).
		Str("target", t.Target.String()).
		Int("exit_code", res.ExitCode).
		Dur("took", res.Duration()).
		Str("log", logPath).
		Msg(report.Status(res))

	// the run context may already be cancelled here, the ledger still gets the outcome
	lctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()
	if res.Succeeded() {
		c.ledgerWarn(log, "finish task", c.ledger.PassedTaskRun(lctx, runID, t.Seq))
	} else {
		var code *int
		if res.Err == nil {
			exit := res.ExitCode
			code = &exit
		}
		c.ledgerWarn(log, "finish task", c.ledger.FailedTaskRun(lctx, runID, t.Seq, code, res.Err))
	}
	return res
}

func (c *CDM) abort(log zerolog.Logger, rep *Report, summary *report.Logger, err error) (*Report, error) {
	rep.Phase = PhaseAbortedBeforeStart
	rep.Err = err
	c.summaryWarn(log, summary.Error(err))
	log.Error().Err(err).Int("summary_lines", summary.Lines()).Msg("run aborted before start")

	fctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()
	c.ledgerWarn(log, "abort run", c.ledger.AbortedRunLog(fctx, rep.RunID, err))
	c.archive(fctx, log, rep)
	return rep, err
}

// abortWithoutSummary : nothing can be appended when the summary itself failed to open
func (c *CDM) abortWithoutSummary(rep *Report, err error) (*Report, error) {
	rep.Phase = PhaseAbortedBeforeStart
	rep.Err = err
	fmt.Fprintf(c.console, "%s %s: %v\n", c.now().Format("[2006-01-02 15:04:05]"), report.StatusError, err)
	c.log.Error().Err(err).Msg("run aborted before start")
	return rep, err
}

func (c *CDM) interrupt(log zerolog.Logger, rep *Report, summary *report.Logger) (*Report, error) {
	rep.Phase = PhaseInterrupted
	rep.Err = fmt.Errorf("%w after %d of %d tasks", ErrInterrupted, len(rep.Results), len(rep.Tasks))
	log.Warn().Int("not_started", rep.NotStarted()).Msg("run interrupted")
	c.summaryWarn(log, summary.Error(rep.Err))

	fctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()
	c.ledgerWarn(log, "abort run", c.ledger.AbortedRunLog(fctx, rep.RunID, rep.Err))
	c.archive(fctx, log, rep)
	return rep, rep.Err
}

func (c *CDM) archive(ctx context.Context, log zerolog.Logger, rep *Report) {
	if c.archiver == nil || rep.SummaryPath == "" {
		return
	}
	files := []string{rep.SummaryPath}
	for _, res := range rep.Results {
		if ok, _ := afero.Exists(c.fs, res.LogPath); ok {
			files = append(files, res.LogPath)
		}
	}
	if err := c.archiver.Archive(ctx, rep.RunID, rep.StartedAt, files); err != nil {
		log.Warn().Err(err).Msg("archiving run logs failed")
		return
	}
	log.Info().Int("files", len(files)).Msg("archived run logs")
}

func (c *CDM) ledgerWarn(log zerolog.Logger, op string, err error) {
	if err != nil {
		log.Warn().Err(err).Str("op", op).Msg("run ledger write failed")
	}
}

func (c *CDM) summaryWarn(log zerolog.Logger, err error) {
	if err != nil {
		log.Warn().Err(err).Msg("summary write failed")
	}
}
