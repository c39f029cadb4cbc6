package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baderkha/cdm-runner/pkg/migrate"
	"github.com/baderkha/cdm-runner/pkg/migrate/archive"
	"github.com/baderkha/cdm-runner/pkg/migrate/config"
	"github.com/baderkha/cdm-runner/pkg/migrate/connection"
	"github.com/baderkha/cdm-runner/pkg/migrate/ddl"
	"github.com/baderkha/cdm-runner/pkg/migrate/errs"
	"github.com/baderkha/cdm-runner/pkg/migrate/state"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

const (
	exitAborted     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

// ExitError : carries the process exit code out of run
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, afero.NewOsFs(), os.Getenv)
	stop()
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Err)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitAborted)
	}
}

type globalFlags struct {
	configPath string
	inputFile  string
	logDir     string
	logLevel   string
}

func (g *globalFlags) add(fs *pflag.FlagSet) {
	fs.StringVar(&g.configPath, "config", "", "yaml run configuration (default: "+config.DefaultPath+" when present)")
	fs.StringVar(&g.inputFile, "input", "", "job file, overrides the configured input_file")
	fs.StringVar(&g.logDir, "log-dir", "", "directory for the summary and task logs")
	fs.StringVar(&g.logLevel, "log-level", "info", "debug, info, warn or error")
}

func usage(out io.Writer) {
	fmt.Fprint(out, `usage: local <command> [flags]

commands:
  run          copy every (table, condition) of the job file through cdm
  plan         print the invocations a run would make without executing them
  clone-table  create a table from a ddl file with its name replaced
`)
}

func run(ctx context.Context, args []string, out io.Writer, errOut io.Writer, fsys afero.Fs, env config.Env) error {
	if len(args) == 0 {
		usage(errOut)
		return &ExitError{Code: exitUsage, Err: errors.New("no command given")}
	}
	switch args[0] {
	case "run":
		return runCmd(ctx, args[1:], out, errOut, fsys, env)
	case "plan":
		return planCmd(args[1:], out, errOut, fsys, env)
	case "clone-table":
		return cloneCmd(ctx, args[1:], out, errOut, fsys, env)
	case "help", "-h", "--help":
		usage(out)
		return nil
	default:
		usage(errOut)
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("unknown command %q", args[0])}
	}
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return &ExitError{Code: exitUsage, Err: err}
	}
	return nil
}

// setup : logger and configuration shared by every command
func setup(g globalFlags, errOut io.Writer, fsys afero.Fs, env config.Env) (*config.Config, zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(g.logLevel)
	if err != nil {
		return nil, zerolog.Nop(), &ExitError{Code: exitUsage, Err: fmt.Errorf("invalid --log-level %q", g.logLevel)}
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: errOut, TimeFormat: time.DateTime}).
		Level(level).With().Timestamp().Logger()

	path := g.configPath
	if path == "" {
		if ok, _ := afero.Exists(fsys, config.DefaultPath); ok {
			path = config.DefaultPath
		}
	}
	cfg, err := config.Load(fsys, path, env)
	if err != nil {
		return nil, log, err
	}
	if g.inputFile != "" {
		cfg.InputFile = g.inputFile
	}
	if g.logDir != "" {
		cfg.LogDir = g.logDir
	}
	log.Debug().Str("config", path).Str("input", cfg.InputFile).Str("log_dir", cfg.LogDir).Msg("loaded configuration")
	return cfg, log, nil
}

func runCmd(ctx context.Context, args []string, out io.Writer, errOut io.Writer, fsys afero.Fs, env config.Env) error {
	var g globalFlags
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	g.add(fs)
	if err := parse(fs, args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	cfg, log, err := setup(g, errOut, fsys, env)
	if err != nil {
		return err
	}

	opts := []migrate.Option{migrate.WithFs(fsys), migrate.WithConsole(out), migrate.WithLogger(log)}
	if cfg.Ledger.Enabled() {
		db, err := connection.DialMysql(ctx, &cfg.Ledger, log)
		if err != nil {
			return err
		}
		ledger, err := state.NewSQLManager(ctx, db)
		if err != nil {
			_ = db.Close()
			return err
		}
		defer ledger.Close()
		opts = append(opts, migrate.WithLedger(ledger))
	}
	if cfg.Archive.Enabled() {
		archiver, err := archive.NewS3Archiver(fsys, cfg.Archive, log)
		if err != nil {
			return err
		}
		opts = append(opts, migrate.WithArchiver(archiver))
	}

	runner := migrate.NewCDM(cfg, opts...)
	rep, err := runner.Run(ctx)
	if rep != nil {
		fmt.Fprintf(out, "Run %s %s: %d succeeded, %d failed, %d skipped entries. Summary: %s\n",
			rep.RunID, rep.Phase, rep.Succeeded(), rep.Failed(), len(rep.Skipped), rep.SummaryPath)
	}
	switch {
	case errors.Is(err, migrate.ErrInterrupted):
		return &ExitError{Code: exitInterrupted, Err: err}
	case err != nil:
		return &ExitError{Code: exitAborted, Err: err}
	}
	return nil
}

func planCmd(args []string, out io.Writer, errOut io.Writer, fsys afero.Fs, env config.Env) error {
	var g globalFlags
	fs := pflag.NewFlagSet("plan", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	g.add(fs)
	if err := parse(fs, args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	cfg, _, err := setup(g, errOut, fsys, env)
	if err != nil {
		return err
	}
	p, err := migrate.NewCDM(cfg, migrate.WithFs(fsys)).Plan()
	if err != nil {
		return &ExitError{Code: exitAborted, Err: err}
	}
	for _, s := range p.Skipped {
		fmt.Fprintf(out, "SKIPPED: Incomplete entry #%d: %s (%s)\n", s.Index, s.Raw, s.Reason)
	}
	for i, d := range p.Descriptors {
		fmt.Fprintf(out, "%04d %s\n", p.Tasks[i].Seq, shellQuote(d.Argv()))
	}
	fmt.Fprintf(out, "%d tasks, %d skipped entries\n", len(p.Tasks), len(p.Skipped))
	return nil
}

func cloneCmd(ctx context.Context, args []string, out io.Writer, errOut io.Writer, fsys afero.Fs, env config.Env) error {
	var g globalFlags
	var req ddl.CloneRequest
	fs := pflag.NewFlagSet("clone-table", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	g.add(fs)
	fs.StringVar(&req.DDLPath, "ddl", "", "cql file holding the original CREATE TABLE")
	fs.StringVar(&req.Original, "from", "", "qualified table name in the ddl")
	fs.StringVar(&req.New, "to", "", "qualified name of the table to create")
	if err := parse(fs, args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if req.DDLPath == "" || req.Original == "" || req.New == "" {
		return &ExitError{Code: exitUsage, Err: errors.New("--ddl, --from and --to are required")}
	}
	cfg, log, err := setup(g, errOut, fsys, env)
	if err != nil {
		return err
	}
	if err := cfg.Cluster.Validate(); err != nil {
		return &ExitError{Code: exitAborted, Err: errs.New(errs.Config, "validate cluster", err)}
	}
	output, err := ddl.NewCloner(fsys, ddl.NewCqlsh(cfg.Cluster), log).Clone(ctx, req)
	if err != nil {
		return &ExitError{Code: exitAborted, Err: err}
	}
	if output != "" {
		fmt.Fprintln(out, output)
	}
	fmt.Fprintf(out, "Created %s from %s\n", req.New, req.DDLPath)
	return nil
}
